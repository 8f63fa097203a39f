package versioning

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	contentHashRe = regexp.MustCompile(`^[0-9a-f]{64}$`)
	signedIntRe   = regexp.MustCompile(`^-?[0-9]+$`)
)

// Resolution is the outcome of resolving a version reference against an
// entity's history.
type Resolution struct {
	// TransactionID anchors the resolved version snapshot.
	TransactionID int64
	// Hash is the content-hash row behind the reference, nil when an
	// index reference lands on a raw revision no checkpoint covered.
	Hash *string
	// Index is the zero-based position in ascending transaction order.
	Index int64
}

// resolveRef maps a reference string onto the entity's raw history.
//
// Grammar, checked in order: a 64-char lowercase hex string is a content
// hash; a leading "~" takes an index into the raw history, negative
// counting from the end; anything else is a tag name matched exactly.
func (vs *versionService) resolveRef(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, ref string) (*Resolution, error) {
	const op = "versioning.Resolve"

	if contentHashRe.MatchString(ref) {
		hashRow, err := vs.versionHashRepo.FindByContentHash(ctx, tx, entityID, ref)
		if err != nil {
			return nil, NewError(CodeInternal, op, "look up content hash", err)
		}
		if hashRow == nil {
			return nil, NewError(CodeNotFound, op,
				fmt.Sprintf("no version with content hash %q", ref), nil)
		}
		return vs.resolutionForAnchor(ctx, tx, entityID, hashRow.TransactionID, hashRow.ContentHash)
	}

	if strings.HasPrefix(ref, "~") {
		raw := ref[1:]
		if !signedIntRe.MatchString(raw) {
			return nil, NewError(CodeInvalidReference, op,
				fmt.Sprintf("index reference %q is not an integer", ref), nil)
		}
		index, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, NewError(CodeInvalidReference, op,
				fmt.Sprintf("index reference %q is not an integer", ref), nil)
		}
		return vs.resolveIndex(ctx, tx, entityID, index)
	}

	tag, err := vs.versionHashRepo.FindTag(ctx, tx, entityID, ref)
	if err != nil {
		return nil, NewError(CodeInternal, op, "look up tag", err)
	}
	if tag == nil {
		return nil, NewError(CodeNotFound, op,
			fmt.Sprintf("no version tagged %q", ref), nil)
	}
	hashRow, err := vs.versionHashRepo.GetByID(ctx, tx, tag.VersionHashID)
	if err != nil {
		return nil, NewError(CodeInternal, op, "load tagged version", err)
	}
	if hashRow == nil {
		return nil, NewError(CodeInternal, op,
			fmt.Sprintf("tag %q points at a missing version row", ref), nil)
	}
	return vs.resolutionForAnchor(ctx, tx, entityID, hashRow.TransactionID, hashRow.ContentHash)
}

// resolveIndex positions an index into the raw history, ascending by
// transaction id. Negative indexes count from the newest revision.
func (vs *versionService) resolveIndex(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, index int64) (*Resolution, error) {
	const op = "versioning.Resolve"

	total, err := vs.revisionRepo.CountByEntityID(ctx, tx, entityID)
	if err != nil {
		return nil, NewError(CodeInternal, op, "count revisions", err)
	}
	if total == 0 {
		return nil, NewError(CodeNotFound, op, "entity has no version history", nil)
	}

	position, ok := normalizeIndex(index, total)
	if !ok {
		return nil, NewError(CodeNotFound, op,
			fmt.Sprintf("index %d out of range for history of length %d", index, total), nil)
	}

	txID, found, err := vs.revisionRepo.TransactionIDAt(ctx, tx, entityID, position)
	if err != nil {
		return nil, NewError(CodeInternal, op, "read revision at index", err)
	}
	if !found {
		return nil, NewError(CodeNotFound, op,
			fmt.Sprintf("index %d out of range for history of length %d", index, total), nil)
	}

	var hash *string
	hashRow, err := vs.versionHashRepo.FindByTransactionID(ctx, tx, entityID, txID)
	if err != nil {
		return nil, NewError(CodeInternal, op, "look up hash for revision", err)
	}
	if hashRow != nil {
		h := hashRow.ContentHash
		hash = &h
	}

	return &Resolution{TransactionID: txID, Hash: hash, Index: position}, nil
}

// normalizeIndex maps a possibly negative history index onto the
// zero-based position, reporting false when out of range.
func normalizeIndex(index, total int64) (int64, bool) {
	position := index
	if position < 0 {
		position = total + position
	}
	if position < 0 || position >= total {
		return 0, false
	}
	return position, true
}

// resolutionForAnchor derives the history index of a hash-anchored
// transaction. The anchor must be backed by a raw revision at exactly that
// transaction; a checkpoint row with no snapshot behind it means the
// substrate failed.
func (vs *versionService) resolutionForAnchor(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionID int64, contentHash string) (*Resolution, error) {
	const op = "versioning.Resolve"

	rev, err := vs.revisionRepo.GetByTransactionID(ctx, tx, entityID, transactionID)
	if err != nil {
		return nil, NewError(CodeInternal, op, "read anchored revision", err)
	}
	if rev == nil {
		return nil, NewError(CodeInternal, op,
			fmt.Sprintf("version anchor transaction %d has no raw snapshot", transactionID), nil)
	}

	upTo, err := vs.revisionRepo.CountUpTo(ctx, tx, entityID, transactionID)
	if err != nil {
		return nil, NewError(CodeInternal, op, "index anchored revision", err)
	}

	h := contentHash
	return &Resolution{TransactionID: transactionID, Hash: &h, Index: upTo - 1}, nil
}
