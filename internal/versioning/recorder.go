package versioning

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mlfoundry/catalog-backend/internal/domain"
)

// Checkpoint is the result of recording a version: the hash row the
// content landed on and whether an existing identical version absorbed
// the write.
type Checkpoint struct {
	VersionHash  *domain.EntityVersionHash
	Deduplicated bool
}

func (vs *versionService) Checkpoint(ctx context.Context, tx *gorm.DB, asset *Asset, tags []string) (*Checkpoint, error) {
	const op = "versioning.Checkpoint"

	state, err := asset.FieldState()
	if err != nil {
		return nil, NewError(CodeInternal, op, "flatten asset fields", err)
	}
	contentHash, err := HashFieldState(state)
	if err != nil {
		return nil, NewError(CodeInternal, op, "hash asset fields", err)
	}

	var result *Checkpoint
	err = vs.inTransaction(ctx, tx, func(tx *gorm.DB) error {
		existing, err := vs.versionHashRepo.FindByContentHash(ctx, tx, asset.Entity.ID, contentHash)
		if err != nil {
			return NewError(CodeInternal, op, "look up content hash", err)
		}

		// The live rows commit whether or not the content dedups. A
		// reverted asset must still read back with the reverted values.
		asset.Entity.CurrentVersionHash = contentHash
		if err := vs.saveAsset(ctx, tx, asset); err != nil {
			return NewError(CodeInternal, op, "save live rows", err)
		}

		if existing != nil {
			if err := vs.applyTags(ctx, tx, existing, tags); err != nil {
				return err
			}
			result = &Checkpoint{VersionHash: existing, Deduplicated: true}
			return nil
		}

		created, err := vs.createHashRow(ctx, tx, asset.Entity.ID, contentHash)
		if err != nil {
			return err
		}
		if err := vs.applyTags(ctx, tx, created, tags); err != nil {
			return err
		}
		result = &Checkpoint{VersionHash: created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	vs.log.Info("checkpoint recorded",
		"entity_id", asset.Entity.ID,
		"content_hash", contentHash,
		"deduplicated", result.Deduplicated,
		"tags", tags)
	return result, nil
}

// createHashRow anchors a new content hash to the ledger transaction that
// snapshotted the save above. The insert runs inside a savepoint so a
// losing (entity, content_hash) race does not poison the enclosing
// transaction; the winner's row is re-read and reused.
func (vs *versionService) createHashRow(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, contentHash string) (*domain.EntityVersionHash, error) {
	const op = "versioning.Checkpoint"

	txID, ok, err := vs.substrate.CurrentTransactionID(tx)
	if err != nil {
		return nil, NewError(CodeInternal, op, "read ledger transaction", err)
	}
	if !ok {
		// Nothing changed in this transaction; anchor to the newest
		// existing snapshot instead.
		latest, found, err := vs.revisionRepo.LatestTransactionID(ctx, tx, entityID)
		if err != nil {
			return nil, NewError(CodeInternal, op, "read latest revision", err)
		}
		if !found {
			return nil, NewError(CodeInternal, op, "no raw snapshot to anchor the version to", nil)
		}
		txID = latest
	}

	row := &domain.EntityVersionHash{
		EntityID:      entityID,
		TransactionID: txID,
		ContentHash:   contentHash,
	}
	insertErr := tx.Transaction(func(sp *gorm.DB) error {
		_, err := vs.versionHashRepo.Create(ctx, sp, []*domain.EntityVersionHash{row})
		return err
	})
	if insertErr == nil {
		return row, nil
	}
	if !isUniqueViolation(insertErr) {
		return nil, NewError(CodeInternal, op, "create version hash", insertErr)
	}

	winner, err := vs.versionHashRepo.FindByContentHash(ctx, tx, entityID, contentHash)
	if err != nil {
		return nil, NewError(CodeInternal, op, "re-read version hash after race", err)
	}
	if winner == nil {
		return nil, NewError(CodeConflict, op,
			fmt.Sprintf("lost insert race for content hash %q and found no winner", contentHash), insertErr)
	}
	return winner, nil
}

func (vs *versionService) Tag(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, ref, tagName string) error {
	const op = "versioning.Tag"

	return vs.inTransaction(ctx, tx, func(tx *gorm.DB) error {
		res, err := vs.resolveRef(ctx, tx, entityID, ref)
		if err != nil {
			return err
		}
		if res.Hash == nil {
			return NewError(CodeNotFound, op,
				fmt.Sprintf("reference %q resolves to a revision no checkpoint covers", ref), nil)
		}
		hashRow, err := vs.versionHashRepo.FindByContentHash(ctx, tx, entityID, *res.Hash)
		if err != nil {
			return NewError(CodeInternal, op, "load version for tagging", err)
		}
		if hashRow == nil {
			return NewError(CodeInternal, op, "resolved version row disappeared", nil)
		}
		return vs.applyTags(ctx, tx, hashRow, []string{tagName})
	})
}

// applyTags attaches each tag to the version, idempotently. A tag that
// already points at this version is a no-op; one that points at another
// version of the same entity is a duplicate-tag error.
func (vs *versionService) applyTags(ctx context.Context, tx *gorm.DB, hashRow *domain.EntityVersionHash, tags []string) error {
	const op = "versioning.Tag"

	for _, name := range tags {
		existing, err := vs.versionHashRepo.FindTag(ctx, tx, hashRow.EntityID, name)
		if err != nil {
			return NewError(CodeInternal, op, "look up tag", err)
		}
		if existing != nil {
			if existing.VersionHashID == hashRow.ID {
				continue
			}
			return NewError(CodeDuplicateTag, op,
				fmt.Sprintf("tag %q already points at another version of this entity", name), nil)
		}

		tag := &domain.EntityVersionTag{
			VersionHashID: hashRow.ID,
			EntityID:      hashRow.EntityID,
			TagName:       name,
		}
		insertErr := tx.Transaction(func(sp *gorm.DB) error {
			return vs.versionHashRepo.AddTag(ctx, sp, tag)
		})
		if insertErr == nil {
			continue
		}
		if !isUniqueViolation(insertErr) {
			return NewError(CodeInternal, op, "create tag", insertErr)
		}

		// Lost a race on (entity, tag_name). Re-read and re-judge.
		winner, err := vs.versionHashRepo.FindTag(ctx, tx, hashRow.EntityID, name)
		if err != nil {
			return NewError(CodeInternal, op, "re-read tag after race", err)
		}
		if winner == nil || winner.VersionHashID != hashRow.ID {
			return NewError(CodeDuplicateTag, op,
				fmt.Sprintf("tag %q already points at another version of this entity", name), insertErr)
		}
	}
	return nil
}
