package versioning

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrorCode classifies version-engine failures.
type ErrorCode string

const (
	// CodeNotFound: no raw history, or the hash/tag/index does not resolve.
	CodeNotFound ErrorCode = "not_found"
	// CodeInvalidReference: a ~ reference with a non-integer suffix.
	CodeInvalidReference ErrorCode = "invalid_reference"
	// CodeConflict: a concurrent checkpoint won the (entity, content_hash)
	// insert race. Resolved internally by the tag-merge fallback.
	CodeConflict ErrorCode = "conflict"
	// CodeDuplicateTag: the tag name already points at another version of
	// the same entity.
	CodeDuplicateTag ErrorCode = "duplicate_tag"
	// CodeInternal: substrate inconsistency, e.g. a hash row anchored to a
	// transaction with no backing raw snapshot.
	CodeInternal ErrorCode = "internal"
)

// Error is the canonical version-engine error.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a version-engine error with explicit code and operation.
func NewError(code ErrorCode, op, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

func codeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsNotFound(err error) bool         { return codeOf(err) == CodeNotFound }
func IsInvalidReference(err error) bool { return codeOf(err) == CodeInvalidReference }
func IsConflict(err error) bool         { return codeOf(err) == CodeConflict }
func IsDuplicateTag(err error) bool     { return codeOf(err) == CodeDuplicateTag }
func IsInternal(err error) bool         { return codeOf(err) == CodeInternal }

// isUniqueViolation reports whether err is a unique-constraint violation
// from the database.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "23505"
	}
	return false
}
