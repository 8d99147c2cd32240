package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// ErrInvalidID is returned when an identifier cannot be parsed.
var ErrInvalidID = errors.New("invalid id")

// ID is the canonical identifier of every stored entity.
//
// New records get a ULID. Records written by older installs may carry a
// 24 character hexadecimal object id or an arbitrary string; ParseID
// canonicalises the first two forms and keeps anything else verbatim, so
// lookups fall back to plain string equality.
type ID string

// NewID returns a fresh, time-ordered identifier.
func NewID() ID {
	return ID(ulid.Make().String())
}

// ParseID normalises a client supplied identifier. Only an empty id is
// rejected.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if IsObjectID(s) {
		return ID(strings.ToLower(s)), nil
	}
	if _, err := ulid.ParseStrict(s); err == nil {
		return ID(strings.ToUpper(s)), nil
	}
	return ID(s), nil
}

// MustParseID is like ParseID but panics on error. Intended for tests and constants.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsObjectID reports whether s has the shape of a legacy object id.
func IsObjectID(s string) bool {
	if len(s) != 24 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id == "" }
