package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// TemporaryIDPrefix marks ids assigned by a client for entities that have not been persisted yet.
const TemporaryIDPrefix = "temp_"

var ErrInvalidID = errors.New("invalid id")

// ID identifies a graph node or edge. Persisted ids are decimal integers,
// temporary ids carry TemporaryIDPrefix.
type ID string

// NewTemporaryID returns a fresh client-side id.
func NewTemporaryID() ID {
	return ID(TemporaryIDPrefix + uuid.NewString())
}

// PersistedID builds an ID from a server-assigned integer.
func PersistedID(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// ParseID accepts a persisted integer id or a temporary id.
func ParseID(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, TemporaryIDPrefix) && len(raw) > len(TemporaryIDPrefix) {
		return ID(raw), nil
	}

	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ID(raw), nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidID, raw)
}

func (id ID) String() string {
	return string(id)
}

// IsTemporary reports whether the id still needs a server-assigned value.
func (id ID) IsTemporary() bool {
	return strings.HasPrefix(string(id), TemporaryIDPrefix)
}

// Int64 returns the persisted integer value.
func (id ID) Int64() (int64, bool) {
	if id.IsTemporary() {
		return 0, false
	}

	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, false
	}

	return n, true
}

// MarshalJSON writes persisted ids as numbers and temporary ids as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, ok := id.Int64(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}

	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a number, a decimal string, a temporary id or an
// empty string for an unset id.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		if s == "" {
			*id = ""

			return nil
		}

		parsed, err := ParseID(s)
		if err != nil {
			return err
		}

		*id = parsed

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, string(data))
	}

	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, string(data))
	}

	*id = PersistedID(v)

	return nil
}

// IDRef returns a pointer to id, convenient for edge endpoints.
func IDRef(id ID) *ID {
	return &id
}
