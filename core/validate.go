package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MaxIDLength leaves room for the ".json" suffix within the usual 255 byte
// file name limit.
const MaxIDLength = 250

// ValidateID reports whether id is safe to embed in a file name. Allowed
// characters are ASCII letters, digits, '.', '_' and '-'; "." and ".." are
// rejected.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id must not be empty", ErrInvalidID)
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%w: id longer than %d bytes", ErrInvalidID, MaxIDLength)
	}
	if id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-':
		default:
			return fmt.Errorf("%w: character %q not allowed", ErrInvalidID, c)
		}
	}
	return nil
}

// CompactData validates data and returns its compact encoding, which is the
// form every store persists.
func CompactData(data json.RawMessage) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidData)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return buf.Bytes(), nil
}
