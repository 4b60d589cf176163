// Package pagination implements opaque cursors for keyset pagination.
// A cursor encodes the last seen row's ID and creation timestamp so a
// follow-up query can resume strictly after that row.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// Cursor is a decoded pagination position.
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

var ErrInvalidCursor = errors.New("invalid cursor format")

// EncodeCursor builds an opaque cursor from the last item's ID and
// creation timestamp. Returns "" for an empty ID.
func EncodeCursor(lastID string, timestamp time.Time) string {
	if lastID == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString(
		[]byte(lastID + "|" + timestamp.UTC().Format(time.RFC3339Nano)))
}

// DecodeCursor parses an opaque cursor. An empty cursor decodes to nil,
// meaning "start from the beginning".
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	id, stamp, found := strings.Cut(string(raw), "|")
	if !found || id == "" {
		return nil, ErrInvalidCursor
	}

	ts, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{LastID: id, Timestamp: ts}, nil
}
