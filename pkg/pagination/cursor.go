// Package pagination provides the two listing styles the API exposes:
// keyset cursors (newest first) for customer feeds and numbered pages for
// admin tables.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// DefaultLimit is the cursor page size when the client sends none.
	DefaultLimit = 25
	// MaxLimit caps every listing, cursor or offset.
	MaxLimit = 100
)

// Params is a cursor page request. An empty Cursor starts from the newest row.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the (created_at, id) position of the last row a client has seen.
type Cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        uuid.UUID `json:"id"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer is the fetch size that lets NewCursorResult see whether
// another page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor renders c as an opaque URL-safe token.
func EncodeCursor(c Cursor) string {
	c.CreatedAt = c.CreatedAt.UTC()
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor decodes a token from EncodeCursor. Blank input yields nil.
func ParseCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("cursor is not valid base64url: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("cursor payload: %w", err)
	}
	if c.ID == uuid.Nil || c.CreatedAt.IsZero() {
		return nil, errors.New("cursor is missing its position")
	}
	return &c, nil
}

// NewestFirst is a GORM scope for keyset listings over tables with
// created_at and id columns. It orders newest first, resumes strictly after
// cursor and fetches one extra row.
func NewestFirst(cursor *Cursor, limit int) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if cursor != nil {
			q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
		return q.Order("created_at DESC").Order("id DESC").Limit(LimitWithBuffer(limit))
	}
}

// CursorResult is the envelope returned by keyset listings.
type CursorResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// NewCursorResult trims rows fetched with LimitWithBuffer and encodes the next
// cursor from the last kept row when more rows exist.
func NewCursorResult[T any](rows []T, limit int, position func(T) Cursor) CursorResult[T] {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		if rows == nil {
			rows = []T{}
		}
		return CursorResult[T]{Items: rows}
	}
	kept := rows[:limit]
	return CursorResult[T]{Items: kept, NextCursor: EncodeCursor(position(kept[limit-1]))}
}
