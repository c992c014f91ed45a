// Package feed defines the boundary to the external tabular source and its
// Google Sheets implementation.
package feed

import (
	"context"
	"errors"
)

// ErrRowNotFound reports a write-back miss: no feed row carries the key.
var ErrRowNotFound = errors.New("feed: row not found")

// Table is a rectangular snapshot of the feed: header row plus data rows.
// Rows may be ragged; consumers index defensively.
type Table struct {
	Header []string
	Rows   [][]string
}

// Source is the external tabular feed. Fetch returns the full current
// snapshot; UpdateStatus writes a new status into the row matching the
// external key.
type Source interface {
	Fetch(ctx context.Context) (*Table, error)
	UpdateStatus(ctx context.Context, externalKey, status string) error
}
