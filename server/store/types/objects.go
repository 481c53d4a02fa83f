package types

import (
	"time"

	"github.com/datarest/datarest/server/types"
)

// Record implements types.Record interface
// This is the concrete type returned by repository implementations
type Record struct {
	IDVal         string         `json:"id"`
	CollectionVal string         `json:"collection"`
	DocVal        map[string]any `json:"doc,omitempty"`
	VersionVal    int64          `json:"version"`
	CreatedAtVal  time.Time      `json:"created_at"`
	UpdatedAtVal  time.Time      `json:"updated_at"`
	CreatedByVal  string         `json:"created_by,omitempty"`
	UpdatedByVal  string         `json:"updated_by,omitempty"`
}

// Ensure Record implements types.Record interface
var _ types.Record = (*Record)(nil)

func (r *Record) ID() string           { return r.IDVal }
func (r *Record) Collection() string   { return r.CollectionVal }
func (r *Record) Doc() map[string]any  { return r.DocVal }
func (r *Record) Version() int64       { return r.VersionVal }
func (r *Record) CreatedAt() time.Time { return r.CreatedAtVal }
func (r *Record) UpdatedAt() time.Time { return r.UpdatedAtVal }
func (r *Record) CreatedBy() string    { return r.CreatedByVal }
func (r *Record) UpdatedBy() string    { return r.UpdatedByVal }

// NewRecord creates a new Record for the given collection and id
func NewRecord(collection, id string, doc map[string]any) *Record {
	if doc == nil {
		doc = make(map[string]any)
	}

	return &Record{
		IDVal:         id,
		CollectionVal: collection,
		DocVal:        doc,
	}
}
