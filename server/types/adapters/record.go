package adapters

import (
	"time"

	storetypes "github.com/datarest/datarest/server/store/types"
	"github.com/datarest/datarest/server/types"
)

// RecordAdapter adapts a stored record to the types.Record interface
type RecordAdapter struct {
	record *storetypes.Record
}

// NewRecordAdapter creates a new RecordAdapter
func NewRecordAdapter(record *storetypes.Record) *RecordAdapter {
	return &RecordAdapter{record: record}
}

// Stored returns the underlying stored record
func (r *RecordAdapter) Stored() *storetypes.Record {
	return r.record
}

// ID implements types.Record interface
func (r *RecordAdapter) ID() string {
	if r.record == nil {
		return ""
	}

	return r.record.ID()
}

// Collection implements types.Record interface
func (r *RecordAdapter) Collection() string {
	if r.record == nil {
		return ""
	}

	return r.record.Collection()
}

// Doc implements types.Record interface
func (r *RecordAdapter) Doc() map[string]any {
	if r.record == nil {
		return nil
	}

	return r.record.Doc()
}

// Version implements types.Record interface
func (r *RecordAdapter) Version() int64 {
	if r.record == nil {
		return 0
	}

	return r.record.Version()
}

// CreatedAt implements types.Record interface
func (r *RecordAdapter) CreatedAt() time.Time {
	if r.record == nil {
		return time.Time{}
	}

	return r.record.CreatedAt()
}

// UpdatedAt implements types.Record interface
func (r *RecordAdapter) UpdatedAt() time.Time {
	if r.record == nil {
		return time.Time{}
	}

	return r.record.UpdatedAt()
}

// CreatedBy implements types.Record interface
func (r *RecordAdapter) CreatedBy() string {
	if r.record == nil {
		return ""
	}

	return r.record.CreatedBy()
}

// UpdatedBy implements types.Record interface
func (r *RecordAdapter) UpdatedBy() string {
	if r.record == nil {
		return ""
	}

	return r.record.UpdatedBy()
}

// RecordToStored converts a domain Record to its stored form
func RecordToStored(record types.Record) *storetypes.Record {
	// If it's already an adapter, return the stored record directly
	if adapter, ok := record.(*RecordAdapter); ok {
		return adapter.Stored()
	}

	if stored, ok := record.(*storetypes.Record); ok {
		return stored
	}

	// Otherwise, construct a new stored record from the domain interface
	return &storetypes.Record{
		IDVal:         record.ID(),
		CollectionVal: record.Collection(),
		DocVal:        record.Doc(),
		VersionVal:    record.Version(),
		CreatedAtVal:  record.CreatedAt(),
		UpdatedAtVal:  record.UpdatedAt(),
		CreatedByVal:  record.CreatedBy(),
		UpdatedByVal:  record.UpdatedBy(),
	}
}
