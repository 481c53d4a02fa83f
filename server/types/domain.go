package types

import "time"

// Entity is anything addressable by a stable identifier.
type Entity interface {
	// ID returns the identifier of the entity within its collection.
	ID() string
}

// Versioned is implemented by content carrying an optimistic-lock version.
// A zero version means the content is not versioned.
type Versioned interface {
	Version() int64
}

// Audited is implemented by content that tracks modification time.
// A zero time means tracked but not yet set.
type Audited interface {
	LastModifiedAt() time.Time
}

// Record represents a unified interface for working with stored documents
// regardless of their underlying storage backend.
type Record interface {
	Entity

	// Collection returns the name of the collection holding the record.
	Collection() string

	// Doc returns the document body. Returns nil if no body is present.
	Doc() map[string]any

	// Version returns the optimistic-lock version, starting at 1.
	Version() int64

	// CreatedAt returns the creation timestamp. Zero means unset.
	CreatedAt() time.Time

	// UpdatedAt returns the last modification timestamp. Zero means unset.
	UpdatedAt() time.Time

	// CreatedBy returns the principal that created the record.
	CreatedBy() string

	// UpdatedBy returns the principal of the last modification.
	UpdatedBy() string
}
