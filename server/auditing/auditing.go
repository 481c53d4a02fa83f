// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package auditing

import (
	"time"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/server/types"
)

// Factory resolves auditing metadata wrappers for converted content.
type Factory struct{}

// New creates a new Factory.
func New() *Factory {
	return &Factory{}
}

// Ensure Factory implements types.AuditLookup interface
var _ types.AuditLookup = (*Factory)(nil)

// WrapperFor returns the auditing wrapper of obj. Resources are
// unwrapped to their content first. Objects without auditing support
// report absence, which is a normal outcome rather than an error.
func (f *Factory) WrapperFor(obj any) (types.AuditWrapper, bool) {
	if obj == nil {
		return nil, false
	}

	if res, ok := obj.(*hal.Resource); ok {
		if res == nil {
			return nil, false
		}

		return f.WrapperFor(res.Content)
	}

	switch content := obj.(type) {
	case types.Audited:
		return &auditedWrapper{content: content}, true
	case types.Record:
		return &recordWrapper{record: content}, true
	default:
		return nil, false
	}
}

// auditedWrapper adapts the Audited capability.
type auditedWrapper struct {
	content types.Audited
}

func (w *auditedWrapper) CreatedAt() time.Time {
	return time.Time{}
}

func (w *auditedWrapper) LastModified() (time.Time, bool) {
	at := w.content.LastModifiedAt()

	return at, !at.IsZero()
}

// recordWrapper reads auditing metadata straight off a stored record.
type recordWrapper struct {
	record types.Record
}

func (w *recordWrapper) CreatedAt() time.Time {
	return w.record.CreatedAt()
}

func (w *recordWrapper) LastModified() (time.Time, bool) {
	at := w.record.UpdatedAt()

	return at, !at.IsZero()
}
