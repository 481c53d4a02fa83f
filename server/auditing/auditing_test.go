// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

//nolint:testifylint
package auditing

import (
	"testing"
	"time"

	"github.com/datarest/datarest/api/hal"
	storetypes "github.com/datarest/datarest/server/store/types"
	"github.com/stretchr/testify/assert"
)

type trackedDoc struct {
	modified time.Time
}

func (d trackedDoc) LastModifiedAt() time.Time { return d.modified }

func TestWrapperFor(t *testing.T) {
	factory := New()
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	t.Run("audited content", func(t *testing.T) {
		wrapper, ok := factory.WrapperFor(trackedDoc{modified: now})
		assert.True(t, ok)

		at, ok := wrapper.LastModified()
		assert.True(t, ok)
		assert.Equal(t, now, at)
	})

	t.Run("tracked but unset timestamp", func(t *testing.T) {
		wrapper, ok := factory.WrapperFor(trackedDoc{})
		assert.True(t, ok, "wrapper exists even without a usable timestamp")

		_, ok = wrapper.LastModified()
		assert.False(t, ok)
	})

	t.Run("stored record", func(t *testing.T) {
		record := storetypes.NewRecord("books", "1", nil)
		record.CreatedAtVal = now
		record.UpdatedAtVal = now.Add(time.Hour)

		wrapper, ok := factory.WrapperFor(record)
		assert.True(t, ok)
		assert.Equal(t, now, wrapper.CreatedAt())

		at, ok := wrapper.LastModified()
		assert.True(t, ok)
		assert.Equal(t, now.Add(time.Hour), at)
	})

	t.Run("resource unwraps to content", func(t *testing.T) {
		wrapper, ok := factory.WrapperFor(hal.NewResource(trackedDoc{modified: now}))
		assert.True(t, ok)

		at, ok := wrapper.LastModified()
		assert.True(t, ok)
		assert.Equal(t, now, at)
	})

	t.Run("absence is silent", func(t *testing.T) {
		for name, obj := range map[string]any{
			"nil":              nil,
			"plain struct":     struct{ Title string }{Title: "a"},
			"nil resource":     (*hal.Resource)(nil),
			"untracked source": hal.NewResource(map[string]any{"title": "a"}),
		} {
			t.Run(name, func(t *testing.T) {
				wrapper, ok := factory.WrapperFor(obj)
				assert.False(t, ok)
				assert.Nil(t, wrapper)
			})
		}
	})
}
