// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

//nolint:testifylint
package record

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDocumentJSON(t *testing.T) {
	doc, err := LoadDocument(strings.NewReader(`{"title": "Moby Dick", "pages": 635}`))
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Moby Dick", "pages": float64(635)}, doc)
}

func TestLoadDocumentYAML(t *testing.T) {
	doc, err := LoadDocument(strings.NewReader("title: Moby Dick\nauthor: melville\n"))
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Moby Dick", "author": "melville"}, doc)
}

func TestLoadDocumentInvalid(t *testing.T) {
	_, err := LoadDocument(strings.NewReader("{invalid"))
	assert.Error(t, err)
}

func TestGetReaderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"title": "Omoo"}`), 0o600))

	source, err := GetReader(path, false)
	assert.NoError(t, err)

	defer source.Close()

	data, err := io.ReadAll(source)
	assert.NoError(t, err)
	assert.Equal(t, `{"title": "Omoo"}`, string(data))
}

func TestGetReaderFromStdin(t *testing.T) {
	source, err := GetReader("", true)
	assert.NoError(t, err)
	assert.NotNil(t, source)
	assert.NoError(t, source.Close())
}

func TestGetReaderWithoutSource(t *testing.T) {
	_, err := GetReader("", false)
	assert.Error(t, err)
}
