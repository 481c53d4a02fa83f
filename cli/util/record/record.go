// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// GetReader opens the document source: the named file when a path is
// given, standard input when fromStdin is set.
func GetReader(path string, fromStdin bool) (io.ReadCloser, error) {
	if path != "" {
		file, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}

		return file, nil
	}

	if fromStdin {
		return io.NopCloser(os.Stdin), nil
	}

	return nil, errors.New("no input source: provide a file path or --stdin")
}

// LoadDocument reads a JSON or YAML document into a map.
func LoadDocument(source io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	return doc, nil
}
