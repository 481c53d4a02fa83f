// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package datastore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	"github.com/spf13/afero"
)

const fileSuffix = ".data"

// fsDatastore keeps one file per key. File names are the hex-encoded
// key string so arbitrary keys never leak into filesystem paths.
type fsDatastore struct {
	fs afero.Fs
}

var _ datastore.Batching = (*fsDatastore)(nil)

func newFsDatastore(fs afero.Fs) *fsDatastore {
	return &fsDatastore{fs: fs}
}

func fileName(key datastore.Key) string {
	return hex.EncodeToString([]byte(key.String())) + fileSuffix
}

func keyOf(name string) (datastore.Key, error) {
	raw, err := hex.DecodeString(strings.TrimSuffix(name, fileSuffix))
	if err != nil {
		return datastore.Key{}, fmt.Errorf("failed to decode key from %q: %w", name, err)
	}

	return datastore.RawKey(string(raw)), nil
}

func (d *fsDatastore) Get(_ context.Context, key datastore.Key) ([]byte, error) {
	data, err := afero.ReadFile(d.fs, fileName(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, datastore.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}

	return data, nil
}

func (d *fsDatastore) Has(_ context.Context, key datastore.Key) (bool, error) {
	exists, err := afero.Exists(d.fs, fileName(key))
	if err != nil {
		return false, fmt.Errorf("failed to check key %s: %w", key, err)
	}

	return exists, nil
}

func (d *fsDatastore) GetSize(_ context.Context, key datastore.Key) (int, error) {
	info, err := d.fs.Stat(fileName(key))
	if errors.Is(err, os.ErrNotExist) {
		return -1, datastore.ErrNotFound
	}

	if err != nil {
		return -1, fmt.Errorf("failed to stat key %s: %w", key, err)
	}

	return int(info.Size()), nil
}

func (d *fsDatastore) Put(_ context.Context, key datastore.Key, value []byte) error {
	if err := afero.WriteFile(d.fs, fileName(key), value, 0o600); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}

	return nil
}

func (d *fsDatastore) Delete(_ context.Context, key datastore.Key) error {
	err := d.fs.Remove(fileName(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove key %s: %w", key, err)
	}

	return nil
}

func (d *fsDatastore) Query(_ context.Context, q query.Query) (query.Results, error) {
	infos, err := afero.ReadDir(d.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list datastore entries: %w", err)
	}

	entries := make([]query.Entry, 0, len(infos))

	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), fileSuffix) {
			continue
		}

		key, err := keyOf(info.Name())
		if err != nil {
			continue
		}

		entry := query.Entry{Key: key.String(), Size: int(info.Size())}

		if !q.KeysOnly {
			value, err := afero.ReadFile(d.fs, info.Name())
			if err != nil {
				return nil, fmt.Errorf("failed to read key %s: %w", key, err)
			}

			entry.Value = value
		}

		entries = append(entries, entry)
	}

	results := query.ResultsWithEntries(q, entries)

	return query.NaiveQueryApply(q, results), nil
}

func (d *fsDatastore) Sync(_ context.Context, _ datastore.Key) error {
	return nil
}

func (d *fsDatastore) Close() error {
	return nil
}

func (d *fsDatastore) Batch(_ context.Context) (datastore.Batch, error) {
	return datastore.NewBasicBatch(d), nil
}
