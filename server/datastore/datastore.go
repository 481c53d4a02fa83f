// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package datastore

import (
	"errors"
	"fmt"

	"github.com/datarest/datarest/server/types"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/spf13/afero"
)

type options struct {
	fs afero.Fs
}

type Option func(*options) error

// WithFsProvider persists datastore contents under dir on the local
// filesystem. The directory is created if it does not exist.
func WithFsProvider(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.New("datastore directory must be set")
		}

		osFs := afero.NewOsFs()
		if err := osFs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create datastore directory: %w", err)
		}

		o.fs = afero.NewBasePathFs(osFs, dir)

		return nil
	}
}

// WithFs persists datastore contents on the given filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *options) error {
		o.fs = fs

		return nil
	}
}

// New creates a datastore with the given options.
// It defaults to an in-memory datastore when no provider is configured.
func New(opts ...Option) (types.Datastore, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("failed to apply datastore option: %w", err)
		}
	}

	if o.fs == nil {
		return dssync.MutexWrap(datastore.NewMapDatastore()), nil
	}

	return dssync.MutexWrap(newFsDatastore(o.fs)), nil
}
