// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

//nolint:wrapcheck
package cache

import (
	"context"
	"encoding/json"
	"errors"

	storetypes "github.com/datarest/datarest/server/store/types"
	"github.com/datarest/datarest/server/types"
	"github.com/datarest/datarest/server/types/adapters"
	"github.com/ipfs/go-datastore"
)

type store struct {
	cache  types.Datastore
	source types.RepositoryAPI
}

// TODO: benchmark cached vs non-cached.
func Wrap(source types.RepositoryAPI, cache types.Datastore) types.RepositoryAPI {
	if cache == nil {
		return source
	}

	return &store{
		cache:  cache,
		source: source,
	}
}

func (s *store) List(ctx context.Context, collection string, req types.PageRequest) (*types.Page, error) {
	return s.source.List(ctx, collection, req)
}

func (s *store) Get(ctx context.Context, collection, id string) (types.Record, error) {
	// read cache
	found, cachedRecord, _ := s.cacheRead(ctx, collection, id)
	if found {
		return cachedRecord, nil
	}

	// fetch from source
	record, err := s.source.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}

	// write cache
	_ = s.cacheWrite(ctx, record)

	return record, nil
}

func (s *store) Save(ctx context.Context, record types.Record) (types.Record, error) {
	// save record
	saved, err := s.source.Save(ctx, record)
	if err != nil {
		return nil, err
	}

	// write cache
	_ = s.cacheWrite(ctx, saved)

	return saved, nil
}

func (s *store) Delete(ctx context.Context, collection, id string) error {
	// delete
	if err := s.source.Delete(ctx, collection, id); err != nil {
		return err
	}

	// remove cache key
	_ = s.cache.Delete(ctx, getCacheKey(collection, id))

	return nil
}

func (s *store) cacheRead(ctx context.Context, collection, id string) (bool, types.Record, error) {
	cacheKey := getCacheKey(collection, id)

	// check cache
	exists, err := s.cache.Has(ctx, cacheKey)
	if err != nil {
		return false, nil, err
	}

	if !exists {
		return false, nil, errors.New("not found")
	}

	// read cache
	cachedData, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		return false, nil, err
	}

	// convert record
	cachedRecord := &storetypes.Record{}
	if err := json.Unmarshal(cachedData, cachedRecord); err != nil {
		return false, nil, err
	}

	// return cache
	return true, adapters.NewRecordAdapter(cachedRecord), nil
}

func (s *store) cacheWrite(ctx context.Context, record types.Record) error {
	// convert record
	toCache, err := json.Marshal(adapters.RecordToStored(record))
	if err != nil {
		return err
	}

	// write cache
	cacheKey := getCacheKey(record.Collection(), record.ID())

	err = s.cache.Put(ctx, cacheKey, toCache)
	if err != nil {
		return err
	}

	return nil
}

func getCacheKey(collection, id string) datastore.Key {
	return datastore.KeyWithNamespaces([]string{"records", collection, id})
}
