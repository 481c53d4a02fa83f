// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/datarest/datarest/server/types"
	"github.com/datarest/datarest/utils/logging"
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
)

var logger = logging.Logger("search")

// index maintains a term index for record documents in a datastore.
// Term entries live under /index/<collection>/<field>/<term>/<id>, and
// each record tracks its own term keys under /indexed/<collection>/<id>
// so stale terms are dropped on re-index. Top-level scalar document
// values are indexed, including scalar elements of array fields.
type index struct {
	dstore types.Datastore
}

var _ types.SearchAPI = (*index)(nil)

func New(dstore types.Datastore) (types.SearchAPI, error) {
	if dstore == nil {
		return nil, errors.New("search index requires a datastore")
	}

	return &index{dstore: dstore}, nil
}

func (s *index) Index(ctx context.Context, record types.Record) error {
	if record == nil {
		return fmt.Errorf("%w: missing record", types.ErrInvalidRequest)
	}

	logger.Debug("Indexing record", "collection", record.Collection(), "id", record.ID())

	if record.ID() == "" {
		return fmt.Errorf("%w: missing record id", types.ErrInvalidRequest)
	}

	recordKey := recordKey(record.Collection(), record.ID())

	// terms indexed by a previous write, if any
	oldKeys, err := s.indexedKeys(ctx, recordKey)
	if err != nil {
		return fmt.Errorf("failed to load indexed terms: %w", err)
	}

	newKeys := termKeys(record)

	batch, err := s.dstore.Batch(ctx)
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}

	for _, key := range oldKeys {
		if err := batch.Delete(ctx, datastore.NewKey(key)); err != nil {
			return fmt.Errorf("failed to delete term key: %w", err)
		}
	}

	for _, key := range newKeys {
		if err := batch.Put(ctx, datastore.NewKey(key), nil); err != nil {
			return fmt.Errorf("failed to put term key: %w", err)
		}
	}

	encoded, err := json.Marshal(newKeys)
	if err != nil {
		return fmt.Errorf("failed to encode term keys: %w", err)
	}

	if err := batch.Put(ctx, recordKey, encoded); err != nil {
		return fmt.Errorf("failed to put record key: %w", err)
	}

	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	logger.Debug("Indexed record", "collection", record.Collection(), "id", record.ID(), "terms", len(newKeys))

	return nil
}

func (s *index) Deindex(ctx context.Context, record types.Record) error {
	if record == nil {
		return fmt.Errorf("%w: missing record", types.ErrInvalidRequest)
	}

	logger.Debug("Deindexing record", "collection", record.Collection(), "id", record.ID())

	if record.ID() == "" {
		return fmt.Errorf("%w: missing record id", types.ErrInvalidRequest)
	}

	recordKey := recordKey(record.Collection(), record.ID())

	oldKeys, err := s.indexedKeys(ctx, recordKey)
	if err != nil {
		return fmt.Errorf("failed to load indexed terms: %w", err)
	}

	batch, err := s.dstore.Batch(ctx)
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}

	for _, key := range oldKeys {
		if err := batch.Delete(ctx, datastore.NewKey(key)); err != nil {
			return fmt.Errorf("failed to delete term key: %w", err)
		}
	}

	if err := batch.Delete(ctx, recordKey); err != nil {
		return fmt.Errorf("failed to delete record key: %w", err)
	}

	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

func (s *index) Query(ctx context.Context, collection, field, value string) ([]string, error) {
	logger.Debug("Querying index", "collection", collection, "field", field, "value", value)

	if field == "" || value == "" {
		return nil, fmt.Errorf("%w: search needs a field and a value", types.ErrInvalidRequest)
	}

	res, err := s.dstore.Query(ctx, query.Query{
		Prefix:   termPrefix(collection, field, value),
		KeysOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer res.Close()

	seen := make(map[string]struct{})

	var ids []string

	for entry := range res.Next() {
		if entry.Error != nil {
			return nil, fmt.Errorf("failed to read index entry: %w", entry.Error)
		}

		id, err := url.PathUnescape(path.Base(entry.Key))
		if err != nil {
			continue
		}

		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}

		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids, nil
}

func (s *index) indexedKeys(ctx context.Context, key datastore.Key) ([]string, error) {
	data, err := s.dstore.Get(ctx, key)
	if errors.Is(err, datastore.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return keys, nil
}

func recordKey(collection, id string) datastore.Key {
	return datastore.KeyWithNamespaces([]string{"indexed", url.PathEscape(collection), url.PathEscape(id)})
}

func termPrefix(collection, field, value string) string {
	return datastore.KeyWithNamespaces([]string{
		"index", url.PathEscape(collection), url.PathEscape(field), term(value),
	}).String()
}

func termKey(collection, field, value, id string) string {
	return termPrefix(collection, field, value) + "/" + url.PathEscape(id)
}

// term normalizes values so lookups are case-insensitive.
func term(value string) string {
	return url.PathEscape(strings.ToLower(strings.TrimSpace(value)))
}

func termKeys(record types.Record) []string {
	doc := record.Doc()

	keys := make([]string, 0, len(doc))

	for field, value := range doc {
		if elements, ok := value.([]any); ok {
			for _, element := range elements {
				if text, ok := termText(element); ok {
					keys = append(keys, termKey(record.Collection(), field, text, record.ID()))
				}
			}

			continue
		}

		text, ok := termText(value)
		if !ok {
			continue
		}

		keys = append(keys, termKey(record.Collection(), field, text, record.ID()))
	}

	sort.Strings(keys)

	return keys
}

func termText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}
