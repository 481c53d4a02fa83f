// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package localfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	localfsconfig "github.com/datarest/datarest/server/store/localfs/config"
	storetypes "github.com/datarest/datarest/server/store/types"
	"github.com/datarest/datarest/server/types"
	"github.com/datarest/datarest/utils/logging"
	"github.com/spf13/afero"
)

var logger = logging.Logger("store/localfs")

const (
	fileSuffix      = ".json"
	defaultPageSize = 20
)

// store keeps one JSON file per record under <dir>/<collection>/<id>.json.
// Identifiers are path-escaped before hitting the filesystem.
type store struct {
	fs afero.Fs
	mu sync.Mutex
}

var _ types.RepositoryAPI = (*store)(nil)

// New creates a filesystem-backed repository rooted at the configured
// directory.
func New(cfg localfsconfig.Config) (types.RepositoryAPI, error) {
	logger.Debug("Creating localfs store with config", "config", cfg)

	if cfg.Dir == "" {
		return nil, errors.New("store directory must be set")
	}

	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &store{fs: afero.NewBasePathFs(osFs, cfg.Dir)}, nil
}

func recordPath(collection, id string) string {
	return filepath.Join(url.PathEscape(collection), url.PathEscape(id)+fileSuffix)
}

func (s *store) List(ctx context.Context, collection string, req types.PageRequest) (*types.Page, error) {
	size := req.Size
	if size <= 0 {
		size = defaultPageSize
	}

	number := req.Number
	if number < 0 {
		number = 0
	}

	dir := url.PathEscape(collection)

	infos, err := afero.ReadDir(s.fs, dir)
	if errors.Is(err, os.ErrNotExist) {
		return &types.Page{Items: []any{}, Number: number, Size: size}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collection, err)
	}

	records := make([]*storetypes.Record, 0, len(infos))

	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), fileSuffix) {
			continue
		}

		record, err := s.readRecord(filepath.Join(dir, info.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read record %s: %w", info.Name(), err)
		}

		records = append(records, record)
	}

	sortRecords(records, req.Sort)

	total := int64(len(records))

	start := number * size
	if start > len(records) {
		start = len(records)
	}

	end := start + size
	if end > len(records) {
		end = len(records)
	}

	items := make([]any, 0, end-start)
	for _, record := range records[start:end] {
		items = append(items, record)
	}

	return &types.Page{
		Items:         items,
		Number:        number,
		Size:          size,
		TotalElements: total,
	}, nil
}

func (s *store) Get(_ context.Context, collection, id string) (types.Record, error) {
	record, err := s.readRecord(recordPath(collection, id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", types.ErrNotFound, collection, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	return record, nil
}

func (s *store) Save(_ context.Context, record types.Record) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := record.Doc()
	if doc == nil {
		doc = map[string]any{}
	}

	now := time.Now().UTC()
	path := recordPath(record.Collection(), record.ID())

	saved := &storetypes.Record{
		IDVal:         record.ID(),
		CollectionVal: record.Collection(),
		DocVal:        doc,
		VersionVal:    1,
		CreatedAtVal:  now,
		UpdatedAtVal:  now,
		CreatedByVal:  record.CreatedBy(),
		UpdatedByVal:  record.UpdatedBy(),
	}

	existing, err := s.readRecord(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
		// first write keeps the defaults above
	case err != nil:
		return nil, fmt.Errorf("failed to read record: %w", err)
	default:
		if version := record.Version(); version != 0 && version != existing.VersionVal {
			return nil, fmt.Errorf("%w: expected version %d, stored version is %d",
				types.ErrPreconditionFailed, version, existing.VersionVal)
		}

		saved.VersionVal = existing.VersionVal + 1
		saved.CreatedAtVal = existing.CreatedAtVal
		saved.CreatedByVal = existing.CreatedByVal
	}

	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create collection directory: %w", err)
	}

	data, err := json.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	if err := afero.WriteFile(s.fs, path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write record: %w", err)
	}

	return saved, nil
}

func (s *store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(recordPath(collection, id))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s/%s", types.ErrNotFound, collection, id)
	}

	if err != nil {
		return fmt.Errorf("failed to remove record: %w", err)
	}

	return nil
}

func (s *store) readRecord(path string) (*storetypes.Record, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	record := &storetypes.Record{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", path, err)
	}

	return record, nil
}

func sortRecords(records []*storetypes.Record, orders []types.Order) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, order := range orders {
			cmp := compareValues(sortValue(records[i], order.Property), sortValue(records[j], order.Property))
			if cmp == 0 {
				continue
			}

			if order.Descending {
				return cmp > 0
			}

			return cmp < 0
		}

		return records[i].IDVal < records[j].IDVal
	})
}

func sortValue(record *storetypes.Record, property string) any {
	switch property {
	case "id":
		return record.IDVal
	case "version":
		return record.VersionVal
	case "created_at":
		return record.CreatedAtVal
	case "updated_at":
		return record.UpdatedAtVal
	default:
		return record.DocVal[property]
	}
}

// compareValues orders missing values first so ascending output keeps
// them together.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case float64:
		if bv, ok := toFloat(b); ok {
			return compareFloats(av, bv)
		}
	case int64:
		if bv, ok := toFloat(b); ok {
			return compareFloats(float64(av), bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Equal(bv):
				return 0
			case av.Before(bv):
				return -1
			default:
				return 1
			}
		}
	}

	// Mixed types fall back to their rendered form.
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()

		return f, err == nil
	}

	return 0, false
}

func compareFloats(a, b float64) int {
	switch {
	case a == b:
		return 0
	case a < b:
		return -1
	default:
		return 1
	}
}
