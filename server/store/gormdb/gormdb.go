// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package gormdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/datarest/datarest/server/datastore"
	"github.com/datarest/datarest/server/store/cache"
	gormdbconfig "github.com/datarest/datarest/server/store/gormdb/config"
	storetypes "github.com/datarest/datarest/server/store/types"
	"github.com/datarest/datarest/server/types"
	"github.com/datarest/datarest/utils/logging"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var logger = logging.Logger("store/gormdb")

const defaultPageSize = 20

// row is the database shape of a stored record. Documents are kept as
// serialized JSON so collections stay schemaless.
type row struct {
	Collection string `gorm:"primaryKey"`
	ID         string `gorm:"primaryKey"`
	Doc        string
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CreatedBy  string
	UpdatedBy  string
}

func (row) TableName() string { return "records" }

type store struct {
	db *gorm.DB
}

var _ types.RepositoryAPI = (*store)(nil)

// New creates a sqlite-backed repository for the given config.
func New(cfg gormdbconfig.Config) (types.RepositoryAPI, error) {
	logger.Debug("Creating sqlite store with config", "config", cfg)

	if cfg.Path == "" {
		return nil, errors.New("database path must be set")
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&row{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store := &store{db: db}

	// If no cache is requested, return.
	if cfg.CacheDir == "" {
		return store, nil
	}

	cacheDS, err := datastore.New(datastore.WithFsProvider(cfg.CacheDir))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}

	return cache.Wrap(store, cacheDS), nil
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

	scope := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&row{}).Where("collection = ?", collection)
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	order, err := orderClause(req.Sort)
	if err != nil {
		return nil, err
	}

	var rows []row
	if err := scope().Order(order).Limit(size).Offset(number * size).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	items := make([]any, len(rows))

	for i := range rows {
		record, err := rows[i].toRecord()
		if err != nil {
			return nil, err
		}

		items[i] = record
	}

	return &types.Page{
		Items:         items,
		Number:        number,
		Size:          size,
		TotalElements: total,
	}, nil
}

func (s *store) Get(ctx context.Context, collection, id string) (types.Record, error) {
	var found row

	err := s.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).First(&found).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("%w: %s/%s", types.ErrNotFound, collection, id)
	case err != nil:
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	return found.toRecord()
}

func (s *store) Save(ctx context.Context, record types.Record) (types.Record, error) {
	doc := record.Doc()
	if doc == nil {
		doc = map[string]any{}
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	now := time.Now().UTC()

	var saved row

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing row

		err := tx.Where("collection = ? AND id = ?", record.Collection(), record.ID()).First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			saved = row{
				Collection: record.Collection(),
				ID:         record.ID(),
				Doc:        string(docJSON),
				Version:    1,
				CreatedAt:  now,
				UpdatedAt:  now,
				CreatedBy:  record.CreatedBy(),
				UpdatedBy:  record.UpdatedBy(),
			}

			return tx.Create(&saved).Error

		case err != nil:
			return err
		}

		if version := record.Version(); version != 0 && version != existing.Version {
			return fmt.Errorf("%w: expected version %d, stored version is %d",
				types.ErrPreconditionFailed, version, existing.Version)
		}

		saved = existing
		saved.Doc = string(docJSON)
		saved.Version = existing.Version + 1
		saved.UpdatedAt = now
		saved.UpdatedBy = record.UpdatedBy()

		return tx.Save(&saved).Error
	})
	if err != nil {
		if errors.Is(err, types.ErrPreconditionFailed) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	return saved.toRecord()
}

func (s *store) Delete(ctx context.Context, collection, id string) error {
	result := s.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).Delete(&row{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete record: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", types.ErrNotFound, collection, id)
	}

	return nil
}

func (r *row) toRecord() (*storetypes.Record, error) {
	doc := map[string]any{}
	if r.Doc != "" {
		if err := json.Unmarshal([]byte(r.Doc), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
	}

	return &storetypes.Record{
		IDVal:         r.ID,
		CollectionVal: r.Collection,
		DocVal:        doc,
		VersionVal:    r.Version,
		CreatedAtVal:  r.CreatedAt,
		UpdatedAtVal:  r.UpdatedAt,
		CreatedByVal:  r.CreatedBy,
		UpdatedByVal:  r.UpdatedBy,
	}, nil
}

var (
	docPathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

	sortColumns = map[string]string{
		"id":         "id",
		"version":    "version",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
)

func orderClause(sort []types.Order) (string, error) {
	parts := make([]string, 0, len(sort)+1)
	explicitID := false

	for _, order := range sort {
		column, ok := sortColumns[order.Property]
		if ok {
			explicitID = explicitID || column == "id"
		} else {
			if !docPathPattern.MatchString(order.Property) {
				return "", fmt.Errorf("%w: cannot sort by %q", types.ErrInvalidRequest, order.Property)
			}

			column = fmt.Sprintf("json_extract(doc, '$.%s')", order.Property)
		}

		if order.Descending {
			column += " DESC"
		}

		parts = append(parts, column)
	}

	// Secondary order keeps pages stable.
	if !explicitID {
		parts = append(parts, "id")
	}

	return strings.Join(parts, ", "), nil
}
