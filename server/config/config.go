// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/datarest/datarest/server/metadata"
	searchconfig "github.com/datarest/datarest/server/search/config"
	storeconfig "github.com/datarest/datarest/server/store/config"
	gormdbconfig "github.com/datarest/datarest/server/store/gormdb/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"
)

const (
	DefaultEnvPrefix = "DATAREST"

	DefaultListenAddress = "0.0.0.0:8888"

	DefaultPageSize = 20
	DefaultMaxSize  = 100

	// DefaultCollection is exposed when no collections are configured.
	DefaultCollection = "records"
)

var DefaultConfig = Config{
	ListenAddress:      DefaultListenAddress,
	DefaultPageSize:    DefaultPageSize,
	MaxPageSize:        DefaultMaxSize,
	ReturnBodyOnCreate: true,
	ReturnBodyOnUpdate: true,
	Store: storeconfig.Config{
		Provider: storeconfig.DefaultProvider,
		SQLite: gormdbconfig.Config{
			Path: gormdbconfig.DefaultPath,
		},
	},
}

type Config struct {
	// ListenAddress is the address the HTTP listener binds to.
	ListenAddress string `json:"listen_address,omitempty" mapstructure:"listen_address"`

	// BaseURL prefixes generated resource links. Empty keeps links
	// relative to the serving host.
	BaseURL string `json:"base_url,omitempty" mapstructure:"base_url"`

	// AuthSecret verifies bearer tokens. Empty disables authentication.
	AuthSecret string `json:"auth_secret,omitempty" mapstructure:"auth_secret"`

	// LogLevel overrides the process log level.
	LogLevel string `json:"log_level,omitempty" mapstructure:"log_level"`

	DefaultPageSize int `json:"default_page_size,omitempty" mapstructure:"default_page_size"`
	MaxPageSize     int `json:"max_page_size,omitempty"     mapstructure:"max_page_size"`

	// ReturnBodyOnCreate and ReturnBodyOnUpdate control whether write
	// responses carry the stored representation or just its headers.
	ReturnBodyOnCreate bool `json:"return_body_on_create,omitempty" mapstructure:"return_body_on_create"`
	ReturnBodyOnUpdate bool `json:"return_body_on_update,omitempty" mapstructure:"return_body_on_update"`

	// SPIFFE Workload API configuration for serving over mTLS.
	SpiffeSocketPath  string `json:"spiffe_socket_path,omitempty"  mapstructure:"spiffe_socket_path"`
	SpiffeTrustDomain string `json:"spiffe_trust_domain,omitempty" mapstructure:"spiffe_trust_domain"`

	// Collections names collections exposed with default settings.
	Collections []string `json:"collections,omitempty" mapstructure:"collections"`

	// CollectionsFile points at a YAML or JSON file with full
	// collection descriptors.
	CollectionsFile string `json:"collections_file,omitempty" mapstructure:"collections_file"`

	Search searchconfig.Config `json:"search,omitempty" mapstructure:"search"`
	Store  storeconfig.Config  `json:"store,omitempty"  mapstructure:"store"`
}

func LoadConfig() (*Config, error) {
	v := viper.NewWithOptions(
		viper.KeyDelimiter("."),
		viper.EnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_")),
	)

	v.SetEnvPrefix(DefaultEnvPrefix)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	_ = v.BindEnv("listen_address")
	v.SetDefault("listen_address", DefaultListenAddress)

	_ = v.BindEnv("base_url")
	v.SetDefault("base_url", "")

	_ = v.BindEnv("auth_secret")
	v.SetDefault("auth_secret", "")

	_ = v.BindEnv("log_level")
	v.SetDefault("log_level", "")

	_ = v.BindEnv("default_page_size")
	v.SetDefault("default_page_size", DefaultPageSize)

	_ = v.BindEnv("max_page_size")
	v.SetDefault("max_page_size", DefaultMaxSize)

	_ = v.BindEnv("return_body_on_create")
	v.SetDefault("return_body_on_create", true)

	_ = v.BindEnv("return_body_on_update")
	v.SetDefault("return_body_on_update", true)

	// SPIFFE Workload API configuration
	_ = v.BindEnv("spiffe_socket_path")
	v.SetDefault("spiffe_socket_path", "")

	_ = v.BindEnv("spiffe_trust_domain")
	v.SetDefault("spiffe_trust_domain", "")

	_ = v.BindEnv("collections")
	v.SetDefault("collections", []string{})

	_ = v.BindEnv("collections_file")
	v.SetDefault("collections_file", "")

	_ = v.BindEnv("search.enabled")
	v.SetDefault("search.enabled", true)

	_ = v.BindEnv("search.dir")
	v.SetDefault("search.dir", "")

	_ = v.BindEnv("store.provider")
	v.SetDefault("store.provider", storeconfig.DefaultProvider)

	_ = v.BindEnv("store.sqlite.path")
	v.SetDefault("store.sqlite.path", gormdbconfig.DefaultPath)

	_ = v.BindEnv("store.sqlite.cache_dir")
	v.SetDefault("store.sqlite.cache_dir", "")

	_ = v.BindEnv("store.localfs.dir")
	v.SetDefault("store.localfs.dir", "")

	// Load configuration into struct. Environment values arrive as
	// strings, so numeric and boolean fields decode weakly.
	decodeHooks := mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)

	config := &Config{}
	if err := v.Unmarshal(config,
		viper.DecodeHook(decodeHooks),
		func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true },
	); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return config, nil
}

// CollectionConfig is the serialized form of a collection descriptor.
type CollectionConfig struct {
	Name           string            `json:"name"                      mapstructure:"name"`
	Path           string            `json:"path,omitempty"            mapstructure:"path"`
	ItemRel        string            `json:"item_rel,omitempty"        mapstructure:"item_rel"`
	CollectionRel  string            `json:"collection_rel,omitempty"  mapstructure:"collection_rel"`
	SortableFields []string          `json:"sortable_fields,omitempty" mapstructure:"sortable_fields"`
	RefFields      map[string]string `json:"ref_fields,omitempty"      mapstructure:"ref_fields"`
}

// Descriptor converts the serialized form into a collection descriptor.
func (c CollectionConfig) Descriptor() metadata.Collection {
	return metadata.Collection{
		Name:           c.Name,
		Path:           c.Path,
		ItemRel:        c.ItemRel,
		CollectionRel:  c.CollectionRel,
		SortableFields: c.SortableFields,
		RefFields:      c.RefFields,
	}
}

// LoadCollections resolves the exposed collections from the descriptor
// file and the plain collection names. Plain names already described by
// the file are ignored. Without any configuration the default
// collection is exposed.
func (c *Config) LoadCollections() ([]metadata.Collection, error) {
	var described []CollectionConfig

	if c.CollectionsFile != "" {
		data, err := os.ReadFile(c.CollectionsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read collections file: %w", err)
		}

		if err := yaml.Unmarshal(data, &described); err != nil {
			return nil, fmt.Errorf("failed to parse collections file: %w", err)
		}
	}

	collections := make([]metadata.Collection, 0, len(described)+len(c.Collections))
	seen := make(map[string]bool, len(described))

	for _, entry := range described {
		collections = append(collections, entry.Descriptor())
		seen[entry.Name] = true
	}

	for _, name := range c.Collections {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}

		collections = append(collections, metadata.Collection{Name: name})
		seen[name] = true
	}

	if len(collections) == 0 {
		collections = append(collections, metadata.Collection{Name: DefaultCollection})
	}

	return collections, nil
}
