// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/configcache"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/docstore"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/helpers"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/layout"
)

// ProductionRoot is the network share every workstation mounts.
const ProductionRoot = `\\fileserver\fulfillment`

// Config aggregates configuration for the application.
type Config struct {
	// Root is the storage root. FULFILLMENT_SERVER_PATH overrides it and
	// switches on development mode.
	Root string `mapstructure:"root"`

	// Author is stamped into updated_by. Empty means the hostname.
	Author string `mapstructure:"author"`

	Cache  CacheConfig  `mapstructure:"cache"`
	Lock   LockConfig   `mapstructure:"lock"`
	Backup BackupConfig `mapstructure:"backup"`
	Log    LogConfig    `mapstructure:"log"`

	// DevMode is derived, never read from configuration.
	DevMode bool `mapstructure:"-"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type LockConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
}

type BackupConfig struct {
	Retention int `mapstructure:"retention"`
}

type LogConfig struct {
	// File, if set, receives a JSON copy of every log record.
	File string `mapstructure:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		Root:   ProductionRoot,
		Cache:  CacheConfig{TTL: configcache.DefaultTTL},
		Lock:   LockConfig{Attempts: docstore.DefaultLockAttempts, Delay: docstore.DefaultLockDelay},
		Backup: BackupConfig{Retention: docstore.DefaultBackupRetention},
	}
}

// Load reads configuration from files and environment variables.
// Environment variables use the prefix "FULFILLMENT" and the dot character
// in keys is replaced by an underscore. For example, "lock.attempts" becomes
// "FULFILLMENT_LOCK_ATTEMPTS".
func Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("FULFILLMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if dev, ok := helpers.GetStringEnv(layout.ServerPathEnv); ok {
		cfg.Root = dev
		cfg.DevMode = true
	}
	return cfg, nil
}

// StoreOptions maps the configuration onto document store options.
func (c *Config) StoreOptions() docstore.Options {
	return docstore.Options{
		LockAttempts:    c.Lock.Attempts,
		LockDelay:       c.Lock.Delay,
		BackupRetention: c.Backup.Retention,
		Author:          c.Author,
	}
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "-" {
			continue
		}
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
