// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/docxify/pkg/types"
)

func bindFlag(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", f.Name, err))
	}
}

// loadConfig overlays the config file, DOCXIFY_* environment variables and
// bound flags on top of types.DefaultConfig, then validates the result.
func loadConfig() (types.Config, error) {
	return configFrom(viper.GetViper())
}

func configFrom(v *viper.Viper) (types.Config, error) {
	c := types.DefaultConfig()

	setString(v, "server.addr", &c.Server.Addr)
	setInt64(v, "server.max_upload_bytes", &c.Server.MaxUploadBytes)
	setInt(v, "server.workers", &c.Server.Workers)
	setDuration(v, "server.shutdown_timeout", &c.Server.ShutdownTimeout)
	setString(v, "server.secrets_dir", &c.Server.SecretsDir)

	if v.IsSet("converter.backend") {
		c.Converter.Backend = types.ConverterBackend(v.GetString("converter.backend"))
	}
	setString(v, "converter.binary", &c.Converter.Binary)
	setString(v, "converter.image", &c.Converter.Image)
	setDuration(v, "converter.timeout", &c.Converter.Timeout)

	setString(v, "workspace.root", &c.Workspace.Root)
	setInt64(v, "archive.max_bytes", &c.Archive.MaxBytes)
	setInt(v, "archive.max_entries", &c.Archive.MaxEntries)
	setString(v, "journal.path", &c.Journal.Path)
	setString(v, "log.level", &c.Log.Level)
	if v.IsSet("log.json") {
		c.Log.JSON = v.GetBool("log.json")
	}

	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func setInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func setInt64(v *viper.Viper, key string, dst *int64) {
	if v.IsSet(key) {
		*dst = v.GetInt64(key)
	}
}

func setDuration(v *viper.Viper, key string, dst *time.Duration) {
	if v.IsSet(key) {
		*dst = v.GetDuration(key)
	}
}
