package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/wippyai/refgraph"
	"github.com/wippyai/refgraph/table"
)

const (
	configFileName = "refview"
	configFileType = "yaml"
	envPrefix      = "REFVIEW"

	cfgKeyPrefix      = "prefix"
	cfgKeyReviveTypes = "revive_types"
	cfgKeyCleanup     = "cleanup"
	cfgKeyPathLookup  = "path_lookup"
	cfgKeyDataDir     = "data_dir"

	dbFileName = "refview.db"
)

// loadConfig reads refview.yaml from the current directory, or from path when
// set, with REFVIEW_* environment overrides. A missing file is not an error.
func loadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyPrefix, table.DefaultPrefix)
	// the CLI has no Go types registered, so tags are shown but not revived
	v.SetDefault(cfgKeyReviveTypes, false)
	v.SetDefault(cfgKeyCleanup, false)
	v.SetDefault(cfgKeyPathLookup, false)
	v.SetDefault(cfgKeyDataDir, ".")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func serializerOptions(v *viper.Viper) []refgraph.Option {
	return []refgraph.Option{
		refgraph.WithPrefix(v.GetString(cfgKeyPrefix)),
		refgraph.WithReviveTypes(v.GetBool(cfgKeyReviveTypes)),
		refgraph.WithCleanup(v.GetBool(cfgKeyCleanup)),
		refgraph.WithPathLookup(v.GetBool(cfgKeyPathLookup)),
		refgraph.WithLogger(logger),
	}
}

func dbPath(v *viper.Viper) string {
	return filepath.Join(v.GetString(cfgKeyDataDir), dbFileName)
}
