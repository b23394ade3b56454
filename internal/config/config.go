// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/stakegov/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "stakegov.config"

const (
	DefaultMetadataPlugin  = "sqlite"
	DefaultCustodyPlugin   = "badger"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultUnstakeDelay    = 5 * 24 * time.Hour
	DefaultVotingPeriod    = 7 * 24 * time.Hour
	DefaultArchiveInterval = 30 * time.Second
	envPrefix              = "stakegov"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// ErrPluginListRequested is returned when the user requests to list available plugins
// This is not an error condition but a successful operation that displays plugin information
var ErrPluginListRequested = errors.New("plugin list requested")

type tempConfig struct {
	Config   *Config                   `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
	Custody  map[string]map[string]any `yaml:"custody,omitempty"`
}

type databaseConfig struct {
	Metadata map[string]any `yaml:"metadata,omitempty"`
	Custody  map[string]any `yaml:"custody,omitempty"`
}

type Config struct {
	DatabasePath           string        `yaml:"databasePath"           split_words:"true"`
	MetadataPlugin         string        `yaml:"metadataPlugin"         split_words:"true"`
	CustodyPlugin          string        `yaml:"custodyPlugin"          split_words:"true"`
	CustodyPath            string        `yaml:"custodyPath"            split_words:"true"`
	BindAddr               string        `yaml:"bindAddr"               split_words:"true"`
	ArchiveDest            string        `yaml:"archiveDest"            split_words:"true"`
	ArchiveRegion          string        `yaml:"archiveRegion"          split_words:"true"`
	ArchiveCredentialsFile string        `yaml:"archiveCredentialsFile" split_words:"true"`
	CorsOrigins            []string      `yaml:"corsOrigins"            split_words:"true"`
	ArchiveInterval        time.Duration `yaml:"archiveInterval"        split_words:"true"`
	UnstakeDelay           time.Duration `yaml:"unstakeDelay"           split_words:"true"`
	VotingPeriod           time.Duration `yaml:"votingPeriod"           split_words:"true"`
	ShutdownTimeout        time.Duration `yaml:"shutdownTimeout"        split_words:"true"`
	MinQuorumBps           uint64        `yaml:"minQuorumBps"           split_words:"true"`
	MaxRequestsPerIp       int           `yaml:"maxRequestsPerIp"       split_words:"true"`
	ApiPort                uint          `yaml:"apiPort"                split_words:"true"`
	MetricsPort            uint          `yaml:"metricsPort"            split_words:"true"`
	Tracing                bool          `yaml:"tracing"`
	TracingStdout          bool          `yaml:"tracingStdout"          split_words:"true"`
}

// Validate checks values that cannot be fixed up with a default
func (c *Config) Validate() error {
	if c.MinQuorumBps > 10000 {
		return fmt.Errorf(
			"invalid minQuorumBps: %d (must be at most 10000)",
			c.MinQuorumBps,
		)
	}
	if c.UnstakeDelay < 0 || c.VotingPeriod < 0 {
		return errors.New("unstakeDelay and votingPeriod must not be negative")
	}
	if c.MaxRequestsPerIp < 0 {
		return errors.New("maxRequestsPerIp must not be negative")
	}
	if c.ApiPort > 65535 || c.MetricsPort > 65535 {
		return errors.New("apiPort and metricsPort must be valid TCP ports")
	}
	return nil
}

// ApiListenAddress returns the host:port the REST API listens on
func (c *Config) ApiListenAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.ApiPort)
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:     ".stakegov",
		MetadataPlugin:   DefaultMetadataPlugin,
		CustodyPlugin:    DefaultCustodyPlugin,
		CustodyPath:      "",
		BindAddr:         "0.0.0.0",
		ApiPort:          8080,
		MetricsPort:      12798,
		UnstakeDelay:     DefaultUnstakeDelay,
		VotingPeriod:     DefaultVotingPeriod,
		ShutdownTimeout:  DefaultShutdownTimeout,
		ArchiveInterval:  DefaultArchiveInterval,
		MaxRequestsPerIp: 64,
	}
}

var globalConfig = defaultConfig()

// ListPlugins writes the registered plugins of a type and returns
// ErrPluginListRequested
func ListPlugins(w io.Writer, pluginType plugin.PluginType) error {
	fmt.Fprintf(w, "Available %s plugins:\n", plugin.PluginTypeName(pluginType))
	for _, p := range plugin.GetPlugins(pluginType) {
		fmt.Fprintf(w, "  %s: %s\n", p.Name, p.Description)
	}
	return ErrPluginListRequested
}

func LoadConfig(configFile string) (*Config, error) {
	globalConfig = defaultConfig()
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.stakegov/stakegov.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".stakegov", "stakegov.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/stakegov/stakegov.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/stakegov/stakegov.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		if err := loadConfigFile(configFile); err != nil {
			return nil, err
		}
	}
	// Process environment variables
	err := envconfig.Process(envPrefix, globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	// Process plugin environment variables
	err = plugin.ProcessEnvVars()
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}

	if globalConfig.MetadataPlugin == "" {
		globalConfig.MetadataPlugin = DefaultMetadataPlugin
	}
	if globalConfig.CustodyPlugin == "" {
		globalConfig.CustodyPlugin = DefaultCustodyPlugin
	}
	// The vault keeps its files in a custody subdirectory
	if globalConfig.CustodyPath == "" {
		globalConfig.CustodyPath = globalConfig.DatabasePath
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func loadConfigFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	err = yaml.Unmarshal(buf, &tempCfg)
	if err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	// If config section exists, use it for main config
	if tempCfg.Config != nil {
		// Overlay config values onto existing defaults
		configBytes, err := yaml.Marshal(tempCfg.Config)
		if err != nil {
			return fmt.Errorf("error re-marshalling config: %w", err)
		}
		err = yaml.Unmarshal(configBytes, globalConfig)
		if err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else {
		// Otherwise unmarshal the whole file as main config
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Process plugin configurations
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Custody != nil {
		pluginConfig["custody"] = tempCfg.Custody
	}
	// Handle database section if present
	if tempCfg.Database != nil {
		if tempCfg.Database.Metadata != nil {
			mergePluginSection(
				pluginConfig,
				"metadata",
				tempCfg.Database.Metadata,
				&globalConfig.MetadataPlugin,
			)
		}
		if tempCfg.Database.Custody != nil {
			mergePluginSection(
				pluginConfig,
				"custody",
				tempCfg.Database.Custody,
				&globalConfig.CustodyPlugin,
			)
		}
	}
	if len(pluginConfig) > 0 {
		err = plugin.ProcessConfig(pluginConfig)
		if err != nil {
			return fmt.Errorf(
				"error processing plugin config: %w",
				err,
			)
		}
	}
	return nil
}

// mergePluginSection folds a database.<type> YAML section into the plugin
// config map. A "plugin" key selects the plugin and every map-valued key
// holds the options of the plugin with that name.
func mergePluginSection(
	pluginConfig map[string]map[string]map[string]any,
	typeName string,
	section map[string]any,
	pluginName *string,
) {
	// Extract plugin name if specified
	if pluginVal, exists := section["plugin"]; exists {
		if name, ok := pluginVal.(string); ok {
			*pluginName = name
			delete(section, "plugin")
		}
	}
	typeConfig := pluginConfig[typeName]
	if typeConfig == nil {
		typeConfig = make(map[string]map[string]any)
		pluginConfig[typeName] = typeConfig
	}
	for k, v := range section {
		switch val := v.(type) {
		case map[string]any:
			typeConfig[k] = val
		case map[any]any:
			// Convert map[any]any to map[string]any
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			typeConfig[k] = stringAnyMap
		default:
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				typeName,
				k,
				v,
			)
		}
	}
}

func GetConfig() *Config {
	return globalConfig
}
