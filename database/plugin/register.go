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

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeMetadata PluginType = 1
	PluginTypeCustody  PluginType = 2
)

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeMetadata:
		return "metadata"
	case PluginTypeCustody:
		return "custody"
	default:
		return ""
	}
}

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = 1
	PluginOptionTypeBool   PluginOptionType = 2
	PluginOptionTypeInt    PluginOptionType = 3
	PluginOptionTypeUint   PluginOptionType = 4
)

type PluginOption struct {
	DefaultValue any
	Dest         any
	Name         string
	Description  string
	Type         PluginOptionType
}

type PluginEntry struct {
	NewFromOptionsFunc func() Plugin
	Name               string
	Description        string
	Options            []PluginOption
	Type               PluginType
}

var pluginEntries []PluginEntry

// Register adds a plugin to the registry. Plugins register themselves from
// init functions.
func Register(pluginEntry PluginEntry) {
	pluginEntries = append(pluginEntries, pluginEntry)
}

func findEntry(pluginType PluginType, pluginName string) *PluginEntry {
	for i := range pluginEntries {
		if pluginEntries[i].Type == pluginType &&
			pluginEntries[i].Name == pluginName {
			return &pluginEntries[i]
		}
	}
	return nil
}

// GetPlugins returns the registry entries of a plugin type
func GetPlugins(pluginType PluginType) []PluginEntry {
	ret := []PluginEntry{}
	for _, p := range pluginEntries {
		if p.Type == pluginType {
			ret = append(ret, p)
		}
	}
	return ret
}

// GetPlugin creates a plugin instance from its current options. It returns
// nil if no plugin is registered under the name.
func GetPlugin(pluginType PluginType, name string) Plugin {
	entry := findEntry(pluginType, name)
	if entry == nil {
		return nil
	}
	return entry.NewFromOptionsFunc()
}

// optionKey is the shared name used for command line flags and environment
// variables, e.g. metadata-postgres-host
func optionKey(p PluginEntry, o PluginOption) string {
	return fmt.Sprintf("%s-%s-%s", PluginTypeName(p.Type), p.Name, o.Name)
}

// PopulateCmdlineOptions adds a flag for every registered plugin option
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	for _, p := range pluginEntries {
		for _, o := range p.Options {
			name := optionKey(p, o)
			switch o.Type {
			case PluginOptionTypeString:
				def, _ := o.DefaultValue.(string)
				dest, ok := o.Dest.(*string)
				if !ok {
					return fmt.Errorf("option %s: destination is not *string", name)
				}
				fs.StringVar(dest, name, def, o.Description)
			case PluginOptionTypeBool:
				def, _ := o.DefaultValue.(bool)
				dest, ok := o.Dest.(*bool)
				if !ok {
					return fmt.Errorf("option %s: destination is not *bool", name)
				}
				fs.BoolVar(dest, name, def, o.Description)
			case PluginOptionTypeInt:
				def, _ := o.DefaultValue.(int)
				dest, ok := o.Dest.(*int)
				if !ok {
					return fmt.Errorf("option %s: destination is not *int", name)
				}
				fs.IntVar(dest, name, def, o.Description)
			case PluginOptionTypeUint:
				def, _ := o.DefaultValue.(uint64)
				dest, ok := o.Dest.(*uint64)
				if !ok {
					return fmt.Errorf("option %s: destination is not *uint64", name)
				}
				fs.Uint64Var(dest, name, def, o.Description)
			default:
				return fmt.Errorf("unknown plugin option type %d for option %s", o.Type, name)
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin options from environment variables of the
// form STAKEGOV_METADATA_POSTGRES_HOST
func ProcessEnvVars() error {
	for _, p := range pluginEntries {
		for _, o := range p.Options {
			envName := "STAKEGOV_" + strings.ToUpper(
				strings.ReplaceAll(optionKey(p, o), "-", "_"),
			)
			raw, ok := os.LookupEnv(envName)
			if !ok {
				continue
			}
			value, err := parseOptionValue(o.Type, raw)
			if err != nil {
				return fmt.Errorf("environment variable %s: %w", envName, err)
			}
			if err := o.assign(value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin options from the config file. The map is
// keyed by plugin type name, then plugin name, then option name.
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	for _, p := range pluginEntries {
		typeConfig, ok := pluginConfig[PluginTypeName(p.Type)]
		if !ok {
			continue
		}
		entryConfig, ok := typeConfig[p.Name]
		if !ok {
			continue
		}
		for _, o := range p.Options {
			raw, ok := entryConfig[o.Name]
			if !ok {
				continue
			}
			value, err := normalizeConfigValue(o.Type, raw)
			if err != nil {
				return fmt.Errorf("%s: %w", optionKey(p, o), err)
			}
			if err := o.assign(value); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseOptionValue(optType PluginOptionType, raw string) (any, error) {
	switch optType {
	case PluginOptionTypeString:
		return raw, nil
	case PluginOptionTypeBool:
		return strconv.ParseBool(raw)
	case PluginOptionTypeInt:
		return strconv.Atoi(raw)
	case PluginOptionTypeUint:
		return strconv.ParseUint(raw, 10, 64)
	default:
		return nil, fmt.Errorf("unknown plugin option type %d", optType)
	}
}

// normalizeConfigValue converts values decoded from YAML into the type the
// option expects
func normalizeConfigValue(optType PluginOptionType, raw any) (any, error) {
	if s, ok := raw.(string); ok {
		return parseOptionValue(optType, s)
	}
	switch optType {
	case PluginOptionTypeInt:
		switch v := raw.(type) {
		case int:
			return v, nil
		case uint64:
			return int(v), nil //nolint:gosec
		}
	case PluginOptionTypeUint:
		switch v := raw.(type) {
		case int:
			return v, nil
		case uint64:
			return v, nil
		}
	case PluginOptionTypeBool:
		if v, ok := raw.(bool); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("unexpected value type %T", raw)
}
