package main

import (
	"fmt"
	"os"

	"github.com/iver-wharf/wharf-core/v2/pkg/config"
	"github.com/iver-wharf/wharf-postbuild/pkg/badgeapi"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config holds all configurable settings for wharf-postbuild.
//
// The config is read in the following order:
//
// 1. File: ~/.config/iver-wharf/wharf-postbuild/wharf-postbuild-config.yml
//
// 2. File: ./wharf-postbuild-config.yml
//
// 3. File from environment variable: WHARF_POSTBUILD_CONFIG
//
// 4. Environment variables, prefixed with WHARF_POSTBUILD
//
// Each inner struct is represented as a deeper field in the different
// configurations. For YAML they represent deeper nested maps. For environment
// variables they are joined together by underscores.
//
// All environment variables must be uppercased, while YAML files are
// case-insensitive. Keeping camelCasing in YAML config files is recommended
// for consistency.
type Config struct {
	Store    StoreConfig
	Icons    IconsConfig
	Env      EnvConfig
	Script   ScriptConfig
	HTTP     HTTPConfig
	Security SecurityConfig
}

// StoreDriver is the kind of database builds are stored in.
type StoreDriver string

const (
	// StoreDriverFS stores builds as JSON files in a directory tree.
	StoreDriverFS StoreDriver = "fs"
	// StoreDriverSQLite stores builds in a single SQLite database file.
	StoreDriverSQLite StoreDriver = "sqlite"
)

// StoreConfig holds settings for the build store.
type StoreConfig struct {
	// Driver is the kind of store to use, either "fs" or "sqlite".
	Driver StoreDriver
	// Dir is the root directory of the "fs" store.
	Dir string
	// SQLitePath is the database file of the "sqlite" store.
	SQLitePath string
}

// IconsConfig holds settings for resolving badge and summary icons.
type IconsConfig struct {
	// PluginName is used in paths to icons shipped as plugin resources,
	// as in "/plugin/<name>/images/<icon>".
	PluginName string
	// PluginResourceDir is a local directory with the plugin's resources.
	// Icons found in its "images" subdirectory resolve to plugin paths.
	PluginResourceDir string
	// HostResourcePath is the URL path prefix of the built-in icons.
	HostResourcePath string
}

// EnvConfig holds settings for the environment scripts see.
type EnvConfig struct {
	// OSPrefix filters which OS environment variables are visible to
	// scripts. The prefix is trimmed from the names. An empty prefix includes
	// all OS environment variables.
	OSPrefix string
	// SkipOS hides all OS environment variables from scripts.
	SkipOS bool
	// Files are YAML files of variables, where earlier files take
	// precedence.
	Files []string
}

// ScriptConfig holds settings for executing post-build scripts.
type ScriptConfig struct {
	// MaxSteps aborts scripts that run more than this many Starlark
	// computation steps. Zero means no limit.
	MaxSteps uint64
	// MaxParallel limits how many matrix child builds run at the same time.
	// Zero means no limit.
	MaxParallel int
}

// HTTPConfig holds settings for the HTTP server of the "serve" command.
type HTTPConfig struct {
	CORS CORSConfig

	// BindAddress is the IP-address and port, separated by a colon, to bind
	// the HTTP server to. An IP-address of 0.0.0.0 will bind to all
	// IP-addresses.
	BindAddress string
}

// CORSConfig holds settings for the HTTP server's CORS settings.
type CORSConfig struct {
	// AllowAllOrigins enables CORS and allows all hostnames and URLs in the
	// HTTP request origins when set to true.
	AllowAllOrigins bool

	// AllowOrigins enables CORS and allows the list of origins in the
	// HTTP request origins when set.
	AllowOrigins []string
}

// SecurityConfig holds settings for who may run post-build scripts.
type SecurityConfig struct {
	// AllowedUsers lists the OS users that may run post-build scripts. An
	// empty list allows everyone.
	AllowedUsers []string
}

// DefaultConfig is the hard-coded default values for wharf-postbuild's
// configs.
var DefaultConfig = Config{
	Store: StoreConfig{
		Driver:     StoreDriverFS,
		Dir:        "./wharf-postbuild-data",
		SQLitePath: "./wharf-postbuild-data/builds.db",
	},
	Icons: IconsConfig{
		PluginName:       "wharf-postbuild",
		HostResourcePath: "/static",
	},
	HTTP: HTTPConfig{
		CORS: CORSConfig{
			AllowAllOrigins: false,
			AllowOrigins:    []string{},
		},
		BindAddress: "0.0.0.0:5020",
	},
}

func loadConfig() (Config, error) {
	cfgBuilder := config.NewBuilder(DefaultConfig)

	cfgBuilder.AddConfigYAMLFile("~/.config/iver-wharf/wharf-postbuild/wharf-postbuild-config.yml")
	cfgBuilder.AddConfigYAMLFile("wharf-postbuild-config.yml")
	if cfgFile, ok := os.LookupEnv("WHARF_POSTBUILD_CONFIG"); ok {
		cfgBuilder.AddConfigYAMLFile(cfgFile)
	}
	cfgBuilder.AddEnvironmentVariables("WHARF_POSTBUILD")

	var cfg Config
	if err := cfgBuilder.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.Store.Driver {
	case StoreDriverFS:
		if cfg.Store.Dir == "" {
			return fmt.Errorf("store.dir: required for driver %q", cfg.Store.Driver)
		}
	case StoreDriverSQLite:
		if cfg.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlitePath: required for driver %q", cfg.Store.Driver)
		}
	default:
		return fmt.Errorf("store.driver: invalid value %q, must be %q or %q",
			cfg.Store.Driver, StoreDriverFS, StoreDriverSQLite)
	}
	if cfg.Script.MaxParallel < 0 {
		return fmt.Errorf("script.maxParallel: must not be negative, got %d", cfg.Script.MaxParallel)
	}
	return nil
}

func (cfg HTTPConfig) badgeAPIConfig() badgeapi.Config {
	return badgeapi.Config{
		BindAddress: cfg.BindAddress,
		CORS: badgeapi.CORSConfig{
			AllowAllOrigins: cfg.CORS.AllowAllOrigins,
			AllowOrigins:    cfg.CORS.AllowOrigins,
		},
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Prints the effective configuration",
	Long: `Prints the configuration as read from the config files and
environment variables, merged on top of the defaults.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(rootConfig); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
