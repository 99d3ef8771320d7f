package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iver-wharf/wharf-core/pkg/app"
	"github.com/iver-wharf/wharf-core/pkg/logger"
	"github.com/iver-wharf/wharf-core/pkg/logger/consolepretty"
	"github.com/iver-wharf/wharf-postbuild/internal/flagtypes"
	"github.com/spf13/cobra"
)

var log = logger.NewScoped("WHARF-POSTBUILD")

var isLoggingInitialized bool
var loglevel = flagtypes.LogLevel(logger.LevelInfo)
var rootConfig Config

var rootCmd = &cobra.Command{
	SilenceErrors: true,
	SilenceUsage:  true,
	Use:           "wharf-postbuild",
	Short:         "Runs jobs and decorates their builds using post-build scripts",
	Long: `Runs jobs locally and executes post-build scripts on the resulting
builds. The scripts are written in Starlark, a dialect of Python, and can
inspect the build log and environment, attach badges and summaries to the
build, and change its result.

Builds are kept in a build store, which the "serve" command exposes over
HTTP for UIs to render.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		rootConfig = cfg
		return nil
	},
}

func execute(version app.Version) {
	rootCmd.Version = versionString(version)
	if err := rootCmd.Execute(); err != nil {
		initLoggingIfNeeded()
		log.Error().Message(err.Error())
		os.Exit(1)
	}
}

func versionString(v app.Version) string {
	var sb strings.Builder
	if v.Version != "" {
		sb.WriteString(v.Version)
	} else {
		sb.WriteString("v0.0.0")
	}
	if v.BuildRef != 0 {
		fmt.Fprintf(&sb, " #%d", v.BuildRef)
	}
	if v.BuildGitCommit != "" && v.BuildGitCommit != "HEAD" {
		fmt.Fprintf(&sb, " (%s)", v.BuildGitCommit)
	}
	if v.BuildDate != (time.Time{}) {
		sb.WriteString(" built ")
		sb.WriteString(v.BuildDate.Format(time.RFC1123))
	}
	return sb.String()
}

func init() {
	cobra.OnInitialize(initLogging)
	rootCmd.InitDefaultVersionFlag()
	rootCmd.PersistentFlags().Var(&loglevel, "loglevel", "Logging level")
	rootCmd.RegisterFlagCompletionFunc("loglevel", flagtypes.CompleteLogLevel)
}

func initLoggingIfNeeded() {
	if !isLoggingInitialized {
		initLogging()
	}
}

func initLogging() {
	logConfig := consolepretty.DefaultConfig
	if loglevel.Level() != logger.LevelDebug {
		logConfig.DisableCaller = true
		logConfig.DisableDate = true
		logConfig.ScopeMinLengthAuto = false
	}
	logger.AddOutput(loglevel.Level(), consolepretty.New(logConfig))
	log.Debug().WithStringer("loglevel", &loglevel).Message("Setting log-level.")
	isLoggingInitialized = true
}
