package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iver-wharf/wharf-postbuild/internal/flagtypes"
	"github.com/iver-wharf/wharf-postbuild/pkg/jobrun"
	"github.com/iver-wharf/wharf-postbuild/pkg/poststep"
	"github.com/iver-wharf/wharf-postbuild/pkg/result"
	"github.com/iver-wharf/wharf-postbuild/pkg/script/starlarkexec"
	"github.com/spf13/cobra"
	"gopkg.in/typ.v4/slices"
)

const cancelGracePeriod = 10 * time.Second

var errBuildAborted = errors.New("build aborted")

var runFlags = struct {
	behavior flagtypes.Behavior
	vars     flagtypes.Vars
	envFiles []string
	quiet    bool
}{}

var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Runs a job from a .wharf-postbuild.yml file",
	Long: `Runs a new build of the job in a .wharf-postbuild.yml file, and then
executes its post-build scripts on the build.

Use the optional "path" argument to specify a .wharf-postbuild.yml file or a
directory containing a .wharf-postbuild.yml file. Defaults to current
directory ("./")

Jobs with axes run as matrix jobs: one child build per combination of axis
values, all running in parallel. Scripts with runForMatrixParent set also run
on the parent build, once all child builds are done.`,
	Args: cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"yml"}, cobra.ShellCompDirectiveFilterFileExt
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		defPath, err := parseDefinitionPath(slices.SafeGet(args, 0))
		if err != nil {
			return err
		}
		log.Debug().WithString("path", defPath).Message("Parsing job definition.")
		def, errs := jobrun.ParseDefinitionFile(defPath)
		if len(errs) > 0 {
			logParseErrors(errs, defPath)
			return fmt.Errorf("failed to parse %s", jobrun.DefinitionFileName)
		}
		if def.Vars == nil {
			def.Vars = map[string]string{}
		}
		for k, v := range runFlags.vars.Map {
			def.Vars[k] = v
		}

		store, err := openStore(rootConfig.Store)
		if err != nil {
			return fmt.Errorf("open build store: %w", err)
		}
		defer store.Close()

		authorizer, err := newAuthorizer(rootConfig.Security)
		if err != nil {
			return err
		}
		deps := poststep.Deps{
			Executor:   starlarkexec.Executor{MaxSteps: rootConfig.Script.MaxSteps},
			Store:      poststep.NewStore(store),
			Env:        newEnvProvider(rootConfig.Env, runFlags.envFiles),
			Icons:      newIconResolver(rootConfig.Icons),
			Authorizer: authorizer,
		}
		runner := jobrun.Runner{
			Store:       store,
			MaxParallel: rootConfig.Script.MaxParallel,
		}
		if !runFlags.quiet {
			runner.Stdout = cmd.OutOrStdout()
		}
		for i, cfg := range def.PostBuild {
			if runFlags.behavior.Changed() {
				cfg.Behavior = runFlags.behavior.Value
			}
			step, err := poststep.NewStep(cfg, deps)
			if err != nil {
				return fmt.Errorf("post-build step %d: %w", i, err)
			}
			runner.Publishers = append(runner.Publishers, step)
		}

		ctx, cancel := context.WithCancelCause(context.Background())
		defer cancel(nil)
		go handleCancelSignals(func() {
			time.AfterFunc(cancelGracePeriod, func() {
				log.Warn().Message("Failed to cancel within grace period. Force quitting now.")
				os.Exit(3)
			})
			cancel(errBuildAborted)
		})

		log.Info().
			WithString("job", def.Job).
			WithInt("steps", len(runner.Publishers)).
			WithBool("matrix", def.IsMatrix()).
			Message("Starting build.")
		start := time.Now()
		b, err := runner.Run(ctx, def)
		if err != nil {
			return err
		}
		log.Info().
			WithStringer("build", b).
			WithDuration("dur", time.Since(start).Truncate(time.Millisecond)).
			WithStringer("result", b.Result).
			Message("Done with build.")
		if b.Result.IsWorseThan(result.Unstable) {
			return fmt.Errorf("build %s finished with result %s", b, b.Result)
		}
		return nil
	},
}

func handleCancelSignals(f func()) {
	waitForCancelSignal()
	log.Info().WithDuration("gracePeriod", cancelGracePeriod).Message("Cancelling build. Press ^C again to force quit.")
	go func() {
		waitForCancelSignal()
		log.Warn().Message("Received second interrupt. Force quitting now.")
		os.Exit(2)
	}()
	f()
}

func waitForCancelSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	<-ch
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Var(&runFlags.behavior, "behavior", "Overrides the script failure behavior of all post-build steps")
	runCmd.RegisterFlagCompletionFunc("behavior", flagtypes.CompleteBehavior)
	runCmd.Flags().Var(&runFlags.vars, "var", "Build variables (--var key=value), can be set multiple times")
	runCmd.Flags().StringArrayVar(&runFlags.envFiles, "env-file", nil, "YAML file of environment variables, can be set multiple times")
	runCmd.Flags().BoolVarP(&runFlags.quiet, "quiet", "q", false, "Don't print build logs to stdout")
}
