package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/iver-wharf/wharf-postbuild/pkg/build"
	"github.com/iver-wharf/wharf-postbuild/pkg/buildstore"
	"github.com/iver-wharf/wharf-postbuild/pkg/result"
	"github.com/spf13/cobra"
	"gopkg.in/typ.v4/slices"
)

var (
	colorBuildID      = color.New(color.Bold)
	colorHeading      = color.New(color.FgYellow)
	colorIndex        = color.New(color.FgHiBlack)
	colorIcon         = color.New(color.FgHiMagenta)
	colorLink         = color.New(color.FgBlue, color.Underline)
	colorResultGood   = color.New(color.FgGreen)
	colorResultUnsure = color.New(color.FgYellow)
	colorResultBad    = color.New(color.FgRed)
	colorResultOther  = color.New(color.FgHiBlack)
)

var showFlags = struct {
	log bool
}{}

var showCmd = &cobra.Command{
	Use:   "show <job> [number]",
	Short: "Prints a build with its badges and summaries",
	Long: `Prints a build from the build store, including the badges and
summaries its post-build scripts added.

Defaults to the latest build of the job if no build number is given. Matrix
child builds are addressed by their full job name, such as:

  wharf-postbuild show "my-job/axis1=value1" 3`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(rootConfig.Store)
		if err != nil {
			return fmt.Errorf("open build store: %w", err)
		}
		defer store.Close()

		b, err := loadBuildArg(store, args[0], slices.SafeGet(args, 1))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printBuild(out, b)
		if showFlags.log {
			r, err := store.OpenLog(b)
			if err != nil {
				return fmt.Errorf("open log: %w", err)
			}
			defer r.Close()
			colorHeading.Fprintln(out, "\nLog:")
			if _, err := io.Copy(out, r); err != nil {
				return fmt.Errorf("read log: %w", err)
			}
		}
		return nil
	},
}

func loadBuildArg(store buildstore.Store, job, numberArg string) (*build.Build, error) {
	if numberArg != "" {
		number, err := strconv.ParseUint(numberArg, 10, 0)
		if err != nil {
			return nil, fmt.Errorf("invalid build number %q: %w", numberArg, err)
		}
		return store.Load(job, uint(number))
	}
	numbers, err := store.Numbers(job)
	if err != nil {
		return nil, err
	}
	if len(numbers) == 0 {
		return nil, fmt.Errorf("job %q has no builds", job)
	}
	return store.Load(job, numbers[len(numbers)-1])
}

func printBuild(w io.Writer, b *build.Build) {
	colorBuildID.Fprint(w, b.ID())
	fmt.Fprint(w, "  ")
	resultColor(b.Result).Fprint(w, b.Result)
	fmt.Fprintf(w, "  %s  started %s\n", b.Kind, b.StartedAt.Format("2006-01-02 15:04:05"))
	if len(b.Combination) > 0 {
		fmt.Fprintf(w, "Combination: %s\n", b.Combination)
	}

	badges := b.Badges()
	colorHeading.Fprintf(w, "\nBadges (%d):\n", len(badges))
	for i, bdg := range badges {
		colorIndex.Fprintf(w, "  %2d ", i)
		if bdg.TextOnly() {
			fmt.Fprintf(w, "%q (color %s, background %s, border %s %s)",
				bdg.Text(), bdg.Color(), bdg.Background(), bdg.Border(), bdg.BorderColor())
		} else {
			colorIcon.Fprint(w, bdg.IconPath().String)
			fmt.Fprintf(w, " %q", bdg.Text())
		}
		if bdg.Link().Valid {
			fmt.Fprint(w, " -> ")
			colorLink.Fprint(w, bdg.Link().String)
		}
		fmt.Fprintln(w)
	}

	summaries := b.Summaries()
	colorHeading.Fprintf(w, "\nSummaries (%d):\n", len(summaries))
	for i, s := range summaries {
		colorIndex.Fprintf(w, "  %2d ", i)
		colorIcon.Fprintln(w, s.IconPath())
		fmt.Fprintf(w, "     %s\n", s.Text())
	}
}

func resultColor(r result.Result) *color.Color {
	switch r {
	case result.Success:
		return colorResultGood
	case result.Unstable:
		return colorResultUnsure
	case result.Failure:
		return colorResultBad
	default:
		return colorResultOther
	}
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showFlags.log, "log", false, "Also print the build log")
}
