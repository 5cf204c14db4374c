// Package cli implements the readup command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/readup-server/internal/config"
	"github.com/listenupapp/readup-server/internal/di"
	"github.com/listenupapp/readup-server/internal/di/providers"
)

// app carries state shared by every subcommand.
type app struct {
	version string
	cfg     *config.Config
	out     io.Writer
}

// NewRootCmd builds the readup command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version, out: os.Stdout}

	root := &cobra.Command{
		Use:   "readup",
		Short: "Serve and maintain a ReadUp comic and book library",
		Long: `readup serves a library of series and books over HTTP, keeps a
full-text search index in sync with it and tracks sidecar files
(artwork, series.json, ComicInfo.xml, NFO) found next to the books.

Configuration comes from flags, READUP_* environment variables and
an optional readup.yaml, in that order of precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.out = cmd.OutOrStdout()
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(a),
		newReindexCmd(a),
		newScanCmd(a),
		newImportCmd(a),
	)
	return root
}

// Execute is the entry point called from main.
func Execute(version string) {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// container builds the DI container for a one-shot command.
func (a *app) container() *do.RootScope {
	return di.NewContainer(a.cfg, providers.BuildInfo{Version: a.version})
}

// ok prints a green success line.
func (a *app) ok(format string, args ...any) {
	fmt.Fprintln(a.out, color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// warn prints a yellow warning line.
func (a *app) warn(format string, args ...any) {
	fmt.Fprintln(a.out, color.YellowString("!"), fmt.Sprintf(format, args...))
}
