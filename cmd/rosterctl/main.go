// Command rosterctl manages the team roster from a terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teamsite/roster-api/internal/adapters/rosterclient"
	"github.com/teamsite/roster-api/internal/platform/config"
	"github.com/teamsite/roster-api/internal/platform/logging"
	"github.com/teamsite/roster-api/internal/ports/out/imagehost"
	"github.com/teamsite/roster-api/internal/ports/out/rosterapi"
)

const programName = "rosterctl"

// app holds what every subcommand needs. api and openUploader are filled from
// the environment unless a caller set them first.
type app struct {
	envFile string
	cfg     config.ClientConfig
	log     *zap.Logger

	api          rosterapi.Client
	openUploader func(ctx context.Context) (imagehost.Uploader, func(), error)

	in  io.Reader
	out io.Writer
}

func main() {
	a := &app{in: os.Stdin, out: os.Stdout}
	if err := newRootCommand(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Manage the team member roster",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to read before the environment")
	root.SetIn(a.in)
	root.SetOut(a.out)

	root.AddCommand(
		listCommand(a),
		rosterCommand(a),
		addCommand(a),
		editCommand(a),
		deleteCommand(a),
	)
	return root
}

func (a *app) setup() error {
	if a.api != nil && a.openUploader != nil {
		if a.log == nil {
			a.log = zap.NewNop()
		}
		return nil
	}
	cfg, err := config.LoadClient(a.envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	if a.log == nil {
		log, err := logging.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		a.log = log
	}
	if a.api == nil {
		a.api = rosterclient.New(cfg.APIURL, rosterclient.WithAdminToken(cfg.AdminToken))
	}
	if a.openUploader == nil {
		a.openUploader = func(ctx context.Context) (imagehost.Uploader, func(), error) {
			return openUploader(ctx, a.cfg)
		}
	}
	return nil
}
