// Package cli implements the calsync command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/skedi/calendar-sync/internal/adapters/driven/config/file"
	"github.com/skedi/calendar-sync/internal/adapters/driving/queue"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
	"github.com/skedi/calendar-sync/internal/core/ports/driving"
	"github.com/skedi/calendar-sync/internal/logger"
)

// Services the commands depend on. Set by Configure before Execute;
// commands fail with a clear error when their service is missing.
var (
	authService      driving.Authenticator
	syncService      driving.CalendarSync
	batchRunner      driving.BatchRunner
	scheduler        driving.Scheduler
	queueHandler     *queue.Handler
	integrationStore driven.IntegrationStore
	configStore      *file.Store
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "calsync",
	Short: "Synchronise external calendars into a local availability mirror",
	Long: `calsync links Google Calendar, Google Meet and Outlook Calendar
accounts over OAuth, mirrors their events locally, and publishes busy
blocks for availability lookups.

Start by configuring OAuth app credentials, then connect an account:

  calsync configure --provider google_calendar --client-id ... --client-secret ...
  calsync connect google_calendar --user 1
  calsync sync --user 1 --provider google_calendar`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Dependencies bundles everything the CLI needs from the composition root.
type Dependencies struct {
	Auth         driving.Authenticator
	Sync         driving.CalendarSync
	Batch        driving.BatchRunner
	Scheduler    driving.Scheduler
	Queue        *queue.Handler
	Integrations driven.IntegrationStore
	Config       *file.Store
}

// Configure wires the services into the command tree.
func Configure(deps Dependencies) {
	authService = deps.Auth
	syncService = deps.Sync
	batchRunner = deps.Batch
	scheduler = deps.Scheduler
	queueHandler = deps.Queue
	integrationStore = deps.Integrations
	configStore = deps.Config
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
