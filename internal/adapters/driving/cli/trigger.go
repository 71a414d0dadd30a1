package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skedi/calendar-sync/internal/adapters/driving/queue"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger [message-type]",
	Short: "Dispatch a queue message to its handler",
	Long: `Feeds a JSON message into the queue handlers as if it had arrived
from the platform's job queue.

Message types: ` + queue.TypeSync + `, ` + queue.TypeCreateEvent + `

Examples:
  calsync trigger calendar.sync --payload '{"integration_id": 3}'
  calsync trigger calendar.sync \
    --payload '{"integration_id": 3, "start_date": "today", "end_date": "+7 days"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runTrigger,
}

var triggerPayload string

func init() {
	triggerCmd.Flags().StringVar(&triggerPayload, "payload", "", "JSON message payload (required)")
	rootCmd.AddCommand(triggerCmd)
}

func runTrigger(cmd *cobra.Command, args []string) error {
	if queueHandler == nil {
		return errors.New("queue handler not configured")
	}
	if triggerPayload == "" {
		return errors.New("--payload is required")
	}

	if err := queueHandler.Handle(context.Background(), args[0], []byte(triggerPayload)); err != nil {
		return fmt.Errorf("handling %s: %w", args[0], err)
	}

	cmd.Printf("Handled %s.\n", args[0])
	return nil
}
