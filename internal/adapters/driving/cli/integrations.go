package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

var integrationsCmd = &cobra.Command{
	Use:   "integrations",
	Short: "Manage connected calendar accounts",
	RunE:  runIntegrationsList,
}

var integrationsRemoveCmd = &cobra.Command{
	Use:   "remove [integration-id]",
	Short: "Remove a connected account",
	Args:  cobra.ExactArgs(1),
	RunE:  runIntegrationsRemove,
}

var (
	integrationsUserID int64
	integrationsJSON   bool
)

func init() {
	integrationsCmd.Flags().Int64Var(&integrationsUserID, "user", 1, "platform user ID")
	integrationsCmd.Flags().BoolVar(&integrationsJSON, "json", false, "output as JSON")
	integrationsCmd.AddCommand(integrationsRemoveCmd)
	rootCmd.AddCommand(integrationsCmd)
}

func runIntegrationsList(cmd *cobra.Command, _ []string) error {
	if integrationStore == nil {
		return errors.New("integration store not configured")
	}

	ctx := context.Background()
	integrations, err := integrationStore.ListByUser(ctx, integrationsUserID)
	if err != nil {
		return fmt.Errorf("listing integrations: %w", err)
	}

	if integrationsJSON {
		views := make([]domain.IntegrationView, 0, len(integrations))
		for i := range integrations {
			views = append(views, integrations[i].Serialize())
		}
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling integrations: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(integrations) == 0 {
		cmd.Println("No connected accounts.")
		cmd.Println("Connect one with: calsync connect <provider>")
		return nil
	}

	cmd.Println("Connected accounts:")
	cmd.Println()
	for i := range integrations {
		integration := &integrations[i]
		cmd.Printf("  [%d] %s\n", integration.ID, integration.Name)
		cmd.Printf("      Provider: %s\n", integration.Provider)
		cmd.Printf("      Status: %s\n", integration.Status)
		if !integration.LastSynced.IsZero() {
			cmd.Printf("      Last synced: %s\n", integration.LastSynced.Format(time.RFC3339))
		} else {
			cmd.Printf("      Last synced: never\n")
		}
		cmd.Println()
	}
	return nil
}

func runIntegrationsRemove(cmd *cobra.Command, args []string) error {
	if integrationStore == nil {
		return errors.New("integration store not configured")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integration ID %q", args[0])
	}

	ctx := context.Background()
	integration, err := integrationStore.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("integration not found: %w", err)
	}

	if err := integrationStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("removing integration: %w", err)
	}

	cmd.Printf("Removed %s account %q (integration %d).\n",
		integration.Provider, integration.Name, id)
	return nil
}
