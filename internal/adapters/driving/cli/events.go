package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List mirrored events for a user",
	Long: `Lists a user's non-cancelled mirrored events in a date range,
ordered by start time. Served entirely from the local mirror; run
'calsync sync' first to refresh it.`,
	RunE: runEvents,
}

var createEventCmd = &cobra.Command{
	Use:   "create-event",
	Short: "Create an event at the provider",
	Long: `Creates an event on a connected account's calendar. The local
mirror is untouched; the next sync picks the event up.

Examples:
  calsync create-event --user 1 --provider google_calendar \
    --title "Planning" --start "2026-03-12T09:00:00Z" --end "2026-03-12T10:00:00Z"

  calsync create-event --user 1 --provider google_meet \
    --title "Stand-up" --start tomorrow --end "+2 days" \
    --attendees "a@example.com,b@example.com"`,
	RunE: runCreateEvent,
}

var (
	eventsUserID int64
	eventsFrom   string
	eventsTo     string
	eventsJSON   bool

	createUserID        int64
	createProvider      string
	createIntegrationID int64
	createCalendarID    string
	createTitle         string
	createDescription   string
	createLocation      string
	createStart         string
	createEnd           string
	createAttendees     string
)

func init() {
	eventsCmd.Flags().Int64Var(&eventsUserID, "user", 1, "platform user ID")
	eventsCmd.Flags().StringVar(&eventsFrom, "from", "", "range start (default today)")
	eventsCmd.Flags().StringVar(&eventsTo, "to", "", "range end (default +30 days)")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(eventsCmd)

	createEventCmd.Flags().Int64Var(&createUserID, "user", 1, "platform user ID")
	createEventCmd.Flags().StringVar(&createProvider, "provider", "", "provider type (required)")
	createEventCmd.Flags().Int64Var(&createIntegrationID, "integration", 0, "integration ID")
	createEventCmd.Flags().StringVar(&createCalendarID, "calendar", "",
		"target calendar ID (default primary)")
	createEventCmd.Flags().StringVar(&createTitle, "title", "", "event title (required)")
	createEventCmd.Flags().StringVar(&createDescription, "description", "", "event description")
	createEventCmd.Flags().StringVar(&createLocation, "location", "", "event location")
	createEventCmd.Flags().StringVar(&createStart, "start", "", "start time (required)")
	createEventCmd.Flags().StringVar(&createEnd, "end", "", "end time (required)")
	createEventCmd.Flags().StringVar(&createAttendees, "attendees", "",
		"attendee emails (comma-separated)")
	rootCmd.AddCommand(createEventCmd)
}

func runEvents(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	start, end, err := resolveDateRange(eventsFrom, eventsTo)
	if err != nil {
		return err
	}

	events, err := syncService.EventsForRange(context.Background(), eventsUserID, start, end)
	if err != nil {
		return fmt.Errorf("listing events: %w", err)
	}

	if eventsJSON {
		data, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling events: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(events) == 0 {
		cmd.Println("No events in range.")
		return nil
	}

	cmd.Printf("Events from %s to %s:\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	cmd.Println()
	for i := range events {
		event := &events[i]
		when := event.StartTime.Format("2006-01-02 15:04")
		if event.AllDay {
			when = event.StartTime.Format("2006-01-02") + " (all day)"
		}
		cmd.Printf("  %s  %s\n", when, event.Title)
		if event.Location != "" {
			cmd.Printf("%s%s\n", strings.Repeat(" ", 20), event.Location)
		}
	}
	return nil
}

func runCreateEvent(cmd *cobra.Command, _ []string) error {
	if authService == nil || syncService == nil {
		return errors.New("sync service not configured")
	}
	if createProvider == "" {
		return errors.New("--provider is required")
	}
	if createTitle == "" || createStart == "" || createEnd == "" {
		return errors.New("--title, --start and --end are required")
	}

	provider, err := domain.ParseProviderType(createProvider)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	start, err := domain.ParseDate(createStart, now)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := domain.ParseDate(createEnd, now)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}

	var attendees []string
	if createAttendees != "" {
		attendees = strings.Split(createAttendees, ",")
		for i := range attendees {
			attendees[i] = strings.TrimSpace(attendees[i])
		}
	}

	ctx := context.Background()
	integration, err := authService.UserIntegration(ctx, createUserID, provider, createIntegrationID)
	if err != nil {
		return fmt.Errorf("resolving integration: %w", err)
	}

	created, err := syncService.CreateEvent(ctx, integration, domain.CreateEventInput{
		CalendarID:   createCalendarID,
		Title:        createTitle,
		Description:  createDescription,
		Location:     createLocation,
		StartTime:    start,
		EndTime:      end,
		Attendees:    attendees,
		WithMeetLink: provider == domain.ProviderGoogleMeet,
	})
	if err != nil {
		return fmt.Errorf("creating event: %w", err)
	}

	cmd.Printf("Created event %q (%s).\n", created.Title, created.ExternalID)
	if created.MeetingURL != "" {
		cmd.Printf("Meeting link: %s\n", created.MeetingURL)
	}
	if created.HTMLLink != "" {
		cmd.Printf("Link: %s\n", created.HTMLLink)
	}
	return nil
}
