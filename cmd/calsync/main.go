// Command calsync synchronises external calendars into a local
// availability mirror.
package main

import (
	"fmt"
	"os"

	"github.com/skedi/calendar-sync/internal/adapters/driven/config/file"
	"github.com/skedi/calendar-sync/internal/adapters/driven/storage/sqlite"
	"github.com/skedi/calendar-sync/internal/adapters/driving/cli"
	"github.com/skedi/calendar-sync/internal/adapters/driving/queue"
	"github.com/skedi/calendar-sync/internal/core/services"
	"github.com/skedi/calendar-sync/internal/providers"
	"github.com/skedi/calendar-sync/internal/providers/google"
	"github.com/skedi/calendar-sync/internal/providers/googlemeet"
	"github.com/skedi/calendar-sync/internal/providers/microsoft"
)

func main() {
	os.Exit(run())
}

func run() int {
	configStore, err := file.NewStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}

	store, err := sqlite.NewStore(configStore.DataDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening store: %v\n", err)
		return 1
	}
	defer store.Close()

	registry := providers.NewRegistry(
		google.NewAdapter(),
		googlemeet.NewAdapter(),
		microsoft.NewAdapter(),
	)

	authService := services.NewAuthService(
		store.IntegrationStore(),
		registry,
		configStore.OAuthApps(),
		store.Cache(),
		configStore.CacheTTLTable(),
	)
	limiter := services.NewRateLimiter(configStore.RateLimitTable(), store.RateLimitStore())
	syncService := services.NewSyncService(
		authService,
		registry,
		store.IntegrationStore(),
		store.EventStore(),
		store.BusyBlockPublisher(),
		limiter,
		store.Cache(),
		configStore.CacheTTLTable(),
		services.NewSyncLock(),
	)
	batchService := services.NewBatchService(
		store.IntegrationStore(),
		store.EventStore(),
		syncService,
		configStore.SyncHorizon(),
	)
	scheduler := services.NewScheduler(
		configStore.SchedulerConfig(),
		store.SchedulerStore(),
		batchService,
		limiter,
		configStore.RetentionDays(),
	)

	queueHandler := queue.NewHandler(store.IntegrationStore(), authService, syncService)

	cli.Configure(cli.Dependencies{
		Auth:         authService,
		Sync:         syncService,
		Batch:        batchService,
		Scheduler:    scheduler,
		Queue:        queueHandler,
		Integrations: store.IntegrationStore(),
		Config:       configStore,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
