package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/readup-server/internal/config"
	"github.com/listenupapp/readup-server/internal/logger"
	"github.com/listenupapp/readup-server/internal/scanner"
	"github.com/listenupapp/readup-server/internal/scheduler"
	"github.com/listenupapp/readup-server/internal/service"
)

// SchedulerHandle wraps the maintenance scheduler with shutdown capability.
type SchedulerHandle struct {
	*scheduler.Scheduler
}

// Shutdown implements do.Shutdownable.
func (h *SchedulerHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideScheduler provides the cron scheduler for periodic rescans and
// reindexes, already started.
func ProvideScheduler(i do.Injector) (*SchedulerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	fileScanner := do.MustInvoke[*scanner.Scanner](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	s := scheduler.New(storeHandle.Store, fileScanner, searchService, cfg.ScheduleConfig(), log.Logger)
	if err := s.Start(context.Background()); err != nil {
		return nil, err
	}

	log.Info("Scheduler started",
		"rescan_schedule", cfg.Scanner.RescanSchedule,
		"reindex_schedule", cfg.Scanner.ReindexSchedule,
	)

	return &SchedulerHandle{Scheduler: s}, nil
}
