package provider

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/salon-scheduler/backend/internal/token"
	"github.com/salon-scheduler/backend/internal/websocket"
)

// Scheduler runs periodic provider sync passes and housekeeping jobs.
type Scheduler struct {
	cron        *cron.Cron
	syncService *SyncService
	broadcaster *websocket.EventBroadcaster
	limiter     *token.MemoryLimiter

	interval time.Duration
}

// NewScheduler creates a sync scheduler. intervalMin controls how often the
// periodic pass runs; values below one minute fall back to 15 minutes.
func NewScheduler(
	syncService *SyncService,
	hub *websocket.Hub,
	limiter *token.MemoryLimiter,
	intervalMin int,
) *Scheduler {
	if intervalMin <= 0 {
		intervalMin = 15
	}

	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Scheduler{
		cron:        cron.New(),
		syncService: syncService,
		broadcaster: broadcaster,
		limiter:     limiter,
		interval:    time.Duration(intervalMin) * time.Minute,
	}
}

// Start begins the periodic jobs.
func (s *Scheduler) Start() error {
	log.Println("Starting provider sync scheduler...")

	if _, err := s.cron.AddFunc("@every "+s.interval.String(), func() {
		s.syncDue()
	}); err != nil {
		return err
	}

	if s.limiter != nil {
		// Drop idle rate limit buckets so the map does not grow unbounded.
		if _, err := s.cron.AddFunc("@every 5m", func() {
			s.limiter.Sweep()
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Printf("Provider scheduler started, syncing every %s", s.interval)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	log.Println("Stopping provider sync scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Provider scheduler stopped")
}

// TriggerSync runs an immediate sync for a connection in the background.
func (s *Scheduler) TriggerSync(connectionID string) {
	go func() {
		result, err := s.syncService.SyncConnection(context.Background(), connectionID)
		if err != nil {
			log.Printf("Manual sync failed for connection %s: %v", connectionID, err)
			if s.broadcaster != nil && result != nil {
				s.broadcaster.BroadcastSyncError(result.ConnectionID, result.StaffID, err)
			}
			return
		}

		if s.broadcaster != nil {
			s.broadcaster.BroadcastSyncCompleted(
				result.ConnectionID, result.StaffID,
				result.Created, result.Updated, result.Deleted, len(result.Errors),
			)
		}
	}()
}

// syncDue runs the periodic pass over stale connections.
func (s *Scheduler) syncDue() {
	results, err := s.syncService.SyncDue(context.Background())
	if err != nil {
		log.Printf("Provider sync pass failed: %v", err)
		return
	}

	if s.broadcaster == nil {
		return
	}

	for _, result := range results {
		s.broadcaster.BroadcastSyncCompleted(
			result.ConnectionID, result.StaffID,
			result.Created, result.Updated, result.Deleted, len(result.Errors),
		)
	}
}
