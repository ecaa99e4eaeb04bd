// Package scheduler runs the console's periodic background work: pruning
// stale plan-cache rows and polling the backend for new athlete feedback.
package scheduler

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/maheo/foulee/internal/models"
	"github.com/maheo/foulee/internal/notify"
	"github.com/maheo/foulee/internal/remote"
)

// Status holds the result of the last maintenance run.
type Status struct {
	LastRun      time.Time
	NextRun      time.Time
	CachePruned  int64
	NewFeedback  int
	ScopesPolled int
}

// Scheduler runs periodic maintenance tasks in the background.
type Scheduler struct {
	db       *sql.DB
	backend  remote.Service
	notifier *notify.Notifier

	interval time.Duration
	maxAge   time.Duration

	stop chan struct{}
	done chan struct{}

	mu     sync.RWMutex
	status Status

	// seen tracks how many feedback entries each scope had at the last
	// poll, so only growth triggers a notification.
	seen map[models.Scope]int
}

// New creates a Scheduler. interval is how often maintenance runs; maxAge
// is the plan-cache retention.
func New(db *sql.DB, backend remote.Service, notifier *notify.Notifier, interval, maxAge time.Duration) *Scheduler {
	return &Scheduler{
		db:       db,
		backend:  backend,
		notifier: notifier,
		interval: interval,
		maxAge:   maxAge,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		seen:     make(map[models.Scope]int),
	}
}

// Start begins running maintenance tasks. It runs an initial pass immediately,
// then repeats at the configured interval. Call Stop to shut down gracefully.
func (s *Scheduler) Start() {
	go s.run()
	log.Println("Background scheduler started")
}

// Stop signals the scheduler to shut down and waits for it to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// Status returns the result of the last maintenance run.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Scheduler) run() {
	defer close(s.done)

	// Run immediately on startup, then at the configured interval.
	s.runMaintenance()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runMaintenance()
		case <-s.stop:
			return
		}
	}
}

// runMaintenance executes one maintenance pass.
func (s *Scheduler) runMaintenance() {
	log.Println("Running scheduled maintenance...")

	pruned := s.pruneCache()
	newFeedback, polled := s.pollFeedback()

	now := time.Now()
	s.mu.Lock()
	s.status = Status{
		LastRun:      now,
		NextRun:      now.Add(s.interval),
		CachePruned:  pruned,
		NewFeedback:  newFeedback,
		ScopesPolled: polled,
	}
	s.mu.Unlock()

	log.Println("Scheduled maintenance complete")
}

// pruneCache removes plan-cache rows past the retention period.
func (s *Scheduler) pruneCache() int64 {
	pruned, err := models.PrunePlanCache(s.db, s.maxAge)
	if err != nil {
		log.Printf("Maintenance: prune plan cache: %v", err)
		return 0
	}
	if pruned > 0 {
		log.Printf("Maintenance: pruned %d stale cached plan(s)", pruned)
	}
	return pruned
}

// pollFeedback checks every cached scope for feedback that arrived since
// the previous poll and broadcasts a notification for the growth. The first
// poll of a scope only records the baseline.
func (s *Scheduler) pollFeedback() (newEntries, polled int) {
	if s.backend == nil {
		return 0, 0
	}

	scopes, err := models.ListCachedScopes(s.db)
	if err != nil {
		log.Printf("Maintenance: list scopes: %v", err)
		return 0, 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, scope := range scopes {
		entries, err := s.backend.LoadFeedback(ctx, scope.GroupID, scope.AthleteID, -1)
		if err != nil {
			log.Printf("Maintenance: poll feedback %s/%s: %v", scope.GroupID, scope.AthleteID, err)
			continue
		}
		polled++

		prev, known := s.seen[scope]
		s.seen[scope] = len(entries)
		if !known || len(entries) <= prev {
			continue
		}

		fresh := entries[prev:]
		newEntries += len(fresh)
		if s.notifier != nil {
			s.notifier.Broadcast(notify.FeedbackMessage(scope.GroupID, scope.AthleteID, fresh))
		}
	}
	return newEntries, polled
}
