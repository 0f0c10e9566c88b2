// Package system provides system-level services for monitoring and maintenance.
package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"castlane.dev/signcast/backend/internal/db/redis/managers"
	"castlane.dev/signcast/backend/internal/utils"
)

// MaintenanceTask represents a maintenance task to be executed.
type MaintenanceTask struct {
	Name     string
	Interval time.Duration
	LastRun  time.Time
	Fn       func(context.Context) error
}

// MaintenanceConfig contains configuration for the maintenance service.
type MaintenanceConfig struct {
	// Whether to enable automatic maintenance tasks
	Enabled bool
	// Interval for checking due maintenance tasks
	MaintenanceInterval time.Duration
	// Timeout for individual maintenance tasks
	TaskTimeout time.Duration
}

// DefaultMaintenanceConfig returns the default maintenance configuration.
func DefaultMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		Enabled:             true,
		MaintenanceInterval: 1 * time.Hour,
		TaskTimeout:         10 * time.Minute,
	}
}

// MaintenanceService manages periodic system maintenance tasks.
type MaintenanceService struct {
	config      MaintenanceConfig
	mongoDB     *mongo.Database
	sessionMgr  *managers.SessionManager
	presenceMgr *managers.PresenceManager
	logger      *utils.Logger
	tasks       []*MaintenanceTask
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
}

// NewMaintenanceService creates a new maintenance service.
func NewMaintenanceService(
	config MaintenanceConfig,
	mongoDB *mongo.Database,
	sessionMgr *managers.SessionManager,
	presenceMgr *managers.PresenceManager,
	logger *utils.Logger,
) *MaintenanceService {
	s := &MaintenanceService{
		config:      config,
		mongoDB:     mongoDB,
		sessionMgr:  sessionMgr,
		presenceMgr: presenceMgr,
		logger:      logger.Named("maintenance_service"),
		stopCh:      make(chan struct{}),
		tasks:       make([]*MaintenanceTask, 0),
	}

	// Register default maintenance tasks
	s.RegisterTask("session_cleanup", config.MaintenanceInterval, s.CleanupSessions)
	s.RegisterTask("screen_presence_cleanup", config.MaintenanceInterval, s.CleanupScreenPresence)
	s.RegisterTask("database_optimization", 24*time.Hour, s.OptimizeDatabase)

	return s
}

// RegisterTask registers a new maintenance task.
func (s *MaintenanceService) RegisterTask(name string, interval time.Duration, fn func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := &MaintenanceTask{
		Name:     name,
		Interval: interval,
		LastRun:  time.Now().Add(-interval), // Schedule to run immediately
		Fn:       fn,
	}

	s.tasks = append(s.tasks, task)
	s.logger.Info("Registered maintenance task", "name", name, "interval", interval)
}

// Start starts the maintenance service.
func (s *MaintenanceService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Maintenance service is disabled")
		return nil
	}

	s.logger.Info("Starting maintenance service")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runDueTasks(ctx)
			case <-s.stopCh:
				s.logger.Info("Stopping maintenance service")
				return
			case <-ctx.Done():
				s.logger.Info("Context cancelled, stopping maintenance service")
				return
			}
		}
	}()

	return nil
}

// Stop stops the maintenance service.
func (s *MaintenanceService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// runDueTasks runs all maintenance tasks that are due.
func (s *MaintenanceService) runDueTasks(ctx context.Context) {
	s.mu.Lock()
	var dueTasks []*MaintenanceTask
	now := time.Now()
	for _, task := range s.tasks {
		if now.Sub(task.LastRun) >= task.Interval {
			dueTasks = append(dueTasks, task)
		}
	}
	s.mu.Unlock()

	if len(dueTasks) == 0 {
		return
	}

	s.logger.Debug("Running due maintenance tasks", "count", len(dueTasks))

	for _, task := range dueTasks {
		taskCtx, cancel := context.WithTimeout(ctx, s.config.TaskTimeout)

		func() {
			defer cancel()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Task panic recovered", fmt.Errorf("%v", r), "name", task.Name)
				}
			}()

			if err := task.Fn(taskCtx); err != nil {
				s.logger.Error("Maintenance task failed", err, "name", task.Name)
				return
			}

			s.mu.Lock()
			task.LastRun = time.Now()
			s.mu.Unlock()

			s.logger.Debug("Completed maintenance task", "name", task.Name)
		}()
	}
}

// PerformMaintenance runs a specific maintenance task by name.
func (s *MaintenanceService) PerformMaintenance(ctx context.Context, taskName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range s.tasks {
		if task.Name == taskName {
			s.logger.Info("Running maintenance task", "name", taskName)
			if err := task.Fn(ctx); err != nil {
				return fmt.Errorf("failed to run maintenance task %s: %w", taskName, err)
			}
			task.LastRun = time.Now()
			s.logger.Info("Completed maintenance task", "name", taskName)
			return nil
		}
	}

	return fmt.Errorf("maintenance task not found: %s", taskName)
}

// CleanupSessions removes expired session records.
func (s *MaintenanceService) CleanupSessions(ctx context.Context) error {
	cleaned, err := s.sessionMgr.CleanupExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}

	s.logger.Info("Session cleanup completed", "cleanedCount", cleaned)
	return nil
}

// CleanupScreenPresence removes presence entries for screens that have
// stopped reporting heartbeats.
func (s *MaintenanceService) CleanupScreenPresence(ctx context.Context) error {
	expired, err := s.presenceMgr.CleanupExpiredScreens(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup screen presence: %w", err)
	}

	if len(expired) > 0 {
		s.logger.Info("Screen presence cleanup completed", "expiredCount", len(expired))
	}
	return nil
}

// OptimizeDatabase performs database optimization tasks.
func (s *MaintenanceService) OptimizeDatabase(ctx context.Context) error {
	if s.mongoDB == nil {
		return fmt.Errorf("database connection is nil")
	}

	collections := []string{"users", "playlists", "media", "screens"}
	var errs []error

	for _, collection := range collections {
		opCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)

		command := bson.D{{Key: "compact", Value: collection}}
		result := s.mongoDB.RunCommand(opCtx, command)
		cancel()

		if result.Err() != nil {
			s.logger.Error("Collection optimization failed", result.Err(), "collection", collection)
			errs = append(errs, fmt.Errorf("failed to optimize collection %s: %w", collection, result.Err()))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("database optimization completed with errors: %v", errs)
	}

	s.logger.Info("Database optimization completed")
	return nil
}
