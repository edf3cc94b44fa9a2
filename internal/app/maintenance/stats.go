package maintenance

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/splitnest/splitnest/internal/models"
	"github.com/splitnest/splitnest/pkg/logger"
	"github.com/splitnest/splitnest/pkg/metrics"
)

const defaultStatsSpec = "@every 5m"

// Sweeper periodically refreshes domain gauges (user count, pending
// invitations, shared expenses) from the database. Nothing is deleted;
// invitation and expense rows are permanent records.
type Sweeper struct {
	db   *gorm.DB
	cron *cron.Cron
	log  *zap.Logger

	schedule string
}

// Option customises the Sweeper.
type Option func(*Sweeper)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Sweeper) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for the stats sweep.
func WithSchedule(spec string) Option {
	return func(s *Sweeper) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// NewSweeper constructs a Sweeper with sensible defaults.
func NewSweeper(db *gorm.DB, opts ...Option) *Sweeper {
	sweeper := &Sweeper{
		db:       db,
		schedule: defaultStatsSpec,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(sweeper)
	}

	if sweeper.cron == nil {
		sweeper.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return sweeper
}

// Start registers the sweep job with the cron scheduler and launches it.
func (s *Sweeper) Start() error {
	if s.db == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("stats sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for in-flight jobs to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunOnce performs a single sweep. Individual count failures are accumulated
// so one broken query does not starve the other gauges.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	var errs error

	count, err := s.count(ctx, &models.User{}, nil)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count users: %w", err))
	} else {
		metrics.UsersTotal.Set(float64(count))
	}

	count, err = s.count(ctx, &models.Invitation{}, map[string]any{"status": models.InvitationStatusPending})
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count pending invitations: %w", err))
	} else {
		metrics.PendingInvitations.Set(float64(count))
	}

	count, err = s.count(ctx, &models.SharedExpense{}, nil)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count shared expenses: %w", err))
	} else {
		metrics.SharedExpensesTotal.Set(float64(count))
	}

	return errs
}

func (s *Sweeper) count(ctx context.Context, model any, where map[string]any) (int64, error) {
	query := s.db.WithContext(ctx).Model(model)
	if where != nil {
		query = query.Where(where)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
