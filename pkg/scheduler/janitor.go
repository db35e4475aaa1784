package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"gamification-engine/pkg/cache"
)

// RulesRefresher rebuilds the variable-to-rules index from the catalog.
type RulesRefresher interface {
	RefreshRules(ctx context.Context) error
}

// Config sets up the background janitor.
type Config struct {
	Today   *cache.TodayCache
	Rules   RulesRefresher
	Logger  *logrus.Logger
	Clock   func() time.Time
	Prune   string // cron spec for today-cache pruning, default @every 10m
	Refresh string // cron spec for rules refresh, default @hourly
}

// Janitor runs the periodic maintenance jobs: pruning expired today-cache
// entries and refreshing the rules index so catalog edits made outside this
// process eventually take effect.
type Janitor struct {
	cron  *cron.Cron
	today *cache.TodayCache
	rules RulesRefresher
	log   *logrus.Logger
	clock func() time.Time
}

// NewJanitor registers the maintenance jobs without starting them.
func NewJanitor(cfg Config) (*Janitor, error) {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	pruneSpec := cfg.Prune
	if pruneSpec == "" {
		pruneSpec = "@every 10m"
	}
	refreshSpec := cfg.Refresh
	if refreshSpec == "" {
		refreshSpec = "@hourly"
	}

	j := &Janitor{
		cron:  cron.New(),
		today: cfg.Today,
		rules: cfg.Rules,
		log:   log,
		clock: clock,
	}

	if j.today != nil {
		if _, err := j.cron.AddFunc(pruneSpec, j.pruneTodayCache); err != nil {
			return nil, err
		}
	}
	if j.rules != nil {
		if _, err := j.cron.AddFunc(refreshSpec, j.refreshRules); err != nil {
			return nil, err
		}
	}
	return j, nil
}

// Start launches the cron loop in its own goroutine.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop stops scheduling and waits for running jobs to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) pruneTodayCache() {
	pruned := j.today.Prune(j.clock())
	if pruned > 0 {
		j.log.WithField("pruned", pruned).Debug("today cache pruned")
	}
}

func (j *Janitor) refreshRules() {
	if err := j.rules.RefreshRules(context.Background()); err != nil {
		j.log.WithError(err).Warn("rules refresh failed")
	}
}
