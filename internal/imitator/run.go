package imitator

import (
	"context"
	"time"

	"github.com/mamchain/mamio/internal/logger"
	"github.com/mamchain/mamio/internal/schedule"

	"go.uber.org/zap"
)

type SchedulerConfiguration struct {
	Tick              time.Duration `mapstructure:"tick"`
	CreateIntervalMin time.Duration `mapstructure:"create_interval_min"`
	CreateIntervalMax time.Duration `mapstructure:"create_interval_max"`
	RedeemInterval    time.Duration `mapstructure:"redeem_interval"`
	RepledgeInterval  time.Duration `mapstructure:"repledge_interval"`
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
	PopulationCap     int64         `mapstructure:"population_cap"`
	MaxCreations      int           `mapstructure:"max_creations"`
}

// Run drives every activity from one ticker until ctx is cancelled or the
// creation budget is spent.
func (im *Imitator) Run(ctx context.Context, configuration SchedulerConfiguration) error {
	logger.Info("imitator started",
		zap.Duration("tick", configuration.Tick),
		zap.Int64("population cap", configuration.PopulationCap),
	)

	scheduler, _ := im.newScheduler(configuration)
	return scheduler.Run(ctx)
}

func (im *Imitator) newScheduler(configuration SchedulerConfiguration) (*schedule.Scheduler, *creationPolicy) {
	creation := &creationPolicy{
		im:            im,
		populationCap: configuration.PopulationCap,
		maxCreations:  configuration.MaxCreations,
	}

	scheduler := schedule.New(im.clock, configuration.Tick,
		&schedule.Task{
			Name:     "sweep pow pool",
			Interval: schedule.Every(0),
			Run: func(ctx context.Context) error {
				_, err := im.SweepPowPool(ctx)
				return err
			},
		},
		&schedule.Task{
			Name:      "stake new user",
			Interval:  im.jitter(configuration.CreateIntervalMin, configuration.CreateIntervalMax),
			Immediate: true,
			Run:       creation.fire,
		},
		&schedule.Task{
			Name:     "vote redeem",
			Interval: schedule.Every(configuration.RedeemInterval),
			Run: func(ctx context.Context) error {
				_, err := im.VoteRedeem(ctx)
				return err
			},
		},
		&schedule.Task{
			Name:     "redeem to vote",
			Interval: schedule.Every(configuration.RepledgeInterval),
			Run: func(ctx context.Context) error {
				_, err := im.TransRedeemToVote(ctx)
				return err
			},
		},
		&schedule.Task{
			Name:     "save vote amount",
			Interval: schedule.Every(configuration.ReconcileInterval),
			Run: func(ctx context.Context) error {
				_, err := im.SaveVoteAmount(ctx)
				return err
			},
		},
	)

	return scheduler, creation
}

// jitter draws whole seconds in [min, max].
func (im *Imitator) jitter(min time.Duration, max time.Duration) func() time.Duration {
	return func() time.Duration {
		seconds := im.random.Between(int(min/time.Second), int(max/time.Second))
		return time.Duration(seconds) * time.Second
	}
}

// creationPolicy gates staker creation. Once the vote population reaches the
// cap creation stays off for the rest of the run, even if the population
// shrinks afterwards.
type creationPolicy struct {
	im            *Imitator
	populationCap int64
	maxCreations  int

	attempts int
	disabled bool
}

func (p *creationPolicy) fire(ctx context.Context) error {
	if p.disabled {
		return nil
	}

	population, err := p.im.storage.CountVotes()
	if err != nil {
		return err
	}
	if population >= p.populationCap {
		p.disabled = true
		logger.Info("population cap reached, staker creation disabled",
			zap.Int64("population", population),
			zap.Int64("cap", p.populationCap),
		)
		return nil
	}

	created, err := p.im.StakeNewUser(ctx, 1)
	if err != nil {
		return err
	}

	p.attempts++
	logger.Info("stake new user: done", zap.Int("attempts", p.attempts), zap.Int("created", created))

	if p.maxCreations > 0 && p.attempts >= p.maxCreations {
		return schedule.ErrStop
	}
	return nil
}
