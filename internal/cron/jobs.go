package cron

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/channelmux/channelmux/internal/feed"
	"github.com/channelmux/channelmux/internal/models"
	"github.com/channelmux/channelmux/pkg/config"
	"github.com/channelmux/channelmux/pkg/logging"
)

// Inserter writes one feed item into a channel; satisfied by *feed.Store
type Inserter interface {
	CreateMessage(ctx context.Context, username string, in *feed.CreateMessageInput) (*models.FeedItem, error)
}

// Lister resolves the target channel list for a run
type Lister interface {
	List(ctx context.Context) []string
}

// ChannelResult records the outcome of one channel's insert
type ChannelResult struct {
	Channel   string `json:"channel"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Summary is the result of one job run
type Summary struct {
	Success bool            `json:"success"`
	Results []ChannelResult `json:"results"`
}

// Job inserts one piece of fetched content into each target channel.
// Channels are processed sequentially; a failure on one channel is
// recorded and does not affect the others.
type Job struct {
	name     string
	lister   Lister
	fetcher  ContentFetcher
	inserter Inserter
	logger   *zap.Logger
}

// NewJob creates a new cron job
func NewJob(name string, lister Lister, fetcher ContentFetcher, inserter Inserter) *Job {
	return &Job{
		name:     name,
		lister:   lister,
		fetcher:  fetcher,
		inserter: inserter,
		logger:   logging.WithComponent("cron-" + name),
	}
}

// Run executes one pass of the job
func (j *Job) Run(ctx context.Context) Summary {
	channels := j.lister.List(ctx)
	summary := Summary{Success: true, Results: []ChannelResult{}}
	if len(channels) == 0 {
		return summary
	}

	content, err := j.fetcher.Fetch(ctx)
	if err != nil {
		j.logger.Error("Content fetch failed", zap.Error(err))
		for _, channel := range channels {
			summary.Results = append(summary.Results, ChannelResult{
				Channel: channel,
				Success: false,
				Error:   err.Error(),
			})
		}
		summary.Success = false
		return summary
	}

	for _, channel := range channels {
		item, err := j.inserter.CreateMessage(ctx, channel, &feed.CreateMessageInput{
			Type:    models.FeedTypeTweet,
			Content: content,
		})
		if err != nil {
			j.logger.Warn("Insert failed",
				zap.String("channel", channel), zap.Error(err))
			summary.Results = append(summary.Results, ChannelResult{
				Channel: channel,
				Success: false,
				Error:   err.Error(),
			})
			summary.Success = false
			continue
		}
		summary.Results = append(summary.Results, ChannelResult{
			Channel:   channel,
			Success:   true,
			MessageID: item.ID,
		})
	}
	return summary
}

// Name returns the job name
func (j *Job) Name() string {
	return j.name
}

// staticLister serves a fixed channel list
type staticLister struct {
	channels []string
}

func (l *staticLister) List(ctx context.Context) []string {
	return l.channels
}

// Runner owns the three scheduled jobs
type Runner struct {
	global *Job
	tenant *Job
	elon   *Job
}

// NewRunner wires the global, tenant, and elon jobs from config
func NewRunner(cfg *config.CronConfig, inserter Inserter) *Runner {
	fetcher := NewJokeFetcher(cfg.ContentURL, cfg.RequestTimeout)
	return &Runner{
		global: NewJob("global",
			NewChannelLister(cfg.ChannelListURL, cfg.GlobalChannels, cfg.RequestTimeout),
			fetcher, inserter),
		tenant: NewJob("tenant",
			&staticLister{channels: SplitChannels(cfg.TenantChannels)},
			fetcher, inserter),
		elon: NewJob("elon",
			&staticLister{channels: []string{"elonmusk"}},
			fetcher, inserter),
	}
}

// RunGlobal runs the global-channels job
func (r *Runner) RunGlobal(ctx context.Context) Summary {
	return r.global.Run(ctx)
}

// RunTenant runs the tenant-channels job
func (r *Runner) RunTenant(ctx context.Context) Summary {
	return r.tenant.Run(ctx)
}

// RunElon runs the elon job
func (r *Runner) RunElon(ctx context.Context) Summary {
	return r.elon.Run(ctx)
}

// RunAll runs every job once; used by the ticker loop in the worker
func (r *Runner) RunAll(ctx context.Context) {
	for _, job := range []*Job{r.global, r.tenant, r.elon} {
		summary := job.Run(ctx)
		job.logger.Info("Cron run finished",
			zap.Bool("success", summary.Success),
			zap.Int("channels", len(summary.Results)))
	}
}

// Loop runs all jobs on a fixed interval until ctx is cancelled
func (r *Runner) Loop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	r.RunAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.RunAll(ctx)
		}
	}
}
