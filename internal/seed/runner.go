package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/childhealth/pkg/logger"
)

// ErrInvalidConfig is returned for unusable run settings.
var ErrInvalidConfig = errors.New("invalid seed config")

// Run generates cfg.Count surveys, submits them and fetches the resulting
// insights.
func Run(ctx context.Context, cfg *Config) (Stats, Insights, error) {
	log := logger.Get()
	stats := Stats{StartTime: time.Now()}

	if cfg.BaseURL == "" || cfg.Count < 1 {
		return stats, Insights{}, fmt.Errorf("%w: need a base URL and a positive count", ErrInvalidConfig)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	reqs := NewGenerator(seed).Generate(cfg.Count)
	stats.Generated = len(reqs)
	log.Info(ctx, "generated surveys", logger.Int("count", len(reqs)), logger.Any("seed", seed))

	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := submit(ctx, client, reqs, cfg.Workers, cfg.Verbose, &stats); err != nil {
		return finish(stats), Insights{}, fmt.Errorf("submit surveys: %w", err)
	}
	stats = finish(stats)
	log.Info(ctx, "submission completed",
		logger.Int("created", stats.Created),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
	)

	var ins Insights
	if err := client.GetJSON(ctx, "/analysis", &ins); err != nil {
		return stats, Insights{}, fmt.Errorf("fetch analysis: %w", err)
	}
	log.Info(ctx, "dashboard insights",
		logger.Int("total", ins.Total),
		logger.String("mostCommonCategory", ins.MostCommonCategory),
		logger.Float64("averageProbability", ins.AverageProbability),
		logger.String("mostAffectedRegion", ins.MostAffectedRegion),
	)
	return stats, ins, nil
}

func finish(s Stats) Stats {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
	return s
}
