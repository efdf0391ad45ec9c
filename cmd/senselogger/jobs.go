package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtraver/sensehat/cache"
	"github.com/mtraver/sensehat/measurement"
	"github.com/mtraver/sensehat/sample"
	"github.com/mtraver/sensehat/sink"
)

type sampler interface {
	TakeN(ctx context.Context, n int, interval time.Duration) ([]measurement.Reading, error)
}

// SenseJob takes and averages a batch of readings, caches the result as the
// device's latest reading and publishes it to every sink.
type SenseJob struct {
	Sampler  sampler
	Samples  int
	Interval time.Duration

	Sink      sink.Sink
	Cache     *cache.Cache[measurement.Reading]
	LatestTTL time.Duration
	DeviceID  string

	// Timeout bounds one run, sampling and publishing included.
	Timeout time.Duration
}

var _ sampler = sample.Sampler{}

func (j SenseJob) Run() {
	ctx := context.Background()
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	if err := j.run(ctx); err != nil {
		slog.Error("sense job failed", "err", err)
	}
}

func (j SenseJob) run(ctx context.Context) error {
	readings, err := j.Sampler.TakeN(ctx, j.Samples, j.Interval)
	if err != nil {
		return err
	}

	r, err := measurement.Average(readings)
	if err != nil {
		return err
	}
	r.DeviceID = j.DeviceID

	if len(readings) > 1 {
		slog.Debug("averaged readings", "n", len(readings), "stddev", measurement.StdDev(readings))
	}

	j.Cache.Set(measurement.CacheKeyLatest(j.DeviceID), r, j.LatestTTL)

	return j.Sink.Publish(ctx, r)
}
