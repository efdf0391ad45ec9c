// Package sink publishes readings to the places the logger sends them.
package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mtraver/sensehat/measurement"
)

// Sink is a publication target for readings.
type Sink interface {
	Publish(ctx context.Context, r measurement.Reading) error
	Close() error
}

// Named pairs a sink with the name it is logged and reported under.
type Named struct {
	Name string
	Sink Sink
}

// Multi publishes to all of its sinks concurrently.
type Multi []Named

func (m Multi) Names() []string {
	names := make([]string, len(m))
	for i, n := range m {
		names[i] = n.Name
	}
	return names
}

// Publish returns the errors of all sinks that failed, joined. A failing sink
// does not stop the others.
func (m Multi) Publish(ctx context.Context, r measurement.Reading) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(m))

	for _, n := range m {
		wg.Add(1)
		go func(n Named) {
			defer wg.Done()
			if err := n.Sink.Publish(ctx, r); err != nil {
				errs <- fmt.Errorf("[%s] %w", n.Name, err)
				return
			}
			slog.Debug("successful publish", "sink", n.Name)
		}(n)
	}

	wg.Wait()
	close(errs)

	errSlice := []error{}
	for e := range errs {
		errSlice = append(errSlice, e)
	}

	return errors.Join(errSlice...)
}

func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if err := n.Sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("[%s] %w", n.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Log writes readings to a logger instead of publishing them.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Publish(ctx context.Context, r measurement.Reading) error {
	l.Logger.Info("reading", "device", r.DeviceID, "reading", r.String())
	return nil
}

func (l Log) Close() error {
	return nil
}
