// Program senselogger periodically reads the Sense HAT's environmental sensors
// and publishes the corrected readings to the sinks named in its config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/mtraver/sensehat/cache"
	"github.com/mtraver/sensehat/compensate"
	"github.com/mtraver/sensehat/cputemp"
	"github.com/mtraver/sensehat/logging"
	"github.com/mtraver/sensehat/measurement"
	"github.com/mtraver/sensehat/sample"
	"github.com/mtraver/sensehat/sensehat"
	"github.com/mtraver/sensehat/sink"
	cron "github.com/robfig/cron/v3"
)

// Flags.
var (
	configPath string
	cronSpec   string
	port       int
	dryrun     bool
	samples    int
	verbose    bool
	logJSON    bool
)

// This directory is where we'll store anything the program needs to persist,
// like messages pending upload. It's joined with the user's home directory in realMain.
const dotDirName = ".senselogger"

func init() {
	flag.StringVar(&configPath, "config", "", "path to the TOML config file (default ~/.senselogger/config.toml)")
	flag.StringVar(&cronSpec, "cronspec", "", "cron spec that specifies when to take and publish readings; overrides the config file")
	flag.IntVar(&port, "port", 8080, "port on which the device's web server should listen")
	flag.BoolVar(&dryrun, "dryrun", false, "set to true to log rather than publish readings")
	flag.IntVar(&samples, "samples", 0, "number of readings averaged per tick; overrides the config file")
	flag.BoolVar(&verbose, "v", false, "enable debug logging")
	flag.BoolVar(&logJSON, "log-json", false, "log in JSON rather than text")
}

// parseFlags parses the flags and loads the config, applying flag overrides.
func parseFlags(dotDir string) (config, settings, error) {
	flag.Parse()

	if len(flag.Args()) != 0 {
		return config{}, settings{}, fmt.Errorf("unexpected arguments %q", flag.Args())
	}

	if configPath == "" {
		configPath = filepath.Join(dotDir, "config.toml")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return config{}, settings{}, err
	}

	if cronSpec != "" {
		cfg.CronSpec = cronSpec
	}
	if samples != 0 {
		cfg.Samples = samples
	}

	if cfg.DeviceID == "" {
		if cfg.DeviceID, err = os.Hostname(); err != nil {
			return config{}, settings{}, fmt.Errorf("device_id not set and failed to get hostname: %w", err)
		}
	}

	s, err := cfg.settings()
	if err != nil {
		return config{}, settings{}, err
	}

	return cfg, s, nil
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	home, err := homedir.Dir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get home dir: %v\n", err)
		return 1
	}
	dotDir := filepath.Join(home, dotDirName)

	cfg, set, err := parseFlags(dotDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "argument error: %v\n", err)
		return 2
	}

	logger := logging.New(os.Stderr, "senselogger", logging.Options{Debug: verbose, JSON: logJSON})
	slog.SetDefault(logger)

	if err := os.MkdirAll(dotDir, 0700); err != nil {
		logger.Error("failed to make dir", "dir", dotDir, "err", err)
		return 1
	}

	comp, err := compensate.New(cfg.Factor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "argument error: %v\n", err)
		return 2
	}
	cpu, err := cputemp.FromName(cfg.CPUSource)
	if err != nil {
		fmt.Fprintf(os.Stderr, "argument error: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks sink.Multi
	if dryrun {
		sinks = sink.Multi{{Name: "log", Sink: sink.Log{Logger: logger}}}
	} else if sinks, err = cfg.openSinks(ctx, dotDir); err != nil {
		logger.Error("failed to open sinks", "err", err)
		return 1
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("failed to close sinks", "err", err)
		}
	}()
	if len(sinks) == 0 {
		logger.Warn("no sinks configured; readings will only be cached")
	}

	sensors, err := sensehat.OpenSensors(set.sensors)
	if err != nil {
		logger.Error("failed to open sensors", "board", set.sensors.Board, "err", err)
		return 1
	}
	defer func() {
		if err := sensors.Close(); err != nil {
			logger.Warn("failed to close sensors", "err", err)
		}
	}()

	latest := cache.New[measurement.Reading]()
	go latest.CleanEvery(ctx, set.ttl)

	job := SenseJob{
		Sampler: sample.Sampler{
			Sensor:      sensors,
			CPU:         cpu,
			Compensator: comp,
			DeviceID:    cfg.DeviceID,
		},
		Samples:   cfg.Samples,
		Interval:  set.interval,
		Sink:      sinks,
		Cache:     latest,
		LatestTTL: set.ttl,
		DeviceID:  cfg.DeviceID,
		Timeout:   time.Duration(cfg.Samples)*set.interval + time.Minute,
	}

	// Schedule the sense job. A tick that comes while the previous run is still
	// going is skipped.
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	cr := cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.SkipIfStillRunning(cronLogger)))
	if _, err := cr.AddJob(cfg.CronSpec, job); err != nil {
		fmt.Fprintf(os.Stderr, "argument error: invalid cronspec %q: %v\n", cfg.CronSpec, err)
		return 2
	}
	logger.Info("starting cron scheduler", "spec", cfg.CronSpec, "device", cfg.DeviceID, "sinks", sinks.Names())
	cr.Start()

	// Start up a web server that provides basic info about the device.
	srv := &http.Server{
		Addr: fmt.Sprintf(":%v", port),
		Handler: server{
			deviceID: cfg.DeviceID,
			sinks:    sinks.Names(),
			cache:    latest,
			now:      time.Now,
		}.router(),
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	code := 0
	select {
	case <-ctx.Done():
		logger.Info("cleaning up")
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server failed", "err", err)
			code = 1
		}
	}

	// Let a running job finish before the sinks and sensors are closed.
	<-cr.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shut down web server", "err", err)
	}

	return code
}
