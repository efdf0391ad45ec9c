package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mtraver/envtools"
	"github.com/mtraver/sensehat/compensate"
	"github.com/mtraver/sensehat/sensehat"
	"github.com/mtraver/sensehat/sink"
)

const (
	defaultSampleInterval = 2 * time.Second
	defaultLatestTTL      = time.Hour
)

// config is the logger's TOML config file. Each sink is enabled by the
// presence of its table.
type config struct {
	DeviceID string `toml:"device_id"`
	CronSpec string `toml:"cronspec"`

	Board      string  `toml:"board"`
	Bus        string  `toml:"bus"`
	BME280Addr string  `toml:"bme280_addr"`
	Factor     float64 `toml:"factor"`
	CPUSource  string  `toml:"cpu_source"`

	Samples        int    `toml:"samples"`
	SampleInterval string `toml:"sample_interval"`
	LatestTTL      string `toml:"latest_ttl"`

	MQTT     *sink.MQTTConfig     `toml:"mqtt"`
	AWSIoT   *sink.AWSIoTConfig   `toml:"awsiot"`
	InfluxDB *sink.InfluxDBConfig `toml:"influxdb"`
	PubSub   *sink.PubSubConfig   `toml:"pubsub"`
	Kafka    *sink.KafkaConfig    `toml:"kafka"`
	SQLite   *sink.SQLiteConfig   `toml:"sqlite"`
}

func defaultConfig() config {
	return config{
		Board:     sensehat.BoardSenseHAT,
		Factor:    compensate.DefaultFactor,
		CPUSource: "auto",
		Samples:   1,
	}
}

// loadConfig reads the config file at path. A missing file yields the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return config{}, err
	}

	if _, err := toml.Decode(string(b), &cfg); err != nil {
		return config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

func (c config) sensorConfig() (sensehat.SensorConfig, error) {
	if err := sensehat.CheckBoard(c.Board); err != nil {
		return sensehat.SensorConfig{}, err
	}

	sc := sensehat.SensorConfig{
		Board: c.Board,
		Bus:   c.Bus,
	}

	if c.BME280Addr != "" {
		addr, err := strconv.ParseUint(c.BME280Addr, 0, 16)
		if err != nil {
			return sensehat.SensorConfig{}, fmt.Errorf("invalid bme280_addr %q: %w", c.BME280Addr, err)
		}
		sc.BME280Addr = uint16(addr)
	}

	return sc, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

// settings are the config values that need parsing before use.
type settings struct {
	sensors  sensehat.SensorConfig
	interval time.Duration
	ttl      time.Duration
}

// settings validates the config and parses its values.
func (c config) settings() (settings, error) {
	if c.CronSpec == "" {
		return settings{}, fmt.Errorf("cronspec must be given")
	}
	if c.Samples < 1 {
		return settings{}, fmt.Errorf("samples must be at least 1, got %d", c.Samples)
	}

	var s settings
	var err error
	if s.interval, err = parseDuration(c.SampleInterval, defaultSampleInterval); err != nil {
		return settings{}, fmt.Errorf("invalid sample_interval: %w", err)
	}
	if s.interval < 0 {
		return settings{}, fmt.Errorf("sample_interval must not be negative, got %v", s.interval)
	}
	if s.ttl, err = parseDuration(c.LatestTTL, defaultLatestTTL); err != nil {
		return settings{}, fmt.Errorf("invalid latest_ttl: %w", err)
	}
	if s.ttl <= 0 {
		return settings{}, fmt.Errorf("latest_ttl must be positive, got %v", s.ttl)
	}
	if s.sensors, err = c.sensorConfig(); err != nil {
		return settings{}, err
	}

	return s, nil
}

// openSinks connects every sink that has a table in the config. On error the
// sinks opened so far are closed.
func (c config) openSinks(ctx context.Context, dotDir string) (sink.Multi, error) {
	var sinks sink.Multi
	add := func(name string, s sink.Sink, err error) error {
		if err != nil {
			return fmt.Errorf("failed to open %s sink: %w", name, err)
		}
		sinks = append(sinks, sink.Named{Name: name, Sink: s})
		return nil
	}

	var err error
	if c.MQTT != nil {
		s, e := sink.NewMQTT(*c.MQTT, filepath.Join(dotDir, "mqtt_store"))
		err = add("mqtt", s, e)
	}
	if err == nil && c.AWSIoT != nil {
		s, e := sink.NewAWSIoT(*c.AWSIoT, filepath.Join(dotDir, "awsiot_store"))
		err = add("awsiot", s, e)
	}
	if err == nil && c.InfluxDB != nil {
		s, e := sink.NewInfluxDB(*c.InfluxDB, envtools.MustGetenv("INFLUXDB_TOKEN"))
		err = add("influxdb", s, e)
	}
	if err == nil && c.PubSub != nil {
		s, e := sink.NewPubSub(ctx, *c.PubSub)
		err = add("pubsub", s, e)
	}
	if err == nil && c.Kafka != nil {
		s, e := sink.NewKafka(*c.Kafka)
		err = add("kafka", s, e)
	}
	if err == nil && c.SQLite != nil {
		sc := *c.SQLite
		if sc.Path == "" {
			sc.Path = filepath.Join(dotDir, "readings.db")
		}
		s, e := sink.NewSQLite(ctx, sc)
		err = add("sqlite", s, e)
	}

	if err != nil {
		return nil, errors.Join(err, sinks.Close())
	}
	return sinks, nil
}
