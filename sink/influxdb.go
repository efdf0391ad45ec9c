package sink

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/mtraver/sensehat/measurement"
)

// InfluxDBConfig configures an InfluxDB sink. The token is not part of the
// config file.
type InfluxDBConfig struct {
	URL    string `toml:"url"`
	Org    string `toml:"org"`
	Bucket string `toml:"bucket"`
}

func newInfluxDBPoints(r measurement.Reading) []*write.Point {
	vm := r.ValueMap()
	points := make([]*write.Point, 0, len(vm))
	for name, v := range vm {
		p := influxdb2.NewPointWithMeasurement("stat")
		if metric, ok := measurement.GetMetric(name); ok {
			p = p.AddField(metric.Abbrv, v)
		} else {
			p = p.AddField(name, v)
		}

		points = append(points, p.AddTag("device", r.DeviceID).SetTime(r.Timestamp))
	}

	return points
}

// InfluxDB writes each of a reading's values as its own point.
type InfluxDB struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewInfluxDB(cfg InfluxDBConfig, token string) (*InfluxDB, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("sink: influxdb url, org and bucket must be given")
	}

	client := influxdb2.NewClient(cfg.URL, token)
	return &InfluxDB{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

func (db *InfluxDB) Publish(ctx context.Context, r measurement.Reading) error {
	return db.writeAPI.WritePoint(ctx, newInfluxDBPoints(r)...)
}

func (db *InfluxDB) Close() error {
	db.client.Close()
	return nil
}
