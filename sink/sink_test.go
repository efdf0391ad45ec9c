package sink

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mtraver/sensehat/measurement"
)

var (
	testTimestamp = time.Date(2018, time.March, 25, 12, 30, 0, 0, time.UTC)

	testReading = measurement.Reading{
		DeviceID:  "foo",
		Timestamp: testTimestamp,
		Temp:      18.5,
		Humidity:  42,
		Pressure:  1001.25,
		RawTemp:   30.5,
		CPUTemp:   51,
	}
)

type fakeSink struct {
	mu        sync.Mutex
	published []measurement.Reading
	closed    bool
	err       error
}

func (s *fakeSink) Publish(ctx context.Context, r measurement.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, r)
	return nil
}

func (s *fakeSink) Close() error {
	s.closed = true
	return s.err
}

func TestMultiPublish(t *testing.T) {
	a := &fakeSink{}
	b := &fakeSink{}
	m := Multi{{"a", a}, {"b", b}}

	if err := m.Publish(context.Background(), testReading); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, s := range []*fakeSink{a, b} {
		if diff := cmp.Diff(s.published, []measurement.Reading{testReading}); diff != "" {
			t.Errorf("Unexpected result (-got +want):\n%s", diff)
		}
	}
}

func TestMultiPublishPartialFailure(t *testing.T) {
	errBroker := errors.New("broker unreachable")
	errDB := errors.New("database is locked")

	ok := &fakeSink{}
	m := Multi{{"ok", ok}, {"mqtt", &fakeSink{err: errBroker}}, {"sqlite", &fakeSink{err: errDB}}}

	err := m.Publish(context.Background(), testReading)
	if !errors.Is(err, errBroker) || !errors.Is(err, errDB) {
		t.Errorf("got error %v, want it to wrap %v and %v", err, errBroker, errDB)
	}
	if len(ok.published) != 1 {
		t.Errorf("healthy sink got %d readings, want 1", len(ok.published))
	}
}

func TestMultiClose(t *testing.T) {
	errClose := errors.New("close failed")
	a := &fakeSink{}
	b := &fakeSink{err: errClose}
	m := Multi{{"a", a}, {"b", b}}

	if err := m.Close(); !errors.Is(err, errClose) {
		t.Errorf("got error %v, want %v", err, errClose)
	}
	if !a.closed || !b.closed {
		t.Errorf("not all sinks closed: a=%t b=%t", a.closed, b.closed)
	}
}

func TestMultiNames(t *testing.T) {
	m := Multi{{"mqtt", &fakeSink{}}, {"kafka", &fakeSink{}}}
	if diff := cmp.Diff(m.Names(), []string{"mqtt", "kafka"}); diff != "" {
		t.Errorf("Unexpected result (-got +want):\n%s", diff)
	}
}

func TestNewInfluxDBPoints(t *testing.T) {
	points := newInfluxDBPoints(testReading)

	got := make(map[string]float64)
	for _, p := range points {
		if p.Name() != "stat" {
			t.Errorf("got measurement %q, want stat", p.Name())
		}
		if !p.Time().Equal(testTimestamp) {
			t.Errorf("got time %v, want %v", p.Time(), testTimestamp)
		}

		tags := p.TagList()
		if len(tags) != 1 || tags[0].Key != "device" || tags[0].Value != "foo" {
			t.Errorf("got tags %v, want device=foo", tags)
		}

		for _, f := range p.FieldList() {
			got[f.Key] = f.Value.(float64)
		}
	}

	want := map[string]float64{
		"temp": 18.5,
		"RH":   42,
		"P":    1001.25,
		"raw":  30.5,
		"CPU":  51,
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Unexpected result (-got +want):\n%s", diff)
	}
}

func TestNewKafkaMessage(t *testing.T) {
	msg, err := newKafkaMessage(testReading)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got, want := string(msg.Key), "foo"; got != want {
		t.Errorf("Got key %q, want %q", got, want)
	}
	if !msg.Time.Equal(testTimestamp) {
		t.Errorf("got time %v, want %v", msg.Time, testTimestamp)
	}

	var got measurement.Reading
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(got, testReading); diff != "" {
		t.Errorf("Unexpected result (-got +want):\n%s", diff)
	}
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, SQLiteConfig{Path: filepath.Join(t.TempDir(), "db", "readings.db")})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer s.Close()

	older := testReading
	older.Timestamp = testTimestamp.Add(-time.Hour)
	older.Temp = 10

	other := testReading
	other.DeviceID = "bar"
	other.Timestamp = testTimestamp.Add(time.Hour)

	for _, r := range []measurement.Reading{older, testReading, other} {
		if err := s.Publish(ctx, r); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	got, err := s.Latest(ctx, "foo")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(got, testReading, cmpopts.EquateApprox(0, 0.0001)); diff != "" {
		t.Errorf("Unexpected result (-got +want):\n%s", diff)
	}
}

func TestNewRequiresConfig(t *testing.T) {
	cases := []struct {
		name string
		new  func() error
	}{
		{"mqtt", func() error { _, err := NewMQTT(MQTTConfig{Topic: "t"}, t.TempDir()); return err }},
		{"awsiot", func() error { _, err := NewAWSIoT(AWSIoTConfig{}, t.TempDir()); return err }},
		{"influxdb", func() error { _, err := NewInfluxDB(InfluxDBConfig{URL: "http://localhost:8086"}, "token"); return err }},
		{"kafka", func() error { _, err := NewKafka(KafkaConfig{Topic: "readings"}); return err }},
		{"sqlite", func() error { _, err := NewSQLite(context.Background(), SQLiteConfig{}); return err }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.new(); err == nil {
				t.Errorf("expected error, got nil")
			}
		})
	}
}

type fakeToken struct {
	timeout bool
	err     error
}

func (t fakeToken) Wait() bool                     { return !t.timeout }
func (t fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t fakeToken) Done() <-chan struct{}          { return nil }
func (t fakeToken) Error() error                   { return t.err }

type fakePublisher struct {
	token   fakeToken
	topic   string
	qos     byte
	payload []byte
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.topic = topic
	p.qos = qos
	p.payload = payload.([]byte)
	return p.token
}

func (p *fakePublisher) Disconnect(quiesce uint) {}

func TestPublishJSON(t *testing.T) {
	p := &fakePublisher{}
	if err := publishJSON(p, "sensehat/foo", testReading); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if p.topic != "sensehat/foo" || p.qos != 1 {
		t.Errorf("published to %q with QoS %d, want sensehat/foo with QoS 1", p.topic, p.qos)
	}

	var got measurement.Reading
	if err := json.Unmarshal(p.payload, &got); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(got, testReading); diff != "" {
		t.Errorf("Unexpected result (-got +want):\n%s", diff)
	}
}

func TestPublishJSONFailure(t *testing.T) {
	errPub := errors.New("not connected")

	cases := []struct {
		name  string
		token fakeToken
	}{
		{"timeout", fakeToken{timeout: true}},
		{"error", fakeToken{err: errPub}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := publishJSON(&fakePublisher{token: c.token}, "t", testReading); err == nil {
				t.Errorf("expected error, got nil")
			}
		})
	}
}
