package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/mtraver/sensehat/measurement"
)

const (
	qos     = 1
	waitDur = 10 * time.Second
)

// MQTTConfig configures a plain MQTT sink.
type MQTTConfig struct {
	Broker   string `toml:"broker"`
	Topic    string `toml:"topic"`
	ClientID string `toml:"client_id"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// publisher is the part of mqtt.Client the MQTT sinks use.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes JSON-encoded readings to an MQTT broker with QoS 1.
type MQTT struct {
	client publisher
	topic  string
}

// NewMQTT connects to the broker. Messages that fail to publish are kept in a
// file store under storeDir and retried by the client.
func NewMQTT(cfg MQTTConfig, storeDir string) (*MQTT, error) {
	if cfg.Broker == "" || cfg.Topic == "" {
		return nil, fmt.Errorf("sink: mqtt broker and topic must be given")
	}

	if err := os.MkdirAll(storeDir, 0700); err != nil {
		return nil, err
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetStore(mqtt.NewFileStore(storeDir)).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(client mqtt.Client) {
			slog.Info("connected to MQTT broker", "broker", cfg.Broker)
		}).
		SetConnectionLostHandler(func(client mqtt.Client, err error) {
			slog.Warn("connection to MQTT broker lost", "broker", cfg.Broker, "err", err)
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if err := connect(client); err != nil {
		return nil, err
	}

	return &MQTT{client: client, topic: cfg.Topic}, nil
}

func connect(client mqtt.Client) error {
	if token := client.Connect(); !token.WaitTimeout(waitDur) {
		return fmt.Errorf("sink: MQTT connection attempt timed out after %v", waitDur)
	} else if token.Error() != nil {
		return fmt.Errorf("sink: failed to connect to MQTT broker: %w", token.Error())
	}
	return nil
}

func (m *MQTT) Publish(ctx context.Context, r measurement.Reading) error {
	return publishJSON(m.client, m.topic, r)
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}

func publishJSON(client publisher, topic string, r measurement.Reading) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}

	token := client.Publish(topic, qos, false, b)
	if ok := token.WaitTimeout(waitDur); !ok {
		// Timed out.
		return fmt.Errorf("publish timed out after %v", waitDur)
	} else if token.Error() != nil {
		// Finished before timeout but failed to publish.
		return fmt.Errorf("failed to publish: %w", token.Error())
	}

	return nil
}
