package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	aic "github.com/mtraver/awsiotcore"
	"github.com/mtraver/sensehat/measurement"
)

// AWSIoTConfig configures an AWS IoT Core sink.
type AWSIoTConfig struct {
	// DeviceFile holds a JSON-encoded awsiotcore.Device.
	DeviceFile string `toml:"device_file"`
}

// AWSIoT publishes JSON-encoded readings to a device's AWS IoT Core telemetry topic.
type AWSIoT struct {
	device aic.Device
	client publisher
}

// ParseDeviceFile reads a JSON-encoded device. If it has no ID, the ID is
// taken from the device's certificate.
func ParseDeviceFile(filepath string) (aic.Device, error) {
	b, err := os.ReadFile(filepath)
	if err != nil {
		return aic.Device{}, err
	}

	var device aic.Device
	if err := json.Unmarshal(b, &device); err != nil {
		return aic.Device{}, fmt.Errorf("sink: failed to parse device file %s: %w", filepath, err)
	}

	if device.DeviceID == "" {
		deviceID, err := aic.DeviceIDFromCert(device.CertPath)
		if err != nil {
			return aic.Device{}, err
		}
		device.DeviceID = deviceID
	}

	return device, nil
}

func fileStore(dir string) func(*aic.Device, *mqtt.ClientOptions) error {
	return func(device *aic.Device, opts *mqtt.ClientOptions) error {
		opts.SetStore(mqtt.NewFileStore(dir))
		return nil
	}
}

func onConnect(device *aic.Device, opts *mqtt.ClientOptions) error {
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		slog.Info("connected to AWS IoT", "device", device.DeviceID)
	})
	return nil
}

func onConnectionLost(device *aic.Device, opts *mqtt.ClientOptions) error {
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		slog.Warn("connection to AWS IoT lost", "device", device.DeviceID, "err", err)
	})
	return nil
}

// NewAWSIoT connects the device described by cfg.DeviceFile to AWS IoT Core.
func NewAWSIoT(cfg AWSIoTConfig, storeDir string) (*AWSIoT, error) {
	if cfg.DeviceFile == "" {
		return nil, fmt.Errorf("sink: awsiot device_file must be given")
	}

	device, err := ParseDeviceFile(cfg.DeviceFile)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(storeDir, 0700); err != nil {
		return nil, err
	}

	client, err := device.NewClient(fileStore(storeDir), onConnect, onConnectionLost)
	if err != nil {
		return nil, fmt.Errorf("sink: failed to make MQTT client: %w", err)
	}
	if err := connect(client); err != nil {
		return nil, err
	}

	return &AWSIoT{device: device, client: client}, nil
}

func (a *AWSIoT) Publish(ctx context.Context, r measurement.Reading) error {
	if r.DeviceID == "" {
		r.DeviceID = a.device.DeviceID
	}
	return publishJSON(a.client, a.device.TelemetryTopic(), r)
}

func (a *AWSIoT) Close() error {
	a.client.Disconnect(250)
	return nil
}
