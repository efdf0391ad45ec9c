package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/compute/metadata"
	"cloud.google.com/go/pubsub"
	"github.com/mtraver/sensehat/measurement"
	"google.golang.org/api/option"
)

// PubSubConfig configures a Google Cloud Pub/Sub sink.
type PubSubConfig struct {
	// Project defaults to the project of the GCE instance the logger runs on.
	Project         string `toml:"project"`
	Topic           string `toml:"topic"`
	CredentialsFile string `toml:"credentials_file"`
}

// PubSub publishes JSON-encoded readings to a Pub/Sub topic.
type PubSub struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

func projectID(ctx context.Context, cfg PubSubConfig) (string, error) {
	if cfg.Project != "" {
		return cfg.Project, nil
	}

	if !metadata.OnGCE() {
		return "", fmt.Errorf("sink: pubsub project must be given when not running on GCE")
	}
	return metadata.ProjectID()
}

func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.Topic == "" {
		return nil, fmt.Errorf("sink: pubsub topic must be given")
	}

	project, err := projectID(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, err
	}

	if exists, err := client.Topic(cfg.Topic).Exists(ctx); err != nil {
		client.Close()
		return nil, err
	} else if !exists {
		client.Close()
		return nil, fmt.Errorf("sink: topic %q does not exist in project %q", cfg.Topic, project)
	}

	return &PubSub{client: client, topic: client.Topic(cfg.Topic)}, nil
}

func (p *PubSub) Publish(ctx context.Context, r measurement.Reading) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	res := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"device_id": r.DeviceID},
	})
	_, err = res.Get(ctx)
	return err
}

func (p *PubSub) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
