package main

import (
	"context"
	"flag"

	"cloud.google.com/go/pubsub"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rbroggi/datingha/internal/config"
	"github.com/rbroggi/datingha/internal/logging"
	log "github.com/sirupsen/logrus"
)

var (
	configFile = flag.String("config", "", "optional configuration file, environment variables take precedence")
)

// ensureTopic creates the topic unless it exists.
func ensureTopic(ctx context.Context, client *pubsub.Client, topicID string) (*pubsub.Topic, error) {
	topic, err := client.CreateTopic(ctx, topicID)
	if status.Code(err) == codes.AlreadyExists {
		return client.Topic(topicID), nil
	}
	return topic, err
}

func run() error {
	flag.Parse()
	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.Log.Level); err != nil {
		return err
	}

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return err
	}
	defer client.Close()

	events, err := ensureTopic(ctx, client, cfg.PubSub.EventTopic)
	if err != nil {
		return err
	}
	if _, err := ensureTopic(ctx, client, cfg.PubSub.NotificationTopic); err != nil {
		return err
	}

	_, err = client.CreateSubscription(ctx, cfg.PubSub.EventSubscriptionID, pubsub.SubscriptionConfig{Topic: events})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return err
	}

	log.WithField("project", cfg.PubSub.ProjectID).
		WithField("event_topic", cfg.PubSub.EventTopic).
		WithField("notification_topic", cfg.PubSub.NotificationTopic).
		WithField("subscription", cfg.PubSub.EventSubscriptionID).
		Info("pubsub topology ready")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("pubsub setup failed")
	}
}
