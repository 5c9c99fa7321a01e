// Package app wires the adapters selected by the configuration into the use cases.
package app

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rbroggi/datingha/internal/actors/memory"
	"github.com/rbroggi/datingha/internal/actors/metrics"
	mongoactor "github.com/rbroggi/datingha/internal/actors/mongo"
	"github.com/rbroggi/datingha/internal/actors/postgres"
	"github.com/rbroggi/datingha/internal/actors/pubsub/producer"
	redisactor "github.com/rbroggi/datingha/internal/actors/redis"
	"github.com/rbroggi/datingha/internal/config"
	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/rbroggi/datingha/internal/core/ports"
	"github.com/rbroggi/datingha/internal/core/scoring"
	"github.com/rbroggi/datingha/internal/core/usecase"
	log "github.com/sirupsen/logrus"
)

// Container holds the application dependencies.
type Container struct {
	Config *config.Config

	// Registry gathers the matching metrics.
	Registry *prometheus.Registry

	Matching *usecase.MatchingService
	Users    *usecase.UserService
	Informer *usecase.Informer

	// Publisher receives the domain events of the matching service.
	Publisher ports.EventPublisher

	// PubSub is set when the events backend is pubsub.
	PubSub *pubsub.Client

	// Outbox collects notifications when the events backend is memory.
	Outbox *memory.Outbox

	closers []func() error
}

// ContainerOptArgs are the optional arguments for building a Container.
type ContainerOptArgs = func(*containerOptions)

type containerOptions struct {
	matching []usecase.MatchingServiceOptArgs
	users    []usecase.UserServiceOptArgs
}

// WithMatchingOptions forwards options to the matching service.
func WithMatchingOptions(opts ...usecase.MatchingServiceOptArgs) ContainerOptArgs {
	return func(o *containerOptions) {
		o.matching = append(o.matching, opts...)
	}
}

// WithUserOptions forwards options to the user service.
func WithUserOptions(opts ...usecase.UserServiceOptArgs) ContainerOptArgs {
	return func(o *containerOptions) {
		o.users = append(o.users, opts...)
	}
}

// NewContainer connects to the configured backends and builds the use cases.
// On error every connection opened so far is closed.
func NewContainer(ctx context.Context, cfg *config.Config, optArgs ...ContainerOptArgs) (_ *Container, err error) {
	opts := new(containerOptions)
	for _, opt := range optArgs {
		opt(opts)
	}

	c := &Container{Config: cfg, Registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			if closeErr := c.Close(); closeErr != nil {
				log.WithError(closeErr).Warn("error closing partially built container")
			}
		}
	}()

	users, swipes, matches, err := c.repositories(ctx)
	if err != nil {
		return nil, err
	}

	scorer, err := scoring.NewScorerFromNames(cfg.Matching.Strategies, model.Kilometers(cfg.Matching.MaxDistanceKm))
	if err != nil {
		return nil, fmt.Errorf("error building scorer: %w", err)
	}

	var sender ports.Sender
	switch cfg.Events.Backend {
	case config.BackendPubSub:
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("error creating pubsub client: %w", err)
		}
		c.PubSub = client
		c.closers = append(c.closers, client.Close)

		events, err := producer.NewProducer(client.Topic(cfg.PubSub.EventTopic))
		if err != nil {
			return nil, err
		}
		notifications, err := producer.NewProducer(client.Topic(cfg.PubSub.NotificationTopic))
		if err != nil {
			return nil, err
		}
		c.Publisher = events
		sender = notifications
	default:
		c.Outbox = memory.NewOutbox()
		sender = c.Outbox
	}

	c.Informer = usecase.NewInformer(usecase.InformerArgs{Users: users, Sender: sender})
	if c.Publisher == nil {
		c.Publisher = memory.NewPublisher(c.Informer)
	}

	matchingOpts := append([]usecase.MatchingServiceOptArgs{
		usecase.WithRecorder(metrics.NewCollector(c.Registry)),
		usecase.WithDefaults(model.Kilometers(cfg.Matching.DefaultRadiusKm), cfg.Matching.DefaultLimit),
	}, opts.matching...)
	c.Matching = usecase.NewMatchingService(usecase.MatchingServiceArgs{
		Scorer:    scorer,
		Users:     users,
		Swipes:    swipes,
		Matches:   matches,
		Publisher: c.Publisher,
	}, matchingOpts...)
	c.Users = usecase.NewUserService(usecase.UserServiceArgs{Repository: users}, opts.users...)

	log.WithField("users", cfg.Storage.Users).
		WithField("interactions", cfg.Storage.Interactions).
		WithField("events", cfg.Events.Backend).
		WithField("strategies", scorer.Names()).
		Info("container built")
	return c, nil
}

func (c *Container) repositories(ctx context.Context) (ports.UserRepository, ports.SwipeRepository, ports.MatchRepository, error) {
	cfg := c.Config

	var pgDB *postgres.PostgresDB
	if cfg.NeedsPostgres() {
		db, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("error connecting to postgres: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		if pgDB, err = postgres.NewPostgresDB(postgres.PostgresDBArgs{DB: db}); err != nil {
			return nil, nil, nil, err
		}
	}

	var mongoDB *mongoactor.MongoDB
	if cfg.NeedsMongo() {
		client, err := mongoactor.Connect(ctx, cfg.Mongo.URL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("error connecting to mongo: %w", err)
		}
		c.closers = append(c.closers, func() error { return client.Disconnect(context.Background()) })
		if mongoDB, err = mongoactor.NewMongoDB(mongoactor.MongoDBArgs{Database: client.Database(cfg.Mongo.Database)}); err != nil {
			return nil, nil, nil, err
		}
		if err := mongoDB.EnsureIndexes(ctx); err != nil {
			return nil, nil, nil, fmt.Errorf("error creating mongo indexes: %w", err)
		}
	}

	var users ports.UserRepository
	switch cfg.Storage.Users {
	case config.BackendPostgres:
		users = pgDB.Users()
	case config.BackendMongo:
		users = mongoDB.Users()
	default:
		users = memory.NewUserStore()
	}

	var swipes ports.SwipeRepository
	var matches ports.MatchRepository
	switch cfg.Storage.Interactions {
	case config.BackendPostgres:
		swipes, matches = pgDB.Swipes(), pgDB.Matches()
	case config.BackendMongo:
		swipes, matches = mongoDB.Swipes(), mongoDB.Matches()
	case config.BackendRedis:
		client, err := redisactor.NewClient(ctx, redisactor.ClientArgs{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		c.closers = append(c.closers, client.Close)
		swipes, matches = redisactor.NewSwipeRepository(client), redisactor.NewMatchRepository(client)
	default:
		swipes, matches = memory.NewSwipeStore(), memory.NewMatchStore()
	}
	return users, swipes, matches, nil
}

// Close releases every connection in reverse opening order.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
