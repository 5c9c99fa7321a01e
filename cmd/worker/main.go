package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/rbroggi/datingha/internal/actors/metrics"
	subscriberactor "github.com/rbroggi/datingha/internal/actors/pubsub/subscriber"
	"github.com/rbroggi/datingha/internal/app"
	"github.com/rbroggi/datingha/internal/config"
	"github.com/rbroggi/datingha/internal/logging"
	log "github.com/sirupsen/logrus"
)

var (
	configFile = flag.String("config", "", "optional configuration file, environment variables take precedence")
)

func run() error {
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.Log.Level); err != nil {
		return err
	}

	container, err := app.NewContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.WithError(err).Error("error closing container")
		}
	}()

	healthServer := health.NewServer()

	// start subscriber
	if container.PubSub != nil {
		subscription := container.PubSub.Subscription(cfg.PubSub.EventSubscriptionID)
		subscriber := subscriberactor.NewSubscriber(subscriberactor.SubscriberArgs{
			EventHandler: container.Informer,
			Subscription: subscription,
		})
		go func(ctx context.Context) {
			if err := subscriber.Consume(ctx); err != nil {
				log.WithError(err).Error("subscriber stopped")
				healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
			}
		}(ctx)
	} else {
		log.Warn("events backend is memory, the worker only serves health and metrics")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(container.Registry))
	metricsServer := &http.Server{Addr: cfg.Server.MetricsEndpoint, Handler: mux}

	// start metrics server
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()

	lis, err := net.Listen("tcp", cfg.Server.GRPCEndpoint)
	if err != nil {
		return err
	}

	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, healthServer)

	// Register reflection service on gRPC server.
	reflection.Register(s)

	// Start gRPC server
	go func() {
		if err := s.Serve(lis); err != nil {
			log.WithError(err).Error("grpc server stopped")
		}
	}()

	log.
		WithField("metrics-server-addr", cfg.Server.MetricsEndpoint).
		WithField("grpc-server-addr", cfg.Server.GRPCEndpoint).
		Info("servers up or soon to be up. listening to SIGTERM, SIGINT, SIGQUIT for stoping the server")

	// Wait for signal
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	<-ch

	// Stop servers
	healthServer.Shutdown()
	cancel()
	s.GracefulStop()
	return metricsServer.Shutdown(context.Background())
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.WithError(err).Fatal("worker failed")
	}
}
