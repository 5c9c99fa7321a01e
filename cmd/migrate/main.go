package main

import (
	"flag"

	"github.com/rbroggi/datingha/internal/actors/postgres"
	"github.com/rbroggi/datingha/internal/config"
	"github.com/rbroggi/datingha/internal/logging"
	log "github.com/sirupsen/logrus"
)

var (
	down       = flag.Bool("down", false, "run migration down")
	configFile = flag.String("config", "", "optional configuration file, environment variables take precedence")
)

func main() {
	flag.Parse()
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.WithError(err).Fatal("error loading configuration")
	}
	if err := logging.Setup(cfg.Log.Level); err != nil {
		log.WithError(err).Fatal("error setting up logging")
	}

	db, err := postgres.OpenSQL(cfg.Postgres.URL)
	if err != nil {
		log.WithError(err).Fatal("error opening db connection")
	}
	defer db.Close()

	if err := postgres.Migrate(db, *down); err != nil {
		log.WithError(err).WithField("down", *down).Fatal("migration failed")
	}
	log.WithField("down", *down).Info("migrations applied")
}
