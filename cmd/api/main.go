package main

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/punchamoorthee/referralops/internal/api"
	"github.com/punchamoorthee/referralops/internal/config"
	"github.com/punchamoorthee/referralops/internal/password"
	"github.com/punchamoorthee/referralops/internal/service"
	"github.com/punchamoorthee/referralops/internal/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Env == "development" {
		log.SetFormatter(&logrus.TextFormatter{})
		log.SetLevel(logrus.DebugLevel)
	}

	pg, err := store.NewPostgres(cfg.DBSource)
	if err != nil {
		log.WithError(err).Fatal("unable to connect to database")
	}
	defer pg.Close()

	svc := service.New(pg, password.New(), log)
	handler := api.NewHandler(svc, log)

	log.WithField("port", cfg.Port).Info("server starting")
	if err := http.ListenAndServe(":"+cfg.Port, handler.Routes()); err != nil {
		log.Fatal(err)
	}
}
