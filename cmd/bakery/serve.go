package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"bakery/catalog"
	"bakery/net/server"
	"bakery/pubsub"
	"bakery/ui"
)

func runServe(ctx context.Context, cancel context.CancelFunc, log logrus.FieldLogger) error {
	stopch := handleSignals(ctx, cancel)

	bus, err := pubsub.NewBus(ctx)
	if err != nil {
		return err
	}

	var evl ui.UI
	if *flagLogLevel == "debug" {
		evl, err = ui.NewEVLog(ctx, bus, os.Stderr)
		if err != nil {
			return err
		}
	}

	srv, err := server.New(
		server.WithAddress(*serveListen),
		server.WithCatalog(catalog.Default()),
		server.WithBus(bus),
		server.WithLog(log),
	)
	if err != nil {
		return err
	}

	log.WithField("address", srv.Address()).Info("listening")

	sdonech := make(chan struct{})
	go func() {
		defer close(sdonech)
		srv.Run()
	}()

	select {
	case <-sdonech:
		log.Info("server done")
	case <-stopch:
		log.Info("shutdown requested")
		srv.Close()
		<-sdonech
	}

	if evl != nil {
		evl.Stop()
	}

	cancel()

	if err := bus.Shutdown(); err != nil {
		log.WithError(err).Warn("bus shutdown")
	}

	<-stopch
	return nil
}
