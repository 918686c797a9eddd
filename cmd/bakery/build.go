package main

import (
	"context"
	"fmt"
	"os"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"

	"bakery/build"
	"bakery/pubsub"
	"bakery/ui"
)

func runBuild(ctx context.Context, cancel context.CancelFunc, log logrus.FieldLogger) error {
	r, err := lookupRecipe(*buildRecipe)
	if err != nil {
		return err
	}

	p, err := gatherParams(*buildArgs, *buildEnvFile)
	if err != nil {
		return err
	}

	var memory int64
	if *buildMemory != "" {
		memory, err = units.RAMInBytes(*buildMemory)
		if err != nil {
			return fmt.Errorf("invalid memory limit %q: %v", *buildMemory, err)
		}
	}

	tag, err := build.NormalizeTag(*buildTag)
	if err != nil {
		return err
	}

	stopch := handleSignals(ctx, cancel)

	bus, err := pubsub.NewBus(ctx)
	if err != nil {
		return err
	}

	uir, err := createUI(cancel)
	if err != nil {
		return err
	}

	if err := ui.FromBus(ctx, bus, uir); err != nil {
		return err
	}

	node, err := build.NewNodeFromEnv(ctx)
	if err != nil {
		return err
	}

	events := build.NewEventPublisher(ctx, log, node, bus)

	result, err := build.NewBuilder(log, node, bus).Build(ctx, build.Request{
		Recipe:     r,
		Params:     p,
		Tag:        tag,
		Pull:       *buildPull,
		NoCache:    *buildNoCache,
		Memory:     memory,
		Network:    *buildNetwork,
		ContextDir: *buildContext,
	})

	events.Stop()
	<-events.Done()

	uir.Stop()

	if serr := bus.Shutdown(); serr != nil {
		log.WithError(serr).Warn("bus shutdown")
	}

	cancel()
	<-stopch

	if err != nil {
		return err
	}

	fmt.Printf("%v (%v, %v in %v)\n",
		result.Tag, result.ImageID,
		units.HumanSize(float64(result.Size)), result.Duration)
	return nil
}

func createUI(cancel context.CancelFunc) (ui.UI, error) {
	switch *buildUIMode {
	case "tui":
		donech := make(chan bool)
		go func() {
			<-donech
			cancel()
		}()
		return ui.NewTUI(donech)
	case "none":
		return ui.NewNoopUI(), nil
	default:
		return ui.NewIOUI(os.Stdout)
	}
}
