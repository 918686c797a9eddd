package main

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	throttle "github.com/boz/go-throttle"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"bakery/build"
	"bakery/docs"
	"bakery/manifest"
	"bakery/pubsub"
	"bakery/ui"
)

const watchCoalesce = 500 * time.Millisecond

func runRender(ctx context.Context, cancel context.CancelFunc, log logrus.FieldLogger) error {
	if err := renderManifest(ctx, log); err != nil {
		if !*renderWatch {
			return err
		}
		// watch mode keeps going: the next save may fix the manifest
		log.WithError(err).Error("rendering manifest")
	}

	if !*renderWatch {
		return nil
	}

	return watchManifest(ctx, cancel, log)
}

func renderManifest(ctx context.Context, log logrus.FieldLogger) error {
	entries, err := manifest.ReadFile(log, *renderFile)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := renderEntry(ctx, log, entry); err != nil {
			return err
		}
	}
	return nil
}

func renderEntry(ctx context.Context, log logrus.FieldLogger, entry *manifest.Render) error {
	log = log.WithField("render", entry.Name).WithField("recipe", entry.Recipe)

	r, err := lookupRecipe(entry.Recipe)
	if err != nil {
		return err
	}

	p, err := entry.Params()
	if err != nil {
		return err
	}

	files, err := docs.FilesWith(r, p, entry.Annotate)
	if err != nil {
		return err
	}

	if entry.Output == "" {
		for _, file := range files {
			if file.Name == docs.DockerfileName {
				if _, err := os.Stdout.Write(file.Data); err != nil {
					return err
				}
			}
		}
	} else {
		dir := filepath.Dir(entry.Output)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		for _, file := range files {
			path := filepath.Join(dir, file.Name)
			if file.Name == docs.DockerfileName {
				path = entry.Output
			}
			if err := ioutil.WriteFile(path, file.Data, 0644); err != nil {
				return err
			}
			log.WithField("path", path).Info("rendered")
		}
	}

	if *renderBuild && entry.Build != nil {
		return buildEntry(ctx, log, entry)
	}
	return nil
}

func buildEntry(ctx context.Context, log logrus.FieldLogger, entry *manifest.Render) error {
	r, err := lookupRecipe(entry.Recipe)
	if err != nil {
		return err
	}

	p, err := entry.Params()
	if err != nil {
		return err
	}

	memory, err := entry.Build.MemoryBytes()
	if err != nil {
		return err
	}

	bus, err := pubsub.NewBus(ctx)
	if err != nil {
		return err
	}
	defer bus.Shutdown()

	uir, err := ui.NewIOUI(os.Stdout)
	if err != nil {
		return err
	}
	defer uir.Stop()

	if err := ui.FromBus(ctx, bus, uir); err != nil {
		return err
	}

	node, err := build.NewNodeFromEnv(ctx)
	if err != nil {
		return err
	}

	result, err := build.NewBuilder(log, node, bus).Build(ctx, build.Request{
		Recipe:  r,
		Params:  p,
		Tag:     entry.Build.Tag,
		Pull:    entry.Build.Pull,
		NoCache: entry.Build.NoCache,
		Memory:  memory,
		Network: entry.Build.Network,
	})
	if err != nil {
		return err
	}

	log.WithField("image-id", result.ImageID).
		WithField("tag", result.Tag).
		Info("built")
	return nil
}

// watchManifest re-renders when the manifest changes. Editors tend to
// replace files rather than write them in place, so the watch is on the
// manifest's directory with events filtered by name, and bursts coalesce
// through a throttle.
func watchManifest(ctx context.Context, cancel context.CancelFunc, log logrus.FieldLogger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(*renderFile)); err != nil {
		return err
	}

	target := filepath.Clean(*renderFile)

	rerender := throttle.ThrottleFunc(watchCoalesce, true, func() {
		if err := renderManifest(ctx, log); err != nil {
			log.WithError(err).Error("rendering manifest")
		}
	})
	defer rerender.Stop()

	stopch := handleSignals(ctx, cancel)

	log.WithField("manifest", target).Info("watching")

	for {
		select {
		case ev := <-watcher.Events:
			if filepath.Clean(ev.Name) == target {
				rerender.Trigger()
			}
		case err := <-watcher.Errors:
			log.WithError(err).Warn("watch error")
		case <-stopch:
			return nil
		}
	}
}
