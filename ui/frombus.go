package ui

import (
	"context"
	"errors"
	"strings"

	"bakery/pubsub"
	"bakery/types"
)

// FromBus feeds a UI from bus events until ctx is done or the bus shuts
// down. The CLI and server share this to drive progress displays.
func FromBus(ctx context.Context, bus pubsub.Reader, ui UI) error {
	sub, err := bus.Subscribe(pubsub.FilterNone)
	if err != nil {
		return err
	}

	go func() {
		defer sub.Close()

		emitter := ui.Emitter()

		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Done():
				return
			case ev := <-sub.Events():
				feed(emitter, ev)
			}
		}
	}()

	return nil
}

func feed(emitter Emitter, ev types.BusEvent) {
	switch ev := ev.(type) {
	case types.Event:
		feedEvent(emitter, ev)
	case types.DockerEvent:
		if text := strings.TrimSpace(ev.Stream); text != "" {
			emitter.ForJob(string(ev.Job), ev.Recipe, "").EmitOutput(text)
		}
	}
}

func feedEvent(emitter Emitter, ev types.Event) {
	switch {
	case ev.Job != nil:
		je := emitter.ForJob(string(ev.Job.ID), ev.Job.Recipe, string(ev.Job.Kind))
		switch ev.Action {
		case types.EventActionStart:
			je.EmitRunning()
		case types.EventActionDone:
			je.EmitDone(statusError(ev))
		}
	case ev.Step != nil:
		je := emitter.ForJob(string(ev.Step.JobID), ev.Step.Recipe, "")
		switch ev.Action {
		case types.EventActionStart:
			je.EmitStepAttempt(ev.Step.Name, ev.Step.Attempt, ev.Step.Attempts)
		case types.EventActionDone:
			je.EmitStepResult(ev.Step.Name, ev.Step.Attempt, ev.Step.Attempts, statusError(ev))
		}
	}
}

func statusError(ev types.Event) error {
	if ev.Status != types.StatusFailure {
		return nil
	}
	if ev.Message != "" {
		return errors.New(ev.Message)
	}
	return errors.New("failed")
}
