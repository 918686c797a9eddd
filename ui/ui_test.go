package ui

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"bakery/pubsub"
	"bakery/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type chanWriter struct {
	jobs  chan job
	steps chan step
	dels  chan step
}

func newChanWriter() *chanWriter {
	return &chanWriter{
		jobs:  make(chan job, 16),
		steps: make(chan step, 16),
		dels:  make(chan step, 16),
	}
}

func (w *chanWriter) updateJob(j job)   { w.jobs <- j }
func (w *chanWriter) updateStep(s step) { w.steps <- s }
func (w *chanWriter) deleteStep(s step) { w.dels <- s }
func (w *chanWriter) stop()             {}

func TestProcessorFlow(t *testing.T) {
	w := newChanWriter()
	p := newProcessor(w)
	defer p.stop()

	je := newEmitter(p).ForJob("job-1", "python-gunicorn", "build")

	je.EmitRunning()
	j := <-w.jobs
	assert.Equal(t, "job-1", j.id)
	assert.Equal(t, "python-gunicorn", j.recipe)
	assert.Equal(t, "build", j.kind)
	assert.Equal(t, jstateRunning, j.state)

	je.EmitStepAttempt("render", 0, 0)
	s := <-w.steps
	assert.Equal(t, "render", s.name)
	assert.Equal(t, sstateRunning, s.state)

	je.EmitStepResult("render", 0, 0, nil)
	s = <-w.steps
	assert.Equal(t, sstateDone, s.state)
	assert.NoError(t, s.err)

	je.EmitOutput("Step 1/2 : FROM python:3.11-slim")
	j = <-w.jobs
	assert.Equal(t, "Step 1/2 : FROM python:3.11-slim", j.output)
	assert.Equal(t, jstateRunning, j.state)

	je.EmitDone(nil)
	j = <-w.jobs
	assert.Equal(t, jstateDone, j.state)

	// finished jobs drop their step rows
	d := <-w.dels
	assert.Equal(t, "render", d.name)
}

func TestProcessorFailure(t *testing.T) {
	w := newChanWriter()
	p := newProcessor(w)
	defer p.stop()

	je := newEmitter(p).ForJob("job-2", "node-service", "build")

	je.EmitStepResult("build", 0, 0, errors.New("boom"))
	s := <-w.steps
	assert.Equal(t, sstateFailed, s.state)
	assert.EqualError(t, s.err, "boom")

	je.EmitDone(errors.New("boom"))
	j := <-w.jobs
	assert.Equal(t, jstateFailed, j.state)
	assert.EqualError(t, j.err, "boom")
}

func TestFromBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := pubsub.NewBus(ctx)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, bus.Shutdown())
	}()

	w := newChanWriter()
	p := newProcessor(w)
	defer p.stop()
	u := &processedUI{p, newEmitter(p)}

	require.NoError(t, FromBus(ctx, bus, u))

	jref := &types.Job{ID: "job-3", Recipe: "java-jlink", Kind: types.JobBuild}

	require.NoError(t, bus.Publish(types.Event{
		Type:   types.EventTypeJob,
		Action: types.EventActionStart,
		Job:    jref,
		Status: types.StatusInProgress,
	}))
	j := <-w.jobs
	assert.Equal(t, "job-3", j.id)
	assert.Equal(t, "build", j.kind)
	assert.Equal(t, jstateRunning, j.state)

	require.NoError(t, bus.Publish(types.Event{
		Type:   types.EventTypeStep,
		Action: types.EventActionStart,
		Step:   &types.Step{JobID: "job-3", Recipe: "java-jlink", Name: "render"},
		Status: types.StatusInProgress,
	}))
	s := <-w.steps
	assert.Equal(t, "render", s.name)
	assert.Equal(t, sstateRunning, s.state)

	require.NoError(t, bus.Publish(types.DockerEvent{
		Job:    "job-3",
		Recipe: "java-jlink",
		Stream: "Step 1/9 : FROM maven:3.9-eclipse-temurin-17 AS builder\n",
	}))
	j = <-w.jobs
	assert.Equal(t, "Step 1/9 : FROM maven:3.9-eclipse-temurin-17 AS builder", j.output)

	require.NoError(t, bus.Publish(types.Event{
		Type:    types.EventTypeJob,
		Action:  types.EventActionDone,
		Job:     jref,
		Status:  types.StatusFailure,
		Message: "daemon unreachable",
	}))
	j = <-w.jobs
	assert.Equal(t, jstateFailed, j.state)
	assert.EqualError(t, j.err, "daemon unreachable")

	d := <-w.dels
	assert.Equal(t, "render", d.name)
}

func TestNoopUI(t *testing.T) {
	u := NewNoopUI()
	je := u.Emitter().ForJob("x", "y", "z")
	je.EmitRunning()
	je.EmitOutput("line")
	je.EmitStepAttempt("render", 1, 3)
	je.EmitStepResult("render", 1, 3, nil)
	je.EmitDone(nil)
	u.Stop()
}
