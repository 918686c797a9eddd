package pubsub_test

import (
	"context"
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

func jobEvent(id types.ID, recipe string) types.Event {
	return types.Event{
		Type:   types.EventTypeJob,
		Action: types.EventActionStart,
		Job:    &types.Job{ID: id, Recipe: recipe, Kind: types.JobRender},
	}
}

func TestBusPubSub(t *testing.T) {
	bus, err := pubsub.NewBus(context.Background())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, bus.Shutdown())
	}()

	sub, err := bus.Subscribe(pubsub.FilterNone)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, bus.Publish(jobEvent("a", "python-gunicorn")))

	ev := <-sub.Events()
	assert.Equal(t, types.EventTypeJob, ev.GetType())
	assert.Equal(t, types.ID("a"), ev.GetJobID())
	assert.Equal(t, "python-gunicorn", ev.GetRecipe())
}

func TestBusFilter(t *testing.T) {
	bus, err := pubsub.NewBus(context.Background())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, bus.Shutdown())
	}()

	sub, err := bus.Subscribe(pubsub.FilterRecipe("node-service"))
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, bus.Publish(jobEvent("a", "python-gunicorn")))
	require.NoError(t, bus.Publish(jobEvent("b", "node-service")))

	ev := <-sub.Events()
	assert.Equal(t, types.ID("b"), ev.GetJobID())
}

func TestBusFilterCompose(t *testing.T) {
	bus, err := pubsub.NewBus(context.Background())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, bus.Shutdown())
	}()

	filter := pubsub.FilterAll(
		pubsub.FilterRecipe("java-jlink"),
		pubsub.FilterJob("c"),
	)

	sub, err := bus.Subscribe(filter)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, bus.Publish(jobEvent("a", "java-jlink")))
	require.NoError(t, bus.Publish(jobEvent("c", "node-service")))
	require.NoError(t, bus.Publish(jobEvent("c", "java-jlink")))

	ev := <-sub.Events()
	assert.Equal(t, types.ID("c"), ev.GetJobID())
	assert.Equal(t, "java-jlink", ev.GetRecipe())
}

func TestBusShutdown(t *testing.T) {
	bus, err := pubsub.NewBus(context.Background())
	require.NoError(t, err)

	sub, err := bus.Subscribe(pubsub.FilterNone)
	require.NoError(t, err)

	require.NoError(t, bus.Shutdown())

	<-sub.Done()

	assert.Equal(t, pubsub.ErrNotRunning, bus.Publish(jobEvent("a", "python-gunicorn")))

	_, err = bus.Subscribe(pubsub.FilterNone)
	assert.Equal(t, pubsub.ErrNotRunning, err)
}

func TestBusContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	bus, err := pubsub.NewBus(ctx)
	require.NoError(t, err)

	sub, err := bus.Subscribe(pubsub.FilterNone)
	require.NoError(t, err)

	cancel()

	<-sub.Done()

	assert.Error(t, bus.Publish(jobEvent("a", "python-gunicorn")))
}

func TestBusSlowSubscriber(t *testing.T) {
	bus, err := pubsub.NewBus(context.Background())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, bus.Shutdown())
	}()

	sub, err := bus.Subscribe(pubsub.FilterNone)
	require.NoError(t, err)
	defer sub.Close()

	// flood well past the subscription's buffers without reading.
	// Publish must stay non-blocking; old events get dropped.
	for i := 0; i < 500; i++ {
		require.NoError(t, bus.Publish(jobEvent("a", "python-gunicorn")))
	}

	ev := <-sub.Events()
	assert.Equal(t, types.ID("a"), ev.GetJobID())
}

func TestSubscriptionClose(t *testing.T) {
	bus, err := pubsub.NewBus(context.Background())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, bus.Shutdown())
	}()

	sub, err := bus.Subscribe(pubsub.FilterNone)
	require.NoError(t, err)

	sub.Close()
	<-sub.Done()

	// bus keeps serving other subscribers.
	other, err := bus.Subscribe(pubsub.FilterNone)
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, bus.Publish(jobEvent("b", "node-service")))
	ev := <-other.Events()
	assert.Equal(t, types.ID("b"), ev.GetJobID())
}
