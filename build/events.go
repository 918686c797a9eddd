package build

import (
	"context"
	"encoding/json"

	dtypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/sirupsen/logrus"

	"bakery/pubsub"
	"bakery/types"
)

// EventPublisher relays daemon image events for images built by this tool
// onto the bus.
type EventPublisher interface {
	Node() Node
	Stop()
	Done() <-chan struct{}
}

func NewEventPublisher(ctx context.Context, log logrus.FieldLogger, node Node, bus pubsub.Writer) EventPublisher {
	ctx, cancel := context.WithCancel(ctx)
	ep := &eventPublisher{
		node:   node,
		bus:    bus,
		donech: make(chan struct{}),
		cancel: cancel,
		ctx:    ctx,
		log:    log.WithField("component", "build-events"),
	}

	go ep.run()

	return ep
}

type eventPublisher struct {
	node   Node
	bus    pubsub.Writer
	donech chan struct{}
	cancel context.CancelFunc
	ctx    context.Context
	log    logrus.FieldLogger
}

func (ep *eventPublisher) Node() Node {
	return ep.node
}

func (ep *eventPublisher) Stop() {
	ep.cancel()
}

func (ep *eventPublisher) Done() <-chan struct{} {
	return ep.donech
}

func (ep *eventPublisher) run() {
	defer close(ep.donech)

	filters := filters.NewArgs()
	filters.Add("type", "image")
	filters.Add("label", LabelRecipe)

	opts := dtypes.EventsOptions{
		Filters: filters,
	}

	msgch, errch := ep.node.Client().Events(ep.ctx, opts)

	for {
		select {
		case <-ep.ctx.Done():
			return
		case msg := <-msgch:

			raw, _ := json.Marshal(msg)

			ev := types.DockerEvent{
				Job:    types.ID(msg.Actor.Attributes[LabelJob]),
				Recipe: msg.Actor.Attributes[LabelRecipe],
				Stream: msg.Action,
				Raw:    raw,
			}

			if err := ep.bus.Publish(ev); err != nil {
				ep.log.WithError(err).Warn("publishing docker event")
				return
			}

		case err := <-errch:
			if err != nil {
				ep.log.WithError(err).Warn("docker event stream")
			}
			return
		}
	}
}
