package pubsub

import (
	"github.com/boz/go-lifecycle"

	"bakery/types"
)

const bufSiz = 32

type Subscription interface {
	Events() <-chan types.BusEvent
	Close()
	Done() <-chan struct{}
}

type subscription struct {
	inch  chan types.BusEvent
	outch chan types.BusEvent

	lc lifecycle.Lifecycle
}

func newSubscription(donech chan<- *subscription, filter Filter) *subscription {

	s := &subscription{
		inch:  make(chan types.BusEvent, bufSiz),
		outch: make(chan types.BusEvent, bufSiz),
		lc:    lifecycle.New(),
	}

	go s.run(donech, filter)

	return s
}

func (s *subscription) Events() <-chan types.BusEvent {
	return s.outch
}

func (s *subscription) Close() {
	s.lc.ShutdownAsync(nil)
}

func (s *subscription) Done() <-chan struct{} {
	return s.lc.Done()
}

// publish runs on the bus loop and must not block it.
func (s *subscription) publish(ev types.BusEvent) {
	select {
	case s.inch <- ev:
	case <-s.lc.ShuttingDown():
	default:
	}
}

func (s *subscription) run(donech chan<- *subscription, filter Filter) {
	defer s.lc.ShutdownCompleted()
	defer func() { donech <- s }()

loop:
	for {
		select {

		case err := <-s.lc.ShutdownRequest():
			s.lc.ShutdownInitiated(err)
			break loop

		case ev := <-s.inch:

			if filter != nil && !filter(ev) {
				continue loop
			}

			select {
			case s.outch <- ev:
			default:
				// reader is behind. drop the oldest event instead of
				// stalling; this goroutine is the only writer, so the
				// resend cannot block.
				select {
				case <-s.outch:
				default:
				}
				s.outch <- ev
			}

		}
	}

}
