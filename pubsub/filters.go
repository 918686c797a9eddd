package pubsub

import (
	"bakery/types"
)

// Filter selects the events a subscription receives. A nil Filter
// receives everything.
type Filter func(types.BusEvent) bool

func FilterNone(_ types.BusEvent) bool {
	return true
}

func FilterType(t types.EventType) Filter {
	return func(ev types.BusEvent) bool {
		return ev.GetType() == t
	}
}

func FilterRecipe(name string) Filter {
	return func(ev types.BusEvent) bool {
		return ev.GetRecipe() == name
	}
}

func FilterJob(id types.ID) Filter {
	return func(ev types.BusEvent) bool {
		return ev.GetJobID() == id
	}
}

func FilterAll(filters ...Filter) Filter {
	return func(ev types.BusEvent) bool {
		for _, f := range filters {
			if !f(ev) {
				return false
			}
		}
		return true
	}
}
