package recipe

import (
	"strconv"
	"time"

	"github.com/docker/docker/api/types/strslice"
)

// Healthcheck describes a container health probe. Zero durations and a zero
// retry count fall back to the daemon defaults and render no flag.
type Healthcheck struct {
	Test        strslice.StrSlice
	Interval    time.Duration
	Timeout     time.Duration
	StartPeriod time.Duration
	Retries     int
	Disable     bool
}

// Check converts the probe into its instruction. Disabled probes render as
// HEALTHCHECK NONE.
func Check(hc Healthcheck) Instruction {
	if hc.Disable {
		return Instruction{Kind: KindHealthcheck, Args: []string{"NONE"}}
	}
	in := Instruction{Kind: KindHealthcheck, Exec: hc.Test}
	if hc.Interval != 0 {
		in = in.WithFlag("interval", hc.Interval.String())
	}
	if hc.Timeout != 0 {
		in = in.WithFlag("timeout", hc.Timeout.String())
	}
	if hc.StartPeriod != 0 {
		in = in.WithFlag("start-period", hc.StartPeriod.String())
	}
	if hc.Retries != 0 {
		in = in.WithFlag("retries", strconv.Itoa(hc.Retries))
	}
	return in
}
