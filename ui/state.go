package ui

type jstate string

const (
	jstatePending jstate = "pending"
	jstateRunning jstate = "running"
	jstateDone    jstate = "done"
	jstateFailed  jstate = "failed"

	jstateMaxLen = len(jstatePending)
)

type sstate string

const (
	sstateRunning sstate = "running"
	sstateDone    sstate = "done"
	sstateFailed  sstate = "failed"

	sstateMaxLen = len(sstateRunning)
)

type job struct {
	id     string
	recipe string
	kind   string

	state jstate

	// most recent line of build output
	output string

	err error
}

type step struct {
	jobID  string
	recipe string
	name   string

	state sstate

	attempt  int
	attempts int

	err error
}
