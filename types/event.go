package types

type EventType string

const (
	EventTypeJob    EventType = "job"
	EventTypeStep             = "step"
	EventTypeDocker           = "docker"
)

type EventAction string

const (
	EventActionStart         EventAction = "start"
	EventActionEnterState                = "enter-state"
	EventActionUpdate                    = "update"
	EventActionDone                      = "done"
	EventActionAttemptFailed             = "attempt-failed"
)

type Status string

const (
	StatusInProgress = "in-progress"
	StatusSuccess    = "success"
	StatusFailure    = "failure"
)

var _ BusEvent = Event{}

type BusEvent interface {
	GetType() EventType
	GetAction() EventAction
	GetJobID() ID
	GetRecipe() string
}

type Event struct {
	Type    EventType
	Action  EventAction
	Job     *Job
	Step    *Step
	Status  Status
	Message string
}

func (ev Event) GetType() EventType {
	return ev.Type
}

func (ev Event) GetAction() EventAction {
	return ev.Action
}

func (ev Event) GetJobID() ID {
	switch {
	case ev.Job != nil:
		return ev.Job.ID
	case ev.Step != nil:
		return ev.Step.JobID
	default:
		return ID("")
	}
}

func (ev Event) GetRecipe() string {
	switch {
	case ev.Job != nil:
		return ev.Job.Recipe
	case ev.Step != nil:
		return ev.Step.Recipe
	default:
		return ""
	}
}

// DockerEvent wraps a raw line emitted by the engine while an image build is
// streaming. Raw is the daemon's JSON message, Stream its "stream" payload.
type DockerEvent struct {
	Job    ID
	Recipe string
	Stream string
	Raw    []byte
}

func (ev DockerEvent) GetType() EventType {
	return EventTypeDocker
}

func (ev DockerEvent) GetAction() EventAction {
	return EventActionUpdate
}

func (ev DockerEvent) GetJobID() ID {
	return ev.Job
}

func (ev DockerEvent) GetRecipe() string {
	return ev.Recipe
}
