package ui

type Emitter interface {
	ForJob(id string, recipe string, kind string) JobEmitter
}

type JobEmitter interface {
	EmitRunning()
	EmitOutput(line string)
	EmitDone(error)

	EmitStepAttempt(step string, attempt int, attempts int)
	EmitStepResult(step string, attempt int, attempts int, err error)
}

func newEmitter(processor *processor) Emitter {
	return &processorEmitter{processor}
}

type processorEmitter struct {
	processor *processor
}

func (e *processorEmitter) ForJob(id string, recipe string, kind string) JobEmitter {
	return &processorJobEmitter{
		processor: e.processor,
		jobID:     id,
		recipe:    recipe,
		kind:      kind,
	}
}

type processorJobEmitter struct {
	processor *processor
	jobID     string
	recipe    string
	kind      string
}

func (e *processorJobEmitter) EmitRunning() {
	e.sendEvent(jevent{jeventRunning, e.jobID, e.recipe, e.kind, "", nil})
}

func (e *processorJobEmitter) EmitOutput(line string) {
	e.sendEvent(jevent{jeventOutput, e.jobID, e.recipe, e.kind, line, nil})
}

func (e *processorJobEmitter) EmitDone(err error) {
	e.sendEvent(jevent{jeventDone, e.jobID, e.recipe, e.kind, "", err})
}

func (e *processorJobEmitter) EmitStepAttempt(step string, attempt int, attempts int) {
	e.processor.sendStepEvent(sevent{seventAttempt, e.jobID, e.recipe, step, attempt, attempts, nil})
}

func (e *processorJobEmitter) EmitStepResult(step string, attempt int, attempts int, err error) {
	e.processor.sendStepEvent(sevent{seventResult, e.jobID, e.recipe, step, attempt, attempts, err})
}

func (e *processorJobEmitter) sendEvent(event jevent) {
	e.processor.sendJobEvent(event)
}
