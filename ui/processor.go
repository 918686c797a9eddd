package ui

import (
	"sync/atomic"
)

type jeventId string

const (
	jeventRunning jeventId = "running"
	jeventOutput  jeventId = "output"
	jeventDone    jeventId = "done"
)

type jevent struct {
	id     jeventId
	jobID  string
	recipe string
	kind   string
	output string
	err    error
}

type seventId string

const (
	seventAttempt seventId = "step-attempt"
	seventResult  seventId = "step-result"
)

type sevent struct {
	id     seventId
	jobID  string
	recipe string
	name   string

	attempt  int
	attempts int

	err error
}

type processor struct {
	writer writer

	jobch  chan jevent
	stepch chan sevent

	jobs  map[string]*job
	steps map[string]*step

	stopped int32
	donech  chan bool
}

func newProcessor(w writer) *processor {
	p := &processor{
		writer: w,

		jobs:  make(map[string]*job),
		steps: make(map[string]*step),

		jobch:  make(chan jevent),
		stepch: make(chan sevent),
		donech: make(chan bool),
	}

	go p.run()

	return p
}

func (p *processor) stop() {
	if !atomic.CompareAndSwapInt32(&p.stopped, 0, 1) {
		return
	}
	close(p.donech)
	p.writer.stop()
}

func (p *processor) sendJobEvent(e jevent) {
	if atomic.LoadInt32(&p.stopped) == 0 {
		select {
		case p.jobch <- e:
		case <-p.donech:
		}
	}
}

func (p *processor) sendStepEvent(e sevent) {
	if atomic.LoadInt32(&p.stopped) == 0 {
		select {
		case p.stepch <- e:
		case <-p.donech:
		}
	}
}

// run owns the job and step maps. Everything flows through here.
func (p *processor) run() {
	for {
		select {
		case <-p.donech:
			return
		case e := <-p.jobch:
			p.handleJobEvent(e)
		case e := <-p.stepch:
			p.handleStepEvent(e)
		}
	}
}

func (p *processor) handleJobEvent(e jevent) {
	if j, ok := p.jobs[e.jobID]; ok {
		p.handleJobUpdate(j, e)
		return
	}
	p.handleJobCreate(e)
}

func (p *processor) handleStepEvent(e sevent) {
	key := e.jobID + "/" + e.name
	if s, ok := p.steps[key]; ok {
		p.handleStepUpdate(s, e)
		return
	}
	p.handleStepCreate(key, e)
}

func (p *processor) handleJobUpdate(j *job, e jevent) {
	if j.kind == "" {
		j.kind = e.kind
	}

	switch e.id {
	case jeventRunning:
		j.state = jstateRunning
	case jeventOutput:
		j.output = e.output
	case jeventDone:
		j.state = jstateDone
		j.err = e.err
		if e.err != nil {
			j.state = jstateFailed
		}
	}

	p.writer.updateJob(*j)

	if e.id == jeventDone {
		p.dropSteps(j.id)
	}
}

func (p *processor) handleJobCreate(e jevent) {
	j := &job{
		id:     e.jobID,
		recipe: e.recipe,
		kind:   e.kind,
		state:  jstatePending,
	}
	p.jobs[j.id] = j
	p.handleJobUpdate(j, e)
}

func (p *processor) handleStepUpdate(s *step, e sevent) {
	switch e.id {
	case seventAttempt:
		s.state = sstateRunning
		s.attempt = e.attempt
		s.attempts = e.attempts
		s.err = nil
	case seventResult:
		s.state = sstateDone
		s.attempt = e.attempt
		s.attempts = e.attempts
		s.err = e.err
		if e.err != nil {
			s.state = sstateFailed
		}
	}

	p.writer.updateStep(*s)
}

func (p *processor) handleStepCreate(key string, e sevent) {
	s := &step{
		jobID:  e.jobID,
		recipe: e.recipe,
		name:   e.name,
	}
	p.steps[key] = s
	p.handleStepUpdate(s, e)
}

// dropSteps clears a finished job's step rows.
func (p *processor) dropSteps(jobID string) {
	for key, s := range p.steps {
		if s.jobID != jobID {
			continue
		}
		p.writer.deleteStep(*s)
		delete(p.steps, key)
	}
}
