package ui

import (
	"fmt"
	"io"
)

type writer interface {
	updateJob(job)

	updateStep(step)
	deleteStep(step)

	stop()
}

type ioWriter struct {
	w io.Writer
}

func newIOWriter(w io.Writer) writer {
	return &ioWriter{w}
}

func (w *ioWriter) updateJob(j job) {
	detail := j.output
	if j.err != nil {
		detail = fmt.Sprint(j.err)
	}
	fmt.Fprintf(w.w, "[JOB]  %v %v %v %v %v\n", jid(j.id), j.recipe, j.kind, j.state, detail)
}

func (w *ioWriter) updateStep(s step) {
	attempt := ""
	if s.attempts > 0 {
		attempt = fmt.Sprintf("[%v/%v]", s.attempt, s.attempts)
	}
	errval := ""
	if s.err != nil {
		errval = fmt.Sprint(s.err)
	}
	fmt.Fprintf(w.w, "[STEP] %v %v %v %v %v\n", jid(s.jobID), s.recipe, s.name, s.state, attempt+errval)
}

func (w *ioWriter) deleteStep(s step) {
}

func (w *ioWriter) stop() {
}

func jid(id string) string {
	if len(id) > 12 {
		return id[0:12]
	}
	return id
}
