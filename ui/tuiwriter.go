package ui

import (
	"fmt"
	"time"

	throttle "github.com/boz/go-throttle"
	"github.com/gdamore/tcell"
	"github.com/gdamore/tcell/views"
)

const (
	tuiMaxPeriod = time.Second / 2
	tuiMinPeriod = time.Second / 15
)

type tuiWriter struct {
	jupdate map[string]tuiTR
	supdate map[string]tuiTR
	sdelete map[string]tuiTR

	jch chan job
	sch chan step

	// channel for deleting steps
	dch chan step

	drawch chan bool

	throttle throttle.ThrottleDriver

	// closed when the user quits.
	shutdownch chan bool

	donech chan bool

	app    *views.Application
	window *tuiWindow
}

func newTUIWriter(shutdownch chan bool) (writer, error) {

	app, window := createTuiApp(shutdownch)

	writer := &tuiWriter{
		jupdate: make(map[string]tuiTR),
		supdate: make(map[string]tuiTR),
		sdelete: make(map[string]tuiTR),

		jch: make(chan job),
		sch: make(chan step),
		dch: make(chan step),

		drawch: make(chan bool),

		shutdownch: shutdownch,
		donech:     make(chan bool),

		app:    app,
		window: window,
	}

	writer.throttle = throttle.ThrottleFunc(tuiMinPeriod, true, func() {
		select {
		case <-writer.donech:
		case writer.drawch <- true:
		}
	})

	go app.Run()

	go writer.run()
	return writer, nil
}

func (w *tuiWriter) updateJob(j job) {
	select {
	case <-w.donech:
	case w.jch <- j:
	}
}

func (w *tuiWriter) updateStep(s step) {
	select {
	case <-w.donech:
	case w.sch <- s:
	}
}

func (w *tuiWriter) deleteStep(s step) {
	select {
	case <-w.donech:
	case w.dch <- s:
	}
}

func (w *tuiWriter) stop() {
	w.throttle.Stop()
	close(w.donech)
}

func (w *tuiWriter) run() {
	defer w.app.Quit()
	for {
		select {
		case <-w.donech:
			return
		case <-w.drawch:
			w.draw()
		case j := <-w.jch:
			w.handleJob(j)
			w.throttle.Trigger()
		case s := <-w.sch:
			w.handleStep(s)
			w.throttle.Trigger()
		case s := <-w.dch:
			w.handleDeleteStep(s)
			w.throttle.Trigger()
		case <-time.After(tuiMaxPeriod):
		}
	}
}

func (w *tuiWriter) handleJob(j job) {
	tr := newJobTRow(j)
	w.jupdate[tr.id()] = tr
}

func (w *tuiWriter) handleStep(s step) {
	sr := newStepTRow(s)
	w.supdate[sr.id()] = sr
}

func (w *tuiWriter) handleDeleteStep(s step) {
	sr := newStepTRow(s)
	w.sdelete[sr.id()] = sr
}

func (w *tuiWriter) draw() {

	jupdate := w.jupdate
	supdate := w.supdate
	sdelete := w.sdelete

	w.jupdate = make(map[string]tuiTR)

	w.supdate = make(map[string]tuiTR)
	w.sdelete = make(map[string]tuiTR)

	w.app.PostFunc(func() {
		w.window.updateJobs(jupdate, nil)
		w.window.updateSteps(supdate, sdelete)
		w.window.Resize()
		w.window.Draw()
	})

}

type jobTRow struct {
	value job
}

func newJobTRow(value job) jobTRow {
	return jobTRow{value}
}

func (jr jobTRow) id() string {
	return jr.value.id
}

func (jr jobTRow) cols() []tuiTD {
	style := tcell.StyleDefault
	statecolor := tcell.StyleDefault
	detailcolor := tcell.StyleDefault

	switch jr.value.state {
	case jstateRunning:
		statecolor = statecolor.Foreground(tcell.ColorYellow)
	case jstateDone:
		statecolor = statecolor.Foreground(tcell.ColorGreen)
	case jstateFailed:
		statecolor = statecolor.Foreground(tcell.ColorRed)
	}

	detail := jr.value.output
	if jr.value.err != nil {
		detail = fmt.Sprint(jr.value.err)
		detailcolor = detailcolor.Foreground(tcell.ColorRed)
	}

	cols := []tuiTD{
		{jid(jr.value.id), style},
		{jr.value.recipe, style},
		{jr.value.kind, style},
		{string(jr.value.state), statecolor},
		{detail, detailcolor},
	}
	return cols
}

type stepTRow struct {
	key   string
	value step
}

func newStepTRow(value step) stepTRow {
	return stepTRow{value.jobID + "/" + value.name, value}
}

func (sr stepTRow) id() string {
	return sr.key
}

func (sr stepTRow) cols() []tuiTD {
	style := tcell.StyleDefault

	cols := []tuiTD{
		{jid(sr.value.jobID), style},
		{sr.value.recipe, style},
		{sr.value.name, style},
	}

	style = tcell.StyleDefault

	switch sr.value.state {
	case sstateDone:
		style = style.Foreground(tcell.ColorGreen)
	case sstateFailed:
		style = style.Foreground(tcell.ColorRed)
	default:
		style = style.Foreground(tcell.ColorYellow)
	}

	cols = append(cols, tuiTD{string(sr.value.state), style})

	style = tcell.StyleDefault

	if sr.value.attempts == 0 {
		cols = append(cols, tuiTD{"", style}) // attempt
	} else {
		val := fmt.Sprintf("[%v/%v]", sr.value.attempt, sr.value.attempts)
		cols = append(cols, tuiTD{val, style})
	}

	if sr.value.err == nil {
		cols = append(cols, tuiTD{"", style})
	} else {
		cols = append(cols, tuiTD{fmt.Sprint(sr.value.err), style.Foreground(tcell.ColorRed)})
	}

	return cols
}
