package ui

import "io"

// UI owns a render progress display. Components report through the
// Emitter; Stop tears the display down and must be called before the
// process exits.
type UI interface {
	Emitter() Emitter
	Stop()
}

// NewIOUI displays progress as plain lines on w.
func NewIOUI(w io.Writer) (UI, error) {
	return newProcessedUI(newIOWriter(w)), nil
}

// NewTUI displays progress in a full-screen table. A value is sent on
// donech when the user quits the screen.
func NewTUI(donech chan bool) (UI, error) {
	w, err := newTUIWriter(donech)
	if err != nil {
		return nil, err
	}
	return newProcessedUI(w), nil
}

// NewNoopUI discards all progress. Used when output goes to a file or
// a pipe and a display would only get in the way.
func NewNoopUI() UI {
	return noopUI{}
}

func newProcessedUI(w writer) UI {
	processor := newProcessor(w)
	return &processedUI{processor, newEmitter(processor)}
}

type processedUI struct {
	processor *processor
	uie       Emitter
}

func (pui *processedUI) Emitter() Emitter {
	return pui.uie
}

func (pui *processedUI) Stop() {
	pui.processor.stop()
}

type noopUI struct{}

func (noopUI) Emitter() Emitter {
	return NewNoopEmitter()
}
func (noopUI) Stop() {}
