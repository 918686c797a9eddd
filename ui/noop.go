package ui

type noopEmitter struct{}

func NewNoopEmitter() Emitter {
	return noopEmitter{}
}

func (e noopEmitter) ForJob(_ string, _ string, _ string) JobEmitter { return e }

func (e noopEmitter) EmitRunning()      {}
func (e noopEmitter) EmitOutput(string) {}
func (e noopEmitter) EmitDone(error)    {}

func (e noopEmitter) EmitStepAttempt(string, int, int)       {}
func (e noopEmitter) EmitStepResult(string, int, int, error) {}
