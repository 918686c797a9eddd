package recipe

import (
	"errors"
	"fmt"
)

var (
	ErrNoName   = errors.New("recipe: no name")
	ErrNoStages = errors.New("recipe: no stages")
)

// ErrUnknownArg is returned when an override names an argument the recipe
// does not declare.
type ErrUnknownArg struct {
	Name string
}

func (e ErrUnknownArg) Error() string {
	return fmt.Sprintf("recipe: unknown build arg %q", e.Name)
}

// ErrStage wraps a validation failure with the stage it occurred in.
type ErrStage struct {
	Stage string
	Err   error
}

func (e ErrStage) Error() string {
	return fmt.Sprintf("recipe: stage %q: %v", e.Stage, e.Err)
}
