package common

import "fmt"

var ErrModulePaused = fmt.Errorf("module paused: %w", ErrPreconditionViolation)

// PauseView reports whether a module currently refuses state changes.
type PauseView interface {
	IsPaused(module string) (bool, error)
}

// Guard returns ErrModulePaused when module is paused. A nil view or an empty
// module name never blocks.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	paused, err := p.IsPaused(module)
	if err != nil {
		return err
	}
	if paused {
		return ErrModulePaused
	}
	return nil
}
