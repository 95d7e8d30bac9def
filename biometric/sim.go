package biometric

import (
	"context"
	"sync"
	"time"
)

// Simulator is a scripted [Prompter] for tests and development hosts without
// biometric hardware. Outcomes are consumed in order; when the script is
// exhausted, Authenticate reports failure.
type Simulator struct {
	mu sync.Mutex

	Supported bool
	Enrolled  bool
	Types     []Type

	// Delay is applied before each Authenticate outcome, letting tests
	// exercise the engine's prompt timeout.
	Delay time.Duration

	script  []bool
	prompts int
	stopped int
}

// NewSimulator returns a simulator with fingerprint enrolled and no delay.
func NewSimulator() *Simulator {
	return &Simulator{
		Supported: true,
		Enrolled:  true,
		Types:     []Type{TypeFingerprint},
	}
}

// Script appends prompt outcomes to be consumed by subsequent Authenticate
// calls.
func (s *Simulator) Script(outcomes ...bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, outcomes...)
}

// Prompts reports how many times Authenticate has been invoked.
func (s *Simulator) Prompts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts
}

// Stops reports how many times StopAuthentication has been invoked.
func (s *Simulator) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// CanCheckBiometrics implements [Prompter].
func (s *Simulator) CanCheckBiometrics(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Enrolled, nil
}

// IsDeviceSupported implements [Prompter].
func (s *Simulator) IsDeviceSupported(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Supported, nil
}

// AvailableTypes implements [Prompter].
func (s *Simulator) AvailableTypes(context.Context) ([]Type, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Enrolled {
		return nil, nil
	}
	out := make([]Type, len(s.Types))
	copy(out, s.Types)
	return out, nil
}

// Authenticate implements [Prompter].
func (s *Simulator) Authenticate(ctx context.Context, _ string, _ PromptOptions) (bool, error) {
	s.mu.Lock()
	s.prompts++
	delay := s.Delay
	outcome := false
	if len(s.script) > 0 {
		outcome = s.script[0]
		s.script = s.script[1:]
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return outcome, nil
}

// StopAuthentication implements [Prompter].
func (s *Simulator) StopAuthentication(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
	return nil
}
