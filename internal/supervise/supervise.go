package supervise

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State of the supervised process.
type State string

const (
	StateStopped    State = "stopped"
	StateStarting   State = "starting"
	StateRunning    State = "running"
	StateRestarting State = "restarting"
)

// DelayPolicy returns the pause before restart attempt n (1-based).
type DelayPolicy func(restart int) time.Duration

// FixedDelay restarts after the same pause every time.
func FixedDelay(d time.Duration) DelayPolicy {
	return func(int) time.Duration { return d }
}

// Supervisor runs one child command and restarts it whenever it exits,
// until the context is cancelled. The current state is observable rather
// than hidden in loop variables.
type Supervisor struct {
	command string
	args    []string
	delay   DelayPolicy

	mu       sync.Mutex
	state    State
	restarts int
}

func New(command string, args []string, delay DelayPolicy) *Supervisor {
	return &Supervisor{
		command: command,
		args:    args,
		delay:   delay,
		state:   StateStopped,
	}
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) Restarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}

// Run supervises the child until ctx is cancelled. It only returns an
// error when the child cannot be started at all.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.setState(StateStopped)

	for {
		s.setState(StateStarting)

		cmd := exec.CommandContext(ctx, s.command, s.args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Start(); err != nil {
			return err
		}
		s.setState(StateRunning)
		logrus.Infof("Supervised process started: %s (pid %d)", s.command, cmd.Process.Pid)

		err := cmd.Wait()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			logrus.Errorf("Supervised process exited with error: %v", err)
		} else {
			logrus.Info("Supervised process exited")
		}

		s.setState(StateRestarting)
		restart := s.bumpRestarts()
		delay := s.delay(restart)
		logrus.Infof("Restarting %s in %s (restart #%d)", s.command, delay, restart)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Supervisor) bumpRestarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restarts++
	return s.restarts
}
