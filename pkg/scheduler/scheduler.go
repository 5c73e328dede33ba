// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is roughly one display frame
const DefaultInterval = 16 * time.Millisecond

// Stepper advances a simulation by one tick
type Stepper interface {
	Step() (bool, error)
}

// Scheduler drives a Stepper on a fixed interval until stopped
type Scheduler struct {
	stepper  Stepper
	interval time.Duration
	logger   *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	stopChan  chan struct{}
	done      chan struct{}
}

// NewScheduler creates a new scheduler. A non-positive interval uses DefaultInterval.
func NewScheduler(stepper Stepper, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		stepper:  stepper,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the scheduler. Calling it more than once has no effect.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		ticker := time.NewTicker(s.interval)
		go func() {
			defer close(s.done)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if _, err := s.stepper.Step(); err != nil {
						// The stepper was disposed under us; nothing left to drive
						s.logger.Warn("Stopping tick loop", zap.Error(err))
						return
					}
				case <-s.stopChan:
					return
				}
			}
		}()
	})
}

// Stop ends the tick loop and waits for it to exit. No tick runs after
// Stop returns. It is safe to call more than once, or without Start.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	// Never started: mark the loop finished so a later Start is a no-op
	s.startOnce.Do(func() {
		close(s.done)
	})
	<-s.done
}

// Done is closed once the tick loop has exited
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}
