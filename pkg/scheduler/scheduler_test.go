// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingStepper struct {
	steps   atomic.Int32
	failAt  int32
	stopped atomic.Bool
}

func (c *countingStepper) Step() (bool, error) {
	if c.stopped.Load() {
		panic("step after stop")
	}
	n := c.steps.Add(1)
	if c.failAt > 0 && n >= c.failAt {
		return false, errors.New("disposed")
	}
	return true, nil
}

func TestScheduler_TicksUntilStopped(t *testing.T) {
	stepper := &countingStepper{}
	s := NewScheduler(stepper, time.Millisecond, nil)
	s.Start()

	assert.Eventually(t, func() bool { return stepper.steps.Load() >= 5 }, time.Second, time.Millisecond)

	s.Stop()
	stepper.stopped.Store(true)
	after := stepper.steps.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, stepper.steps.Load(), "no tick after Stop returns")

	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
}

func TestScheduler_ExitsOnStepError(t *testing.T) {
	stepper := &countingStepper{failAt: 3}
	s := NewScheduler(stepper, time.Millisecond, nil)
	s.Start()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after step error")
	}
	assert.Equal(t, int32(3), stepper.steps.Load())
	s.Stop()
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(&countingStepper{}, 0, nil)
	assert.Equal(t, DefaultInterval, s.interval)

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	stepper := &countingStepper{}
	s := NewScheduler(stepper, time.Millisecond, nil)
	s.Stop()
	s.Start()

	time.Sleep(5 * time.Millisecond)
	assert.Zero(t, stepper.steps.Load())
}
