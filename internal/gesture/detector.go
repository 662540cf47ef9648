/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	applog "gomanga/internal/log"
)

// DefaultWindow is the maximum gap between two space taps of one gesture.
const DefaultWindow = 300 * time.Millisecond

var (
	ErrClosed   = errors.New("gesture: detector closed")
	ErrAttached = errors.New("gesture: detector already attached to a source")
)

// State is the detector's tap bookkeeping. The zero value is idle.
type State struct {
	PendingTapCount int
	LastTap         time.Time
}

// Idle reports whether no gesture is in progress.
func (s State) Idle() bool { return s.PendingTapCount == 0 && s.LastTap.IsZero() }

// Detector classifies space taps and Enter presses into Commands.
//
// Taps are resolved by a single decision timer that is restarted on every tap:
// a third tap inside the window emits AddDialogue at once, otherwise the timer
// expiring after a second tap emits AddAction. A lone tap expires silently.
// Listener calls happen outside the internal lock.
type Detector struct {
	mu       sync.Mutex
	window   time.Duration
	clock    Clock
	log      *slog.Logger
	listener Listener

	state State
	timer Timer
	// gen invalidates timer callbacks that were already running when superseded.
	gen uint64

	unsubscribe func()
	closed      bool
}

// Option configures a Detector.
type Option func(*Detector)

// WithWindow sets the tap window. Non-positive values keep the default.
func WithWindow(d time.Duration) Option {
	return func(det *Detector) {
		if d > 0 {
			det.window = d
		}
	}
}

// WithClock injects the time source.
func WithClock(c Clock) Option {
	return func(det *Detector) {
		if c != nil {
			det.clock = c
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(det *Detector) {
		if l != nil {
			det.log = l
		}
	}
}

// New returns an idle detector.
func New(opts ...Option) *Detector {
	d := &Detector{window: DefaultWindow, clock: SystemClock{}}
	for _, o := range opts {
		o(d)
	}
	if d.log == nil {
		d.log = applog.WithComponent("gesture")
	}
	return d
}

// Window returns the configured tap window.
func (d *Detector) Window() time.Duration { return d.window }

// OnCommand registers the listener, replacing any previous one.
func (d *Detector) OnCommand(l Listener) {
	d.mu.Lock()
	d.listener = l
	d.mu.Unlock()
}

// State returns a copy of the current tap state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Attach subscribes the detector to src until Close.
func (d *Detector) Attach(src Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if d.unsubscribe != nil {
		return ErrAttached
	}
	d.unsubscribe = src.Subscribe(d.Handle)
	return nil
}

// Close releases the source subscription and cancels any pending decision.
// Events and timers processed after Close emit nothing.
func (d *Detector) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.resetLocked()
	unsub := d.unsubscribe
	d.unsubscribe = nil
	d.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Handle feeds one key event.
func (d *Detector) Handle(ev KeyEvent) {
	d.mu.Lock()
	if d.closed || ev.Phase != PhaseDown || ev.Repeat {
		d.mu.Unlock()
		return
	}
	var out []Command
	switch ev.Key {
	case KeyEnter:
		if !ev.Modifiers.Has(ModShift) {
			out = append(out, NewPanel)
		}
	case KeySpace:
		out = d.tapLocked(ev.Timestamp)
	}
	l := d.listener
	d.mu.Unlock()
	d.emit(l, out)
}

func (d *Detector) tapLocked(ts time.Time) []Command {
	now := ts
	if now.IsZero() {
		now = d.clock.Now()
	}
	var out []Command
	if d.state.PendingTapCount > 0 {
		gap := now.Sub(d.state.LastTap)
		if gap > 0 && gap < d.window {
			d.state.PendingTapCount++
			if d.state.PendingTapCount >= 3 {
				d.resetLocked()
				return []Command{AddDialogue}
			}
			d.state.LastTap = now
			d.armLocked()
			return nil
		}
		// Stale or out-of-order: settle the old gesture before starting anew.
		if c, ok := d.resolveLocked(); ok {
			out = append(out, c)
		}
	}
	d.state = State{PendingTapCount: 1, LastTap: now}
	d.armLocked()
	return out
}

func (d *Detector) armLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() { d.expire(gen) })
}

func (d *Detector) expire(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	var out []Command
	if c, ok := d.resolveLocked(); ok {
		out = append(out, c)
	}
	l := d.listener
	d.mu.Unlock()
	d.emit(l, out)
}

// resolveLocked ends the pending gesture and returns its command, if any.
func (d *Detector) resolveLocked() (Command, bool) {
	n := d.state.PendingTapCount
	d.resetLocked()
	if n == 2 {
		return AddAction, true
	}
	return 0, false
}

func (d *Detector) resetLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.state = State{}
}

func (d *Detector) emit(l Listener, cmds []Command) {
	for _, c := range cmds {
		d.log.Debug("command", slog.String("cmd", c.String()))
		if l != nil {
			l(c)
		}
	}
}
