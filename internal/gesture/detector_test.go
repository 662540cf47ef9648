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
	"math/rand"
	"testing"
	"time"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type stamped struct {
	cmd Command
	at  time.Duration
}

type harness struct {
	clk *ManualClock
	det *Detector
	got []stamped
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{clk: NewManualClock(t0)}
	h.det = New(WithClock(h.clk), WithWindow(300*time.Millisecond))
	h.det.OnCommand(func(c Command) {
		h.got = append(h.got, stamped{cmd: c, at: h.clk.Now().Sub(t0)})
	})
	t.Cleanup(h.det.Close)
	return h
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (h *harness) at(n int) { h.clk.AdvanceTo(t0.Add(ms(n))) }

func (h *harness) tap(n int) {
	h.at(n)
	h.det.Handle(Down(KeySpace, h.clk.Now()))
	h.det.Handle(Up(KeySpace, h.clk.Now()))
}

func (h *harness) commands() []Command {
	out := make([]Command, 0, len(h.got))
	for _, s := range h.got {
		out = append(out, s.cmd)
	}
	return out
}

func assertCommands(t *testing.T, h *harness, want ...Command) {
	t.Helper()
	got := h.commands()
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("commands = %v, want %v", got, want)
		}
	}
}

func TestDoubleTapEmitsActionWhenWindowCloses(t *testing.T) {
	h := newHarness(t)
	h.tap(0)
	h.tap(150)
	assertCommands(t, h)

	h.at(449)
	assertCommands(t, h)

	h.at(450)
	assertCommands(t, h, AddAction)
	if h.got[0].at != ms(450) {
		t.Fatalf("AddAction at %v, want 450ms", h.got[0].at)
	}
	if !h.det.State().Idle() {
		t.Fatalf("state not idle after emission: %+v", h.det.State())
	}
}

func TestTripleTapEmitsDialogueImmediately(t *testing.T) {
	h := newHarness(t)
	h.tap(0)
	h.tap(150)
	h.tap(250)
	assertCommands(t, h, AddDialogue)
	if h.got[0].at != ms(250) {
		t.Fatalf("AddDialogue at %v, want 250ms", h.got[0].at)
	}
	if !h.det.State().Idle() {
		t.Fatalf("state not idle after emission: %+v", h.det.State())
	}

	h.at(2000)
	assertCommands(t, h, AddDialogue)
}

func TestSeparatedTapsEmitNothing(t *testing.T) {
	h := newHarness(t)
	h.tap(0)
	h.tap(400)
	h.at(2000)
	assertCommands(t, h)
	if !h.det.State().Idle() {
		t.Fatalf("state not idle after window: %+v", h.det.State())
	}
}

func TestSingleTapResetsWithinWindow(t *testing.T) {
	h := newHarness(t)
	h.tap(0)
	if st := h.det.State(); st.PendingTapCount != 1 || !st.LastTap.Equal(t0) {
		t.Fatalf("state after one tap = %+v", st)
	}
	h.at(300)
	assertCommands(t, h)
	if !h.det.State().Idle() {
		t.Fatalf("state not idle %v after the tap: %+v", ms(300), h.det.State())
	}
}

func TestTwoTapGaps(t *testing.T) {
	for _, gap := range []int{1, 50, 150, 299} {
		h := newHarness(t)
		h.tap(0)
		h.tap(gap)
		h.at(gap + 1000)
		assertCommands(t, h, AddAction)
	}
}

func TestTwoTapsAtWindowBoundaryDoNotCombine(t *testing.T) {
	h := newHarness(t)
	h.tap(0)
	h.tap(300)
	h.at(1000)
	assertCommands(t, h)
}

func TestThreeTapGaps(t *testing.T) {
	gaps := [][2]int{{10, 10}, {100, 100}, {299, 299}, {250, 40}, {20, 280}}
	for _, g := range gaps {
		h := newHarness(t)
		h.tap(0)
		h.tap(g[0])
		h.tap(g[0] + g[1])
		h.at(5000)
		assertCommands(t, h, AddDialogue)
	}
}

func TestFourthTapStartsNewGesture(t *testing.T) {
	h := newHarness(t)
	h.tap(0)
	h.tap(100)
	h.tap(200)
	h.tap(300)
	h.at(2000)
	assertCommands(t, h, AddDialogue)
}

func TestStaleTapSettlesPendingDouble(t *testing.T) {
	// Timestamps move on while the clock stands still, so the decision timer
	// never fires and the stale third tap must settle the gesture itself.
	h := newHarness(t)
	h.det.Handle(Down(KeySpace, t0))
	h.det.Handle(Down(KeySpace, t0.Add(ms(100))))
	h.det.Handle(Down(KeySpace, t0.Add(ms(1000))))
	assertCommands(t, h, AddAction)
	st := h.det.State()
	if st.PendingTapCount != 1 || !st.LastTap.Equal(t0.Add(ms(1000))) {
		t.Fatalf("state after stale tap = %+v", st)
	}
}

func TestOutOfOrderTimestampStartsFreshGesture(t *testing.T) {
	h := newHarness(t)
	h.det.Handle(Down(KeySpace, t0.Add(ms(200))))
	h.det.Handle(Down(KeySpace, t0.Add(ms(100))))
	h.det.Handle(Down(KeySpace, t0.Add(ms(100))))
	h.at(5000)
	assertCommands(t, h)
}

func TestZeroTimestampUsesClock(t *testing.T) {
	h := newHarness(t)
	h.det.Handle(KeyEvent{Key: KeySpace})
	h.at(100)
	h.det.Handle(KeyEvent{Key: KeySpace})
	h.at(1000)
	assertCommands(t, h, AddAction)
	if h.got[0].at != ms(400) {
		t.Fatalf("AddAction at %v, want 400ms", h.got[0].at)
	}
}

func TestEnter(t *testing.T) {
	h := newHarness(t)
	h.det.Handle(Down(KeyEnter, t0))
	assertCommands(t, h, NewPanel)

	h.det.Handle(KeyEvent{Key: KeyEnter, Repeat: true, Timestamp: t0})
	h.det.Handle(KeyEvent{Key: KeyEnter, Modifiers: ModShift, Timestamp: t0})
	h.det.Handle(Up(KeyEnter, t0))
	assertCommands(t, h, NewPanel)
}

func TestEnterDoesNotDisturbPendingTaps(t *testing.T) {
	h := newHarness(t)
	h.tap(0)
	h.tap(100)
	h.at(150)
	h.det.Handle(Down(KeyEnter, h.clk.Now()))
	h.at(1000)
	assertCommands(t, h, NewPanel, AddAction)
}

func TestOtherKeysDoNotDisturbPendingTaps(t *testing.T) {
	h := newHarness(t)
	h.tap(0)
	h.at(50)
	h.det.Handle(Down(KeyOther, h.clk.Now()))
	h.det.Handle(Up(KeyOther, h.clk.Now()))
	h.tap(150)
	h.at(1000)
	assertCommands(t, h, AddAction)
}

func TestSpaceRepeatIgnored(t *testing.T) {
	h := newHarness(t)
	h.tap(0)
	h.at(100)
	h.det.Handle(KeyEvent{Key: KeySpace, Repeat: true, Timestamp: h.clk.Now()})
	h.at(120)
	h.det.Handle(KeyEvent{Key: KeySpace, Repeat: true, Timestamp: h.clk.Now()})
	h.at(1000)
	assertCommands(t, h)
}

func TestCloseCancelsPendingDecision(t *testing.T) {
	h := newHarness(t)
	h.tap(0)
	h.tap(150)
	h.det.Close()
	if n := h.clk.Pending(); n != 0 {
		t.Fatalf("pending timers after Close = %d, want 0", n)
	}
	h.at(1000)
	h.det.Handle(Down(KeyEnter, h.clk.Now()))
	assertCommands(t, h)
	if !h.det.State().Idle() {
		t.Fatalf("state not idle after Close: %+v", h.det.State())
	}
}

func TestAttachLifecycle(t *testing.T) {
	h := newHarness(t)
	feed := NewFeed()
	if err := h.det.Attach(feed); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := h.det.Attach(feed); !errors.Is(err, ErrAttached) {
		t.Fatalf("second Attach err = %v, want ErrAttached", err)
	}
	feed.Publish(Down(KeyEnter, h.clk.Now()))
	assertCommands(t, h, NewPanel)

	h.det.Close()
	if n := feed.Subscribers(); n != 0 {
		t.Fatalf("subscribers after Close = %d, want 0", n)
	}
	feed.Publish(Down(KeyEnter, h.clk.Now()))
	assertCommands(t, h, NewPanel)
	if err := h.det.Attach(feed); !errors.Is(err, ErrClosed) {
		t.Fatalf("Attach after Close err = %v, want ErrClosed", err)
	}
}

func TestStateInvariantsUnderRandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h := newHarness(t)
	now := 0
	for i := 0; i < 2000; i++ {
		now += rng.Intn(450)
		h.at(now)
		var ev KeyEvent
		switch rng.Intn(6) {
		case 0:
			ev = Down(KeyEnter, h.clk.Now())
		case 1:
			ev = Down(KeyOther, h.clk.Now())
		case 2:
			ev = Up(KeySpace, h.clk.Now())
		case 3:
			ev = KeyEvent{Key: KeySpace, Repeat: true, Timestamp: h.clk.Now()}
		default:
			ev = Down(KeySpace, h.clk.Now())
		}
		h.det.Handle(ev)
		st := h.det.State()
		if st.PendingTapCount < 0 || st.PendingTapCount > 2 {
			t.Fatalf("step %d: PendingTapCount = %d", i, st.PendingTapCount)
		}
		if st.LastTap.IsZero() != (st.PendingTapCount == 0) {
			t.Fatalf("step %d: inconsistent state %+v", i, st)
		}
	}
}
