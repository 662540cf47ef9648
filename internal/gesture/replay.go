/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Emission is a command together with the offset from the first replayed event.
type Emission struct {
	Command Command       `json:"command"`
	At      time.Duration `json:"at"`
}

// RecordedEvent is the on-disk shape of a key event in a replay file.
// T is milliseconds from an arbitrary origin.
type RecordedEvent struct {
	Key    string `json:"key"`
	Phase  string `json:"phase,omitempty"`
	Repeat bool   `json:"repeat,omitempty"`
	Shift  bool   `json:"shift,omitempty"`
	T      int64  `json:"t"`
}

// replayEpoch anchors recorded millisecond offsets to absolute instants.
var replayEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// ReadEvents decodes a JSON array of RecordedEvent.
func ReadEvents(r io.Reader) ([]KeyEvent, error) {
	var recs []RecordedEvent
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	out := make([]KeyEvent, 0, len(recs))
	for i, rec := range recs {
		ev := KeyEvent{
			Key:       ParseKey(rec.Key),
			Repeat:    rec.Repeat,
			Timestamp: replayEpoch.Add(time.Duration(rec.T) * time.Millisecond),
		}
		switch rec.Phase {
		case "", "down", "keydown":
			ev.Phase = PhaseDown
		case "up", "keyup":
			ev.Phase = PhaseUp
		default:
			return nil, fmt.Errorf("event %d: unknown phase %q", i, rec.Phase)
		}
		if rec.Shift {
			ev.Modifiers |= ModShift
		}
		out = append(out, ev)
	}
	return out, nil
}

// Replay runs events through a fresh detector on a ManualClock and returns
// every emission. Events are delivered in slice order; the clock follows
// their timestamps and is finally advanced past the last window.
func Replay(events []KeyEvent, window time.Duration) []Emission {
	if len(events) == 0 {
		return nil
	}
	start := events[0].Timestamp
	for _, ev := range events {
		if !ev.Timestamp.IsZero() && ev.Timestamp.Before(start) {
			start = ev.Timestamp
		}
	}
	clk := NewManualClock(start)
	det := New(WithClock(clk), WithWindow(window))
	defer det.Close()

	var out []Emission
	det.OnCommand(func(c Command) {
		out = append(out, Emission{Command: c, At: clk.Now().Sub(start)})
	})
	for _, ev := range events {
		if !ev.Timestamp.IsZero() {
			clk.AdvanceTo(ev.Timestamp)
		}
		det.Handle(ev)
	}
	clk.Advance(det.Window())
	return out
}
