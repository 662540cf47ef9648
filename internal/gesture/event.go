/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"strings"
	"time"
)

// Key identifies the keys the detector cares about. Everything else is KeyOther.
type Key uint8

const (
	KeyOther Key = iota
	KeySpace
	KeyEnter
)

func (k Key) String() string {
	switch k {
	case KeySpace:
		return "space"
	case KeyEnter:
		return "enter"
	default:
		return "other"
	}
}

// ParseKey maps a key name as written by browsers, terminals and the replay format.
func ParseKey(s string) Key {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "space", "spacebar":
		return KeySpace
	case "enter", "return":
		return KeyEnter
	}
	if s == " " {
		return KeySpace
	}
	return KeyOther
}

// Phase is the edge of a key press.
type Phase uint8

const (
	PhaseDown Phase = iota
	PhaseUp
)

func (p Phase) String() string {
	if p == PhaseUp {
		return "up"
	}
	return "down"
}

// Modifier is a bit set of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has reports whether all bits of m2 are set.
func (m Modifier) Has(m2 Modifier) bool { return m&m2 == m2 }

// KeyEvent is a single key-down or key-up notification.
// A zero Timestamp means "now" according to the detector's clock.
type KeyEvent struct {
	Key       Key
	Phase     Phase
	Repeat    bool
	Modifiers Modifier
	Timestamp time.Time
}

// Down returns a key-down event for k at ts.
func Down(k Key, ts time.Time) KeyEvent {
	return KeyEvent{Key: k, Phase: PhaseDown, Timestamp: ts}
}

// Up returns a key-up event for k at ts.
func Up(k Key, ts time.Time) KeyEvent {
	return KeyEvent{Key: k, Phase: PhaseUp, Timestamp: ts}
}
