/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ui is the desktop front end built on Fyne. The window itself needs
// -tags fyne and cgo; key translation lives here so it builds everywhere.
package ui

import (
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"gomanga/internal/gesture"
)

// Options configures Run.
type Options struct {
	Window      time.Duration
	HistoryKeep int
}

// gestureKey maps a Fyne key name onto the keys the detector knows.
func gestureKey(k fyne.KeyName) gesture.Key {
	switch k {
	case fyne.KeySpace:
		return gesture.KeySpace
	case fyne.KeyReturn, fyne.KeyEnter:
		return gesture.KeyEnter
	}
	return gesture.KeyOther
}

func modifierFor(k fyne.KeyName) gesture.Modifier {
	switch k {
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		return gesture.ModShift
	case desktop.KeyControlLeft, desktop.KeyControlRight:
		return gesture.ModCtrl
	case desktop.KeyAltLeft, desktop.KeyAltRight:
		return gesture.ModAlt
	case desktop.KeySuperLeft, desktop.KeySuperRight:
		return gesture.ModMeta
	}
	return 0
}

// keyTracker turns the canvas key-down and key-up callbacks into gesture
// events. Fyne sends auto-repeat as further key-downs without a key-up, and
// modifiers as keys of their own, so both are tracked here.
type keyTracker struct {
	held map[fyne.KeyName]bool
	mods gesture.Modifier
}

func newKeyTracker() *keyTracker {
	return &keyTracker{held: map[fyne.KeyName]bool{}}
}

func (t *keyTracker) down(k fyne.KeyName, ts time.Time) gesture.KeyEvent {
	if m := modifierFor(k); m != 0 {
		t.mods |= m
	}
	ev := gesture.KeyEvent{
		Key:       gestureKey(k),
		Phase:     gesture.PhaseDown,
		Repeat:    t.held[k],
		Modifiers: t.mods,
		Timestamp: ts,
	}
	t.held[k] = true
	return ev
}

func (t *keyTracker) up(k fyne.KeyName, ts time.Time) gesture.KeyEvent {
	delete(t.held, k)
	if m := modifierFor(k); m != 0 && !t.holding(m) {
		t.mods &^= m
	}
	return gesture.KeyEvent{Key: gestureKey(k), Phase: gesture.PhaseUp, Modifiers: t.mods, Timestamp: ts}
}

// holding reports whether another held key, such as the right-hand twin of a
// released left Shift, still sets m.
func (t *keyTracker) holding(m gesture.Modifier) bool {
	for k := range t.held {
		if modifierFor(k) == m {
			return true
		}
	}
	return false
}
