/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gomanga/internal/domain"
	"gomanga/internal/editor"
	"gomanga/internal/gesture"
	"gomanga/internal/storage"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	t     *testing.T
	m     *Model
	clock *gesture.ManualClock
	sent  chan tea.Msg
	copy  []string
}

func newHarness(t *testing.T, path string) *harness {
	t.Helper()
	h := &harness{t: t, clock: gesture.NewManualClock(t0), sent: make(chan tea.Msg, 16)}
	s := editor.NewSession(domain.NewProject("Harness"), path)
	h.m = New(s, Options{Clock: h.clock, Copy: func(s string) error { h.copy = append(h.copy, s); return nil }})
	h.m.SetSender(func(msg tea.Msg) { h.sent <- msg })
	t.Cleanup(h.m.Close)
	return h
}

func (h *harness) key(k tea.KeyMsg) {
	h.t.Helper()
	h.m.Update(k)
}

func (h *harness) runes(s string) {
	h.key(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// pump delivers everything the detector sent into Update, like tea.Program would.
func (h *harness) pump() int {
	n := 0
	for {
		select {
		case msg := <-h.sent:
			h.m.Update(msg)
			n++
		default:
			return n
		}
	}
}

func (h *harness) advance(d time.Duration) { h.clock.Advance(d) }

func TestDoubleSpaceAddsAction(t *testing.T) {
	h := newHarness(t, "")
	h.key(tea.KeyMsg{Type: tea.KeySpace})
	h.advance(150 * time.Millisecond)
	h.key(tea.KeyMsg{Type: tea.KeySpace})
	if h.pump() != 0 {
		t.Fatalf("command delivered before the window closed")
	}
	h.advance(300 * time.Millisecond)
	if h.pump() != 1 {
		t.Fatalf("expected one command")
	}
	p := h.m.session.Snapshot()
	if len(p.Panels[0].Content) != 1 || p.Panels[0].Content[0].Type != domain.Action {
		t.Fatalf("content = %#v", p.Panels[0].Content)
	}
	if h.m.item != 0 {
		t.Fatalf("new item not selected: %d", h.m.item)
	}
}

func TestTripleSpaceAddsDialogueOnly(t *testing.T) {
	h := newHarness(t, "")
	for i := 0; i < 3; i++ {
		h.key(tea.KeyMsg{Type: tea.KeySpace})
		h.advance(100 * time.Millisecond)
	}
	h.advance(time.Second)
	h.pump()
	c := h.m.session.Snapshot().Panels[0].Content
	if len(c) != 1 || c[0].Type != domain.Dialogue {
		t.Fatalf("content = %#v", c)
	}
}

func TestEnterAddsPanel(t *testing.T) {
	h := newHarness(t, "")
	h.key(tea.KeyMsg{Type: tea.KeyEnter})
	h.pump()
	if n := len(h.m.session.Snapshot().Panels); n != 2 || h.m.session.Current() != 1 {
		t.Fatalf("panels=%d current=%d", n, h.m.session.Current())
	}
}

func TestSpaceWhileEditingIsText(t *testing.T) {
	h := newHarness(t, "")
	if err := h.m.session.Apply(gesture.AddDialogue); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	h.m.item = 0
	h.key(tea.KeyMsg{Type: tea.KeyTab})
	if !h.m.editing {
		t.Fatalf("tab did not start editing")
	}
	h.runes("Hi")
	h.key(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	h.key(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	h.runes("there")
	h.advance(time.Second)
	if h.pump() != 0 {
		t.Fatalf("spaces typed into the editor reached the detector")
	}
	h.key(tea.KeyMsg{Type: tea.KeyEsc})
	c := h.m.session.Snapshot().Panels[0].Content
	if len(c) != 1 || c[0].Text != "Hi  there" {
		t.Fatalf("content = %#v", c)
	}
}

func TestNavigationAndDelete(t *testing.T) {
	h := newHarness(t, "")
	s := h.m.session
	_ = s.Apply(gesture.AddAction)
	_ = s.Apply(gesture.AddDialogue)
	s.AddPanel()
	h.key(tea.KeyMsg{Type: tea.KeyLeft})
	if s.Current() != 0 || h.m.item != 0 {
		t.Fatalf("current=%d item=%d", s.Current(), h.m.item)
	}
	h.key(tea.KeyMsg{Type: tea.KeyDown})
	h.key(tea.KeyMsg{Type: tea.KeyCtrlD})
	if c := s.Snapshot().Panels[0].Content; len(c) != 1 || c[0].Type != domain.Action {
		t.Fatalf("content = %#v", c)
	}
	if h.m.item != 0 {
		t.Fatalf("item not clamped: %d", h.m.item)
	}
	h.key(tea.KeyMsg{Type: tea.KeyCtrlX})
	if n := len(s.Snapshot().Panels); n != 1 {
		t.Fatalf("panels = %d", n)
	}
}

func TestSaveCopyAndExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harness.manga.json")
	h := newHarness(t, path)
	_ = h.m.session.Apply(gesture.AddAction)

	h.key(tea.KeyMsg{Type: tea.KeyCtrlS})
	if h.m.err != nil {
		t.Fatalf("save: %v", h.m.err)
	}
	if h.m.session.Dirty() {
		t.Fatalf("session still dirty after save")
	}
	if _, err := storage.LoadProject(path); err != nil {
		t.Fatalf("saved file not loadable: %v", err)
	}

	h.key(tea.KeyMsg{Type: tea.KeyCtrlY})
	if len(h.copy) != 1 || !strings.HasPrefix(h.copy[0], "PANEL 1:\nACTION: ") {
		t.Fatalf("clipboard = %q", h.copy)
	}

	h.key(tea.KeyMsg{Type: tea.KeyCtrlE})
	b, err := os.ReadFile(filepath.Join(dir, "harness.txt"))
	if err != nil || string(b) != "PANEL 1:\nACTION: \n" {
		t.Fatalf("export = %q, %v", b, err)
	}
}

func TestCopyFailureIsReported(t *testing.T) {
	h := newHarness(t, "")
	h.m.copyFn = func(string) error { return errors.New("no clipboard") }
	h.key(tea.KeyMsg{Type: tea.KeyCtrlY})
	if h.m.err == nil || !strings.Contains(h.m.View(), "no clipboard") {
		t.Fatalf("expected clipboard error in view")
	}
}

func TestReloadOnlyWhenClean(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reload.manga.json")
	h := newHarness(t, path)
	h.key(tea.KeyMsg{Type: tea.KeyCtrlS})

	other := domain.NewProject("Changed Elsewhere")
	if _, err := storage.SaveProject(path, other); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	_ = h.m.session.Apply(gesture.AddAction) // dirty
	h.m.Update(fileChangedMsg{ev: storage.WatchEvent{Path: path}})
	if h.m.session.Snapshot().Name != "Harness" {
		t.Fatalf("dirty session was replaced")
	}

	h.m.session.MarkClean()
	h.m.Update(fileChangedMsg{ev: storage.WatchEvent{Path: path}})
	if h.m.session.Snapshot().Name != "Changed Elsewhere" {
		t.Fatalf("clean session was not reloaded")
	}
}

func TestQuitAsksWhenDirty(t *testing.T) {
	h := newHarness(t, "")
	_ = h.m.session.Apply(gesture.AddAction)
	if _, cmd := h.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd != nil {
		t.Fatalf("quit without confirmation")
	}
	_, cmd := h.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("second q did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestViewShowsPanels(t *testing.T) {
	h := newHarness(t, "")
	_ = h.m.session.Apply(gesture.AddDialogue)
	_ = h.m.session.UpdateContent(0, 0, "Who goes there?")
	h.m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	v := h.m.View()
	for _, want := range []string{"Harness", "PANEL 1", "DIALOGUE", "Who goes there?"} {
		if !strings.Contains(v, want) {
			t.Fatalf("view missing %q:\n%s", want, v)
		}
	}
}

func TestNewAttachesDetectorAndCloseDetaches(t *testing.T) {
	m := New(editor.NewSession(domain.NewProject("Attach"), ""), Options{Clock: gesture.NewManualClock(t0)})
	if n := m.feed.Subscribers(); n != 1 {
		t.Fatalf("subscribers = %d, want 1", n)
	}
	m.Close()
	if n := m.feed.Subscribers(); n != 0 {
		t.Fatalf("subscribers after Close = %d, want 0", n)
	}
}
