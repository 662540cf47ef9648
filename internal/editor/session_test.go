/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"gomanga/internal/domain"
	"gomanga/internal/gesture"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(domain.NewProject("Test"), "")
	s.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestApplyCommands(t *testing.T) {
	s := newTestSession(t)
	for _, c := range []gesture.Command{gesture.AddAction, gesture.AddDialogue, gesture.NewPanel, gesture.AddAction} {
		if err := s.Apply(c); err != nil {
			t.Fatalf("Apply(%v): %v", c, err)
		}
	}
	p := s.Snapshot()
	if len(p.Panels) != 2 {
		t.Fatalf("panels = %d, want 2", len(p.Panels))
	}
	if got := p.Panels[0].Content; len(got) != 2 || got[0].Type != domain.Action || got[1].Type != domain.Dialogue {
		t.Fatalf("panel 1 content = %#v", got)
	}
	if got := p.Panels[1].Content; len(got) != 1 || got[0].Type != domain.Action {
		t.Fatalf("panel 2 content = %#v", got)
	}
	if s.Current() != 1 {
		t.Fatalf("Current = %d, want 1", s.Current())
	}
	if !s.Dirty() {
		t.Fatalf("expected dirty session")
	}
	if p.LastModified != time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli() {
		t.Fatalf("LastModified = %d", p.LastModified)
	}
}

func TestApplyWithoutPanelsIsNoop(t *testing.T) {
	s := newTestSession(t)
	if err := s.DeletePanel(0); err != nil {
		t.Fatalf("DeletePanel: %v", err)
	}
	if err := s.Apply(gesture.AddDialogue); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n := len(s.Snapshot().Panels); n != 0 {
		t.Fatalf("panels = %d", n)
	}
	if err := s.Apply(gesture.Command(99)); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}

func TestDeletePanelMovesCurrent(t *testing.T) {
	s := newTestSession(t)
	s.AddPanel()
	s.AddPanel() // panels 0,1,2; current 2
	if err := s.DeletePanel(1); err != nil {
		t.Fatalf("DeletePanel: %v", err)
	}
	if s.Current() != 1 {
		t.Fatalf("Current = %d, want 1", s.Current())
	}
	if err := s.SelectPanel(0); err != nil {
		t.Fatalf("SelectPanel: %v", err)
	}
	if err := s.DeletePanel(0); err != nil {
		t.Fatalf("DeletePanel: %v", err)
	}
	if s.Current() != 0 {
		t.Fatalf("Current = %d, want 0", s.Current())
	}
	if err := s.DeletePanel(5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
}

func TestContentEdits(t *testing.T) {
	s := newTestSession(t)
	i, err := s.AddContent(0, domain.Dialogue)
	if err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	if err := s.UpdateContent(0, i, "Hello."); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if got := s.Snapshot().Panels[0].Content[0].Text; got != "Hello." {
		t.Fatalf("Text = %q", got)
	}
	if _, err := s.AddContent(0, "caption"); !errors.Is(err, domain.ErrInvalidContentType) {
		t.Fatalf("err = %v", err)
	}
	if err := s.UpdateContent(0, 3, "x"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v", err)
	}
	if err := s.DeleteContent(0, 0); err != nil {
		t.Fatalf("DeleteContent: %v", err)
	}
	if n := len(s.Snapshot().Panels[0].Content); n != 0 {
		t.Fatalf("content = %d", n)
	}
}

func TestReplaceIsAllOrNothing(t *testing.T) {
	s := newTestSession(t)
	s.AddPanel()
	before := s.Snapshot()

	bad := domain.NewProject("Bad")
	bad.Panels[0].Content = []domain.Content{{ID: "x", Type: "narration"}}
	if err := s.Replace(bad); err == nil {
		t.Fatalf("expected error")
	}
	if got := s.Snapshot(); got.ID != before.ID || len(got.Panels) != 2 || s.Current() != 1 {
		t.Fatalf("session changed after failed Replace: %#v", got)
	}

	good := domain.NewProject("Good")
	if err := s.Replace(good); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if s.Snapshot().Name != "Good" || s.Current() != 0 || s.Dirty() {
		t.Fatalf("unexpected state after Replace")
	}
}

func TestOnChangeAndMarkClean(t *testing.T) {
	s := newTestSession(t)
	calls := 0
	s.OnChange(func() {
		calls++
		_ = s.Snapshot() // callbacks may read the session
	})
	s.Rename("Renamed")
	s.AddPanel()
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	s.MarkClean()
	if s.Dirty() {
		t.Fatalf("still dirty")
	}
}

func TestConcurrentApply(t *testing.T) {
	s := newTestSession(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Apply(gesture.AddAction)
		}()
	}
	wg.Wait()
	if n := s.Snapshot().ContentCount(); n != 20 {
		t.Fatalf("content = %d, want 20", n)
	}
}
