/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"path/filepath"
	"testing"

	"gomanga/internal/domain"
	"gomanga/internal/storage"
)

func TestOpenMissingFileStartsProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh-start.manga.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Snapshot().Name != "fresh-start" || s.Path() != path {
		t.Fatalf("unexpected session %q %q", s.Snapshot().Name, s.Path())
	}
	if len(s.Snapshot().Panels) != 1 {
		t.Fatalf("new project should start with one panel")
	}
}

func TestSaveThenOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "story.manga.json")
	s := NewSession(domain.NewProject("Story"), path)
	if _, err := s.AddContent(0, domain.Dialogue); err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	if err := s.UpdateContent(0, 0, "Hello."); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}

	hist, err := storage.OpenHistory(dir)
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer hist.Close()

	saved, err := s.Save(context.Background(), hist, 5)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Dirty() {
		t.Fatalf("session still dirty after save")
	}
	rev, ok, err := hist.Latest(context.Background())
	if err != nil || !ok {
		t.Fatalf("Latest: ok=%v err=%v", ok, err)
	}
	if rev.ProjectID != saved.ID || rev.Items != 1 {
		t.Fatalf("revision = %+v", rev)
	}

	again, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := again.Snapshot().Panels[0].Content[0].Text; got != "Hello." {
		t.Fatalf("reopened text = %q", got)
	}
}

func TestSaveWithoutPathUsesDefaultName(t *testing.T) {
	t.Chdir(t.TempDir())
	s := NewSession(domain.NewProject("Night Shift"), "")
	if _, err := s.Save(context.Background(), nil, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Path() != "night-shift.manga.json" {
		t.Fatalf("path = %q", s.Path())
	}
}

func TestEditDuringSaveStaysDirty(t *testing.T) {
	s := NewSession(domain.NewProject("Race"), "")
	_, rev := s.snapshotRev()
	if _, err := s.AddContent(0, domain.Action); err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	if s.markCleanAt(rev) {
		t.Fatalf("markCleanAt succeeded after a later edit")
	}
	if !s.Dirty() {
		t.Fatalf("unsaved edit marked clean")
	}

	_, rev = s.snapshotRev()
	if !s.markCleanAt(rev) || s.Dirty() {
		t.Fatalf("expected clean when nothing changed since the snapshot")
	}
}

func TestSaveConcurrentWithEdits(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(domain.NewProject("Busy"), filepath.Join(dir, "busy.manga.json"))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, _ = s.AddContent(0, domain.Dialogue)
		}
	}()
	for i := 0; i < 5; i++ {
		if _, err := s.Save(context.Background(), nil, 0); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	<-done
	saved, err := storage.LoadProject(s.Path())
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if n := len(s.Snapshot().Panels[0].Content); n != len(saved.Panels[0].Content) && !s.Dirty() {
		t.Fatalf("session has %d items, file %d, but session is clean", n, len(saved.Panels[0].Content))
	}
}
