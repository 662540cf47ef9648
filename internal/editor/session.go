/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor holds the open project and applies edits to it, including the
// commands produced by the gesture detector.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gomanga/internal/domain"
	"gomanga/internal/gesture"
	applog "gomanga/internal/log"
)

// ErrOutOfRange is returned for panel or item indexes that do not exist.
var ErrOutOfRange = errors.New("index out of range")

// Session is the in-memory editing state of one project. It is safe for
// concurrent use; gesture commands arrive on timer goroutines.
type Session struct {
	mu       sync.Mutex
	project  domain.Project
	current  int
	dirty    bool
	rev      uint64 // bumped on every change
	path     string
	now      func() time.Time
	onChange []func()
	log      *slog.Logger
}

// NewSession wraps p. An empty project gets one panel so commands always have
// a target.
func NewSession(p domain.Project, path string) *Session {
	p.Normalize()
	if len(p.Panels) == 0 {
		p.Panels = append(p.Panels, domain.NewPanel())
	}
	return &Session{
		project: p,
		path:    path,
		now:     time.Now,
		log:     applog.WithComponent("editor"),
	}
}

// Path is the file the session was opened from, if any.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// SetPath records where the project is saved.
func (s *Session) SetPath(path string) {
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
}

// OnChange registers fn to run after every mutation. fn runs without the
// session lock held.
func (s *Session) OnChange(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Apply performs the edit a gesture command stands for.
func (s *Session) Apply(cmd gesture.Command) error {
	switch cmd {
	case gesture.NewPanel:
		s.AddPanel()
		return nil
	case gesture.AddAction:
		return s.addToCurrent(domain.Action)
	case gesture.AddDialogue:
		return s.addToCurrent(domain.Dialogue)
	default:
		return fmt.Errorf("apply: unknown command %d", cmd)
	}
}

func (s *Session) addToCurrent(t domain.ContentType) error {
	s.mu.Lock()
	if len(s.project.Panels) == 0 {
		s.mu.Unlock()
		s.log.Debug("no panel for new content", slog.String("type", string(t)))
		return nil
	}
	i := s.current
	s.mu.Unlock()
	_, err := s.AddContent(i, t)
	return err
}

// AddPanel appends an empty panel, makes it current and returns its index.
func (s *Session) AddPanel() int {
	s.mu.Lock()
	s.project.Panels = append(s.project.Panels, domain.NewPanel())
	s.current = len(s.project.Panels) - 1
	i := s.current
	s.touchLocked()
	s.mu.Unlock()
	s.changed()
	return i
}

// DeletePanel removes panel i. The current index follows the panel it pointed
// at and stays at zero or above.
func (s *Session) DeletePanel(i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.project.Panels) {
		s.mu.Unlock()
		return fmt.Errorf("delete panel %d: %w", i+1, ErrOutOfRange)
	}
	s.project.Panels = append(s.project.Panels[:i], s.project.Panels[i+1:]...)
	if s.current >= i && s.current > 0 {
		s.current--
	}
	s.touchLocked()
	s.mu.Unlock()
	s.changed()
	return nil
}

// SelectPanel makes panel i current.
func (s *Session) SelectPanel(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.project.Panels) {
		return fmt.Errorf("select panel %d: %w", i+1, ErrOutOfRange)
	}
	s.current = i
	return nil
}

// Current returns the index of the active panel.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// AddContent appends an empty line of type t to panel i and returns its index.
func (s *Session) AddContent(i int, t domain.ContentType) (int, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("add content: %w %q", domain.ErrInvalidContentType, t)
	}
	s.mu.Lock()
	if i < 0 || i >= len(s.project.Panels) {
		s.mu.Unlock()
		return 0, fmt.Errorf("add content to panel %d: %w", i+1, ErrOutOfRange)
	}
	pn := &s.project.Panels[i]
	pn.Content = append(pn.Content, domain.NewContent(t))
	n := len(pn.Content) - 1
	s.touchLocked()
	s.mu.Unlock()
	s.changed()
	return n, nil
}

// UpdateContent replaces the text of item ci in panel pi.
func (s *Session) UpdateContent(pi, ci int, text string) error {
	s.mu.Lock()
	c, err := s.itemLocked(pi, ci)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("update content: %w", err)
	}
	if c.Text == text {
		s.mu.Unlock()
		return nil
	}
	c.Text = text
	s.touchLocked()
	s.mu.Unlock()
	s.changed()
	return nil
}

// DeleteContent removes item ci from panel pi.
func (s *Session) DeleteContent(pi, ci int) error {
	s.mu.Lock()
	if _, err := s.itemLocked(pi, ci); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("delete content: %w", err)
	}
	pn := &s.project.Panels[pi]
	pn.Content = append(pn.Content[:ci], pn.Content[ci+1:]...)
	s.touchLocked()
	s.mu.Unlock()
	s.changed()
	return nil
}

// Rename sets the project name.
func (s *Session) Rename(name string) {
	s.mu.Lock()
	s.project.Name = name
	s.touchLocked()
	s.mu.Unlock()
	s.changed()
}

// Replace swaps in a loaded project. Nothing changes when p is invalid.
func (s *Session) Replace(p domain.Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("replace project: %w", err)
	}
	p = p.Clone()
	p.Normalize()
	if len(p.Panels) == 0 {
		p.Panels = append(p.Panels, domain.NewPanel())
	}
	s.mu.Lock()
	s.project = p
	s.current = 0
	s.dirty = false
	s.rev++
	s.mu.Unlock()
	s.log.Info("project replaced", slog.String("name", p.Name), slog.Int("panels", len(p.Panels)))
	s.changed()
	return nil
}

// Snapshot returns a deep copy of the project.
func (s *Session) Snapshot() domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Clone()
}

// Dirty reports unsaved changes.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// snapshotRev returns a deep copy of the project and the revision it was taken at.
func (s *Session) snapshotRev() (domain.Project, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Clone(), s.rev
}

// markCleanAt clears the dirty flag only if nothing changed since rev.
func (s *Session) markCleanAt(rev uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rev != rev {
		return false
	}
	s.dirty = false
	return true
}

// MarkClean is called after a successful save.
func (s *Session) MarkClean() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

func (s *Session) itemLocked(pi, ci int) (*domain.Content, error) {
	if pi < 0 || pi >= len(s.project.Panels) {
		return nil, fmt.Errorf("panel %d: %w", pi+1, ErrOutOfRange)
	}
	pn := &s.project.Panels[pi]
	if ci < 0 || ci >= len(pn.Content) {
		return nil, fmt.Errorf("panel %d item %d: %w", pi+1, ci+1, ErrOutOfRange)
	}
	return &pn.Content[ci], nil
}

func (s *Session) touchLocked() {
	s.dirty = true
	s.rev++
	s.project.Touch(s.now())
}

func (s *Session) changed() {
	s.mu.Lock()
	fns := append([]func(){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
