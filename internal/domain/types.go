/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the persisted data model of a manga script project.
// Field names and JSON tags match the .manga.json file format so files written
// by earlier versions of the editor load unchanged.

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// ContentType distinguishes the lines a panel can hold.
type ContentType string

const (
	Dialogue ContentType = "dialogue"
	Action   ContentType = "action"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool { return t == Dialogue || t == Action }

// Content is one dialogue or action line of a panel.
type Content struct {
	ID          string      `json:"id"`
	Type        ContentType `json:"type"`
	Text        string      `json:"text"`
	CharacterID string      `json:"characterId,omitempty"` // dialogue only
}

// Panel is one ordered story beat.
type Panel struct {
	ID      string    `json:"id"`
	Content []Content `json:"content"`
}

// Character is carried in the file format for compatibility; the editor does
// not manage characters.
type Character struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ImageURL      string `json:"imageUrl,omitempty"`
	Description   string `json:"description,omitempty"`
	Personality   string `json:"personality,omitempty"`
	Background    string `json:"background,omitempty"`
	Relationships string `json:"relationships,omitempty"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
}

// Project is the whole document. LastModified is unix milliseconds.
type Project struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Panels       []Panel     `json:"panels"`
	Characters   []Character `json:"characters"`
	LastModified int64       `json:"lastModified"`
}

// DefaultProjectName is used when a project is created without a name.
const DefaultProjectName = "Untitled Project"

// NewID returns a fresh identifier for projects, panels and content.
func NewID() string { return uuid.NewString() }

// NewPanel returns an empty panel with a fresh id.
func NewPanel() Panel { return Panel{ID: NewID(), Content: []Content{}} }

// NewContent returns an empty line of the given type.
func NewContent(t ContentType) Content { return Content{ID: NewID(), Type: t} }

// NewProject returns a project holding one empty panel.
func NewProject(name string) Project {
	if name == "" {
		name = DefaultProjectName
	}
	return Project{
		ID:           NewID(),
		Name:         name,
		Panels:       []Panel{NewPanel()},
		Characters:   []Character{},
		LastModified: time.Now().UnixMilli(),
	}
}

// Touch stamps LastModified with t.
func (p *Project) Touch(t time.Time) { p.LastModified = t.UnixMilli() }

// Normalize replaces nil slices with empty ones so the document serializes
// with arrays instead of nulls.
func (p *Project) Normalize() {
	if p.Panels == nil {
		p.Panels = []Panel{}
	}
	if p.Characters == nil {
		p.Characters = []Character{}
	}
	for i := range p.Panels {
		if p.Panels[i].Content == nil {
			p.Panels[i].Content = []Content{}
		}
	}
}

// Clone returns a deep copy.
func (p Project) Clone() Project {
	c := p
	c.Panels = make([]Panel, len(p.Panels))
	for i, pn := range p.Panels {
		c.Panels[i] = Panel{ID: pn.ID, Content: append([]Content{}, pn.Content...)}
	}
	c.Characters = append([]Character{}, p.Characters...)
	return c
}

// ContentCount returns the number of lines across all panels.
func (p Project) ContentCount() int {
	n := 0
	for _, pn := range p.Panels {
		n += len(pn.Content)
	}
	return n
}

// ErrInvalidContentType is returned by Validate for unknown line types.
var ErrInvalidContentType = errors.New("invalid content type")

// Validate checks the invariants a loaded document must satisfy.
func (p Project) Validate() error {
	for i, pn := range p.Panels {
		if pn.ID == "" {
			return fmt.Errorf("panel %d: missing id", i+1)
		}
		for j, c := range pn.Content {
			if c.ID == "" {
				return fmt.Errorf("panel %d item %d: missing id", i+1, j+1)
			}
			if !c.Type.Valid() {
				return fmt.Errorf("panel %d item %d: %w %q", i+1, j+1, ErrInvalidContentType, c.Type)
			}
		}
	}
	return nil
}

// Slug turns a project name into a file name stem: lower case, whitespace
// runs replaced by a single "-".
func Slug(name string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte('-')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}
