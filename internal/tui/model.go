/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tui is the terminal front end. Space and enter presses are fed to a
// gesture detector while no item text is being edited; recognized commands
// come back as messages and are applied to the editor session.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gomanga/internal/domain"
	"gomanga/internal/editor"
	"gomanga/internal/export"
	"gomanga/internal/gesture"
	applog "gomanga/internal/log"
	"gomanga/internal/script"
	"gomanga/internal/storage"
	"gomanga/internal/telemetry"
)

// commandMsg carries a recognized gesture into the update loop.
type commandMsg struct{ cmd gesture.Command }

// fileChangedMsg reports an external change to the project file.
type fileChangedMsg struct{ ev storage.WatchEvent }

// Options configures a Model. Zero values select production behavior.
type Options struct {
	Window      time.Duration
	Clock       gesture.Clock
	History     *storage.History
	HistoryKeep int
	// Copy writes to the system clipboard.
	Copy func(string) error
}

// Model is the bubbletea model of the editor.
type Model struct {
	session  *editor.Session
	feed     *gesture.Feed
	detector *gesture.Detector
	send     func(tea.Msg)

	keys     keyMap
	help     help.Model
	input    textarea.Model
	editing  bool
	item     int // selected item in the current panel, -1 for none
	quitting bool
	confirm  bool // q pressed once with unsaved changes

	history     *storage.History
	historyKeep int
	copyFn      func(string) error
	savedID     string
	savedStamp  int64

	status string
	err    error
	width  int
	height int
	log    *slog.Logger
}

// New builds the model around s. Commands recognized by the detector are
// delivered through the function given to SetSender.
func New(s *editor.Session, opt Options) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type here…"
	ta.ShowLineNumbers = false
	ta.SetHeight(4)
	ta.Blur()

	copyFn := opt.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	gopts := []gesture.Option{gesture.WithWindow(opt.Window)}
	if opt.Clock != nil {
		gopts = append(gopts, gesture.WithClock(opt.Clock))
	}
	m := &Model{
		session:     s,
		feed:        gesture.NewFeed(),
		detector:    gesture.New(gopts...),
		keys:        defaultKeyMap(),
		help:        help.New(),
		input:       ta,
		item:        -1,
		history:     opt.History,
		historyKeep: opt.HistoryKeep,
		copyFn:      copyFn,
		log:         applog.WithComponent("tui"),
	}
	m.detector.OnCommand(func(c gesture.Command) {
		if m.send != nil {
			m.send(commandMsg{cmd: c})
		}
	})
	if err := m.detector.Attach(m.feed); err != nil {
		m.log.Error("gesture detector not attached", slog.Any("err", err))
	}
	return m
}

// SetSender routes detector output into the program, normally (*tea.Program).Send.
func (m *Model) SetSender(send func(tea.Msg)) { m.send = send }

// Close detaches the detector and cancels any pending gesture.
func (m *Model) Close() { m.detector.Close() }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.input.SetWidth(max(20, msg.Width-8))
		return m, nil
	case commandMsg:
		m.applyCommand(msg.cmd)
		return m, nil
	case fileChangedMsg:
		m.reloadFromDisk(msg.ev)
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m *Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, leaveEdit) {
		m.commitEdit()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Gesture keys: only reach here when no text input is focused.
	switch msg.Type {
	case tea.KeySpace:
		m.feed.Publish(gesture.KeyEvent{Key: gesture.KeySpace, Phase: gesture.PhaseDown, Modifiers: mods(msg)})
		return m, nil
	case tea.KeyEnter:
		m.feed.Publish(gesture.KeyEvent{Key: gesture.KeyEnter, Phase: gesture.PhaseDown, Modifiers: mods(msg)})
		return m, nil
	}
	if !key.Matches(msg, m.keys.Quit) {
		m.confirm = false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.session.Dirty() && !m.confirm && msg.String() == "q" {
			m.confirm = true
			m.status = "Unsaved changes. Press q again to quit, ctrl+s to save."
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Edit):
		m.beginEdit()
	case key.Matches(msg, m.keys.Up):
		if m.item > 0 {
			m.item--
		}
	case key.Matches(msg, m.keys.Down):
		if n := m.itemCount(); m.item < n-1 {
			m.item++
		}
	case key.Matches(msg, m.keys.PrevPanel):
		m.selectPanel(m.session.Current() - 1)
	case key.Matches(msg, m.keys.NextPanel):
		m.selectPanel(m.session.Current() + 1)
	case key.Matches(msg, m.keys.Save):
		m.save()
	case key.Matches(msg, m.keys.Export):
		m.exportText()
	case key.Matches(msg, m.keys.Copy):
		m.copyScript()
	case key.Matches(msg, m.keys.DeleteItem):
		if m.item >= 0 {
			m.setErr(m.session.DeleteContent(m.session.Current(), m.item))
			m.clampItem()
		}
	case key.Matches(msg, m.keys.DeletePanel):
		m.setErr(m.session.DeletePanel(m.session.Current()))
		m.clampItem()
	}
	return m, nil
}

func mods(msg tea.KeyMsg) gesture.Modifier {
	if msg.Alt {
		return gesture.ModAlt
	}
	return 0
}

func (m *Model) applyCommand(c gesture.Command) {
	if err := m.session.Apply(c); err != nil {
		m.setErr(err)
		return
	}
	telemetry.Command(c.String())
	switch c {
	case gesture.NewPanel:
		m.item = -1
		m.status = fmt.Sprintf("Panel %d added", m.session.Current()+1)
	case gesture.AddAction, gesture.AddDialogue:
		m.item = m.itemCount() - 1
		m.status = strings.ReplaceAll(c.String(), "_", " ")
	}
	m.err = nil
}

func (m *Model) beginEdit() {
	p := m.session.Snapshot()
	cur := m.session.Current()
	if cur >= len(p.Panels) || m.item < 0 || m.item >= len(p.Panels[cur].Content) {
		m.status = "Select an item first (double-tap space adds one)"
		return
	}
	m.input.SetValue(p.Panels[cur].Content[m.item].Text)
	m.input.Focus()
	m.editing = true
}

func (m *Model) commitEdit() {
	m.editing = false
	m.input.Blur()
	m.setErr(m.session.UpdateContent(m.session.Current(), m.item, m.input.Value()))
}

func (m *Model) selectPanel(i int) {
	if err := m.session.SelectPanel(i); err != nil {
		return
	}
	m.item = -1
	if m.itemCount() > 0 {
		m.item = 0
	}
}

func (m *Model) itemCount() int {
	p := m.session.Snapshot()
	cur := m.session.Current()
	if cur >= len(p.Panels) {
		return 0
	}
	return len(p.Panels[cur].Content)
}

func (m *Model) clampItem() {
	if n := m.itemCount(); m.item >= n {
		m.item = n - 1
	}
}

func (m *Model) setErr(err error) {
	m.err = err
	if err != nil {
		m.log.Warn("edit failed", slog.Any("err", err))
	}
}

func (m *Model) save() {
	saved, err := m.session.Save(context.Background(), m.history, m.historyKeep)
	if err != nil {
		m.setErr(err)
		return
	}
	m.savedID, m.savedStamp = saved.ID, saved.LastModified
	m.status = "Saved " + filepath.Base(m.session.Path())
	m.err = nil
}

func (m *Model) exportText() {
	p := m.session.Snapshot()
	out := script.FileName(p.Name)
	if path := m.session.Path(); path != "" {
		out = filepath.Join(filepath.Dir(path), out)
	}
	if err := export.Text(p, out); err != nil {
		m.setErr(err)
		return
	}
	m.status = "Exported " + out
	m.err = nil
}

func (m *Model) copyScript() {
	if err := m.copyFn(script.Export(m.session.Snapshot())); err != nil {
		m.setErr(fmt.Errorf("copy to clipboard: %w", err))
		return
	}
	m.status = "Script copied to clipboard"
	m.err = nil
}

func (m *Model) reloadFromDisk(ev storage.WatchEvent) {
	if ev.Removed {
		m.status = "Project file was removed on disk"
		return
	}
	p, err := storage.LoadProject(ev.Path)
	if err != nil {
		m.setErr(err)
		return
	}
	if p.ID == m.savedID && p.LastModified == m.savedStamp {
		return // our own save
	}
	if m.session.Dirty() {
		m.status = "File changed on disk; keeping your unsaved changes"
		return
	}
	if err := m.session.Replace(p); err != nil {
		m.setErr(err)
		return
	}
	m.editing = false
	m.input.Blur()
	m.item = -1
	m.status = "Reloaded from disk"
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	p := m.session.Snapshot()
	cur := m.session.Current()

	var b strings.Builder
	title := titleStyle.Render(p.Name)
	if m.session.Dirty() {
		title += dirtyStyle.Render(" ●")
	}
	b.WriteString(title + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d panels · space×2 action · space×3 dialogue · enter new panel", len(p.Panels))) + "\n\n")

	for i, pn := range p.Panels {
		if i != cur {
			summary := fmt.Sprintf("PANEL %d  %s", i+1, mutedStyle.Render(fmt.Sprintf("(%d items)", len(pn.Content))))
			b.WriteString(panelInactive.Render(summary) + "\n")
			continue
		}
		b.WriteString(panelActive.Render(m.renderPanel(i, pn)) + "\n")
	}
	if len(p.Panels) == 0 {
		b.WriteString(mutedStyle.Render("No panels. Press enter to add one.") + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}
	if m.editing {
		b.WriteString(m.help.ShortHelpView([]key.Binding{leaveEdit}))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m *Model) renderPanel(i int, pn domain.Panel) string {
	lines := []string{fmt.Sprintf("PANEL %d", i+1)}
	for j, c := range pn.Content {
		label := actionLabel.Render("ACTION")
		if c.Type == domain.Dialogue {
			label = dialogueLabel.Render("DIALOGUE")
		}
		if m.editing && j == m.item {
			lines = append(lines, label, m.input.View())
			continue
		}
		text := c.Text
		if text == "" {
			text = mutedStyle.Render("…")
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top, label+" ", text)
		if j == m.item {
			line = selectedItem.Render(line)
		}
		lines = append(lines, line)
	}
	if len(pn.Content) == 0 {
		lines = append(lines, mutedStyle.Render("empty"))
	}
	return strings.Join(lines, "\n")
}
