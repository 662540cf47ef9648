//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"gomanga/internal/crash"
	"gomanga/internal/domain"
	"gomanga/internal/editor"
	"gomanga/internal/export"
	"gomanga/internal/gesture"
	applog "gomanga/internal/log"
	"gomanga/internal/script"
	"gomanga/internal/storage"
	"gomanga/internal/telemetry"
)

const gestureHint = "Space ×2: action   Space ×3: dialogue   Enter: new panel   Ctrl+G: leave text field"

// Run opens the desktop editor on the project at path. An empty path starts
// an untitled project that is saved to the working directory.
func Run(path string, opt Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("path", path))

	var s *editor.Session
	if path == "" {
		s = editor.NewSession(domain.NewProject(domain.DefaultProjectName), "")
	} else {
		var err error
		if s, err = editor.Open(path); err != nil {
			return err
		}
	}
	defer crash.Recover(s)

	var hist *storage.History
	if path != "" {
		if h, err := storage.OpenHistory(filepath.Dir(path)); err != nil {
			l.Warn("history unavailable", slog.Any("err", err))
		} else {
			hist = h
			defer func() { _ = hist.Close() }()
		}
	}

	fyneApp := app.NewWithID("gomanga")
	w := fyneApp.NewWindow("GoManga")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1100)
	winH := prefs.IntWithFallback("window.height", 760)
	if winW < 700 {
		winW = 700
	}
	if winH < 500 {
		winH = 500
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	items := container.NewVBox()
	var panelList *widget.List
	var refresh func()

	updateTitle := func() {
		title := "GoManga - " + s.Snapshot().Name
		if s.Dirty() {
			title += " *"
		}
		w.SetTitle(title)
	}

	buildItems := func() {
		p := s.Snapshot()
		cur := s.Current()
		items.Objects = nil
		if cur < 0 || cur >= len(p.Panels) {
			items.Refresh()
			return
		}
		for ci, c := range p.Panels[cur].Content {
			label := widget.NewLabel(strings.ToUpper(string(c.Type)))
			label.TextStyle = fyne.TextStyle{Bold: true}
			entry := widget.NewMultiLineEntry()
			entry.Wrapping = fyne.TextWrapWord
			entry.SetMinRowsVisible(2)
			entry.SetText(c.Text)
			if c.Type == domain.Dialogue {
				entry.SetPlaceHolder("Dialogue...")
			} else {
				entry.SetPlaceHolder("Action description...")
			}
			pi, idx := cur, ci
			entry.OnChanged = func(text string) {
				if err := s.UpdateContent(pi, idx, text); err != nil {
					l.Warn("update failed", slog.Any("err", err))
				}
				updateTitle()
			}
			del := widget.NewButton("Delete", func() {
				if err := s.DeleteContent(pi, idx); err != nil {
					dialog.ShowError(err, w)
				}
				refresh()
			})
			items.Add(container.NewBorder(nil, nil, label, del, entry))
		}
		items.Refresh()
	}

	refresh = func() {
		panelList.Refresh()
		cur := s.Current()
		if cur >= 0 {
			panelList.Select(cur)
		}
		buildItems()
		updateTitle()
	}

	panelList = widget.NewList(
		func() int { return len(s.Snapshot().Panels) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			p := s.Snapshot()
			if int(i) < len(p.Panels) {
				o.(*widget.Label).SetText(fmt.Sprintf("PANEL %d  (%d)", i+1, len(p.Panels[i].Content)))
			}
		},
	)
	panelList.OnSelected = func(id widget.ListItemID) {
		if int(id) == s.Current() {
			return
		}
		if err := s.SelectPanel(int(id)); err == nil {
			buildItems()
		}
	}

	applyCommand := func(c gesture.Command) {
		if err := s.Apply(c); err != nil {
			l.Warn("command failed", slog.String("cmd", c.String()), slog.Any("err", err))
			return
		}
		telemetry.Command(c.String())
		status.SetText(c.String())
		refresh()
	}

	feed := gesture.NewFeed()
	detector := gesture.New(gesture.WithWindow(opt.Window), gesture.WithLogger(l))
	detector.OnCommand(func(c gesture.Command) {
		fyne.Do(func() { applyCommand(c) })
	})
	if err := detector.Attach(feed); err != nil {
		return err
	}
	defer detector.Close()

	// Gestures only count while no text field has focus.
	keys := newKeyTracker()
	if dc, ok := w.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(ev *fyne.KeyEvent) {
			ke := keys.down(ev.Name, time.Time{})
			if w.Canvas().Focused() == nil {
				feed.Publish(ke)
			}
		})
		dc.SetOnKeyUp(func(ev *fyne.KeyEvent) {
			ke := keys.up(ev.Name, time.Time{})
			if w.Canvas().Focused() == nil {
				feed.Publish(ke)
			}
		})
	}

	save := func() {
		saved, err := s.Save(context.Background(), hist, opt.HistoryKeep)
		if err != nil {
			l.Error("save failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		l.Info("save completed", slog.String("path", s.Path()), slog.Int("panels", len(saved.Panels)))
		status.SetText("Saved " + filepath.Base(s.Path()))
		updateTitle()
	}

	exportAll := func() {
		dialog.ShowFolderOpen(func(dir fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if dir == nil {
				return
			}
			written, err := export.Batch(s.Snapshot(), export.BatchOptions{OutDir: dir.Path()})
			if err != nil {
				l.Error("export failed", slog.Any("err", err))
				dialog.ShowError(err, w)
				return
			}
			status.SetText(fmt.Sprintf("Exported %d files to %s", len(written), dir.Path()))
		}, w)
	}

	importScript := func() {
		dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			defer rc.Close()
			b, err := io.ReadAll(rc)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			sc, errs := script.Parse(string(b))
			if len(errs) > 0 {
				lines := make([]string, 0, len(errs))
				for _, e := range errs {
					lines = append(lines, e.Error())
				}
				dialog.ShowError(fmt.Errorf("script has errors:\n%s", strings.Join(lines, "\n")), w)
				return
			}
			name := s.Snapshot().Name
			if err := s.Replace(sc.Project(name)); err != nil {
				dialog.ShowError(err, w)
				return
			}
			s.Rename(name)
			status.SetText(fmt.Sprintf("Imported %d panels", len(sc.Panels)))
			refresh()
		}, w)
	}

	copyScript := func() {
		w.Clipboard().SetContent(script.Export(s.Snapshot()))
		status.SetText("Script copied to clipboard")
	}

	renameProject := func() {
		entry := widget.NewEntry()
		entry.SetText(s.Snapshot().Name)
		dialog.ShowForm("Rename Project", "Rename", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Name", entry),
		}, func(ok bool) {
			if ok && strings.TrimSpace(entry.Text) != "" {
				s.Rename(strings.TrimSpace(entry.Text))
				updateTitle()
			}
		}, w)
	}

	addPanelBtn := widget.NewButton("Add Panel", func() { applyCommand(gesture.NewPanel) })
	addActionBtn := widget.NewButton("Add Action", func() { applyCommand(gesture.AddAction) })
	addDialogueBtn := widget.NewButton("Add Dialogue", func() { applyCommand(gesture.AddDialogue) })
	delPanelBtn := widget.NewButton("Delete Panel", func() {
		if err := s.DeletePanel(s.Current()); err != nil {
			dialog.ShowError(err, w)
			return
		}
		refresh()
	})
	toolbar := container.NewHBox(addPanelBtn, addActionBtn, addDialogueBtn, delPanelBtn)

	saveItem := fyne.NewMenuItem("Save", save)
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}
	exportItem := fyne.NewMenuItem("Export All…", exportAll)
	exportItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyE, Modifier: fyne.KeyModifierControl}
	importItem := fyne.NewMenuItem("Import Script…", importScript)
	copyItem := fyne.NewMenuItem("Copy Script", copyScript)
	renameItem := fyne.NewMenuItem("Rename…", renameProject)
	w.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("File", saveItem, renameItem, fyne.NewMenuItemSeparator(), importItem, exportItem, copyItem),
	))
	for _, it := range []*fyne.MenuItem{saveItem, exportItem} {
		action := it.Action
		w.Canvas().AddShortcut(it.Shortcut, func(fyne.Shortcut) { action() })
	}
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyG, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) {
		w.Canvas().Unfocus()
	})

	hint := widget.NewLabel(gestureHint)
	left := container.NewBorder(widget.NewLabel("Panels"), nil, nil, nil, panelList)
	right := container.NewBorder(toolbar, nil, nil, nil, container.NewVScroll(items))
	split := container.NewHSplit(left, right)
	split.Offset = 0.25
	w.SetContent(container.NewBorder(nil, container.NewVBox(hint, status), nil, nil, split))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if !s.Dirty() {
			w.Close()
			return
		}
		dialog.ShowConfirm("Unsaved changes", "Quit without saving?", func(ok bool) {
			if ok {
				w.Close()
			}
		}, w)
	})

	refresh()
	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}
