/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gomanga/internal/editor"
	applog "gomanga/internal/log"
	"gomanga/internal/storage"
)

// RunOptions configures Run.
type RunOptions struct {
	Window        time.Duration
	HistoryKeep   int
	WatchDebounce time.Duration
	// Session, when set, is used instead of loading path.
	Session *editor.Session
}

// Run starts the terminal editor on the project at path and blocks until the
// user quits or ctx ends.
func Run(ctx context.Context, path string, opt RunOptions) error {
	s := opt.Session
	if s == nil {
		var err error
		if s, err = editor.Open(path); err != nil {
			return err
		}
	}
	l := applog.WithOperation(applog.WithComponent("tui"), "run").With(slog.String("path", path))

	hist, err := storage.OpenHistory(filepath.Dir(path))
	if err != nil {
		l.Warn("history unavailable", slog.Any("err", err))
		hist = nil
	} else {
		defer func() { _ = hist.Close() }()
	}

	m := New(s, Options{Window: opt.Window, History: hist, HistoryKeep: opt.HistoryKeep})
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.SetSender(p.Send)

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if _, err := os.Stat(path); err == nil {
		if events, err := storage.Watch(wctx, path, opt.WatchDebounce); err != nil {
			l.Warn("watch unavailable", slog.Any("err", err))
		} else {
			go func() {
				for ev := range events {
					p.Send(fileChangedMsg{ev: ev})
				}
			}()
		}
	}

	l.Info("terminal editor started")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run terminal editor: %w", err)
	}
	return nil
}
