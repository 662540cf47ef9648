/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "gomanga/internal/log"
)

// WatchEvent reports that the watched project file changed on disk.
type WatchEvent struct {
	Path    string
	Removed bool
}

// DefaultWatchDebounce coalesces the burst of events a single save produces.
const DefaultWatchDebounce = 200 * time.Millisecond

// Watch reports changes to the file at path. The parent directory is watched
// so replace-by-rename saves are seen. Rapid events are debounced into one.
// The channel is closed when ctx ends.
func Watch(ctx context.Context, path string, debounce time.Duration) (<-chan WatchEvent, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "watch").With(slog.String("path", abs))
	events := make(chan WatchEvent, 1)

	go func() {
		defer close(events)
		defer func() { _ = w.Close() }()

		var (
			timer   *time.Timer
			fire    <-chan time.Time
			pending WatchEvent
		)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				name, _ := filepath.Abs(ev.Name)
				if name != abs || ev.Op == fsnotify.Chmod {
					continue
				}
				pending = WatchEvent{Path: abs, Removed: ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0}
				if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					// A rename-over save shows up as Create after Remove
					pending.Removed = false
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					timer.Reset(debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				select {
				case events <- pending:
				default:
					// Consumer has an unread event already
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.Warn("watch error", slog.Any("err", err))
			}
		}
	}()
	return events, nil
}
