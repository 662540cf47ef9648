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
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gomanga/internal/domain"
	applog "gomanga/internal/log"
	"gomanga/internal/storage"
)

// Open loads the project at path, falling back to its latest backup. A
// missing file starts a new project that will be saved to path.
func Open(path string) (*Session, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		name := strings.TrimSuffix(filepath.Base(path), storage.FileSuffix)
		name = strings.TrimSuffix(name, filepath.Ext(name))
		return NewSession(domain.NewProject(name), path), nil
	}
	p, fromBackup, err := storage.OpenWithFallback(path)
	if err != nil {
		return nil, err
	}
	if fromBackup {
		applog.WithComponent("editor").Warn("opened latest backup", slog.String("path", path))
	}
	return NewSession(p, path), nil
}

// Save writes the session to its path, or to the default file name in the
// working directory when it has none, and records a revision in hist when
// one is given. The session stays dirty when it was edited while the file
// was being written. History failures are logged, not returned.
func (s *Session) Save(ctx context.Context, hist *storage.History, keep int) (domain.Project, error) {
	p, rev := s.snapshotRev()
	path := s.Path()
	if path == "" {
		path = storage.FileName(p.Name)
		s.SetPath(path)
	}
	saved, err := storage.SaveProject(path, p)
	if err != nil {
		return domain.Project{}, err
	}
	if !s.markCleanAt(rev) {
		s.log.Info("edited during save, still dirty", slog.String("path", path))
	}
	if hist == nil {
		return saved, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := hist.Put(ctx, saved, time.Now()); err != nil {
		s.log.Warn("history put failed", slog.Any("err", err))
	} else if _, err := hist.Prune(ctx, keep); err != nil {
		s.log.Warn("history prune failed", slog.Any("err", err))
	}
	return saved, nil
}
