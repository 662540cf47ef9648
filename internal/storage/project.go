/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"gomanga/internal/domain"
	applog "gomanga/internal/log"
)

const (
	FileSuffix     = ".manga.json"
	BackupsDirName = "backups"
)

// ErrInvalidProject is returned when a file does not hold a valid project.
var ErrInvalidProject = errors.New("invalid project file")

//go:embed project.schema.json
var projectSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(projectSchema)

// FileName returns the file name a project is saved under by default.
func FileName(projectName string) string {
	return domain.Slug(projectName) + FileSuffix
}

// Marshal encodes p the way it is written to disk.
func Marshal(p domain.Project) ([]byte, error) {
	p.Normalize()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal validates data against the project schema and decodes it.
// Nothing is returned unless the whole document is valid.
func Unmarshal(data []byte) (domain.Project, error) {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return domain.Project{}, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.Project{}, fmt.Errorf("%w: %s", ErrInvalidProject, strings.Join(msgs, "; "))
	}
	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Project{}, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if err := p.Validate(); err != nil {
		return domain.Project{}, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	p.Normalize()
	return p, nil
}

// LoadProject reads and validates the project at path.
func LoadProject(path string) (domain.Project, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Project{}, fmt.Errorf("read project: %w", err)
	}
	p, err := Unmarshal(b)
	if err != nil {
		return domain.Project{}, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return p, nil
}

// OpenWithFallback loads path. If it cannot be read or is invalid, the latest
// backup is loaded instead and fromBackup is true.
func OpenWithFallback(path string) (p domain.Project, fromBackup bool, err error) {
	p, err = LoadProject(path)
	if err == nil {
		return p, false, nil
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	bp, berr := openFromLatestBackup(path)
	if berr != nil {
		return domain.Project{}, false, fmt.Errorf("%w; backup attempt: %v", err, berr)
	}
	l.Warn("project unreadable, recovered from backup", slog.Any("err", err))
	return bp, true, nil
}

// SaveProject stamps LastModified and writes p to path with transactional
// semantics and a timestamped backup of the previous file (if present).
// The stamped project is returned.
func SaveProject(path string, p domain.Project) (domain.Project, error) {
	if strings.TrimSpace(path) == "" {
		return p, errors.New("project path is required")
	}
	p.Touch(time.Now())
	data, err := Marshal(p)
	if err != nil {
		return p, err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return p, fmt.Errorf("create project dir: %w", err)
	}

	// If a current file exists, copy it to a timestamped backup before replacing
	if _, statErr := os.Stat(path); statErr == nil {
		bdir := filepath.Join(dir, BackupsDirName)
		stamp := time.Now().Format("20060102-150405.000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
		if cerr := copyFile(path, bpath); cerr != nil {
			return p, fmt.Errorf("backup current project: %w", cerr)
		}
	}

	if err := writeAtomic(path, data); err != nil {
		return p, err
	}
	applog.WithComponent("storage").Debug("project saved", slog.String("path", path), slog.Int("panels", len(p.Panels)))
	return p, nil
}

// AutosaveCrashSnapshot writes p next to the backups of path without touching
// path itself. It returns the snapshot location.
func AutosaveCrashSnapshot(path string, p domain.Project) (string, error) {
	data, err := Marshal(p)
	if err != nil {
		return "", err
	}
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	out := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", filepath.Base(path), stamp))
	if err := writeFileSync(out, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return out, nil
}

func writeAtomic(path string, data []byte) error {
	// Transactional write: to temp file in same directory, then rename over target
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp project: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace project: %w", rerr)
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// Backups lists the backups of path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// openFromLatestBackup loads the newest backup of path that is valid.
func openFromLatestBackup(path string) (domain.Project, error) {
	candidates, err := Backups(path)
	if err != nil {
		return domain.Project{}, err
	}
	if len(candidates) == 0 {
		return domain.Project{}, errors.New("no backups found")
	}
	var lastErr error
	for i := len(candidates) - 1; i >= 0; i-- {
		b, err := os.ReadFile(candidates[i])
		if err != nil {
			lastErr = err
			continue
		}
		p, err := Unmarshal(b)
		if err != nil {
			lastErr = err
			continue
		}
		return p, nil
	}
	return domain.Project{}, fmt.Errorf("no valid backup: %w", lastErr)
}
