/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus an autosave of the
// open project.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"gomanga/internal/editor"
	applog "gomanga/internal/log"
	"gomanga/internal/storage"
	"gomanga/internal/telemetry"
	"gomanga/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Recover captures a panic, logs an error with stacktrace, writes an error
// report file, and autosaves the session's project (if provided) next to its
// backups. Projects that were never saved are autosaved in the temp dir.
//
// Usage: defer crash.Recover(session)
func Recover(s *editor.Session) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	path := projectPath(s)
	reportPath, err := writeReport(path, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if s != nil {
		if out, err := storage.AutosaveCrashSnapshot(path, s.Snapshot()); err != nil {
			l.Error("autosave crash snapshot failed", slog.Any("err", err))
		} else {
			l.Info("autosave crash snapshot written", slog.String("path", out))
			_, _ = fmt.Fprintf(os.Stderr, "Your project was autosaved to: %s\n", out)
		}
	}

	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	// Exit with a non-zero code to indicate failure in CLI context.
	exitFn(2)
}

func projectPath(s *editor.Session) string {
	if s == nil {
		return ""
	}
	if p := s.Path(); p != "" {
		return p
	}
	return filepath.Join(os.TempDir(), storage.FileName(s.Snapshot().Name))
}

func writeReport(projectPath string, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if projectPath != "" {
		dir = filepath.Join(filepath.Dir(projectPath), storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "GoManga Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if projectPath != "" {
		_, _ = fmt.Fprintf(&buf, "Project: %s\n", projectPath)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	// uploaded only when the user opted in
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
