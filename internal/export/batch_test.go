/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"os"
	"path/filepath"
	"testing"

	"gomanga/internal/script"
)

func TestBatchAllFormats(t *testing.T) {
	dir := t.TempDir()
	p := sampleProject()
	files, err := Batch(p, BatchOptions{OutDir: dir})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	// txt + pdf + two panel cards
	if len(files) != 4 {
		t.Fatalf("files = %v", files)
	}
	b, err := os.ReadFile(filepath.Join(dir, "export-test.txt"))
	if err != nil {
		t.Fatalf("read txt: %v", err)
	}
	if string(b) != script.Export(p) {
		t.Fatalf("text export differs from script.Export")
	}
	if _, err := os.Stat(filepath.Join(dir, "png", "panel-1.png")); err != nil {
		t.Fatalf("png card missing: %v", err)
	}
}

func TestBatchRejectsUnknownFormat(t *testing.T) {
	if _, err := Batch(sampleProject(), BatchOptions{OutDir: t.TempDir(), Formats: []string{"cbz"}}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Batch(sampleProject(), BatchOptions{}); err == nil {
		t.Fatalf("expected error without OutDir")
	}
}
