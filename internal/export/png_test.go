/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestScriptPNG_OneCardPerPanel(t *testing.T) {
	dir := t.TempDir()
	files, err := ScriptPNG(sampleProject(), dir, PNGOptions{Width: 320})
	if err != nil {
		t.Fatalf("ScriptPNG: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[1]) != "panel-2.png" {
		t.Fatalf("files = %v", files)
	}
	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 320 {
		t.Fatalf("width = %d", img.Bounds().Dx())
	}
	// The text-heavy first card is taller than the empty second one.
	f2, _ := os.Open(files[1])
	defer f2.Close()
	img2, err := png.Decode(f2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dy() <= img2.Bounds().Dy() {
		t.Fatalf("heights %d <= %d", img.Bounds().Dy(), img2.Bounds().Dy())
	}
}

func TestScriptPNG_TooNarrow(t *testing.T) {
	if _, err := ScriptPNG(sampleProject(), t.TempDir(), PNGOptions{Width: 40, Padding: 16}); err == nil {
		t.Fatalf("expected error for narrow card")
	}
}

func TestScriptPNG_CustomFont(t *testing.T) {
	dir := t.TempDir()
	fontPath := filepath.Join(dir, "goregular.ttf")
	if err := os.WriteFile(fontPath, goregular.TTF, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	files, err := ScriptPNG(sampleProject(), filepath.Join(dir, "out"), PNGOptions{FontFile: fontPath, FontSize: 14})
	if err != nil {
		t.Fatalf("ScriptPNG: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v", files)
	}
	if _, err := ScriptPNG(sampleProject(), dir, PNGOptions{FontFile: filepath.Join(dir, "missing.ttf")}); err == nil {
		t.Fatalf("expected error for missing font file")
	}
}
