/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"gomanga/internal/domain"
	"gomanga/internal/textlayout"
)

// PNGOptions controls panel card rendering.
//   - Width: card width in pixels (480 when zero); height grows with the text.
//   - Padding: inner margin in pixels (16 when zero).
//   - FontFile: optional TTF/OTF file; the built-in 7x13 bitmap font is used
//     when empty.
//   - FontSize: point size for FontFile (12 when zero).
type PNGOptions struct {
	Width    int
	Padding  int
	FontFile string
	FontSize float32
}

var (
	cardBG      = color.RGBA{255, 255, 255, 255}
	cardBorder  = color.RGBA{0, 0, 0, 255}
	actionInk   = color.RGBA{60, 60, 60, 255}
	dialogueInk = color.RGBA{20, 40, 140, 255}
)

// ScriptPNG renders one PNG card per panel into outDir, named
// panel-<n>.png, and returns the written paths.
func ScriptPNG(p domain.Project, outDir string, opt PNGOptions) ([]string, error) {
	w := opt.Width
	if w <= 0 {
		w = 480
	}
	pad := opt.Padding
	if pad <= 0 {
		pad = 16
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}

	provider := textlayout.Provider(textlayout.BasicProvider{})
	if opt.FontFile != "" {
		lib := textlayout.NewFontLibrary()
		if err := lib.LoadFile("card", 400, false, opt.FontFile); err != nil {
			return nil, err
		}
		provider = textlayout.OTProvider{Lib: lib}
	}
	face, met := provider.Resolve(textlayout.FontSpec{Family: "card", SizePt: opt.FontSize, Weight: 400})
	lineH := met.LineHeight() + 2
	avail := w - 2*pad
	if avail < textlayout.Width(face, "MMMMMMMM") {
		return nil, fmt.Errorf("card width %d too small", w)
	}

	var out []string
	for i, pn := range p.Panels {
		type line struct {
			text string
			ink  color.RGBA
		}
		lines := []line{{text: fmt.Sprintf("PANEL %d", i+1), ink: cardBorder}, {}}
		for _, c := range pn.Content {
			ink := actionInk
			if c.Type == domain.Dialogue {
				ink = dialogueInk
			}
			for _, l := range textlayout.Wrap(face, strings.ToUpper(string(c.Type))+": "+c.Text, avail) {
				lines = append(lines, line{text: l, ink: ink})
			}
		}
		h := 2*pad + len(lines)*lineH

		img := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(img, img.Bounds(), &image.Uniform{C: cardBG}, image.Point{}, draw.Src)
		strokeRect(img, 0, 0, w-1, h-1, cardBorder)

		d := font.Drawer{Dst: img, Face: face}
		y := pad + met.Ascent
		for _, l := range lines {
			d.Src = image.NewUniform(l.ink)
			d.Dot = fixed.P(pad, y)
			d.DrawString(l.text)
			y += lineH
		}

		name := filepath.Join(outDir, fmt.Sprintf("panel-%d.png", i+1))
		if err := writePNG(name, img); err != nil {
			return out, err
		}
		out = append(out, name)
	}
	return out, nil
}

func writePNG(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}
