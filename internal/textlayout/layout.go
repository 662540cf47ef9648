/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures and line-breaks script text for rendered
// output. Faces come from a Provider so tests can use the fixed basic font.
package textlayout

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePt float32
	Weight int // 100..900
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap int
}

// LineHeight is the baseline-to-baseline distance.
func (m Metrics) LineHeight() int { return m.Ascent + m.Descent + m.LineGap }

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 regardless of the spec.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	return basicfont.Face7x13, metricsOf(basicfont.Face7x13)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  m.Ascent.Round(),
		Descent: m.Descent.Round(),
		LineGap: m.Height.Round() - m.Ascent.Round() - m.Descent.Round(),
	}
}

// Width returns the advance of s in pixels.
func Width(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// Wrap breaks text into lines no wider than maxWidth pixels. Lines break at
// spaces; a word wider than maxWidth is split between runes. Newlines in the
// text always start a new line, and empty paragraphs are kept as empty lines.
func Wrap(face font.Face, text string, maxWidth int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		var cur string
		for _, w := range words {
			for maxWidth > 0 && Width(face, w) > maxWidth {
				if cur != "" {
					out = append(out, cur)
					cur = ""
				}
				head, rest := splitAt(face, w, maxWidth)
				out = append(out, head)
				w = rest
			}
			if w == "" {
				continue
			}
			switch {
			case cur == "":
				cur = w
			case maxWidth <= 0 || Width(face, cur+" "+w) <= maxWidth:
				cur += " " + w
			default:
				out = append(out, cur)
				cur = w
			}
		}
		if cur != "" {
			out = append(out, cur)
		}
	}
	return out
}

// splitAt returns the longest prefix of w that fits maxWidth (at least one
// rune) and the remainder.
func splitAt(face font.Face, w string, maxWidth int) (string, string) {
	end := 0
	for i, r := range w {
		next := i + utf8.RuneLen(r)
		if end > 0 && Width(face, w[:next]) > maxWidth {
			break
		}
		end = next
	}
	return w[:end], w[end:]
}
