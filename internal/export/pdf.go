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
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"gomanga/internal/domain"
	"gomanga/internal/version"
)

// PDFOptions controls PDF export behavior.
// Built-in Helvetica keeps text vector without embedding fonts.
type PDFOptions struct {
	PageSize string  // "A4" (default) or "Letter"
	FontSize float64 // body size in pt; 11 when zero
	// Separators draws a rule between panels.
	Separators bool
}

// ScriptPDF writes the project script to outPath: a title, one heading per
// panel, and each item with its type label in bold.
func ScriptPDF(p domain.Project, outPath string, opt PDFOptions) error {
	size := opt.PageSize
	if size == "" {
		size = "A4"
	}
	fs := opt.FontSize
	if fs <= 0 {
		fs = 11
	}
	lh := fs * 1.4

	pdf := gofpdf.New("P", "pt", size, "")
	pdf.SetTitle(p.Name, true)
	pdf.SetAuthor("GoManga "+version.String(), true)
	pdf.SetMargins(56, 56, 56)
	pdf.SetAutoPageBreak(true, 56)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", fs*1.8)
	pdf.MultiCell(0, fs*2.2, tr(p.Name), "", "L", false)
	pdf.Ln(fs)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	labelW := fs * 7

	for i, pn := range p.Panels {
		pdf.SetFont("Helvetica", "B", fs*1.2)
		pdf.CellFormat(0, lh*1.2, fmt.Sprintf("PANEL %d", i+1), "", 1, "L", false, 0, "")
		if len(pn.Content) == 0 {
			pdf.SetFont("Helvetica", "I", fs)
			pdf.SetTextColor(128, 128, 128)
			pdf.CellFormat(0, lh, "(empty)", "", 1, "L", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
		}
		for _, c := range pn.Content {
			pdf.SetFont("Helvetica", "B", fs)
			pdf.CellFormat(labelW, lh, strings.ToUpper(string(c.Type)), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", fs)
			pdf.MultiCell(0, lh, tr(c.Text), "", "L", false)
		}
		pdf.Ln(lh / 2)
		if opt.Separators && i < len(p.Panels)-1 {
			y := pdf.GetY()
			pdf.SetDrawColor(180, 180, 180)
			pdf.SetLineWidth(0.5)
			pdf.Line(left, y, pageW-right, y)
			pdf.Ln(lh / 2)
		}
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
