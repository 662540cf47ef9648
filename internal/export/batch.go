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

	"gomanga/internal/domain"
	"gomanga/internal/script"
)

// Format names accepted by Batch.
const (
	FormatText = "txt"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// AllFormats is used when BatchOptions.Formats is empty.
var AllFormats = []string{FormatText, FormatPDF, FormatPNG}

// BatchOptions controls exporting several formats at once.
//
// Path semantics:
//   - txt and pdf are written as <slug>.txt and <slug>.pdf in OutDir.
//   - png cards are written to OutDir/png/.
type BatchOptions struct {
	Formats []string
	OutDir  string
	PDF     PDFOptions
	PNG     PNGOptions
}

// Text writes the script text export of p to outPath.
func Text(p domain.Project, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(script.Export(p)), 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}

// Batch runs the requested exports and returns the files written.
func Batch(p domain.Project, opt BatchOptions) ([]string, error) {
	if strings.TrimSpace(opt.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = AllFormats
	}
	slug := domain.Slug(p.Name)
	var out []string
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case FormatText:
			path := filepath.Join(opt.OutDir, slug+".txt")
			if err := Text(p, path); err != nil {
				return out, err
			}
			out = append(out, path)
		case FormatPDF:
			path := filepath.Join(opt.OutDir, slug+".pdf")
			if err := ScriptPDF(p, path, opt.PDF); err != nil {
				return out, err
			}
			out = append(out, path)
		case FormatPNG:
			files, err := ScriptPNG(p, filepath.Join(opt.OutDir, "png"), opt.PNG)
			out = append(out, files...)
			if err != nil {
				return out, err
			}
		default:
			return out, fmt.Errorf("unknown export format %q", f)
		}
	}
	return out, nil
}
