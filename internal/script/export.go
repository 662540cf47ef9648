/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strconv"
	"strings"

	"gomanga/internal/domain"
)

// Export renders p in the script text format. Each panel is a "PANEL n:"
// header followed by one "TYPE: text" line per item; panels are separated by
// a "---" line.
func Export(p domain.Project) string {
	parts := make([]string, len(p.Panels))
	for i, pn := range p.Panels {
		lines := make([]string, len(pn.Content))
		for j, c := range pn.Content {
			lines[j] = strings.ToUpper(string(c.Type)) + ": " + c.Text
		}
		parts[i] = "PANEL " + strconv.Itoa(i+1) + ":\n" + strings.Join(lines, "\n") + "\n"
	}
	return strings.Join(parts, "\n---\n\n")
}

// FileName returns the default export file name for a project.
func FileName(projectName string) string {
	return domain.Slug(projectName) + ".txt"
}

// Project builds a project from the parsed script. Ids are fresh.
func (s Script) Project(name string) domain.Project {
	p := domain.NewProject(name)
	p.Panels = make([]domain.Panel, 0, len(s.Panels))
	for _, sp := range s.Panels {
		pn := domain.NewPanel()
		for _, it := range sp.Items {
			c := domain.NewContent(it.Type)
			c.Text = it.Text
			pn.Content = append(pn.Content, c)
		}
		p.Panels = append(p.Panels, pn)
	}
	if len(p.Panels) == 0 {
		p.Panels = append(p.Panels, domain.NewPanel())
	}
	return p
}
