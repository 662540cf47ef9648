/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"gomanga/internal/domain"
)

// Patterns
var (
	rePanel = regexp.MustCompile(`^(?i)PANEL\s+(\d+)\s*:\s*$`)
	reItem  = regexp.MustCompile(`^(ACTION|DIALOGUE):(.*)$`)
)

// Parse reads text in the Export format back into a Script.
// Supported syntax:
//   - "PANEL n:" starts a panel. n is recorded but panels keep source order.
//   - "ACTION: text" and "DIALOGUE: text" add an item to the current panel.
//     A single space after the colon belongs to the format and is dropped.
//   - A line directly following an item that is none of the above continues
//     that item's text (multi-line text as written by Export).
//   - Blank lines inside an item are kept when more text of the same item
//     follows. Before "---", a header, an item line or the end of input they
//     are separators and are dropped, so trailing blank lines of an item's
//     text do not survive a round trip.
//   - "---" ends the current item.
//
// Item text whose own line starts with "ACTION:", "DIALOGUE:" or "PANEL n:"
// cannot be told apart from a new item or panel and is read as one.
//
// Anything else is reported as an Error and skipped.
func Parse(input string) (Script, []Error) {
	s := Script{Panels: []Panel{}}
	var errs []Error

	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	var (
		cur    *Panel
		last   *Item
		blanks int // blank lines held back while an item is open
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trim := strings.TrimSpace(line)

		if m := rePanel.FindStringSubmatch(trim); m != nil {
			n, _ := strconv.Atoi(m[1])
			s.Panels = append(s.Panels, Panel{Number: n, Items: []Item{}, LineNo: lineNo})
			cur = &s.Panels[len(s.Panels)-1]
			last, blanks = nil, 0
			continue
		}
		if m := reItem.FindStringSubmatch(line); m != nil {
			if cur == nil {
				errs = append(errs, Error{Line: lineNo, Column: 1, Message: "item outside of a panel"})
				last, blanks = nil, 0
				continue
			}
			cur.Items = append(cur.Items, Item{
				Type:   domain.ContentType(strings.ToLower(m[1])),
				Text:   strings.TrimPrefix(m[2], " "),
				LineNo: lineNo,
			})
			last = &cur.Items[len(cur.Items)-1]
			blanks = 0
			continue
		}
		if trim == "" {
			if last != nil {
				blanks++
			}
			continue
		}
		if trim == "---" {
			last, blanks = nil, 0
			continue
		}
		if last != nil {
			last.Text += strings.Repeat("\n", blanks+1) + line
			blanks = 0
			continue
		}
		col := len(line) - len(strings.TrimLeft(line, " \t")) + 1
		errs = append(errs, Error{Line: lineNo, Column: col, Message: "unrecognized line: " + trim})
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
	}
	return s, errs
}
