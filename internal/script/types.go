/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"

	"gomanga/internal/domain"
)

// Script is the plain-text form of a project: numbered panels of typed lines.
//
//	PANEL 1:
//	ACTION: Rain over the rooftops.
//	DIALOGUE: We're late.
//
//	---
//
//	PANEL 2:
type Script struct {
	Panels []Panel
}

type Panel struct {
	Number int
	Items  []Item
	LineNo int // 1-based line of the PANEL header
}

// Item is one ACTION or DIALOGUE line. Text may span several source lines.
type Item struct {
	Type   domain.ContentType
	Text   string
	LineNo int
}

// Error represents a parse error with position context.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message) }
