/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

// Command is the outcome of a recognized gesture.
type Command uint8

const (
	NewPanel Command = iota + 1
	AddAction
	AddDialogue
)

func (c Command) String() string {
	switch c {
	case NewPanel:
		return "new_panel"
	case AddAction:
		return "add_action"
	case AddDialogue:
		return "add_dialogue"
	default:
		return "unknown"
	}
}

// MarshalText encodes the command by name.
func (c Command) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Listener receives one Command per recognized gesture.
type Listener func(Command)
