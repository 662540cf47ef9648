/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f5c2e7"))
	dirtyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fab387"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))

	panelActive = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#89b4fa")).
			Padding(0, 1)
	panelInactive = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475a")).
			Padding(0, 1)

	actionLabel   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a6e3a1"))
	dialogueLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89dceb"))
	selectedItem  = lipgloss.NewStyle().Reverse(true)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
)
