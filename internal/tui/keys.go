/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings active while no item text is being edited.
// Space and enter are not listed: they are gesture keys and go to the detector.
type keyMap struct {
	Edit        key.Binding
	Up          key.Binding
	Down        key.Binding
	PrevPanel   key.Binding
	NextPanel   key.Binding
	Save        key.Binding
	Export      key.Binding
	Copy        key.Binding
	DeleteItem  key.Binding
	DeletePanel key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Edit:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "edit")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev item")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next item")),
		PrevPanel:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev panel")),
		NextPanel:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next panel")),
		Save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Export:      key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "export")),
		Copy:        key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy script")),
		DeleteItem:  key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "del item")),
		DeletePanel: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "del panel")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.PrevPanel, k.NextPanel, k.Save, k.Copy, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Edit, k.Up, k.Down, k.PrevPanel, k.NextPanel},
		{k.Save, k.Export, k.Copy, k.DeleteItem, k.DeletePanel, k.Quit},
	}
}

var (
	leaveEdit = key.NewBinding(key.WithKeys("esc", "tab"), key.WithHelp("esc/tab", "done"))
)
