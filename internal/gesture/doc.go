/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package gesture turns a stream of key events into editing commands.
// A double tap of the space bar adds an action line, a triple tap adds a dialogue
// line and Enter opens a new panel. Timing is measured against an injected Clock
// so the detector can be driven deterministically in tests and replays.
//
// Callers own focus handling: events that originate from a free-text field must
// never be forwarded to the detector.
package gesture
