/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"sort"
	"sync"
)

// Source delivers key events to subscribers. The returned function cancels
// the subscription and is safe to call more than once.
type Source interface {
	Subscribe(fn func(KeyEvent)) (unsubscribe func())
}

// Feed is an in-process Source. Front ends publish the events they decided
// the detector may see.
type Feed struct {
	mu   sync.Mutex
	next int
	subs map[int]func(KeyEvent)
}

// NewFeed returns an empty Feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]func(KeyEvent))}
}

func (f *Feed) Subscribe(fn func(KeyEvent)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers ev to every current subscriber in subscription order.
func (f *Feed) Publish(ev KeyEvent) {
	f.mu.Lock()
	ids := make([]int, 0, len(f.subs))
	for id := range f.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(KeyEvent), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, f.subs[id])
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Subscribers returns the number of active subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
