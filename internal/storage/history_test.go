/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"testing"
	"time"

	"gomanga/internal/domain"
)

func TestHistoryPutLatestListPrune(t *testing.T) {
	dir := t.TempDir()
	h, err := OpenHistory(dir)
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer h.Close()
	ctx := context.Background()

	if _, ok, err := h.Latest(ctx); err != nil || ok {
		t.Fatalf("Latest on empty history = %v, %v", ok, err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := sampleProject()
	for i := 0; i < 5; i++ {
		p.Name = "rev" + string(rune('A'+i))
		if err := h.Put(ctx, p, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	rev, ok, err := h.Latest(ctx)
	if err != nil || !ok {
		t.Fatalf("Latest: %v %v", ok, err)
	}
	if rev.Name != "revE" || rev.Panels != 2 || rev.Items != 2 || !rev.TS.Equal(base.Add(4*time.Minute)) {
		t.Fatalf("unexpected latest %+v", rev)
	}
	if rev.Project.Panels[0].Content[1].Text != "Two skewers, please." {
		t.Fatalf("project not restored: %#v", rev.Project)
	}

	list, err := h.List(ctx, 3)
	if err != nil || len(list) != 3 || list[0].Name != "revE" || list[2].Name != "revC" {
		t.Fatalf("List = %+v, %v", list, err)
	}

	n, err := h.Prune(ctx, 2)
	if err != nil || n != 3 {
		t.Fatalf("Prune = %d, %v", n, err)
	}
	list, _ = h.List(ctx, 0)
	if len(list) != 2 {
		t.Fatalf("after prune %d revisions", len(list))
	}
}

func TestHistoryReopen(t *testing.T) {
	dir := t.TempDir()
	h, err := OpenHistory(dir)
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	if err := h.Put(context.Background(), domain.NewProject("Persist"), time.Now()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	h, err = OpenHistory(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer h.Close()
	rev, ok, err := h.Latest(context.Background())
	if err != nil || !ok || rev.Name != "Persist" {
		t.Fatalf("Latest after reopen = %+v %v %v", rev, ok, err)
	}
}
