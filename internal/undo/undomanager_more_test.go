/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func TestClearBoardAndStats(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024, MaxPerBoard: 10, MinInterval: time.Millisecond})
	id := "board-d"
	m.PushSnapshot(Snapshot{BoardID: id, Blob: []byte("abcdef"), TS: time.Now()})
	tb, boards, total := m.Stats()
	if tb == 0 || boards != 1 || total != 1 {
		t.Fatalf("unexpected stats before clear: tb=%d boards=%d total=%d", tb, boards, total)
	}
	m.ClearBoard(id)
	tb2, boards2, total2 := m.Stats()
	if tb2 != 0 || boards2 != 0 || total2 != 0 {
		t.Fatalf("expected cleared stats to be zero, got tb=%d boards=%d total=%d", tb2, boards2, total2)
	}
}

func TestGlobalPruneAcrossBoards(t *testing.T) {
	// Very small MaxBytes so pruning triggers across boards
	m := NewManager(Config{MaxBytes: 8, MaxPerBoard: 0, MinInterval: time.Millisecond})
	t0 := time.Now()
	// Board 1 older snapshot
	m.PushSnapshot(Snapshot{BoardID: "board-1", Blob: []byte("xxxx"), TS: t0})
	// Board 2 newer snapshot
	m.PushSnapshot(Snapshot{BoardID: "board-2", Blob: []byte("yyyy"), TS: t0.Add(time.Second)})

	// Add another snapshot to exceed cap and force prune of oldest board snapshot
	m.PushSnapshot(Snapshot{BoardID: "board-2", Blob: []byte("zzzz"), TS: t0.Add(2 * time.Second)})

	// After pruning, oldest (board 1) should be removed
	_, boards, total := m.Stats()
	if boards == 0 || total == 0 {
		t.Fatalf("expected some snapshots to remain")
	}
	// Undo board 1 should now be empty
	if _, ok := m.Undo("board-1"); ok {
		t.Fatalf("expected board 1 to have been pruned")
	}
	// Undo board 2 should still work
	if _, ok := m.Undo("board-2"); !ok {
		t.Fatalf("expected board 2 to have snapshots")
	}
}
