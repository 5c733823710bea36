package store

import (
	"testing"
)

func newTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	h, err := NewHistoryStore(":memory:")
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestHistoryStore_AppendAndOrder(t *testing.T) {
	h := newTestStore(t)

	appended := []Turn{
		{Role: RoleUser, Content: "k-server問題について教えて"},
		{Role: RoleTool, ToolName: "get_algorithm_info", ToolArgs: `{"algorithm_name":"k-server"}`, ToolResult: "k-サーバー問題：..."},
		{Role: RoleAssistant, Content: "k-server問題はオンラインアルゴリズムの..."},
	}
	for _, turn := range appended {
		if err := h.AppendTurn("session-1", turn); err != nil {
			t.Fatalf("AppendTurn failed: %v", err)
		}
	}

	turns, err := h.Turns("session-1")
	if err != nil {
		t.Fatalf("Turns failed: %v", err)
	}
	if len(turns) != len(appended) {
		t.Fatalf("got %d turns, want %d", len(turns), len(appended))
	}
	for i, want := range appended {
		if turns[i] != want {
			t.Errorf("turn %d = %+v, want %+v", i, turns[i], want)
		}
	}

	n, err := h.TurnCount("session-1")
	if err != nil {
		t.Fatalf("TurnCount failed: %v", err)
	}
	if n != 3 {
		t.Errorf("TurnCount = %d, want 3", n)
	}
}

func TestHistoryStore_SessionIsolation(t *testing.T) {
	h := newTestStore(t)

	if err := h.AppendTurn("a", Turn{Role: RoleUser, Content: "hello"}); err != nil {
		t.Fatal(err)
	}
	if err := h.AppendTurn("b", Turn{Role: RoleUser, Content: "world"}); err != nil {
		t.Fatal(err)
	}

	turns, err := h.Turns("a")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 1 || turns[0].Content != "hello" {
		t.Errorf("session a history polluted: %+v", turns)
	}

	turns, err = h.Turns("unknown")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 0 {
		t.Errorf("unknown session must have empty history, got %d turns", len(turns))
	}
}
