package grid

import (
	"net/url"
	"testing"
)

func TestMemoryHistory(t *testing.T) {
	h := NewMemoryHistory(url.Values{"page": {"1"}})

	h.Push(url.Values{"page": {"2"}})
	h.Replace(url.Values{"page": {"3"}})

	if h.Len() != 2 {
		t.Errorf("Len = %d, want 2", h.Len())
	}
	if got := h.Query().Get("page"); got != "3" {
		t.Errorf("current page = %q, want 3", got)
	}

	back, ok := h.Back()
	if !ok || back.Get("page") != "1" {
		t.Errorf("Back = (%v, %v), want page=1", back, ok)
	}
	if _, ok := h.Back(); ok {
		t.Error("Back at start returned true")
	}

	fwd, ok := h.Forward()
	if !ok || fwd.Get("page") != "3" {
		t.Errorf("Forward = (%v, %v), want page=3", fwd, ok)
	}
	if _, ok := h.Forward(); ok {
		t.Error("Forward at end returned true")
	}
}

func TestMemoryHistory_PushDropsForward(t *testing.T) {
	h := NewMemoryHistory(url.Values{})
	h.Push(url.Values{"page": {"2"}})
	h.Push(url.Values{"page": {"3"}})
	h.Back()
	h.Back()

	h.Push(url.Values{"page": {"9"}})

	if h.Len() != 2 {
		t.Errorf("Len = %d, want 2", h.Len())
	}
	if _, ok := h.Forward(); ok {
		t.Error("forward entries survived Push")
	}
}

func TestMemoryHistory_QueryIsCopy(t *testing.T) {
	h := NewMemoryHistory(url.Values{"page": {"1"}})

	q := h.Query()
	q.Set("page", "99")

	if got := h.Query().Get("page"); got != "1" {
		t.Errorf("page = %q, history mutated through Query result", got)
	}
}
