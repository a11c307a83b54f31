package storage

import (
	"context"
	"testing"

	"github.com/m3rciful/clientdesk/internal/model"
)

func TestQueryTerms(t *testing.T) {
	tests := []struct {
		in     string
		digits string
		suffix string
	}{
		{"VIP", "", ""},
		{"+380501234567", "380501234567", "34567"},
		{"0501234567", "0501234567", "34567"},
		{"34567", "34567", "34567"},
		{"999", "999", ""},
		{"7", "", ""},
	}
	for _, tt := range tests {
		digits, suffix := QueryTerms(tt.in)
		if digits != tt.digits || suffix != tt.suffix {
			t.Fatalf("QueryTerms(%q) = %q,%q; want %q,%q", tt.in, digits, suffix, tt.digits, tt.suffix)
		}
	}
}

func TestMatchClient(t *testing.T) {
	c := &model.Client{
		ID:      1,
		Comment: "VIP client",
		Phones:  []string{"+380501234567"},
	}
	tests := []struct {
		query string
		want  bool
	}{
		{"VIP", true},
		{"vip cli", true},
		{"0501234567", true},
		{"34567", true},
		{"+38 (050) 123-45-67", true},
		{"999", false},
		{"regular", false},
	}
	for _, tt := range tests {
		if got := MatchClient(c, tt.query); got != tt.want {
			t.Fatalf("MatchClient(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestMemoryStoreSearch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	vip, err := s.Create(ctx, []string{"+380501234567"}, "VIP client", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, []string{"+380997654321"}, "regular", nil, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, q := range []string{"VIP", "0501234567", "34567"} {
		got, err := s.Search(ctx, q)
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if len(got) != 1 || got[0].ID != vip {
			t.Fatalf("search %q returned %d results, want the VIP client", q, len(got))
		}
	}

	got, err := s.Search(ctx, "999")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("search 999 returned %d results, want 0", len(got))
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id, err := s.Create(ctx, []string{"+380501234567"}, "to remove", nil, [][]float64{{0.1, 0.2}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	removed, err := s.Delete(ctx, 9999)
	if err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if removed {
		t.Fatal("delete of a non-existent id reported removal")
	}

	removed, err = s.Delete(ctx, id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !removed {
		t.Fatal("delete of an existing id reported nothing removed")
	}
	if _, err := s.GetByID(ctx, id); err != ErrNotFound {
		t.Fatalf("get after delete = %v, want ErrNotFound", err)
	}
	encs, err := s.AllEncodings(ctx)
	if err != nil {
		t.Fatalf("encodings: %v", err)
	}
	if len(encs) != 0 {
		t.Fatalf("encodings survived delete: %d", len(encs))
	}
}

func TestMemoryStoreEmptyCommentPlaceholder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id, err := s.Create(ctx, nil, "", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	c, err := s.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Comment != model.CommentPlaceholder {
		t.Fatalf("comment = %q, want placeholder", c.Comment)
	}
}
