package docstore

import (
	"testing"

	"github.com/marketpulse/recall/internal/models"
)

func TestStore_AppendAssignsPositions(t *testing.T) {
	s := New()
	for want := 0; want < 3; want++ {
		pos := s.Append(models.Document{Content: "doc", Source: "test"})
		if pos != want {
			t.Errorf("Append position = %d, want %d", pos, want)
		}
	}
	if s.Count() != 3 {
		t.Errorf("Count = %d, want 3", s.Count())
	}
}

func TestStore_Get(t *testing.T) {
	s := New()
	s.Append(models.Document{Content: "first", Module: "Camera"})
	s.Append(models.Document{Content: "second", Module: "Battery"})

	doc, err := s.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Content != "second" || doc.Position != 1 {
		t.Errorf("Get(1) = %+v", doc)
	}
	if _, err := s.Get(2); err == nil {
		t.Error("expected out-of-range error")
	}
	if _, err := s.Get(-1); err == nil {
		t.Error("expected out-of-range error for negative position")
	}
}

func TestStore_ReplaceRenumbers(t *testing.T) {
	s := New()
	s.Append(models.Document{Content: "old"})
	s.Replace([]models.Document{
		{Content: "a", Position: 42},
		{Content: "b", Position: 7},
	})
	if s.Count() != 2 {
		t.Fatalf("Count = %d, want 2", s.Count())
	}
	for i := 0; i < 2; i++ {
		doc, err := s.Get(i)
		if err != nil {
			t.Fatal(err)
		}
		if doc.Position != i {
			t.Errorf("position %d not renumbered: %+v", i, doc)
		}
	}
}

func TestStore_AllReturnsCopy(t *testing.T) {
	s := New()
	s.Append(models.Document{Content: "a"})
	all := s.All()
	all[0].Content = "mutated"
	doc, _ := s.Get(0)
	if doc.Content != "a" {
		t.Error("All must return a copy")
	}
}

func TestStore_Reset(t *testing.T) {
	s := New()
	s.Append(models.Document{Content: "a"})
	s.Reset()
	if s.Count() != 0 {
		t.Errorf("Count after Reset = %d, want 0", s.Count())
	}
}
