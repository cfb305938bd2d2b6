package report

import (
	"context"
	"testing"
)

func TestInMemoryStoreSaveAssignsID(t *testing.T) {
	s := NewInMemoryStore()
	saved, err := s.Save(context.Background(), Report{Mode: "message", ScrubbedText: "hello [NAME]"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("report ID should be assigned")
	}
	if saved.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be assigned")
	}
}

func TestInMemoryStoreRecentNewestFirst(t *testing.T) {
	s := NewInMemoryStore()
	for _, text := range []string{"first", "second", "third"} {
		if _, err := s.Save(context.Background(), Report{Mode: "message", ScrubbedText: text}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, err := s.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 || got[0].ScrubbedText != "third" || got[1].ScrubbedText != "second" {
		t.Fatalf("Recent() = %+v, want newest first", got)
	}
}

func TestInMemoryStoreByContact(t *testing.T) {
	s := NewInMemoryStore()
	masked := "*******678"
	if _, err := s.Save(context.Background(), Report{Mode: "message", MaskedContact: masked}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := s.Save(context.Background(), Report{Mode: "message", MaskedContact: "*******999"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.ByContact(context.Background(), masked)
	if err != nil {
		t.Fatalf("ByContact() error = %v", err)
	}
	if len(got) != 1 || got[0].MaskedContact != masked {
		t.Fatalf("ByContact() = %+v, want one match", got)
	}

	empty, err := s.ByContact(context.Background(), "")
	if err != nil || empty != nil {
		t.Fatalf("ByContact(\"\") = (%v, %v), want (nil, nil)", empty, err)
	}
}
