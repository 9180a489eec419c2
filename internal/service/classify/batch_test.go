package classify

import (
	"fmt"
	"testing"

	"mailbucket/internal/model"
)

func makeEmails(n int) []model.EmailRecord {
	emails := make([]model.EmailRecord, n)
	for i := range emails {
		emails[i] = model.EmailRecord{ID: fmt.Sprintf("e%d", i)}
	}
	return emails
}

func TestPartition_Boundaries(t *testing.T) {
	tests := []struct {
		name      string
		emails    int
		size      int
		wantSizes []int
	}{
		{"empty", 0, 10, nil},
		{"single email", 1, 10, []int{1}},
		{"exactly one batch", 10, 10, []int{10}},
		{"limit plus one", 11, 10, []int{10, 1}},
		{"three batches", 23, 10, []int{10, 10, 3}},
		{"size clamped to one", 3, 0, []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := partition(makeEmails(tt.emails), tt.size)
			if len(batches) != len(tt.wantSizes) {
				t.Fatalf("batch count: got %d, want %d", len(batches), len(tt.wantSizes))
			}
			for i, want := range tt.wantSizes {
				if len(batches[i]) != want {
					t.Errorf("batch %d size: got %d, want %d", i, len(batches[i]), want)
				}
			}
		})
	}
}

func TestPartition_Contiguous(t *testing.T) {
	emails := makeEmails(7)
	batches := partition(emails, 3)

	var rejoined []string
	for _, b := range batches {
		rejoined = append(rejoined, batchIDs(b)...)
	}
	if len(rejoined) != len(emails) {
		t.Fatalf("rejoined length: got %d, want %d", len(rejoined), len(emails))
	}
	for i, e := range emails {
		if rejoined[i] != e.ID {
			t.Errorf("position %d: got %s, want %s", i, rejoined[i], e.ID)
		}
	}
}
