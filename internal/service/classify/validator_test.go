package classify

import (
	"reflect"
	"strings"
	"testing"

	"mailbucket/internal/model"
)

var testBuckets = []model.Bucket{
	{ID: "b-work", UserID: "u1", Name: "Work"},
	{ID: "b-personal", UserID: "u1", Name: "Personal"},
	{ID: "b-spam", UserID: "u1", Name: "Spam"},
}

func testBatch(ids ...string) []model.EmailRecord {
	batch := make([]model.EmailRecord, len(ids))
	for i, id := range ids {
		batch[i] = model.EmailRecord{ID: id}
	}
	return batch
}

func TestValidateAssignments_Accepts(t *testing.T) {
	batch := testBatch("a", "b", "c")
	raw := []Assignment{
		{ID: "b", BucketName: "Personal"},
		{ID: "a", BucketName: "Work"},
		{ID: "c", BucketName: "Spam"},
	}

	assigned, vErr := ValidateAssignments(batch, testBuckets, raw)
	if vErr != nil {
		t.Fatalf("unexpected rejection: %v", vErr)
	}

	want := map[string]string{"a": "b-work", "b": "b-personal", "c": "b-spam"}
	if !reflect.DeepEqual(assigned, want) {
		t.Errorf("translated map: got %v, want %v", assigned, want)
	}
}

func TestValidateAssignments_Rejections(t *testing.T) {
	batch := testBatch("a", "b")

	tests := []struct {
		name       string
		raw        []Assignment
		wantReason string
	}{
		{
			"missing id",
			[]Assignment{{ID: "a", BucketName: "Work"}},
			"missing id b",
		},
		{
			"duplicate id",
			[]Assignment{{ID: "a", BucketName: "Work"}, {ID: "a", BucketName: "Spam"}},
			"duplicate id a",
		},
		{
			"foreign id",
			[]Assignment{{ID: "a", BucketName: "Work"}, {ID: "zzz", BucketName: "Spam"}},
			"foreign id zzz",
		},
		{
			"unknown bucket name",
			[]Assignment{{ID: "a", BucketName: "Work"}, {ID: "b", BucketName: "Archive"}},
			`unknown bucket name "Archive"`,
		},
		{
			"empty id",
			[]Assignment{{ID: "", BucketName: "Work"}, {ID: "b", BucketName: "Spam"}},
			"empty id",
		},
		{
			"empty bucket name",
			[]Assignment{{ID: "a", BucketName: ""}, {ID: "b", BucketName: "Spam"}},
			"empty bucket name",
		},
		{
			"empty response",
			nil,
			"missing id a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assigned, vErr := ValidateAssignments(batch, testBuckets, tt.raw)
			if vErr == nil {
				t.Fatalf("expected rejection, got %v", assigned)
			}
			if !strings.Contains(vErr.Reason, tt.wantReason) {
				t.Errorf("reason: got %q, want it to contain %q", vErr.Reason, tt.wantReason)
			}
			if assigned != nil {
				t.Errorf("rejected batch must not yield assignments, got %v", assigned)
			}
		})
	}
}

func TestValidateAssignments_IdempotentUnderRevalidation(t *testing.T) {
	batch := testBatch("a", "b", "c")
	good := []Assignment{
		{ID: "a", BucketName: "Work"},
		{ID: "b", BucketName: "Work"},
		{ID: "c", BucketName: "Personal"},
	}
	bad := []Assignment{
		{ID: "a", BucketName: "Work"},
		{ID: "b", BucketName: "Work"},
		{ID: "c", BucketName: "Archive"},
	}

	first, firstErr := ValidateAssignments(batch, testBuckets, good)
	second, secondErr := ValidateAssignments(batch, testBuckets, good)
	if firstErr != nil || secondErr != nil {
		t.Fatalf("unexpected rejection: %v / %v", firstErr, secondErr)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-validation changed the translated map: %v vs %v", first, second)
	}

	_, badFirst := ValidateAssignments(batch, testBuckets, bad)
	_, badSecond := ValidateAssignments(batch, testBuckets, bad)
	if badFirst == nil || badSecond == nil {
		t.Fatal("expected rejection on both passes")
	}
	if badFirst.Reason != badSecond.Reason {
		t.Errorf("re-validation changed the reason: %q vs %q", badFirst.Reason, badSecond.Reason)
	}
}
