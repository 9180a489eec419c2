package classify

import (
	"fmt"

	"mailbucket/internal/model"
)

// ValidateAssignments is the strict gate between the model's raw output
// and anything the pipeline trusts. The batch is accepted only if every
// rule holds; otherwise the whole batch is rejected with the specific
// violated rule. Model output is treated as adversarial input.
//
// On acceptance it translates bucket names back to bucket ids. The
// translation cannot fail for an accepted batch; a lookup miss after
// validation is an internal invariant violation and panics.
func ValidateAssignments(batch []model.EmailRecord, buckets []model.Bucket, raw []Assignment) (map[string]string, *ValidationError) {
	nameToID := make(map[string]string, len(buckets))
	for _, b := range buckets {
		nameToID[b.Name] = b.ID
	}

	inputIDs := make(map[string]struct{}, len(batch))
	for _, e := range batch {
		inputIDs[e.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(raw))
	for _, a := range raw {
		if a.ID == "" {
			return nil, &ValidationError{Reason: "empty id in response"}
		}
		if a.BucketName == "" {
			return nil, &ValidationError{Reason: "empty bucket name in response"}
		}
		if _, dup := seen[a.ID]; dup {
			return nil, &ValidationError{
				Reason: fmt.Sprintf("duplicate id %s in response", a.ID),
			}
		}
		seen[a.ID] = struct{}{}

		if _, ok := inputIDs[a.ID]; !ok {
			return nil, &ValidationError{
				Reason: fmt.Sprintf("foreign id %s in response", a.ID),
			}
		}
		if _, ok := nameToID[a.BucketName]; !ok {
			return nil, &ValidationError{
				Reason: fmt.Sprintf("unknown bucket name %q in response", a.BucketName),
			}
		}
	}

	for _, e := range batch {
		if _, ok := seen[e.ID]; !ok {
			return nil, &ValidationError{
				Reason: fmt.Sprintf("missing id %s", e.ID),
			}
		}
	}

	// Full coverage with no duplicates and no foreign ids pins the length
	// already; the explicit count check stays as a final invariant.
	if len(raw) != len(batch) {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("expected %d assignments, got %d", len(batch), len(raw)),
		}
	}

	assigned := make(map[string]string, len(raw))
	for _, a := range raw {
		id, ok := nameToID[a.BucketName]
		if !ok {
			panic(fmt.Sprintf("bucket name %q passed validation but has no id", a.BucketName))
		}
		assigned[a.ID] = id
	}
	return assigned, nil
}
