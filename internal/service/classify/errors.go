package classify

import (
	"errors"
	"fmt"
)

// Setup-phase failures abort a run entirely. Per-batch failures never do;
// they surface as model.BatchError entries instead.
var (
	ErrRunInProgress       = errors.New("classification run already in progress for this user")
	ErrNoBuckets           = errors.New("no buckets configured")
	ErrDuplicateBucketName = errors.New("duplicate bucket name")
)

// GenerationError covers transport failures, timeouts and responses the
// model produced that do not conform to the expected schema.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ValidationError means the model output was well formed but violated one
// of the count, uniqueness or membership rules. Reason names the specific
// violated rule and becomes the BatchError reason verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid classification response: " + e.Reason
}
