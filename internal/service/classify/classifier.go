package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mailbucket/internal/model"
	"mailbucket/pkg/breaker"
)

// Assignment is one candidate pairing in the model's raw output. The
// model speaks bucket names; ids take over again after validation.
type Assignment struct {
	ID         string `json:"id"`
	BucketName string `json:"bucket_name"`
}

// Classifier issues one structured-generation request per batch and
// returns the raw candidate assignments, unvalidated.
type Classifier interface {
	Classify(ctx context.Context, batch []model.EmailRecord, buckets []model.Bucket) ([]Assignment, error)
}

type classifyRequest struct {
	Emails  []emailInput  `json:"emails"`
	Buckets []bucketInput `json:"buckets"`
}

type emailInput struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Preview string `json:"preview"`
}

type bucketInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type classifyResponse struct {
	Assignments []Assignment `json:"assignments"`
}

// HTTPClassifier calls the structured-generation endpoint over HTTP,
// guarded by a circuit breaker so a flapping endpoint fails batches fast
// instead of stacking up timeouts.
type HTTPClassifier struct {
	baseURL    string
	httpClient *http.Client
	breaker    *breaker.Breaker
}

func NewHTTPClassifier(baseURL string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: breaker.New(breaker.DefaultConfig()),
	}
}

// Classify submits one batch. Any transport failure, non-200 status or
// non-conforming body comes back as a *GenerationError.
func (c *HTTPClassifier) Classify(ctx context.Context, batch []model.EmailRecord, buckets []model.Bucket) ([]Assignment, error) {
	reqBody := classifyRequest{
		Emails:  make([]emailInput, len(batch)),
		Buckets: make([]bucketInput, len(buckets)),
	}
	for i, e := range batch {
		reqBody.Emails[i] = emailInput{
			ID:      e.ID,
			Subject: e.Subject,
			Sender:  e.Sender,
			Preview: e.Preview,
		}
	}
	for i, b := range buckets {
		reqBody.Buckets[i] = bucketInput{
			Name:        b.Name,
			Description: b.Description,
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	var assignments []Assignment
	err = c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("classifier endpoint returned %d", resp.StatusCode)
		}

		var decoded classifyResponse
		dec := json.NewDecoder(resp.Body)
		if err := dec.Decode(&decoded); err != nil {
			return fmt.Errorf("model did not produce a schema-conforming object: %w", err)
		}
		assignments = decoded.Assignments
		return nil
	})
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	return assignments, nil
}
