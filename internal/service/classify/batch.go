package classify

import "mailbucket/internal/model"

// partition splits the working set into contiguous batches of at most
// size emails. size is clamped to at least 1.
func partition(emails []model.EmailRecord, size int) [][]model.EmailRecord {
	if size < 1 {
		size = 1
	}
	if len(emails) == 0 {
		return nil
	}

	batches := make([][]model.EmailRecord, 0, (len(emails)+size-1)/size)
	for start := 0; start < len(emails); start += size {
		end := start + size
		if end > len(emails) {
			end = len(emails)
		}
		batches = append(batches, emails[start:end])
	}
	return batches
}

// batchIDs lists the email ids of one batch, used for error reporting.
func batchIDs(batch []model.EmailRecord) []string {
	ids := make([]string, len(batch))
	for i, e := range batch {
		ids[i] = e.ID
	}
	return ids
}
