package classify

import "mailbucket/internal/model"

// SelectWorkingSet picks the emails to submit for classification: every
// unclassified email plus every member of an explicitly chosen bucket.
// Choosing a bucket deliberately resubmits its emails even though they
// already carry an assignment, which is how re-categorization after a
// bucket definition change works.
func SelectWorkingSet(emails []model.EmailRecord, chosenBuckets map[string]struct{}) []model.EmailRecord {
	var working []model.EmailRecord
	for _, e := range emails {
		if e.BucketID == nil {
			working = append(working, e)
			continue
		}
		if _, ok := chosenBuckets[*e.BucketID]; ok {
			working = append(working, e)
		}
	}
	return working
}
