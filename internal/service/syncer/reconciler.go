package syncer

import (
	"time"

	"mailbucket/internal/fetcher"
	"mailbucket/internal/model"
)

// Reconcile diffs freshly fetched threads against the locally known id
// set. It returns new EmailRecords for unseen ids (unclassified, stamped
// with now) and the ids that were already known. Known ids are never
// re-touched, so sync can never overwrite classification state.
//
// Duplicate ids inside one fetch are collapsed before diffing, last seen
// wins. An empty fetch yields no work and is not an error.
func Reconcile(fetched []fetcher.RemoteThread, known map[string]struct{}, userID string, now time.Time) (newRecords []model.EmailRecord, knownIDs []string) {
	if len(fetched) == 0 {
		return nil, nil
	}

	deduped := make(map[string]fetcher.RemoteThread, len(fetched))
	order := make([]string, 0, len(fetched))
	for _, t := range fetched {
		if _, seen := deduped[t.ID]; !seen {
			order = append(order, t.ID)
		}
		deduped[t.ID] = t
	}

	for _, id := range order {
		if _, ok := known[id]; ok {
			knownIDs = append(knownIDs, id)
			continue
		}
		t := deduped[id]
		newRecords = append(newRecords, model.EmailRecord{
			ID:           t.ID,
			UserID:       userID,
			Subject:      t.Subject,
			Sender:       t.Sender,
			Preview:      t.Preview,
			SentAt:       t.Date,
			BucketID:     nil,
			LastSyncedAt: now,
		})
	}
	return newRecords, knownIDs
}
