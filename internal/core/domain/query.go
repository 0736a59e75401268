package domain

import "fmt"

// DocumentQuery selects one document by hash, by id, or by an
// observation time at a url. Exactly one of Hash, ID and URL is set.
type DocumentQuery struct {
	Hash string
	ID   int64
	URL  string

	// Time and Bound select the occurrence at URL closest to Time.
	Time  int64
	Bound TimeBound

	// Range selects the earliest occurrence at URL within [Low, High]
	// instead of the closest one.
	Range     bool
	Low, High int64
}

// Validate checks that exactly one selector is set and the window is ordered.
func (q DocumentQuery) Validate() error {
	set := 0
	if q.Hash != "" {
		set++
	}
	if q.ID != 0 {
		set++
	}
	if q.URL != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("%w: select a document by exactly one of hash, id or url", ErrInvalidInput)
	}
	if q.ID < 0 {
		return fmt.Errorf("%w: document id %d", ErrInvalidInput, q.ID)
	}
	if q.Range && q.URL == "" {
		return fmt.Errorf("%w: a time window needs a url", ErrInvalidInput)
	}
	if q.Range && q.Low > q.High {
		return fmt.Errorf("%w: window [%d, %d] is empty", ErrInvalidInput, q.Low, q.High)
	}
	return nil
}
