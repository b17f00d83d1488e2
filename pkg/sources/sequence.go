package sources

import (
	"context"
	"iter"
	"sync/atomic"
	"time"
)

// Once makes seq single use: ranging over the result a second time yields
// nothing. Every Source wraps its sequence with Once so a consumed fetch is
// never silently replayed.
func Once(seq iter.Seq2[RawRecord, error]) iter.Seq2[RawRecord, error] {
	var used atomic.Bool
	return func(yield func(RawRecord, error) bool) {
		if used.Swap(true) {
			return
		}
		seq(yield)
	}
}

// FromSlice returns a single-use sequence over recs.
func FromSlice(recs []RawRecord) iter.Seq2[RawRecord, error] {
	return Once(func(yield func(RawRecord, error) bool) {
		for _, rec := range recs {
			if !yield(rec, nil) {
				return
			}
		}
	})
}

// Fail returns a sequence that yields only err.
func Fail(err error) iter.Seq2[RawRecord, error] {
	return Once(func(yield func(RawRecord, error) bool) {
		yield(RawRecord{}, err)
	})
}

// Collect drains seq. It stops at the first error and returns the records
// gathered so far together with that error.
func Collect(seq iter.Seq2[RawRecord, error]) ([]RawRecord, error) {
	var recs []RawRecord
	for rec, err := range seq {
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Pause waits for d between two pagination steps. It returns early with the
// context's error when ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
