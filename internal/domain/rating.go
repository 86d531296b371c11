package domain

import (
	"fmt"
	"sort"

	apperrors "github.com/velvetshop/storefront/pkg/errors"
)

// Star rating bounds.
const (
	MinStarValue = 1
	MaxStarValue = 5
)

// VoteBucket counts the reviews that gave one discrete star value. The bucket
// set is sparse: an absent value means a count of zero.
type VoteBucket struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

// Punctuation is the aggregated review score of a product: the average star
// value, the number of opinions, and the buckets it was derived from.
type Punctuation struct {
	Average       float64      `json:"punctuation"`
	CountOpinions int          `json:"count_opinions"`
	Votes         []VoteBucket `json:"votes"`
}

// Summarize folds vote buckets into a punctuation summary. The average is
// Σ(value×count)/Σ(count), or 0 when there are no opinions. The division
// happens before any rounding; display rounding is the caller's concern.
// Buckets are returned sorted by star value.
func Summarize(votes []VoteBucket) Punctuation {
	buckets := make([]VoteBucket, 0, len(votes))
	for _, v := range votes {
		if v.Count == 0 {
			continue
		}
		buckets = append(buckets, v)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Value < buckets[j].Value })

	var opinions, weighted int
	for _, b := range buckets {
		opinions += b.Count
		weighted += b.Value * b.Count
	}

	p := Punctuation{Votes: buckets, CountOpinions: opinions}
	if opinions > 0 {
		p.Average = float64(weighted) / float64(opinions)
	}
	return p
}

// RecordVote adjusts the bucket for the given star value by delta and
// re-derives the whole summary from scratch. Recomputing instead of patching
// the average keeps the summary consistent with its buckets no matter how it
// was produced.
//
// An out-of-range star value or a delta that would drive a bucket's count
// negative is rejected, leaving the receiver untouched.
func (p Punctuation) RecordVote(value, delta int) (Punctuation, error) {
	if value < MinStarValue || value > MaxStarValue {
		return p, apperrors.InvalidInput(fmt.Sprintf("star value must be between %d and %d", MinStarValue, MaxStarValue))
	}

	votes := make([]VoteBucket, len(p.Votes))
	copy(votes, p.Votes)

	found := false
	for i := range votes {
		if votes[i].Value == value {
			if votes[i].Count+delta < 0 {
				return p, apperrors.InvalidInput(fmt.Sprintf("vote count for star value %d cannot go negative", value))
			}
			votes[i].Count += delta
			found = true
			break
		}
	}
	if !found {
		if delta < 0 {
			return p, apperrors.InvalidInput(fmt.Sprintf("vote count for star value %d cannot go negative", value))
		}
		votes = append(votes, VoteBucket{Value: value, Count: delta})
	}

	return Summarize(votes), nil
}
