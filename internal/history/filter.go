package history

import (
	"sort"
	"time"
)

// Direction selects transactions relative to the identity. A transaction
// that is both by and on the identity, a self-transfer for instance, passes
// when either enabled flag matches.
type Direction struct {
	ByIdentity bool
	OnIdentity bool
}

// DateRange bounds transactions in time. End is inclusive of that date's
// final moment.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// FilterState is owned by the caller and passed by value; the filter never
// mutates it. A nil Types map enables every kind; a non-nil map with every
// kind disabled deliberately hides everything.
type FilterState struct {
	Types     map[Kind]bool
	Direction Direction
	DateRange DateRange
}

// Filter applies type, direction and date-range inclusion in that order and
// returns the passing subset in input order.
func Filter(txs []FormattedTransaction, state FilterState) []FormattedTransaction {
	out := make([]FormattedTransaction, 0, len(txs))
	for _, tx := range txs {
		if state.Types != nil && !state.Types[tx.Kind] {
			continue
		}
		byOK := state.Direction.ByIdentity && tx.ByIdentity
		onOK := state.Direction.OnIdentity && tx.OnIdentity
		if !byOK && !onOK {
			continue
		}
		if !inRange(tx.Timestamp, state.DateRange) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// inRange checks the inclusive date bounds.
func inRange(ts time.Time, r DateRange) bool {
	if r.Start != nil && ts.Before(*r.Start) {
		return false
	}
	if r.End != nil {
		// Inclusive of the end date's final moment.
		endOfDay := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, r.End.Location()).AddDate(0, 0, 1)
		if !ts.Before(endOfDay) {
			return false
		}
	}
	return true
}

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Sort orders transactions by timestamp, ties broken by sequence id
// descending. The input slice is left untouched.
func Sort(txs []FormattedTransaction, direction string) []FormattedTransaction {
	out := make([]FormattedTransaction, len(txs))
	copy(out, txs)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			if direction == SortDesc {
				return a.Timestamp.After(b.Timestamp)
			}
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID > b.ID
	})
	return out
}
