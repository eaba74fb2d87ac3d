package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id int64, kind Kind, by, on bool, at time.Time) FormattedTransaction {
	return FormattedTransaction{
		ID:         id,
		Kind:       kind,
		Type:       kind.String(),
		ByIdentity: by,
		OnIdentity: on,
		Timestamp:  at,
	}
}

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func bothDirections() Direction {
	return Direction{ByIdentity: true, OnIdentity: true}
}

func TestFilterAllTypesDisabledHidesEverything(t *testing.T) {
	txs := []FormattedTransaction{
		tx(1, KindTransfer, true, false, base),
		tx(2, KindVote, true, false, base),
	}

	// An empty non-nil map is the deliberate "hide everything" state.
	got := Filter(txs, FilterState{Types: map[Kind]bool{}, Direction: bothDirections()})
	assert.Empty(t, got)
}

func TestFilterNilTypesEnablesEverything(t *testing.T) {
	txs := []FormattedTransaction{
		tx(1, KindTransfer, true, false, base),
		tx(2, KindVote, true, false, base),
	}

	got := Filter(txs, FilterState{Direction: bothDirections()})
	assert.Len(t, got, 2)
}

func TestFilterTypeInclusion(t *testing.T) {
	txs := []FormattedTransaction{
		tx(1, KindTransfer, true, false, base),
		tx(2, KindVote, true, false, base),
		tx(3, KindCurationReward, false, true, base),
	}

	got := Filter(txs, FilterState{
		Types:     map[Kind]bool{KindVote: true},
		Direction: bothDirections(),
	})
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestFilterSelfTransferPassesWithEitherDirection(t *testing.T) {
	selfTransfer := tx(1, KindTransfer, true, true, base)

	byOnly := Filter([]FormattedTransaction{selfTransfer}, FilterState{
		Direction: Direction{ByIdentity: true},
	})
	assert.Len(t, byOnly, 1)

	onOnly := Filter([]FormattedTransaction{selfTransfer}, FilterState{
		Direction: Direction{OnIdentity: true},
	})
	assert.Len(t, onOnly, 1)
}

func TestFilterDirectionExclusion(t *testing.T) {
	incoming := tx(1, KindTransfer, false, true, base)

	got := Filter([]FormattedTransaction{incoming}, FilterState{
		Direction: Direction{ByIdentity: true},
	})
	assert.Empty(t, got)
}

func TestFilterDateRangeInclusiveEnd(t *testing.T) {
	end := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	lastMoment := tx(1, KindTransfer, true, false, time.Date(2024, 3, 2, 23, 59, 59, 0, time.UTC))
	nextDay := tx(2, KindTransfer, true, false, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC))

	got := Filter([]FormattedTransaction{lastMoment, nextDay}, FilterState{
		Direction: bothDirections(),
		DateRange: DateRange{End: &end},
	})
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestFilterDateRangeStart(t *testing.T) {
	start := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	before := tx(1, KindTransfer, true, false, base)
	after := tx(2, KindTransfer, true, false, start.Add(time.Hour))

	got := Filter([]FormattedTransaction{before, after}, FilterState{
		Direction: bothDirections(),
		DateRange: DateRange{Start: &start},
	})
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	txs := []FormattedTransaction{
		tx(1, KindTransfer, true, false, base),
		tx(2, KindVote, false, false, base),
	}

	_ = Filter(txs, FilterState{Direction: bothDirections()})
	assert.Equal(t, int64(1), txs[0].ID)
	assert.Equal(t, int64(2), txs[1].ID)
}

func TestSortRoundTrip(t *testing.T) {
	txs := []FormattedTransaction{
		tx(3, KindTransfer, true, false, base.Add(2*time.Hour)),
		tx(1, KindTransfer, true, false, base),
		tx(2, KindTransfer, true, false, base.Add(time.Hour)),
	}

	desc := Sort(txs, SortDesc)
	require.Len(t, desc, 3)
	assert.Equal(t, int64(3), desc[0].ID)

	asc := Sort(desc, SortAsc)
	assert.Equal(t, int64(1), asc[0].ID)
	assert.Equal(t, int64(2), asc[1].ID)
	assert.Equal(t, int64(3), asc[2].ID)
}

func TestSortTieBreaksBySequenceDescending(t *testing.T) {
	txs := []FormattedTransaction{
		tx(5, KindTransfer, true, false, base),
		tx(9, KindTransfer, true, false, base),
		tx(7, KindTransfer, true, false, base),
	}

	got := Sort(txs, SortAsc)
	assert.Equal(t, int64(9), got[0].ID)
	assert.Equal(t, int64(7), got[1].ID)
	assert.Equal(t, int64(5), got[2].ID)
}

func TestSortLeavesInputUntouched(t *testing.T) {
	txs := []FormattedTransaction{
		tx(2, KindTransfer, true, false, base.Add(time.Hour)),
		tx(1, KindTransfer, true, false, base),
	}

	_ = Sort(txs, SortAsc)
	assert.Equal(t, int64(2), txs[0].ID)
}
