package domain

import (
	"cmp"
	"slices"
)

const DefaultPriority int64 = 1

type Item struct {
	ID          int64
	SessionID   int64
	Title       *string
	TravelMs    int64
	Priority    int64
	CreatedAtMs int64
}

// SortItems orders items by ascending priority, ties broken by ascending id.
func SortItems(items []Item) {
	slices.SortFunc(items, func(a, b Item) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// ValidateItem checks the numeric bounds of a new item.
func ValidateItem(travelMs, priority int64) error {
	if travelMs <= 0 {
		return ErrInvalidTravelDuration
	}
	if priority < 1 {
		return ErrInvalidPriority
	}
	return nil
}
