package store

import "sort"

// SortRecords orders records newest first. Records without a timestamp sort
// after all timestamped ones; ties keep their input order.
func SortRecords(records []PitchRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].CreatedAt, records[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
