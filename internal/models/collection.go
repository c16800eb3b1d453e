package models

import "sort"

// Collection helpers are pure: they never modify their inputs.

// SortScansDescending orders by ScannedAt, newest first. Equal timestamps keep
// their relative input order.
func SortScansDescending(scans []Scan) {
	sort.SliceStable(scans, func(i, j int) bool {
		return scans[i].ScannedAt.After(scans[j].ScannedAt)
	})
}

// MergeScans replaces entries by id with incoming ones, drops anything in
// pending and re-sorts. A later occurrence of an id within incoming wins.
func MergeScans(current, incoming []Scan, pending IdSet) []Scan {
	latest := make(map[string]int, len(incoming))
	for i, s := range incoming {
		latest[s.ID] = i
	}

	next := make([]Scan, 0, len(current)+len(incoming))
	for _, s := range current {
		if _, replaced := latest[s.ID]; replaced || pending.Has(s.ID) {
			continue
		}
		next = append(next, s)
	}
	for i, s := range incoming {
		if latest[s.ID] != i || pending.Has(s.ID) {
			continue
		}
		next = append(next, s)
	}
	SortScansDescending(next)
	return next
}

// RemoveScans drops every scan whose id is in ids.
func RemoveScans(current []Scan, ids IdSet) []Scan {
	next := make([]Scan, 0, len(current))
	for _, s := range current {
		if !ids.Has(s.ID) {
			next = append(next, s)
		}
	}
	return next
}

// NormalizeScans keeps the first occurrence of every id and sorts. Input that
// is already ordered and unique comes back unchanged.
func NormalizeScans(scans []Scan, pending IdSet) []Scan {
	seen := make(IdSet, len(scans))
	next := make([]Scan, 0, len(scans))
	for _, s := range scans {
		if seen.Has(s.ID) || pending.Has(s.ID) {
			continue
		}
		seen[s.ID] = struct{}{}
		next = append(next, s)
	}
	SortScansDescending(next)
	return next
}

func SameScans(a, b []Scan) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || !a[i].ScannedAt.Equal(b[i].ScannedAt) || a[i].Barcode != b[i].Barcode || a[i].Username != b[i].Username {
			return false
		}
	}
	return true
}

func CloneScans(scans []Scan) []Scan {
	if scans == nil {
		return []Scan{}
	}
	out := make([]Scan, len(scans))
	copy(out, scans)
	return out
}
