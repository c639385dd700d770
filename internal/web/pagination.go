package web

// Clamp constrains v to [lo, hi]. Out-of-range page requests are clamped,
// never rejected.
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NumPages reports how many pages a count of rows spans. An empty table is
// one page, not zero, so page arithmetic never divides by or clamps to zero.
func NumPages(count, pageSize int) int {
	if count <= 0 {
		return 1
	}
	return (count-1)/pageSize + 1
}

// Offset is the row offset of a page for a LIMIT/OFFSET query.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}
