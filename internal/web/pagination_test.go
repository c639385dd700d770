package web

import "testing"

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi int
		want      int
	}{
		{"within range", 3, 1, 10, 3},
		{"below range", -50, 1, 10, 1},
		{"above range", 9999, 1, 10, 10},
		{"at low bound", 1, 1, 10, 1},
		{"at high bound", 10, 1, 10, 10},
		{"single page", 7, 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.v, tt.lo, tt.hi)
			if got != tt.want {
				t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
			}
			// Clamping an already-clamped value changes nothing.
			if again := Clamp(got, tt.lo, tt.hi); again != got {
				t.Errorf("Clamp is not idempotent: %d then %d", got, again)
			}
		})
	}
}

func TestNumPages(t *testing.T) {
	tests := []struct {
		count, pageSize, want int
	}{
		{0, 20, 1},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{450, 20, 23},
		{400, 20, 20},
	}
	for _, tt := range tests {
		if got := NumPages(tt.count, tt.pageSize); got != tt.want {
			t.Errorf("NumPages(%d, %d) = %d, want %d", tt.count, tt.pageSize, got, tt.want)
		}
	}
}

func TestOffsetFollowsClampedPage(t *testing.T) {
	const pageSize = 20
	for _, tt := range []struct {
		page, count, wantOffset int
	}{
		{1, 100, 0},
		{3, 100, 40},
		{99, 100, 80},	// clamped to page 5
		{-4, 100, 0},	// clamped to page 1
		{5, 0, 0},	// empty table clamps to the single page
	} {
		page := Clamp(tt.page, 1, NumPages(tt.count, pageSize))
		if got := Offset(page, pageSize); got != tt.wantOffset {
			t.Errorf("page %d of %d rows: offset = %d, want %d", tt.page, tt.count, got, tt.wantOffset)
		}
	}
}
