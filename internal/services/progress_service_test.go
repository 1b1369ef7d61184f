package services

import "testing"

func TestXPForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{1, 0},
		{2, 100},
		{3, 400},
		{4, 900},
		{5, 1600},
		{10, 8100},
		{11, 10000},
	}
	for _, tt := range tests {
		if got := xpForLevel(tt.level); got != tt.want {
			t.Errorf("xpForLevel(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{899, 3},
		{900, 4},
		{8100, 10},
		{10000, 11},
	}
	for _, tt := range tests {
		if got := levelForXP(tt.xp); got != tt.want {
			t.Errorf("levelForXP(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLevelCurve_RoundTrip(t *testing.T) {
	for level := 1; level <= 50; level++ {
		threshold := xpForLevel(level)
		if got := levelForXP(threshold); got != level {
			t.Errorf("levelForXP(xpForLevel(%d)) = %d, want %d", level, got, level)
		}
		if level > 1 {
			if got := levelForXP(threshold - 1); got != level-1 {
				t.Errorf("levelForXP(%d) = %d, want %d", threshold-1, got, level-1)
			}
		}
	}
}
