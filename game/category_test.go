package game

import "testing"

func TestCategoryPickUsesCumulativeWeights(t *testing.T) {
	tests := []struct {
		draw float64
		want Category
	}{
		{0, CategoryRegular},
		{0.64, CategoryRegular},
		{0.66, CategoryBonus},
		{0.79, CategoryBonus},
		{0.81, CategorySpam},
		{0.999, CategorySpam},
		{1.5, CategorySpam},
	}
	for _, tt := range tests {
		if got := DefaultCategories.Pick(tt.draw).Category; got != tt.want {
			t.Errorf("Pick(%v) = %s, want %s", tt.draw, got, tt.want)
		}
	}
}

func TestCategoryPickNormalizesWeights(t *testing.T) {
	table := CategoryTable{
		{Category: CategoryRegular, Weight: 3},
		{Category: CategorySpam, Weight: 1},
	}
	if got := table.Pick(0.74).Category; got != CategoryRegular {
		t.Fatalf("expected regular below 0.75, got %s", got)
	}
	if got := table.Pick(0.76).Category; got != CategorySpam {
		t.Fatalf("expected spam above 0.75, got %s", got)
	}
}

func TestDefaultCategoryPoints(t *testing.T) {
	want := map[Category]int{CategoryRegular: 10, CategoryBonus: 25, CategorySpam: -25}
	for c, points := range want {
		spec, ok := DefaultCategories.Lookup(c)
		if !ok {
			t.Fatalf("missing category %s", c)
		}
		if spec.Points != points {
			t.Errorf("%s points = %d, want %d", c, spec.Points, points)
		}
		if spec.Expires != (c == CategorySpam) {
			t.Errorf("%s expires = %v", c, spec.Expires)
		}
	}
}

func TestSpawnRamp(t *testing.T) {
	tests := []struct {
		secondsLeft int
		want        int
		label       string
	}{
		{60, 1, "Normal"},
		{46, 1, "Normal"},
		{45, 2, "Fast"},
		{44, 2, "Fast"},
		{30, 3, "Extreme"},
		{16, 3, "Extreme"},
		{15, 4, "Insane"},
		{14, 4, "Insane"},
		{0, 4, "Insane"},
	}
	for _, tt := range tests {
		got := DefaultRamp.Multiplier(tt.secondsLeft)
		if got != tt.want {
			t.Errorf("Multiplier(%d) = %d, want %d", tt.secondsLeft, got, tt.want)
		}
		if label := Difficulty(got); label != tt.label {
			t.Errorf("Difficulty(%d) = %q, want %q", got, label, tt.label)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[int]string{60: "1:00", 65: "1:05", 9: "0:09", 0: "0:00", -3: "0:00"}
	for in, want := range tests {
		if got := FormatClock(in); got != want {
			t.Errorf("FormatClock(%d) = %q, want %q", in, got, want)
		}
	}
}
