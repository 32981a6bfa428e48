package main

import "testing"

func defaultWeights() MixWeights {
	return MixWeights{User: 40, Resource: 30, Batch: 15, Health: 10, Slow: 3, Error: 2}
}

func Test_Mix_Pick(t *testing.T) {
	mix, err := NewMix(defaultWeights())
	if err != nil {
		t.Fatalf("unexpected error building mix: %v", err)
	}

	cases := []struct {
		roll int
		want Category
	}{
		{0, CategoryUser},
		{39, CategoryUser},
		{40, CategoryResource},
		{69, CategoryResource},
		{70, CategoryBatch},
		{84, CategoryBatch},
		{85, CategoryHealth},
		{94, CategoryHealth},
		{95, CategorySlow},
		{97, CategorySlow},
		{98, CategoryError},
		{99, CategoryError},
	}
	for _, c := range cases {
		if got := mix.Pick(c.roll); got != c.want {
			t.Errorf("Pick(%d) = %s, want %s", c.roll, got, c.want)
		}
	}
}

func Test_Mix_WeightsMustSumTo100(t *testing.T) {
	w := defaultWeights()
	w.Error = 10
	if _, err := NewMix(w); err == nil {
		t.Error("expected an error for weights summing to 108")
	}

	w = defaultWeights()
	w.User = -1
	if _, err := NewMix(w); err == nil {
		t.Error("expected an error for a negative weight")
	}
}

func Test_Mix_FullCoverage(t *testing.T) {
	mix, err := NewMix(defaultWeights())
	if err != nil {
		t.Fatalf("unexpected error building mix: %v", err)
	}
	counts := make(map[Category]int)
	for roll := 0; roll < 100; roll++ {
		counts[mix.Pick(roll)]++
	}
	want := map[Category]int{
		CategoryUser:     40,
		CategoryResource: 30,
		CategoryBatch:    15,
		CategoryHealth:   10,
		CategorySlow:     3,
		CategoryError:    2,
	}
	for cat, n := range want {
		if counts[cat] != n {
			t.Errorf("category %s covers %d rolls, want %d", cat, counts[cat], n)
		}
	}
}
