package pipeline_test

import (
	"errors"
	"testing"

	"nvrgraph/internal/failures"
	"nvrgraph/internal/pipeline"
)

func TestGridSide(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 2: 2, 4: 2, 5: 3, 9: 3, 10: 4, 16: 4, 17: 5, 256: 16}
	for n, want := range cases {
		if got := pipeline.GridSide(n); got != want {
			t.Errorf("GridSide(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestPlanFourChannels(t *testing.T) {
	got, err := pipeline.Plan(4)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := []pipeline.Placement{
		{Channel: 0, X: 0, Y: 0},
		{Channel: 1, X: 640, Y: 0},
		{Channel: 2, X: 0, Y: 360},
		{Channel: 3, X: 640, Y: 360},
	}
	assertPlacements(t, got, want)
}

func TestPlanFiveChannelsUsesThreeColumns(t *testing.T) {
	got, err := pipeline.Plan(5)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := []pipeline.Placement{
		{Channel: 0, X: 0, Y: 0},
		{Channel: 1, X: 640, Y: 0},
		{Channel: 2, X: 1280, Y: 0},
		{Channel: 3, X: 0, Y: 360},
		{Channel: 4, X: 640, Y: 360},
	}
	assertPlacements(t, got, want)
}

func TestPlanPositionsAreUnique(t *testing.T) {
	for n := 1; n <= 40; n++ {
		placements, err := pipeline.Plan(n)
		if err != nil {
			t.Fatalf("Plan(%d): %v", n, err)
		}
		g := pipeline.GridSide(n)
		seen := make(map[[2]int]bool)
		for i, p := range placements {
			if p.Channel != i {
				t.Fatalf("Plan(%d)[%d] has channel %d", n, i, p.Channel)
			}
			if p.X%pipeline.TileWidth != 0 || p.Y%pipeline.TileHeight != 0 {
				t.Fatalf("Plan(%d)[%d] off grid: %+v", n, i, p)
			}
			if p.X/pipeline.TileWidth >= g || p.Y/pipeline.TileHeight >= g {
				t.Fatalf("Plan(%d)[%d] outside %dx%d grid: %+v", n, i, g, g, p)
			}
			key := [2]int{p.X, p.Y}
			if seen[key] {
				t.Fatalf("Plan(%d) reuses position %v", n, key)
			}
			seen[key] = true
		}
	}
}

func TestPlanRejectsOutOfRangeCounts(t *testing.T) {
	for _, n := range []int{-1, pipeline.MaxChannels + 1} {
		if _, err := pipeline.Plan(n); !errors.Is(err, failures.ErrValidation) {
			t.Fatalf("Plan(%d) error = %v, want validation error", n, err)
		}
	}
	got, err := pipeline.Plan(0)
	if err != nil || len(got) != 0 {
		t.Fatalf("Plan(0) = %v, %v", got, err)
	}
}

func TestCanvas(t *testing.T) {
	w, h := pipeline.Canvas(5)
	if w != 1920 || h != 720 {
		t.Fatalf("Canvas(5) = %dx%d, want 1920x720", w, h)
	}
	w, h = pipeline.Canvas(1)
	if w != 640 || h != 360 {
		t.Fatalf("Canvas(1) = %dx%d, want 640x360", w, h)
	}
}

func assertPlacements(t *testing.T, got, want []pipeline.Placement) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d placements, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("placement %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
