package resconfig

import "testing"

func TestBestPrefersExactLocaleOverAny(t *testing.T) {
	target := Config{Language: "fr", Country: "FR"}
	candidates := []Config{
		{}, // any
		{Language: "fr"},
		{Language: "de"},
	}
	got := Best(target, candidates)
	if got != 1 {
		t.Fatalf("Best() = %d, want 1 (exact language match)", got)
	}
}

func TestBestEliminatesMismatchedOrientation(t *testing.T) {
	target := Config{Orientation: OrientationLand}
	candidates := []Config{
		{Orientation: OrientationPort},
		{Orientation: OrientationLand},
	}
	got := Best(target, candidates)
	if got != 1 {
		t.Fatalf("Best() = %d, want 1 (matching orientation)", got)
	}
}

func TestBestDensityPrefersSpecifiedOverAnyEvenWithoutExactMatch(t *testing.T) {
	target := Config{Density: 480}
	candidates := []Config{
		{Density: 160},
		{}, // any density
	}
	got := Best(target, candidates)
	if got != 0 {
		t.Fatalf("Best() = %d, want 0 (a specified density, however distant, beats any)", got)
	}
}

func TestBestDensityPicksNearestDistance(t *testing.T) {
	target := Config{Density: 320}
	candidates := []Config{
		{Density: 160},
		{Density: 240},
		{Density: 480},
	}
	got := Best(target, candidates)
	if got != 1 {
		t.Fatalf("Best() = %d, want 1 (240 is the nearest density to 320)", got)
	}
}

func TestBestDensityTieBreaksTowardScalingDown(t *testing.T) {
	// 160 and 480 are both 160 away from 320; scaling down (160) must win
	// over scaling up (480).
	target := Config{Density: 320}
	candidates := []Config{
		{Density: 480},
		{Density: 160},
	}
	got := Best(target, candidates)
	if got != 1 {
		t.Fatalf("Best() = %d, want 1 (equidistant tie favors scaling down)", got)
	}
}

func TestBestScreenSizeKeepsLargestNotExceeding(t *testing.T) {
	const (
		small  = 1
		normal = 2
		large  = 3
		xlarge = 4
	)
	target := Config{ScreenLayout: large}
	candidates := []Config{
		{ScreenLayout: normal},
		{ScreenLayout: large},
		{ScreenLayout: xlarge}, // exceeds target, must be eliminated
	}
	got := Best(target, candidates)
	if got != 1 {
		t.Fatalf("Best() = %d, want 1 (largest variant not exceeding target's size)", got)
	}
}

func TestBestScreenSizeEliminatesCandidateExceedingTarget(t *testing.T) {
	const (
		normal = 2
		large  = 3
	)
	target := Config{ScreenLayout: normal}
	candidates := []Config{
		{ScreenLayout: large}, // exceeds target
		{ScreenLayout: normal},
	}
	got := Best(target, candidates)
	if got != 1 {
		t.Fatalf("Best() = %d, want 1 (the oversized variant must not win)", got)
	}
}

func TestBestSDKVersionPicksHighestNotExceedingTarget(t *testing.T) {
	target := Config{SDKVersion: 29}
	candidates := []Config{
		{SDKVersion: 21},
		{SDKVersion: 16},
	}
	// Both qualify (<=29); the highest eligible SDK version (21) wins.
	got := Best(target, candidates)
	if got != 0 {
		t.Fatalf("Best() = %d, want 0 (highest SDK not exceeding target)", got)
	}
}
