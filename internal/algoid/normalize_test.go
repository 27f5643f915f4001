package algoid

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"random":              "random",
		"Random-Walk":         "random",
		"walk":                "random",
		"spiral":              "spiral",
		"SPIRAL":              "spiral",
		"zig_zag":             "zigzag",
		"helix":               "helix",
		"beam":                "beam",
		"bfs":                 "beam",
		"branch":              "beam",
		"hc":                  "hillclimb",
		"hillclimbing":        "hillclimb",
		"Hill Climbing":       "hillclimb",
		"hillclimber":         "hillclimb",
		"sa":                  "anneal",
		"annealing":           "anneal",
		"simulated_annealing": "anneal",
	}

	for in, want := range cases {
		got, err := Normalize(in)
		if err != nil {
			t.Fatalf("normalize(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("normalize(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestNormalizeUnknown(t *testing.T) {
	for _, in := range []string{"", "genetic", "monte-carlo"} {
		if _, err := Normalize(in); err == nil {
			t.Fatalf("normalize(%q) accepted an unknown selector", in)
		}
	}
}

func TestDeterministic(t *testing.T) {
	if !Deterministic(Spiral) || !Deterministic(Zigzag) || !Deterministic(Helix) {
		t.Fatal("seed folds must be deterministic")
	}
	if Deterministic(Beam) || Deterministic(Random) || Deterministic(Anneal) {
		t.Fatal("search selectors are not deterministic seeds")
	}
}
