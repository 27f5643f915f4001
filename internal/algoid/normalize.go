// Package algoid canonicalizes algorithm selector names.
package algoid

import (
	"fmt"
	"strings"
)

const (
	Random    = "random"
	Spiral    = "spiral"
	Zigzag    = "zigzag"
	Helix     = "helix"
	Beam      = "beam"
	Hillclimb = "hillclimb"
	Anneal    = "anneal"
)

// Known lists the canonical selectors in presentation order.
func Known() []string {
	return []string{Random, Spiral, Zigzag, Helix, Beam, Hillclimb, Anneal}
}

// Normalize canonicalizes an algorithm selector and its aliases.
func Normalize(name string) (string, error) {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if canonical, ok := canonicalAlgorithmName(normalized); ok {
		return canonical, nil
	}
	return "", fmt.Errorf("unknown algorithm %q (known: %s)", name, strings.Join(Known(), ", "))
}

func canonicalAlgorithmName(alias string) (string, bool) {
	switch alias {
	case Random, "walk", "random-walk":
		return Random, true
	case Spiral:
		return Spiral, true
	case Zigzag, "zig-zag":
		return Zigzag, true
	case Helix:
		return Helix, true
	case Beam, "window", "branch", "bfs":
		return Beam, true
	case Hillclimb, "hc", "hillclimbing", "hill-climb", "hill-climbing", "climber", "hillclimber":
		return Hillclimb, true
	case Anneal, "sa", "annealing", "simulated-annealing":
		return Anneal, true
	default:
		return "", false
	}
}

// Deterministic reports whether a selector names a seed fold that needs
// no random source.
func Deterministic(name string) bool {
	switch name {
	case Spiral, Zigzag, Helix:
		return true
	default:
		return false
	}
}
