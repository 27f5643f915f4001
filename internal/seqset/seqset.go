// Package seqset carries the named benchmark sequences and seeded random
// sequence generation for batch folding.
package seqset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"

	"plegma/internal/lattice"
)

// Benchmark sequences. The short H/P chains are the classic lattice
// benchmarks; the hpc sets exercise cysteine scoring; hpc96 is the long
// refinement benchmark.
var builtin = map[string]string{
	"hp14":  "HHPHHHPHPHHHPH",
	"hp20":  "HPHPPHHPHPPHPHHPPHPH",
	"hp24":  "HHPHPHPHPHHHPPHHHHHHHHHH",
	"hp36":  "PPPHHPPHHPPPPPHHHHHHHPPHHPPPPHHPPHPP",
	"hp50":  "HHPHPHPHPHHHHPHPPPHPPPHPPPPHPPPHPPPHPHHHHPHPHPHPHH",
	"hpc36": "PPCHHPPCHPPPPCHHHHCHHPPHHPPPPHHPPHPP",
	"hpc50": "HCPHPCPHPCHCHPHPPPHPPPHPPPPHPCPHPPPHPHHHCCHCHCHCHH",
	"hpc96": "PPHPCPCHCPPPPPPPPHPPPCPHPCCHHCHHPCHHHCCHPCHCCPCCCHCHPHPCHCHHPPCPPPPPHCHPPPPHPHHHPPHHPHCPCPCHHCPC",
}

// Get resolves a built-in sequence set by name.
func Get(name string) (string, bool) {
	sequence, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	return sequence, ok
}

// Names lists the built-in set names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the built-in sequence for name, or name itself when it
// already spells a residue string.
func Resolve(name string) (string, error) {
	if sequence, ok := Get(name); ok {
		return sequence, nil
	}
	if _, err := lattice.ParseSequence(name); err != nil {
		return "", fmt.Errorf("%q is neither a sequence set (known: %s) nor a residue string: %w",
			name, strings.Join(Names(), ", "), err)
	}
	return strings.ToUpper(strings.TrimSpace(name)), nil
}

// GenerateConfig describes a batch of random sequences.
type GenerateConfig struct {
	Alphabet string // "hp" or "hpc"
	Count    int
	MinLen   int
	MaxLen   int
	Seed     int64
}

// Generate produces Count random sequences with lengths uniform in
// [MinLen, MaxLen].
func Generate(cfg GenerateConfig) ([]string, error) {
	var letters string
	switch strings.ToLower(cfg.Alphabet) {
	case "", "hp":
		letters = "HP"
	case "hpc":
		letters = "HPC"
	default:
		return nil, fmt.Errorf("alphabet must be hp or hpc, got %q", cfg.Alphabet)
	}
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("count must be > 0, got %d", cfg.Count)
	}
	if cfg.MinLen < 1 || cfg.MaxLen < cfg.MinLen {
		return nil, fmt.Errorf("length bounds [%d,%d] invalid", cfg.MinLen, cfg.MaxLen)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	sequences := make([]string, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		length := cfg.MinLen + rng.Intn(cfg.MaxLen-cfg.MinLen+1)
		var b strings.Builder
		b.Grow(length)
		for j := 0; j < length; j++ {
			b.WriteByte(letters[rng.Intn(len(letters))])
		}
		sequences = append(sequences, b.String())
	}
	return sequences, nil
}

// WriteCSV writes one sequence per row, no header.
func WriteCSV(path string, sequences []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	for _, sequence := range sequences {
		if err := writer.Write([]string{sequence}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV reads a one-sequence-per-row file, validating every entry.
func ReadCSV(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var sequences []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		sequence := strings.ToUpper(strings.TrimSpace(record[0]))
		if _, err := lattice.ParseSequence(sequence); err != nil {
			return nil, fmt.Errorf("row %d: %w", len(sequences)+1, err)
		}
		sequences = append(sequences, sequence)
	}
	return sequences, nil
}
