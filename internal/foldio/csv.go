// Package foldio reads and writes the portable fold formats: the
// amino/fold CSV layout and per-iteration trace files.
package foldio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"plegma/internal/lattice"
)

// WriteFoldCSV writes a fully placed chain as amino,fold rows. Each row
// carries the residue letter and the compass code toward its successor
// (0 for the last residue); the footer row carries the score.
func WriteFoldCSV(w io.Writer, chain *lattice.Chain) error {
	folding, err := chain.Folding()
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"amino", "fold"}); err != nil {
		return err
	}
	for i, code := range folding {
		row := []string{chain.Residue(i).String(), strconv.Itoa(code)}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"score", strconv.Itoa(chain.Score())}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func WriteFoldFile(path string, chain *lattice.Chain) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteFoldCSV(file, chain)
}

// ReadFoldCSV reconstructs a chain by replaying the fold codes from the
// origin. The score footer is cross-checked against the replayed chain.
func ReadFoldCSV(r io.Reader, dims int) (*lattice.Chain, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read fold header: %w", err)
	}
	if header[0] != "amino" || header[1] != "fold" {
		return nil, fmt.Errorf("unexpected fold header %v", header)
	}

	var (
		sequence strings.Builder
		codes    []int
		score    int
		hasScore bool
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if record[0] == "score" {
			score, err = strconv.Atoi(record[1])
			if err != nil {
				return nil, fmt.Errorf("parse score footer: %w", err)
			}
			hasScore = true
			break
		}
		code, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("parse fold code %q: %w", record[1], err)
		}
		sequence.WriteString(record[0])
		codes = append(codes, code)
	}
	if !hasScore {
		return nil, fmt.Errorf("fold file has no score footer")
	}

	chain, err := lattice.NewChain(sequence.String(), dims)
	if err != nil {
		return nil, err
	}
	if err := chain.ApplyFolding(codes); err != nil {
		return nil, err
	}
	if !chain.IsValid() {
		return nil, fmt.Errorf("fold file replays to an invalid chain")
	}
	if got := chain.Score(); got != score {
		return nil, fmt.Errorf("score footer %d does not match replayed score %d", score, got)
	}
	return chain, nil
}

func ReadFoldFile(path string, dims int) (*lattice.Chain, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadFoldCSV(file, dims)
}
