package foldio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"plegma/internal/model"
)

// TraceWriter streams per-iteration refinement steps to a CSV file. Paths
// ending in .gz are compressed transparently.
type TraceWriter struct {
	file *os.File
	gz   *gzip.Writer
	csv  *csv.Writer
}

func NewTraceWriter(path string) (*TraceWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	tw := &TraceWriter{file: file}
	var out io.Writer = file
	if strings.HasSuffix(path, ".gz") {
		tw.gz = gzip.NewWriter(file)
		out = tw.gz
	}
	tw.csv = csv.NewWriter(out)
	if err := tw.csv.Write([]string{"iteration", "moves", "score"}); err != nil {
		file.Close()
		return nil, err
	}
	return tw, nil
}

func (tw *TraceWriter) Write(step model.TraceStep) error {
	return tw.csv.Write([]string{
		strconv.Itoa(step.Iteration),
		step.Moves,
		strconv.Itoa(step.Score),
	})
}

// Close flushes buffered rows and releases the file. The writer must not be
// used afterwards.
func (tw *TraceWriter) Close() error {
	tw.csv.Flush()
	err := tw.csv.Error()
	if tw.gz != nil {
		if cerr := tw.gz.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := tw.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadTrace loads a trace file written by TraceWriter, decompressing by
// extension.
func ReadTrace(path string) ([]model.TraceStep, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var in io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		in = gz
	}

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = 3

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read trace header: %w", err)
	}
	if header[0] != "iteration" || header[1] != "moves" || header[2] != "score" {
		return nil, fmt.Errorf("unexpected trace header %v", header)
	}

	var steps []model.TraceStep
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		iteration, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("parse iteration %q: %w", record[0], err)
		}
		score, err := strconv.Atoi(record[2])
		if err != nil {
			return nil, fmt.Errorf("parse score %q: %w", record[2], err)
		}
		steps = append(steps, model.TraceStep{Iteration: iteration, Moves: record[1], Score: score})
	}
	return steps, nil
}
