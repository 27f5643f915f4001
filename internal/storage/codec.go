package storage

import (
	"encoding/json"
	"errors"

	"plegma/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeFold(f model.FoldRecord) ([]byte, error) {
	return json.Marshal(f)
}

func DecodeFold(data []byte) (model.FoldRecord, error) {
	var fold model.FoldRecord
	if err := json.Unmarshal(data, &fold); err != nil {
		return model.FoldRecord{}, err
	}
	if err := checkVersion(fold.VersionedRecord); err != nil {
		return model.FoldRecord{}, err
	}
	return fold, nil
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeTrace(steps []model.TraceStep) ([]byte, error) {
	return json.Marshal(steps)
}

func DecodeTrace(data []byte) ([]model.TraceStep, error) {
	var steps []model.TraceStep
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
