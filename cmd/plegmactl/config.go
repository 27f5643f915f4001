package main

import (
	"encoding/json"
	"fmt"
	"os"

	api "plegma/pkg/plegma"
)

// loadFoldRequestFromConfig reads a fold request from a loosely typed JSON
// map. Numeric fields accept both JSON numbers and integers so configs
// written by other tools round-trip cleanly.
func loadFoldRequestFromConfig(path string) (api.FoldRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.FoldRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return api.FoldRequest{}, err
	}

	var req api.FoldRequest
	if v, ok := asString(raw["sequence"]); ok {
		req.Sequence = v
	}
	if v, ok := asString(raw["algorithm"]); ok {
		req.Algorithm = v
	}
	if v, ok := asInt(raw["dims"]); ok {
		req.Dims = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asInt(raw["iterations"]); ok {
		req.Iterations = v
	}
	if v, ok := asInt(raw["window"]); ok {
		req.Window = v
	}
	if v, ok := asInt(raw["min_snippet"]); ok {
		req.MinSnippet = v
	}
	if v, ok := asInt(raw["max_snippet"]); ok {
		req.MaxSnippet = v
	}
	if v, ok := asFloat64(raw["start_temperature"]); ok {
		req.StartTemperature = v
	}
	if v, ok := asFloat64(raw["cooling_rate"]); ok {
		req.CoolingRate = v
	}
	if v, ok := asFloat64(raw["min_temperature"]); ok {
		req.MinTemperature = v
	}
	if v, ok := asInt(raw["max_backtracks"]); ok {
		req.MaxBacktracks = v
	}
	if v, ok := asInt(raw["max_restarts"]); ok {
		req.MaxRestarts = v
	}
	if v, ok := asString(raw["trace_path"]); ok {
		req.TracePath = v
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// overrideFromFlags applies only the flags the user actually set on top of
// a config-file request.
func overrideFromFlags(req *api.FoldRequest, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "sequence":
			req.Sequence = v.(string)
		case "algorithm":
			req.Algorithm = v.(string)
		case "dims":
			req.Dims = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "workers":
			req.Workers = v.(int)
		case "iterations":
			req.Iterations = v.(int)
		case "window":
			req.Window = v.(int)
		case "min-snippet":
			req.MinSnippet = v.(int)
		case "max-snippet":
			req.MaxSnippet = v.(int)
		case "start-temp":
			req.StartTemperature = v.(float64)
		case "cooling-rate":
			req.CoolingRate = v.(float64)
		case "min-temp":
			req.MinTemperature = v.(float64)
		case "max-backtracks":
			req.MaxBacktracks = v.(int)
		case "max-restarts":
			req.MaxRestarts = v.(int)
		case "trace-out":
			req.TracePath = v.(string)
		}
	}
}

func loadOrDefaultFoldRequest(configPath string) (api.FoldRequest, error) {
	if configPath == "" {
		return api.FoldRequest{}, nil
	}
	req, err := loadFoldRequestFromConfig(configPath)
	if err != nil {
		return api.FoldRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}
