package listing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ResultStatus is the outcome reported for a registration attempt.
type ResultStatus string

const (
	StatusSuccess    ResultStatus = "success"
	StatusRegistered ResultStatus = "registered"
	StatusError      ResultStatus = "error"
	StatusFailed     ResultStatus = "failed"
)

// ResultItem is one entry returned by the registration and batch endpoints.
type ResultItem struct {
	Status   ResultStatus `json:"status"`
	ASIN     string       `json:"asin,omitempty"`
	ItemURL  string       `json:"itemUrl,omitempty"`
	ItemCode string       `json:"itemCode,omitempty"`
	Message  string       `json:"message,omitempty"`
	Data     *ProductData `json:"data,omitempty"`
}

// Succeeded reports whether the item counts towards the success total.
func (r ResultItem) Succeeded() bool {
	return r.Status == StatusSuccess || r.Status == StatusRegistered
}

// Failed reports whether the item counts towards the failure total.
// Items with an unknown status are neither succeeded nor failed.
func (r ResultItem) Failed() bool {
	return r.Status == StatusError || r.Status == StatusFailed
}

var errEmptyResults = errors.New("listing: empty result payload")

// DecodeResults accepts either a single result object or an array of them.
func DecodeResults(raw json.RawMessage) ([]ResultItem, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errEmptyResults
	}
	if trimmed[0] == '[' {
		var items []ResultItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("listing: decode results: %w", err)
		}
		return items, nil
	}
	var item ResultItem
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return nil, fmt.Errorf("listing: decode result: %w", err)
	}
	return []ResultItem{item}, nil
}
