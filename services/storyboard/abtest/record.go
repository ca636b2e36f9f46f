// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package abtest compares prompt variants from an append-only log of
// generation attempts.
//
// Records are immutable once appended; every summary is recomputed on demand
// from the records it covers, so there is no derived state to invalidate.
// The frequentist comparator in this package is the quick significance
// heuristic; the stats package carries the Bayesian model that converges on
// far smaller samples.
package abtest

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Generation Records
// -----------------------------------------------------------------------------

// GenerationRecord is one immutable generation attempt.
//
// Description:
//
//	Captures the outcome reported by the LLM or render-service client for
//	a single attempt, plus optional user feedback collected later by the
//	UI. Appended once and never mutated.
type GenerationRecord struct {
	// GenerationID uniquely identifies the attempt.
	GenerationID string `json:"generation_id"`

	// Timestamp is when the attempt finished.
	Timestamp time.Time `json:"timestamp"`

	// SessionID groups attempts from one authoring session.
	SessionID string `json:"session_id"`

	// VariantID identifies the prompt variant under test.
	VariantID string `json:"variant_id"`

	// VariantLabel is the human-readable variant name.
	VariantLabel string `json:"variant_label"`

	// PromptTokens is the prompt size in tokens.
	PromptTokens int `json:"prompt_tokens"`

	// OutputTokens is the generated output size in tokens.
	OutputTokens int `json:"output_tokens"`

	// GenerationTimeMs is the attempt duration in milliseconds.
	GenerationTimeMs int64 `json:"generation_time_ms"`

	// Provider names the backing generation service.
	Provider string `json:"provider"`

	// Success is whether the attempt produced usable output.
	Success bool `json:"success"`

	// FinishReason is the provider-reported stop reason.
	FinishReason string `json:"finish_reason"`

	// SafetyFilterTriggered is whether the provider's safety filter fired.
	SafetyFilterTriggered bool `json:"safety_filter_triggered"`

	// RegenerationCount is how many times the user regenerated this
	// output, if known.
	RegenerationCount *int `json:"regeneration_count,omitempty"`

	// UserRating is the 1-5 rating from the UI, if given.
	UserRating *int `json:"user_rating,omitempty"`

	// UserFeedback is free-form user commentary.
	UserFeedback string `json:"user_feedback,omitempty"`
}

// Log is an append-only collection of generation records.
//
// # Thread Safety
//
// Safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	records []GenerationRecord
	logger  *slog.Logger
}

// NewLog creates an empty record log. A nil logger falls back to
// slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Append stores a record, filling in a generated id and timestamp when
// absent.
//
// Description:
//
//	Out-of-range user ratings (outside 1-5) are dropped with a warning
//	rather than rejected: a bad rating must not lose the attempt record
//	it rode in on.
//
// Outputs:
//   - GenerationRecord: The record as stored.
func (l *Log) Append(rec GenerationRecord) GenerationRecord {
	if rec.GenerationID == "" {
		rec.GenerationID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if rec.UserRating != nil && (*rec.UserRating < 1 || *rec.UserRating > 5) {
		l.logger.Warn("dropping out-of-range user rating",
			"generation_id", rec.GenerationID,
			"rating", *rec.UserRating,
		)
		rec.UserRating = nil
	}

	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()

	return rec
}

// Records returns a copy of all records in append order.
func (l *Log) Records() []GenerationRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]GenerationRecord, len(l.records))
	copy(out, l.records)
	return out
}

// RecordsForVariant returns all records for one variant, in append order.
func (l *Log) RecordsForVariant(variantID string) []GenerationRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []GenerationRecord
	for _, r := range l.records {
		if r.VariantID == variantID {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
