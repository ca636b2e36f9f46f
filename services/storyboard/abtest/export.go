// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package abtest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// -----------------------------------------------------------------------------
// Export
// -----------------------------------------------------------------------------

// WriteJSONL serializes the record log to w, one JSON object per line.
//
// Description:
//
//	JSONL keeps the export append-friendly and line-greppable for offline
//	analysis. Records appear in append order.
func (l *Log) WriteJSONL(w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, rec := range l.Records() {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode generation record %s: %w", rec.GenerationID, err)
		}
	}
	return nil
}

// ReadJSONL loads generation records from a JSONL stream into a new log.
//
// Description:
//
//	Malformed lines are skipped rather than failing the load, matching the
//	engine's never-abort posture toward instrumentation data. Records pass
//	through Append, so they get the same rating sanitation as live ones.
func ReadJSONL(r io.Reader, log *Log) (loaded int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec GenerationRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			log.logger.Warn("skipping malformed generation record", "error", err)
			continue
		}
		log.Append(rec)
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return loaded, fmt.Errorf("read generation records: %w", err)
	}
	return loaded, nil
}

// csvHeader is the fixed column order for CSV export.
var csvHeader = []string{
	"generation_id", "timestamp", "session_id", "variant_id", "variant_label",
	"prompt_tokens", "output_tokens", "generation_time_ms", "provider",
	"success", "finish_reason", "safety_filter_triggered",
	"regeneration_count", "user_rating", "user_feedback",
}

// WriteCSV serializes the record log to w as CSV with a header row.
//
// Description:
//
//	Optional fields render as empty cells. Timestamps use RFC 3339 so the
//	export loads cleanly into spreadsheet and notebook tooling.
func (l *Log) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range l.Records() {
		row := []string{
			rec.GenerationID,
			rec.Timestamp.Format(time.RFC3339),
			rec.SessionID,
			rec.VariantID,
			rec.VariantLabel,
			strconv.Itoa(rec.PromptTokens),
			strconv.Itoa(rec.OutputTokens),
			strconv.FormatInt(rec.GenerationTimeMs, 10),
			rec.Provider,
			strconv.FormatBool(rec.Success),
			rec.FinishReason,
			strconv.FormatBool(rec.SafetyFilterTriggered),
			formatOptionalInt(rec.RegenerationCount),
			formatOptionalInt(rec.UserRating),
			rec.UserFeedback,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", rec.GenerationID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// formatOptionalInt renders a nullable int as a CSV cell.
func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
