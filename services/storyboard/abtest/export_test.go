// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package abtest

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededLog(t *testing.T) *Log {
	t.Helper()
	log := NewLog(testLogger())
	log.Append(GenerationRecord{
		GenerationID: "gen-1",
		Timestamp:    time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		SessionID:    "sess-1",
		VariantID:    "v1", VariantLabel: "cinematic",
		PromptTokens: 100, OutputTokens: 40, GenerationTimeMs: 1200,
		Provider: "anthropic", Success: true, FinishReason: "stop",
		UserRating: intp(4), UserFeedback: "good pacing",
	})
	log.Append(GenerationRecord{
		GenerationID: "gen-2",
		Timestamp:    time.Date(2026, 8, 1, 10, 5, 0, 0, time.UTC),
		SessionID:    "sess-1",
		VariantID:    "v2", VariantLabel: "documentary",
		PromptTokens: 90, OutputTokens: 0, GenerationTimeMs: 800,
		Provider: "anthropic", Success: false, FinishReason: "safety",
		SafetyFilterTriggered: true, RegenerationCount: intp(1),
	})
	return log
}

func TestJSONLRoundTrip(t *testing.T) {
	log := seededLog(t)

	var buf bytes.Buffer
	require.NoError(t, log.WriteJSONL(&buf))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	reloaded := NewLog(testLogger())
	loaded, err := ReadJSONL(&buf, reloaded)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)
	assert.Equal(t, log.Records(), reloaded.Records())
}

func TestReadJSONLSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"generation_id":"gen-1","variant_id":"v1","success":true,"timestamp":"2026-08-01T10:00:00Z"}`,
		`{not json`,
		``,
		`{"generation_id":"gen-2","variant_id":"v1","success":false,"timestamp":"2026-08-01T10:01:00Z"}`,
	}, "\n")

	log := NewLog(testLogger())
	loaded, err := ReadJSONL(strings.NewReader(input), log)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)
	assert.Equal(t, 2, log.Len())
}

func TestWriteCSV(t *testing.T) {
	log := seededLog(t)

	var buf bytes.Buffer
	require.NoError(t, log.WriteCSV(&buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])

	first := rows[1]
	assert.Equal(t, "gen-1", first[0])
	assert.Equal(t, "2026-08-01T10:00:00Z", first[1])
	assert.Equal(t, "cinematic", first[4])
	assert.Equal(t, "true", first[9])
	assert.Equal(t, "", first[12], "absent regeneration count renders empty")
	assert.Equal(t, "4", first[13])

	second := rows[2]
	assert.Equal(t, "gen-2", second[0])
	assert.Equal(t, "false", second[9])
	assert.Equal(t, "true", second[11], "safety filter column")
	assert.Equal(t, "1", second[12])
	assert.Equal(t, "", second[13], "unrated renders empty")
}
