package archive

import (
	"encoding/json"
	"fmt"
	"time"

	"newshound/internal/ingest"
)

// Run is a stored search run row.
type Run struct {
	ID                 int64
	Keyword            string
	StartedAt          time.Time
	FinishedAt         time.Time
	RecordCount        int
	NewCount           int
	SourceFailures     map[string]string
	ExtractionFailures []ingest.ExtractionFailure
}

// RecordRun stores the outcome of one search run. newCount is how many
// of the run's records were new to the archive.
func (db *DB) RecordRun(result *ingest.RunResult, newCount int) (int64, error) {
	sourceFailures := "{}"
	if len(result.SourceFailures) > 0 {
		data, err := json.Marshal(result.SourceFailures)
		if err != nil {
			return 0, fmt.Errorf("encoding source failures: %w", err)
		}
		sourceFailures = string(data)
	}
	extractionFailures := "[]"
	if len(result.ExtractionFailures) > 0 {
		data, err := json.Marshal(result.ExtractionFailures)
		if err != nil {
			return 0, fmt.Errorf("encoding extraction failures: %w", err)
		}
		extractionFailures = string(data)
	}

	res, err := db.conn.Exec(`
		INSERT INTO runs (
			keyword, started_at, finished_at, record_count, new_count,
			source_failures, extraction_failures
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.Keyword,
		result.StartedAt.UTC().Format(time.RFC3339),
		result.FinishedAt.UTC().Format(time.RFC3339),
		len(result.Records), newCount,
		sourceFailures, extractionFailures,
	)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	return res.LastInsertId()
}

// RecentRuns returns the latest runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	rows, err := db.conn.Query(`
		SELECT id, keyword, started_at, finished_at, record_count,
			new_count, source_failures, extraction_failures
		FROM runs
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                Run
			startedAt          string
			finishedAt         string
			sourceFailures     string
			extractionFailures string
		)
		err := rows.Scan(
			&run.ID, &run.Keyword, &startedAt, &finishedAt,
			&run.RecordCount, &run.NewCount,
			&sourceFailures, &extractionFailures,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		run.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt)
		if err := json.Unmarshal([]byte(sourceFailures), &run.SourceFailures); err != nil {
			return nil, fmt.Errorf("decoding source failures: %w", err)
		}
		if err := json.Unmarshal([]byte(extractionFailures), &run.ExtractionFailures); err != nil {
			return nil, fmt.Errorf("decoding extraction failures: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
