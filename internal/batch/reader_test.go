package batch

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

const validJob = `{"job_id":"1","user":"ana","answers":[{"question":{"id":1,"text":"Q1","rubric":[{"name":"a","max_score":2}]},"answer":{"question_id":1,"text":"my answer"}}]}`

func TestReader_InvalidFile(t *testing.T) {
	file := strings.NewReader("invalid file content")

	reader := NewReader(file, newTestLogger())
	ctx := context.Background()
	ch := reader.ReadAll(ctx)

	for record := range ch {
		if record.Error == nil {
			t.Errorf("expected parse error for invalid JSON, but got none")
		}
	}
}

func TestReader_ValidFile(t *testing.T) {
	inputFile := validJob + "\n" + validJob

	file := strings.NewReader(inputFile)

	ctx := context.Background()
	reader := NewReader(file, newTestLogger())

	ch := reader.ReadAll(ctx)
	count := 0
	for record := range ch {
		count += 1
		if record.Error != nil {
			t.Errorf("Error reading the evaluation job record. Got: %s", record.Error)
		}
	}
	if count != 2 {
		t.Errorf("Expected 2 evaluation job messages. Got: %d", count)
	}
}

func TestReader_ContextCancellation(t *testing.T) {
	// Large input with many lines
	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, validJob)
	}
	file := strings.NewReader(strings.Join(lines, "\n"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := NewReader(file, newTestLogger())

	ch := reader.ReadAll(ctx)
	count := 0
	for range ch {
		count++
		if count == 5 {
			cancel() // Cancel after 5 records
			break
		}
	}

	// Should have stopped early
	if count >= 100 {
		t.Errorf("expected early cancellation, but read all records")
	}
}

func TestReader_LineNumbers(t *testing.T) {
	inputFile := validJob + "\n\n{\"invalid json}\n" + validJob

	file := strings.NewReader(inputFile)
	reader := NewReader(file, newTestLogger())

	ch := reader.ReadAll(context.Background())
	records := []InputRecord{}
	for record := range ch {
		records = append(records, record)
	}

	// Check line numbers; the blank line is counted but not emitted
	if records[0].LineNumber != 1 {
		t.Errorf("first record should be line 1, got %d", records[0].LineNumber)
	}
	if records[1].LineNumber != 3 {
		t.Errorf("error record should be line 3, got %d", records[1].LineNumber)
	}
	if records[2].LineNumber != 4 {
		t.Errorf("third record should be line 4, got %d", records[2].LineNumber)
	}
}

func TestReader_DecodesJob(t *testing.T) {
	reader := NewReader(strings.NewReader(validJob), newTestLogger())

	var records []InputRecord
	for record := range reader.ReadAll(context.Background()) {
		records = append(records, record)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	job := records[0].Job
	if job.JobID != "1" || job.User != "ana" {
		t.Errorf("unexpected job header: %+v", job)
	}
	if len(job.Answers) != 1 || job.Answers[0].Question.ID != 1 {
		t.Errorf("unexpected answers: %+v", job.Answers)
	}
}
