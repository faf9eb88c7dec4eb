package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// JSONL is a file-backed recorder writing one JSON object per line. The
// file is opened append-only; existing entries are never rewritten.
type JSONL struct {
	mu sync.Mutex
	f  *os.File
}

// OpenJSONL opens (or creates) an append-only JSONL log at path.
func OpenJSONL(path string) (*JSONL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit: opening log: %w", err)
	}
	return &JSONL{f: f}, nil
}

// Append writes the event as one line and syncs it to disk.
func (l *JSONL) Append(ctx context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: encoding event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("audit: appending event: %w", err)
	}
	return l.f.Sync()
}

// Close closes the underlying file.
func (l *JSONL) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

var _ Recorder = (*JSONL)(nil)

// ReadJSONL parses every event from a JSONL log file, in append order.
// Empty lines are skipped.
func ReadJSONL(path string) ([]*Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: opening log: %w", err)
	}
	defer f.Close()

	var events []*Event
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		e := &Event{}
		if err := json.Unmarshal(line, e); err != nil {
			return nil, fmt.Errorf("audit: line %d: %w", lineNum, err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: reading log: %w", err)
	}
	return events, nil
}
