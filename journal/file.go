package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileJournal persists each identity's log as a JSON-lines file under a base
// directory, one line per appended entry.
type FileJournal struct {
	basePath string
	mu       sync.Mutex
}

// NewFileJournal creates a file-backed journal rooted at basePath.
func NewFileJournal(basePath string) (*FileJournal, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FileJournal{basePath: basePath}, nil
}

// Append writes the entry as one JSON line at the end of the identity's file.
func (f *FileJournal) Append(ctx context.Context, persistenceID string, entry Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	file, err := os.OpenFile(f.filename(persistenceID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return file.Sync()
}

// Load reads the identity's file back into entries in append order.
func (f *FileJournal) Load(ctx context.Context, persistenceID string) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.filename(persistenceID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	return entries, nil
}

// Delete removes the identity's file.
func (f *FileJournal) Delete(ctx context.Context, persistenceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.filename(persistenceID)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete log file: %w", err)
	}
	return nil
}

func (f *FileJournal) filename(persistenceID string) string {
	return filepath.Join(f.basePath, persistenceID+".jsonl")
}
