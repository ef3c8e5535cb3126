package convlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Log owns the on-disk conversation record files rooted at dir.
type Log struct {
	dir string
}

// Open ensures dir exists and returns a Log rooted there.
func Open(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create conversations directory: %w", err)
	}
	return &Log{dir: dir}, nil
}

// Dir returns the root conversations directory.
func (l *Log) Dir() string { return l.dir }

// PathFor returns the log file path for a conversation id, without
// creating or checking it.
func (l *Log) PathFor(conversationID string) string {
	return filepath.Join(l.dir, conversationID+".log")
}

// AppendMessage appends one record to the conversation's log file as a
// single write, creating the file if necessary. The log is the authority
// for message content — this must succeed before the Store row is written.
func (l *Log) AppendMessage(conversationID string, rec Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal log record: %w", err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(l.PathFor(conversationID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open conversation log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append conversation log: %w", err)
	}
	return nil
}

// ListFiles returns every tracked conversation log file path, sorted for
// deterministic indexing order.
func (l *Log) ListFiles() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("list conversation logs: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		paths = append(paths, filepath.Join(l.dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadRecords parses every record line in path, skipping blank lines. The
// first malformed line fails the whole file with an error.
func ReadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conversation log: %w", err)
	}

	var out []Record
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("parse record in %s: %w", path, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// ConversationIDFromPath extracts the conversation id from a log file path.
func ConversationIDFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".log")
}
