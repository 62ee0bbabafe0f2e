package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// FileRecorder appends run records to a JSON-lines file, one record per line.
type FileRecorder struct {
	f   *os.File
	enc *json.Encoder
	mu  sync.Mutex
	log zerolog.Logger
}

// NewFileRecorder opens (or creates) the run-history file for appending.
func NewFileRecorder(path string, log zerolog.Logger) (*FileRecorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}

	log.Info().Str("path", path).Msg("run history opened")
	return &FileRecorder{f: f, enc: json.NewEncoder(f), log: log}, nil
}

func (r *FileRecorder) Record(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enc.Encode(rec); err != nil {
		return fmt.Errorf("append run record: %w", err)
	}
	return nil
}

func (r *FileRecorder) Close() error {
	r.log.Info().Msg("closing run history")
	return r.f.Close()
}

// ReadAll loads every record from a run-history file. Intended for tests and
// ad-hoc inspection, not the hot path.
func ReadAll(path string) ([]RunRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	defer f.Close()

	var recs []RunRecord
	dec := json.NewDecoder(f)
	for dec.More() {
		var rec RunRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode run record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
