package storage

import (
	"log/slog"
	"sync"
)

// WriterRegistry manages JSONLWriter instances, one per role+kind
// combination, so each panel's transcripts and error streams land in their
// own directories.
type WriterRegistry struct {
	baseDir    string
	maxSizeMB  int
	bufferSize int

	// writers maps kind -> role -> writer, e.g. "transcripts" -> "admin".
	writers map[string]map[string]*JSONLWriter
	mu      sync.RWMutex
}

// NewWriterRegistry creates a registry rooted at baseDir.
func NewWriterRegistry(baseDir string, bufferSize int, maxSizeMB int) *WriterRegistry {
	return &WriterRegistry{
		baseDir:    baseDir,
		maxSizeMB:  maxSizeMB,
		bufferSize: bufferSize,
		writers:    make(map[string]map[string]*JSONLWriter),
	}
}

// GetWriter returns (or creates) the writer for a kind and role. kind is
// "transcripts" or "errors"; runID names the file when non-empty.
func (r *WriterRegistry) GetWriter(kind, role, runID string) *JSONLWriter {
	r.mu.RLock()
	if roleMap, ok := r.writers[kind]; ok {
		if writer, ok := roleMap[role]; ok {
			r.mu.RUnlock()
			return writer
		}
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if roleMap, ok := r.writers[kind]; ok {
		if writer, ok := roleMap[role]; ok {
			return writer
		}
	}

	if r.writers[kind] == nil {
		r.writers[kind] = make(map[string]*JSONLWriter)
	}

	subDir := kind + "/" + role
	writer := NewJSONLWriterForRun(r.baseDir, subDir, r.bufferSize, r.maxSizeMB, runID)
	r.writers[kind][role] = writer

	slog.Info("Created new JSONL writer",
		"kind", kind,
		"role", role,
		"run_id", runID)

	return writer
}

// Close closes all managed writers.
func (r *WriterRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for kind, roleMap := range r.writers {
		for role, writer := range roleMap {
			if err := writer.Close(); err != nil {
				slog.Error("Failed to close writer",
					"kind", kind,
					"role", role,
					"error", err)
				lastErr = err
			}
		}
	}

	r.writers = make(map[string]map[string]*JSONLWriter)
	return lastErr
}
