package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// JSONLWriter handles async writing of JSON lines to date-organized files.
// Scenario transcripts and captured page-error streams both go through it.
type JSONLWriter struct {
	baseDir     string
	subDir      string // e.g., "transcripts/admin" or "errors/fan"
	maxSizeMB   int
	runID       string // filename base; a timestamp is used when empty
	writeCh     chan any
	done        chan struct{}
	wg          sync.WaitGroup
	currentDate string
	logger      *lumberjack.Logger
	mu          sync.Mutex
}

// NewJSONLWriter creates an async JSONL writer with timestamp-based filenames.
func NewJSONLWriter(baseDir, subDir string, bufferSize int, maxSizeMB int) *JSONLWriter {
	return newJSONLWriter(baseDir, subDir, bufferSize, maxSizeMB, "")
}

// NewJSONLWriterForRun creates an async JSONL writer whose filename is the
// scenario run id (e.g., "1b9dfa4c.jsonl"), so one run's transcript lands in
// one file.
func NewJSONLWriterForRun(baseDir, subDir string, bufferSize int, maxSizeMB int, runID string) *JSONLWriter {
	return newJSONLWriter(baseDir, subDir, bufferSize, maxSizeMB, runID)
}

func newJSONLWriter(baseDir, subDir string, bufferSize int, maxSizeMB int, runID string) *JSONLWriter {
	w := &JSONLWriter{
		baseDir:   baseDir,
		subDir:    subDir,
		maxSizeMB: maxSizeMB,
		runID:     runID,
		writeCh:   make(chan any, bufferSize),
		done:      make(chan struct{}),
	}

	w.wg.Add(1)
	go w.writeLoop()

	return w
}

// Write queues a record for async writing.
func (w *JSONLWriter) Write(record any) error {
	select {
	case w.writeCh <- record:
		return nil
	case <-w.done:
		return fmt.Errorf("writer is closed")
	default:
		// Channel full, log warning but don't block the probe.
		slog.Warn("JSONL write buffer full, dropping record",
			"subdir", w.subDir)
		return fmt.Errorf("buffer full")
	}
}

// Close shuts down the writer and flushes pending data.
func (w *JSONLWriter) Close() error {
	close(w.done)

	// Drain remaining items with timeout
	timeout := time.After(5 * time.Second)
	for {
		select {
		case record := <-w.writeCh:
			w.writeRecord(record)
		case <-timeout:
			slog.Warn("JSONL writer close timeout, some records may be lost",
				"subdir", w.subDir)
			goto done
		default:
			goto done
		}
	}

done:
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.logger != nil {
		return w.logger.Close()
	}
	return nil
}

func (w *JSONLWriter) writeLoop() {
	defer w.wg.Done()

	for {
		select {
		case record := <-w.writeCh:
			w.writeRecord(record)
		case <-w.done:
			return
		}
	}
}

func (w *JSONLWriter) writeRecord(record any) {
	data, err := json.Marshal(record)
	if err != nil {
		slog.Error("Failed to marshal record",
			"error", err,
			"subdir", w.subDir)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Check if we need to rotate to a new date directory
	currentDate := time.Now().UTC().Format("2006-01-02")
	if currentDate != w.currentDate {
		w.rotateForDate(currentDate)
	}

	if w.logger == nil {
		w.rotateForDate(currentDate)
	}

	_, err = w.logger.Write(append(data, '\n'))
	if err != nil {
		slog.Error("Failed to write record",
			"error", err,
			"subdir", w.subDir)
	}
}

func (w *JSONLWriter) rotateForDate(date string) {
	if w.logger != nil {
		w.logger.Close()
	}

	dir := filepath.Join(w.baseDir, date, w.subDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("Failed to create output directory",
			"error", err,
			"dir", dir)
		return
	}

	var filename string
	if w.runID != "" {
		filename = filepath.Join(dir, w.runID+".jsonl")
	} else {
		filename = filepath.Join(dir, fmt.Sprintf("%d.jsonl", time.Now().Unix()))
	}

	w.logger = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    w.maxSizeMB,
		MaxBackups: 100,
		MaxAge:     30,
		Compress:   false,
		LocalTime:  false, // Use UTC
	}

	w.currentDate = date
	slog.Info("Opened new JSONL file",
		"file", filename,
		"subdir", w.subDir)
}
