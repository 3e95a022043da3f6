// Package storage persists the decision audit: one JSON line per settled
// gating decision or config save, written into date-partitioned,
// size-rotated files.
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

// Record is one audited gating decision.
type Record struct {
	Time    time.Time `json:"ts"`
	TabID   string    `json:"tab_id"`
	URL     string    `json:"url"`
	Status  string    `json:"status"`
	Cookie  string    `json:"cookie"`  // set, cleared or none
	Trigger string    `json:"trigger"` // seen, navigated, activated, toggle, agent_reload, save_settings
	Seq     uint64    `json:"seq"`
}

// AuditLog appends records asynchronously through a bounded queue. Writes
// never block the pipeline: when the queue is saturated the record is
// dropped with a warning.
type AuditLog struct {
	baseDir     string
	maxSizeMB   int
	writeCh     chan Record
	done        chan struct{}
	wg          sync.WaitGroup
	currentDate string
	out         *lumberjack.Logger
	mu          sync.Mutex
}

// NewAuditLog creates the audit writer and starts its drain loop.
func NewAuditLog(baseDir string, bufferSize, maxSizeMB int) *AuditLog {
	a := &AuditLog{
		baseDir:   baseDir,
		maxSizeMB: maxSizeMB,
		writeCh:   make(chan Record, bufferSize),
		done:      make(chan struct{}),
	}

	a.wg.Add(1)
	go a.writeLoop()

	return a
}

// Write queues a record for async writing.
func (a *AuditLog) Write(rec Record) error {
	select {
	case a.writeCh <- rec:
		return nil
	case <-a.done:
		return fmt.Errorf("audit log is closed")
	default:
		slog.Warn("Audit buffer full, dropping record",
			"tab_id", rec.TabID,
			"trigger", rec.Trigger)
		return fmt.Errorf("buffer full")
	}
}

// Close shuts down the writer and flushes pending records.
func (a *AuditLog) Close() error {
	close(a.done)

	// Drain remaining items with timeout.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case rec := <-a.writeCh:
			a.writeRecord(rec)
		case <-timeout:
			slog.Warn("Audit log close timeout, some records may be lost")
			goto done
		default:
			goto done
		}
	}

done:
	a.wg.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.out != nil {
		return a.out.Close()
	}
	return nil
}

func (a *AuditLog) writeLoop() {
	defer a.wg.Done()

	for {
		select {
		case rec := <-a.writeCh:
			a.writeRecord(rec)
		case <-a.done:
			return
		}
	}
}

func (a *AuditLog) writeRecord(rec Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		slog.Error("Failed to marshal audit record", "error", err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	currentDate := time.Now().UTC().Format("2006-01-02")
	if currentDate != a.currentDate || a.out == nil {
		a.rotateForDate(currentDate)
	}
	if a.out == nil {
		return
	}

	if _, err := a.out.Write(append(data, '\n')); err != nil {
		slog.Error("Failed to write audit record", "error", err)
	}
}

func (a *AuditLog) rotateForDate(date string) {
	if a.out != nil {
		a.out.Close()
	}

	dir := filepath.Join(a.baseDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("Failed to create audit directory", "error", err, "dir", dir)
		a.out = nil
		return
	}

	filename := filepath.Join(dir, "decisions.jsonl")
	a.out = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    a.maxSizeMB,
		MaxBackups: 100,
		MaxAge:     30,
		Compress:   false,
		LocalTime:  false,
	}

	a.currentDate = date
	slog.Info("Opened audit file", "file", filename)
}
