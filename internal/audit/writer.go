// Package audit persists committed job lifecycle events as compressed JSON lines.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/celestiaorg/trustgig/internal/events"
)

const (
	filePrefix = "audit"
	hourLayout = "2006-01-02-15"
)

// Record is one line of the audit log
type Record struct {
	Seq   uint64       `json:"seq"`
	Event events.Event `json:"event"`
}

// Writer appends records to hourly zstd-compressed JSONL files
type Writer struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	seq     uint64
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// NewWriter creates a writer rooted at dir
func NewWriter(dir string) *Writer {
	return &Writer{
		dir: dir,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Handler returns an events.Handler that writes every event it receives
func (w *Writer) Handler() events.Handler {
	return func(_ context.Context, e events.Event) error {
		return w.Write(e)
	}
}

// Write appends e and flushes it through the compressor
func (w *Writer) Write(e events.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format(hourLayout)
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return fmt.Errorf("rotate audit log: %w", err)
		}
	}

	w.seq++
	b, err := json.Marshal(Record{Seq: w.seq, Event: e})
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

// Close flushes and closes the current file
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(PathForHour(w.dir, hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}

// PathForHour returns the file that holds the records of hour (formatted 2006-01-02-15)
func PathForHour(dir, hour string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.jsonl.zst", filePrefix, hour))
}
