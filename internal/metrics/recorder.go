// Package metrics records per-operation timings as JSONL files, one file
// per day. Recording is best-effort: a full buffer or a failed write never
// slows down or fails the request being measured.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/soyeahso/maitred/internal/logging"
)

const bufferSize = 256

// TimingRecord is one measured operation.
type TimingRecord struct {
	Op              string            `json:"op"`
	StartedAt       time.Time         `json:"startedAt"`
	DurationSeconds float64           `json:"durationSeconds"`
	OK              bool              `json:"ok"`
	Error           string            `json:"error,omitempty"`
	Fields          map[string]string `json:"fields,omitempty"`
}

// Recorder buffers timing records through a channel and appends them to
// timing_YYYYMMDD.jsonl files from a single writer goroutine. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	dir     string
	ch      chan TimingRecord
	done    chan struct{}
	log     *logging.Logger
	dropped int
}

// NewRecorder creates the metrics directory and starts the writer.
func NewRecorder(dir string, log *logging.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating metrics dir: %w", err)
	}

	r := &Recorder{
		dir:  dir,
		ch:   make(chan TimingRecord, bufferSize),
		done: make(chan struct{}),
		log:  log.Sub("metrics"),
	}
	go r.writeLoop()
	return r, nil
}

// Record enqueues rec without blocking; records are dropped when the buffer
// is full.
func (r *Recorder) Record(rec TimingRecord) {
	if r == nil {
		return
	}
	select {
	case r.ch <- rec:
	default:
		r.dropped++
		r.log.Warn().Str("op", rec.Op).Msg("metrics buffer full, record dropped")
	}
}

// Close drains buffered records and stops the writer.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	close(r.ch)
	<-r.done
}

func (r *Recorder) writeLoop() {
	defer close(r.done)

	var (
		file *os.File
		day  string
	)
	defer func() {
		if file != nil {
			file.Close()
		}
	}()

	for rec := range r.ch {
		recDay := rec.StartedAt.UTC().Format("20060102")
		if file == nil || recDay != day {
			if file != nil {
				file.Close()
			}
			path := filepath.Join(r.dir, "timing_"+recDay+".jsonl")
			f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				r.log.Error().Str("path", path).Err(err).Msg("opening metrics file failed")
				file, day = nil, ""
				continue
			}
			file, day = f, recDay
		}

		line, err := json.Marshal(rec)
		if err != nil {
			r.log.Warn().Str("op", rec.Op).Err(err).Msg("marshaling record failed")
			continue
		}
		if _, err := file.Write(append(line, '\n')); err != nil {
			r.log.Warn().Str("op", rec.Op).Err(err).Msg("writing record failed")
		}
	}
}
