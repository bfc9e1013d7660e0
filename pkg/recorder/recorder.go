// Package recorder writes acquired samples and marker messages to a
// tab-separated log file.
package recorder

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

const fileSuffix = "_BIOPAC_data.tsv"

// LogfileName builds the log file name for a base name. When overwrite is
// off and the file already exists, a counter is inserted until a free name is
// found.
func LogfileName(base string, overwrite bool) string {
	name := base + fileSuffix
	if overwrite {
		return name
	}
	for i := 2; fileExists(name); i++ {
		name = fmt.Sprintf("%s_%d%s", base, i, fileSuffix)
	}
	return name
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// Recorder is a mutex-guarded TSV writer. Lines are written newline-first, so
// the file never ends with a dangling empty line.
type Recorder struct {
	mu   sync.Mutex
	f    *os.File
	name string
}

// Create opens the log file for base and writes the header for nchannels
// channels.
func Create(base string, nchannels int, overwrite bool) (*Recorder, error) {
	name := LogfileName(base, overwrite)
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create logfile: %w", err)
	}
	r := &Recorder{f: f, name: name}
	if err := r.writeHeader(nchannels); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// Name returns the file name the recorder writes to.
func (r *Recorder) Name() string { return r.name }

func (r *Recorder) writeHeader(nchannels int) error {
	cols := make([]string, 0, nchannels+1)
	cols = append(cols, "timestamp")
	for i := 0; i < nchannels; i++ {
		cols = append(cols, fmt.Sprintf("channel_%d", i))
	}
	_, err := r.f.WriteString(strings.Join(cols, "\t"))
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// WriteSample appends one sample vector with its timestamp in milliseconds.
func (r *Recorder) WriteSample(t int64, values []float64) error {
	var sb strings.Builder
	sb.WriteByte('\n')
	sb.WriteString(strconv.FormatInt(t, 10))
	for _, v := range values {
		sb.WriteByte('\t')
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.f.WriteString(sb.String()); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}
	return nil
}

// WriteMessage appends a marker line of the form MSG<TAB>t<TAB>msg.
func (r *Recorder) WriteMessage(t int64, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := fmt.Fprintf(r.f, "\nMSG\t%d\t%s", t, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Flush pushes buffered data through the OS file cache to disk.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.f.Sync(); err != nil {
		return fmt.Errorf("sync logfile: %w", err)
	}
	return nil
}

// Close flushes and closes the log file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Sync()
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	r.f = nil
	return err
}
