package scheduler

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/rig/internal/core/ports"
)

// lineWriter forwards complete lines to the renderer. Each action gets its
// own lineWriter so that concurrent fan-out members never split a line.
type lineWriter struct {
	sink   ports.Renderer
	target string

	mu  sync.Mutex
	buf []byte
}

func newLineWriter(sink ports.Renderer, target string) *lineWriter {
	return &lineWriter{sink: sink, target: target}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	if i := bytes.LastIndexByte(w.buf, '\n'); i >= 0 {
		w.sink.OnTargetLog(w.target, bytes.Clone(w.buf[:i+1]))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush forwards a trailing partial line, terminated with a newline.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.sink.OnTargetLog(w.target, append(w.buf, '\n'))
		w.buf = nil
	}
}

// digestWriter hashes the standard output of one action.
type digestWriter struct {
	mu sync.Mutex
	h  *xxhash.Digest
}

func newDigestWriter() *digestWriter {
	return &digestWriter{h: xxhash.New()}
}

func (w *digestWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.h.Write(p)
}

func (w *digestWriter) Sum64() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.h.Sum64()
}

// combineDigests folds the per-action digests in declaration order, so the
// result does not depend on how fan-out members interleave.
func combineDigests(digests []*digestWriter) string {
	h := xxhash.New()
	var b [8]byte
	for _, d := range digests {
		binary.BigEndian.PutUint64(b[:], d.Sum64())
		_, _ = h.Write(b[:])
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
