package tui

import (
	"bytes"
	"strings"
	"sync"

	"github.com/handiism/chartpack/internal/model"
)

const maxLogLines = 10

// tracker collects progress events and log lines written by running
// pipelines. The UI polls it on every tick.
type tracker struct {
	mu      sync.Mutex
	events  map[model.PackID]model.ProgressEvent
	order   []model.PackID
	lines   []string
	partial []byte
}

func newTracker() *tracker {
	return &tracker{events: make(map[model.PackID]model.ProgressEvent)}
}

// onProgress is a model.ProgressFunc.
func (t *tracker) onProgress(e model.ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.events[e.PackID]; !ok {
		t.order = append(t.order, e.PackID)
	}
	t.events[e.PackID] = e
}

// Write receives log output and keeps the last maxLogLines complete lines.
func (t *tracker) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.partial = append(t.partial, p...)
	for {
		i := bytes.IndexByte(t.partial, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(t.partial[:i]))
		t.partial = t.partial[i+1:]
		if line == "" {
			continue
		}
		t.lines = append(t.lines, line)
		if len(t.lines) > maxLogLines {
			t.lines = t.lines[len(t.lines)-maxLogLines:]
		}
	}
	return len(p), nil
}

// snapshot returns the latest event per pack in first-seen order and the
// retained log lines.
func (t *tracker) snapshot() ([]model.ProgressEvent, []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	events := make([]model.ProgressEvent, 0, len(t.order))
	for _, id := range t.order {
		events = append(events, t.events[id])
	}
	return events, append([]string(nil), t.lines...)
}

// packFraction maps a pack's latest event onto [0, 1] for the overall bar.
// Downloading covers the first 80%; the later stages are coarse steps.
func packFraction(e model.ProgressEvent) float64 {
	switch e.Stage {
	case model.StageDownloading:
		return 0.8 * e.Percent()
	case model.StageExtracting:
		return 0.85
	case model.StageConverting:
		return 0.9
	case model.StageDone:
		return 1
	default:
		return 0
	}
}

// overall averages packFraction over total packs. Packs without events count
// as zero.
func overall(events []model.ProgressEvent, total int) float64 {
	if total <= 0 {
		return 0
	}
	var sum float64
	for _, e := range events {
		sum += packFraction(e)
	}
	return sum / float64(total)
}
