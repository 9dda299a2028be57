// Package build runs a job plan's phases inside the container runtime
// in fixed order, accumulating per-phase timing and aborting on the
// first non-zero exit (spec.md §4.4).
package build

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/serpent-go/boulder/pkg/recipe"
	"github.com/serpent-go/boulder/pkg/utils"
)

type timingKey struct {
	Target recipe.BuildTarget
	Stage  string
	Phase  recipe.Phase
}

// Timing accumulates per-phase durations keyed by (target, stage,
// phase), plus separate startup/analysis/packaging aggregates, and
// renders a fixed-width report table (spec.md §4.4 "Timing").
type Timing struct {
	mu        sync.Mutex
	durations map[timingKey]time.Duration
	order     []timingKey
	startup   time.Duration
	analysis  time.Duration
	packaging time.Duration
}

func NewTiming() *Timing {
	return &Timing{durations: make(map[timingKey]time.Duration)}
}

// Start begins timing one (target, stage, phase) and returns a stop
// function to call on completion.
func (t *Timing) Start(target recipe.BuildTarget, stage string, phase recipe.Phase) func() {
	begin := time.Now()
	return func() {
		t.record(target, stage, phase, time.Since(begin))
	}
}

func (t *Timing) record(target recipe.BuildTarget, stage string, phase recipe.Phase, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := timingKey{Target: target, Stage: stage, Phase: phase}
	if _, seen := t.durations[key]; !seen {
		t.order = append(t.order, key)
	}
	t.durations[key] += d
}

func (t *Timing) AddStartup(d time.Duration)   { t.mu.Lock(); t.startup += d; t.mu.Unlock() }
func (t *Timing) AddAnalysis(d time.Duration)  { t.mu.Lock(); t.analysis += d; t.mu.Unlock() }
func (t *Timing) AddPackaging(d time.Duration) { t.mu.Lock(); t.packaging += d; t.mu.Unlock() }

// Render produces the fixed-width timing table: one row per recorded
// phase with a hierarchical target/stage/phase prefix, its duration,
// and its percentage of the grand total, followed by the
// startup/analysis/packaging aggregate rows and a total row.
func (t *Timing) Render() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := t.startup + t.analysis + t.packaging
	for _, key := range t.order {
		total += t.durations[key]
	}
	if total == 0 {
		total = 1 // avoid a divide-by-zero percentage when everything is instant.
	}

	rows := [][]string{{"phase", "duration", "%"}}
	for _, key := range t.order {
		d := t.durations[key]
		label := fmt.Sprintf("%s > %s > %s", key.Target, stageLabel(key.Stage), key.Phase)
		rows = append(rows, []string{label, d.Round(time.Millisecond).String(), percent(d, total)})
	}
	rows = append(rows, []string{"startup", t.startup.Round(time.Millisecond).String(), percent(t.startup, total)})
	rows = append(rows, []string{"analysis", t.analysis.Round(time.Millisecond).String(), percent(t.analysis, total)})
	rows = append(rows, []string{"packaging", t.packaging.Round(time.Millisecond).String(), percent(t.packaging, total)})
	rows = append(rows, []string{"total", time.Duration(total).Round(time.Millisecond).String(), "100%"})

	return utils.RenderTable(rows)
}

func stageLabel(stage string) string {
	if stage == "" {
		return "-"
	}
	return stage
}

func percent(d, total time.Duration) string {
	return strconv.FormatFloat(100*float64(d)/float64(total), 'f', 1, 64) + "%"
}
