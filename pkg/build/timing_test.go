package build

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serpent-go/boulder/pkg/recipe"
)

func TestTimingRecordsAndRenders(t *testing.T) {
	timing := NewTiming()
	target := recipe.BuildTarget{Arch: recipe.ArchX86_64}

	stop := timing.Start(target, "", recipe.PhaseBuild)
	time.Sleep(time.Millisecond)
	stop()

	timing.AddStartup(2 * time.Millisecond)
	timing.AddAnalysis(time.Millisecond)
	timing.AddPackaging(time.Millisecond)

	out, err := timing.Render()
	require.NoError(t, err)
	assert.Contains(t, out, "build")
	assert.Contains(t, out, "startup")
	assert.Contains(t, out, "total")
}

func TestTimingAccumulatesSameKey(t *testing.T) {
	timing := NewTiming()
	target := recipe.BuildTarget{Arch: recipe.ArchX86_64}

	timing.record(target, "stage1", recipe.PhaseBuild, 10*time.Millisecond)
	timing.record(target, "stage1", recipe.PhaseBuild, 5*time.Millisecond)

	assert.Equal(t, 15*time.Millisecond, timing.durations[timingKey{Target: target, Stage: "stage1", Phase: recipe.PhaseBuild}])
	assert.Len(t, timing.order, 1)
}
