package recipe

import (
	"errors"
	"testing"
)

func TestTargetsDefaultEmul32(t *testing.T) {
	r := &Recipe{Emul32: true}
	targets := Targets(r, ArchX86_64)
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d: %v", len(targets), targets)
	}
	if targets[0] != Native(ArchX86_64) || targets[1] != Emul32Target(ArchX86_64) {
		t.Fatalf("unexpected targets: %v", targets)
	}
}

func TestTargetsEmul32OnAarch64Host(t *testing.T) {
	r := &Recipe{Emul32: true}
	targets := Targets(r, ArchAarch64)
	if len(targets) != 2 {
		t.Fatalf("aarch64 supports emul32, expected 2 targets, got %d", len(targets))
	}
}

func TestStagesNonPGO(t *testing.T) {
	def := BuildDefinition{}
	stages := Stages(def, ToolchainGNU, false)
	if stages != nil {
		t.Fatalf("expected nil stages for non-PGO build, got %v", stages)
	}
}

func TestStagesPGOWithoutCSPGO(t *testing.T) {
	def := BuildDefinition{Workload: &WorkloadSection{Command: "bench"}}
	stages := Stages(def, ToolchainGNU, false)
	if len(stages) != 2 || stages[0] != StageOne || stages[1] != StageUse {
		t.Fatalf("expected [One Use], got %v", stages)
	}
}

func TestStagesPGOWithCSPGO(t *testing.T) {
	def := BuildDefinition{Workload: &WorkloadSection{Command: "bench"}}
	stages := Stages(def, ToolchainLLVM, true)
	if len(stages) != 3 || stages[0] != StageOne || stages[1] != StageTwo || stages[2] != StageUse {
		t.Fatalf("expected [One Two Use], got %v", stages)
	}
}

func TestStagesCSPGORequiresLLVM(t *testing.T) {
	def := BuildDefinition{Workload: &WorkloadSection{Command: "bench"}}
	stages := Stages(def, ToolchainGNU, true)
	if len(stages) != 2 {
		t.Fatalf("cspgo without llvm must not insert Stage::Two, got %v", stages)
	}
}

func TestBuildDefinitionForExactTarget(t *testing.T) {
	r := &Recipe{
		Build: BuildDefinition{Setup: "base"},
		Profiles: map[string]BuildDefinition{
			"x86_64": {Setup: "native-specific"},
		},
	}
	got := BuildDefinitionFor(r, Native(ArchX86_64))
	if got.Setup != "native-specific" {
		t.Fatalf("expected exact-target profile to win, got %q", got.Setup)
	}
}

func TestBuildDefinitionForEmul32Fallback(t *testing.T) {
	r := &Recipe{
		Build: BuildDefinition{Setup: "base"},
		Profiles: map[string]BuildDefinition{
			"emul32": {Setup: "emul32-specific"},
		},
	}
	got := BuildDefinitionFor(r, Emul32Target(ArchX86_64))
	if got.Setup != "emul32-specific" {
		t.Fatalf("expected emul32 profile fallback, got %q", got.Setup)
	}
}

func TestPhaseOrder(t *testing.T) {
	for i := 0; i < len(Phases)-1; i++ {
		if !Phases[i].Before(Phases[i+1]) {
			t.Fatalf("phase %s must precede %s", Phases[i], Phases[i+1])
		}
	}
}

func TestBuildProducesFetchAndPrepareAlways(t *testing.T) {
	r := &Recipe{
		Name:    "hello",
		Version: "1.0",
		Release: 1,
		Build:   BuildDefinition{Build: "make", Install: "make install"},
	}
	plan, err := Build(r, ArchX86_64, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(plan.Jobs))
	}
	job := plan.Jobs[0]
	if job.Scripts[PhaseFetch] == "" || job.Scripts[PhasePrepare] == "" {
		t.Fatal("fetch/prepare scripts must always be present")
	}
	if job.Stage != nil {
		t.Fatal("non-PGO job must have nil stage")
	}
}

func TestBuildErrorsOnNoSupportedTarget(t *testing.T) {
	r := &Recipe{
		Name:          "hello",
		Version:       "1.0",
		Release:       1,
		Architectures: []string{"aarch64"},
		Build:         BuildDefinition{Build: "make"},
	}
	plan, err := Build(r, ArchX86_64, nil, nil)
	if err == nil {
		t.Fatal("expected error when no listed architecture matches the host")
	}
	if plan != nil {
		t.Fatalf("expected nil plan on error, got %v", plan)
	}
	var noTarget *ErrNoSupportedTarget
	if !errors.As(err, &noTarget) {
		t.Fatalf("expected *ErrNoSupportedTarget, got %T: %v", err, err)
	}
	if noTarget.Host != ArchX86_64 {
		t.Fatalf("expected host x86_64 in error, got %s", noTarget.Host)
	}
}
