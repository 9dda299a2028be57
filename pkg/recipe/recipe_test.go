package recipe

import (
	"errors"
	"testing"

	"github.com/goccy/go-yaml"
)

func TestToolchainUnmarshalKnownValues(t *testing.T) {
	cases := map[string]Toolchain{
		"toolchain: gnu\n":  ToolchainGNU,
		"toolchain: llvm\n": ToolchainLLVM,
		"toolchain: \"\"\n": ToolchainGNU,
	}
	for doc, want := range cases {
		var r Recipe
		if err := yaml.Unmarshal([]byte(doc), &r); err != nil {
			t.Fatalf("unexpected error decoding %q: %v", doc, err)
		}
		if r.Toolchain != want {
			t.Fatalf("decoding %q: expected %v, got %v", doc, want, r.Toolchain)
		}
	}
}

func TestToolchainUnmarshalRejectsUnknownValue(t *testing.T) {
	var r Recipe
	err := yaml.Unmarshal([]byte("toolchain: msvc\n"), &r)
	if err == nil {
		t.Fatal("expected error decoding an unrecognized toolchain")
	}
	var unknown *ErrUnknownToolchain
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *ErrUnknownToolchain, got %T: %v", err, err)
	}
	if unknown.Value != "msvc" {
		t.Fatalf("expected offending value %q, got %q", "msvc", unknown.Value)
	}
}
