package macro

import "testing"

func TestExpandSimple(t *testing.T) {
	table := Table{"configure": "./configure --prefix=/usr"}
	got, err := Expand("%configure\nmake", table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "./configure --prefix=/usr\nmake"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExpandRecursive(t *testing.T) {
	table := Table{
		"make_install": "%make install DESTDIR=%install_root",
		"make":         "make -j$(nproc)",
		"install_root": "/build/install",
	}
	got, err := Expand("%make_install", table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "make -j$(nproc) install DESTDIR=/build/install"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExpandUndefined(t *testing.T) {
	_, err := Expand("%nope", Table{})
	if err == nil {
		t.Fatal("expected error for undefined macro")
	}
	if _, ok := err.(*ErrUndefined); !ok {
		t.Fatalf("expected ErrUndefined, got %T", err)
	}
}

func TestExpandCycle(t *testing.T) {
	table := Table{"a": "%b", "b": "%a"}
	_, err := Expand("%a", table)
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if _, ok := err.(*ErrCycle); !ok {
		t.Fatalf("expected ErrCycle, got %T", err)
	}
}

func TestExpandLiteralPercent(t *testing.T) {
	got, err := Expand("100% done", Table{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "100% done" {
		t.Fatalf("got %q", got)
	}
}
