package dns

import (
	"context"
	"testing"
)

func TestLookup_SkipsQueries(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1": "127.0.0.1",
		"::1":       "::1",
		"localhost": "127.0.0.1",
	}
	for in, want := range cases {
		got, err := Lookup(context.Background(), in)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Lookup(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLookup_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Lookup(ctx, "example.invalid"); err == nil {
		t.Fatal("lookup succeeded with a cancelled context")
	}
}
