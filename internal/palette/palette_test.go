package palette

import "testing"

func TestResolveKnownToken(t *testing.T) {
	if got := Resolve("espresso"); got != "#4B2E1A" {
		t.Fatalf("espresso resolved to %q", got)
	}
	if got := Resolve("Sand"); got != "#CDAF7B" {
		t.Fatalf("token lookup should be case-insensitive, got %q", got)
	}
}

func TestResolvePassesThroughUnknownValues(t *testing.T) {
	for _, raw := range []string{"#112233", "rebeccapurple", "not-a-token"} {
		if got := Resolve(raw); got != raw {
			t.Fatalf("expected %q to pass through, got %q", raw, got)
		}
	}
}

func TestIsToken(t *testing.T) {
	if !IsToken("cream") {
		t.Fatalf("cream should be a token")
	}
	if IsToken("#F5F0E6") {
		t.Fatalf("raw hex is not a token")
	}
}
