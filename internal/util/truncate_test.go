package util

import (
	"strings"
	"testing"
)

func TestTruncateBytes(t *testing.T) {
	out, truncated := TruncateBytes("abcdef", 4)
	if !truncated || out != "abcd" {
		t.Fatalf("unexpected truncation: %q %v", out, truncated)
	}
	out, truncated = TruncateBytes("abc", 4)
	if truncated || out != "abc" {
		t.Fatalf("expected passthrough, got %q %v", out, truncated)
	}
}

func TestTruncateMiddleKeepsHeadAndTail(t *testing.T) {
	input := strings.Repeat("a", 50) + strings.Repeat("z", 50)
	out, truncated := TruncateMiddle(input, 20)
	if !truncated {
		t.Fatalf("expected truncation")
	}
	if !strings.HasPrefix(out, "aaaa") || !strings.HasSuffix(out, "zzzz") {
		t.Fatalf("head or tail lost: %q", out)
	}
	if !strings.Contains(out, "output truncated") {
		t.Fatalf("missing elision marker: %q", out)
	}
}

func TestRedactSecrets(t *testing.T) {
	in := "api_key=abc123 other text"
	out := RedactSecrets(in)
	if strings.Contains(out, "abc123") {
		t.Fatalf("secret survived redaction: %q", out)
	}
}
