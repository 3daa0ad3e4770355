package sanitize

import (
	"errors"
	"strings"
	"testing"
)

func TestCleanStripsControlKeepsNewline(t *testing.T) {
	cleaned, errClean := Clean("A\x1bx\x1dy\nB")
	if errClean != nil {
		t.Fatalf("clean: %v", errClean)
	}
	if cleaned != "Axy\nB" {
		t.Fatalf("cleaned = %q, want %q", cleaned, "Axy\nB")
	}
}

func TestCleanControlOnlyRejected(t *testing.T) {
	inputs := []string{
		"\x00\x01\x02",
		"\x1b\x1d\x7f",
		"\u200b\u200d", // zero-width format characters
	}
	for _, input := range inputs {
		if _, errClean := Clean(input); !errors.Is(errClean, ErrNoPrintableContent) {
			t.Fatalf("Clean(%q) error = %v, want ErrNoPrintableContent", input, errClean)
		}
	}
}

func TestCleanWhitespaceOnlyRejected(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n\n", " \n \n "} {
		if _, errClean := Clean(input); !errors.Is(errClean, ErrNoPrintableContent) {
			t.Fatalf("Clean(%q) error = %v, want ErrNoPrintableContent", input, errClean)
		}
	}
}

func TestCleanKeepsPrintableUnicode(t *testing.T) {
	input := "héllo 世界 ¡punctuation! №42"
	cleaned, errClean := Clean(input)
	if errClean != nil {
		t.Fatalf("clean: %v", errClean)
	}
	if cleaned != input {
		t.Fatalf("cleaned = %q, want unchanged input", cleaned)
	}
}

func TestCleanStripsFormatCategory(t *testing.T) {
	cleaned, errClean := Clean("left\u200eto\u200fright")
	if errClean != nil {
		t.Fatalf("clean: %v", errClean)
	}
	if cleaned != "lefttoright" {
		t.Fatalf("cleaned = %q, want %q", cleaned, "lefttoright")
	}
}

func TestCleanTrimsOuterWhitespace(t *testing.T) {
	cleaned, errClean := Clean("  \n hello \n ")
	if errClean != nil {
		t.Fatalf("clean: %v", errClean)
	}
	if cleaned != "hello" {
		t.Fatalf("cleaned = %q, want %q", cleaned, "hello")
	}
}

func TestCleanInteriorNewlinesSurvive(t *testing.T) {
	cleaned, errClean := Clean("line one\nline two\nline three")
	if errClean != nil {
		t.Fatalf("clean: %v", errClean)
	}
	if got := strings.Count(cleaned, "\n"); got != 2 {
		t.Fatalf("newline count = %d, want 2", got)
	}
}

func TestCleanIdempotent(t *testing.T) {
	once, errOnce := Clean("mixed\x1b content\nhere")
	if errOnce != nil {
		t.Fatalf("first clean: %v", errOnce)
	}
	twice, errTwice := Clean(once)
	if errTwice != nil {
		t.Fatalf("second clean: %v", errTwice)
	}
	if once != twice {
		t.Fatalf("not idempotent: %q vs %q", once, twice)
	}
}
