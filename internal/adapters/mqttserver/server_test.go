package mqttserver

import (
	"strings"
	"testing"
)

func TestTruncatePayload(t *testing.T) {
	short := []byte(`{"ok":true}`)
	if got := truncatePayload(short); got != string(short) {
		t.Fatalf("unexpected %q", got)
	}
	long := []byte(strings.Repeat("x", 2000))
	got := truncatePayload(long)
	if len(got) != 1024+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected truncation length %d", len(got))
	}
}
