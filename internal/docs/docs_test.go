package docs

import (
	"slices"
	"strings"
	"testing"
)

func TestTopicsAndGet(t *testing.T) {
	topics := Topics()
	for _, want := range []string{"config", "drag-drop", "file-format"} {
		if !slices.Contains(topics, want) {
			t.Fatalf("topics %v missing %q", topics, want)
		}
	}
	body, ok := Get("File-Format")
	if !ok || !strings.Contains(body, "id:parent_id:text:done:order:collapsed") {
		t.Fatalf("Get(file-format) = %v %q", ok, body)
	}
	for _, bad := range []string{"", "nope", "../docs"} {
		if _, ok := Get(bad); ok {
			t.Fatalf("Get(%q) should fail", bad)
		}
	}
}
