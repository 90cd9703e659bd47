package loggly

import (
	"reflect"
	"strings"
	"testing"
)

func TestResolveTags_validity(t *testing.T) {

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple tag accepted", "backend", true},
		{"hyphenated tag accepted", "ok-1", true},
		{"dotted tag accepted", "svc.api", true},
		{"underscored tag accepted", "svc_api", true},
		{"mixed case accepted", "Foo-1", true},
		{"empty tag dropped", "", false},
		{"single character dropped", "a", false},
		{"space and punctuation dropped", "bad tag!", false},
		{"leading hyphen dropped", "-leading", false},
		{"64 characters accepted", strings.Repeat("a", 64), true},
		{"65 characters dropped", strings.Repeat("a", 65), false},
	}
	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTags(tt.input)
			if tt.valid && (len(got) != 1 || got[0] != tt.input) {
				t.Errorf("failed: %s, expected: [%s], got: %v", tt.name, tt.input, got)
			}
			if !tt.valid && len(got) != 0 {
				t.Errorf("failed: %s, expected invalid tag to be dropped, got: %v", tt.name, got)
			}
		})
	}
}

func TestResolveTags_orderAndDuplicates(t *testing.T) {

	got := ResolveTags("ok-1", "bad tag!", "ok-2", "ok-1")
	want := TagSet{"ok-1", "ok-2", "ok-1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected: %v, got: %v", want, got)
	}
}

func TestResolveTags_empty(t *testing.T) {

	if got := ResolveTags(); len(got) != 0 {
		t.Errorf("expected empty TagSet, got: %v", got)
	}
}
