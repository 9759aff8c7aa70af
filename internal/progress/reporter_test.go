package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Out: &buf}
	r.Start(3, "policy.txt")
	r.Update(1, "batch 1")
	r.Update(3, "batch 2")
	r.Finish()

	out := buf.String()
	for _, want := range []string{"policy.txt: embedding 3 chunks", "[1/3] batch 1", "[3/3] batch 2", "policy.txt: done"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNewReporterCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter().(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}

func TestNopReporter(t *testing.T) {
	var r Reporter = Nop{}
	r.Start(10, "x")
	r.Update(5, "y")
	r.Finish()
}
