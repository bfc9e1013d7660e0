package recorder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogfileName(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "session")

	if got := LogfileName(base, false); got != base+"_BIOPAC_data.tsv" {
		t.Fatalf("fresh name: %q", got)
	}

	// existing file, overwrite off -> counter inserted
	if err := os.WriteFile(base+"_BIOPAC_data.tsv", nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := LogfileName(base, false); got != base+"_2_BIOPAC_data.tsv" {
		t.Fatalf("collision name: %q", got)
	}
	if err := os.WriteFile(base+"_2_BIOPAC_data.tsv", nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := LogfileName(base, false); got != base+"_3_BIOPAC_data.tsv" {
		t.Fatalf("second collision name: %q", got)
	}

	// overwrite on -> original name regardless
	if got := LogfileName(base, true); got != base+"_BIOPAC_data.tsv" {
		t.Fatalf("overwrite name: %q", got)
	}
}

func TestRecorderWrites(t *testing.T) {
	base := filepath.Join(t.TempDir(), "rec")
	r, err := Create(base, 3, true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.WriteSample(12, []float64{0.5, -1, 0.125}); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if err := r.WriteMessage(15, "stimulus onset"); err != nil {
		t.Fatalf("write message: %v", err)
	}
	if err := r.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(r.Name())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(b), "\n")
	want := []string{
		"timestamp\tchannel_0\tchannel_1\tchannel_2",
		"12\t0.5\t-1\t0.125",
		"MSG\t15\tstimulus onset",
	}
	if len(lines) != len(want) {
		t.Fatalf("line count %d: %q", len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q; want %q", i, lines[i], want[i])
		}
	}
}
