package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("elf_create", 150*time.Millisecond)
	pr.IncStageResult("elf_create", ResultRan)
	pr.IncStageResult("mksfoex", ResultSkipped)
	pr.IncStageRetry("vita-make-fself")
	pr.IncArtifactOutcome(true)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 6 {
		t.Fatalf("expected 6 metric families, got %d", len(mfs))
	}
}

func TestPrometheusRecorderNilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncStageResult("pack_vpk", ResultFailed)
	pr.IncBuildOutcome(BuildOutcomeProtocol)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncStageResult("pack_vpk", ResultRan)

	path := filepath.Join(t.TempDir(), "cargo_vitasdk.prom")
	if err := pr.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `cargo_vitasdk_stage_results_total{result="ran",stage="pack_vpk"} 1`) {
		t.Fatalf("textfile missing stage result sample:\n%s", data)
	}
}
