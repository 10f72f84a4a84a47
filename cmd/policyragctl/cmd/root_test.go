package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/policyrag/internal/domain/answer"
	"github.com/kailas-cloud/policyrag/internal/repository/answercache"
)

// writeConfig writes a lexical-only, in-memory configuration.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	body := `
http:
  port: 8080
database:
  driver: memory
corpus:
  path: ` + filepath.Join(dir, "corpus.db") + `
embedding:
  enabled: false
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()
	want := map[string]bool{"ask": false, "search": false, "cache": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestAsk_NoEvidence(t *testing.T) {
	out, err := run(t, "--config", writeConfig(t), "ask", "음주운전", "사고부담금")
	if err != nil {
		t.Fatalf("ask: %v\n%s", err, out)
	}
	if !strings.Contains(out, answer.NoEvidenceText) {
		t.Errorf("expected not-found answer, got %q", out)
	}
}

func TestAsk_RequiresQuestion(t *testing.T) {
	if _, err := run(t, "--config", writeConfig(t), "ask"); err == nil {
		t.Fatal("expected argument error")
	}
}

func TestSearch_JSON(t *testing.T) {
	out, err := run(t, "--config", writeConfig(t), "--json", "search", "자기부담금")
	if err != nil {
		t.Fatalf("search: %v\n%s", err, out)
	}
	var res struct {
		Results         []any
		TotalCandidates int
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(res.Results) != 0 {
		t.Errorf("expected no results from an empty corpus, got %d", len(res.Results))
	}
}

func TestCacheStatsAndClear(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "--json", "cache", "stats")
	if err != nil {
		t.Fatalf("cache stats: %v\n%s", err, out)
	}
	var stats answercache.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("expected empty cache, got %+v", stats)
	}

	out, err = run(t, "--config", cfg, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "deleted 0") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestBadConfigPath(t *testing.T) {
	if _, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "cache", "stats"); err == nil {
		t.Fatal("expected config error")
	}
}

func TestPrintAnswer(t *testing.T) {
	var b bytes.Buffer
	printAnswer(&b, answer.Answer{
		Text:       "음주운전 사고부담금 안내",
		References: []answer.Reference{{Source: "DB손해보험 약관", Page: 42, Score: 0.91}},
		Cached:     true,
	})
	got := b.String()
	for _, want := range []string{"음주운전 사고부담금 안내", "[1] DB손해보험 약관 p.42 (0.91)", "(cached)"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}
