package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/JaimeStill/docket/internal/batch"
)

func TestPrintSummary(t *testing.T) {
	s := &batch.Summary{
		Found:    3,
		Archived: 2,
		Failed:   1,
		Failures: []batch.Failure{{Attachment: "beo-2.pdf", Error: "remote store failure"}},
		Report:   "review_20240305_091500.csv",
	}

	var table bytes.Buffer
	if err := printSummary(&table, s, false); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"found", "archived", "review_20240305_091500.csv", "failed: beo-2.pdf"} {
		if !strings.Contains(table.String(), want) {
			t.Errorf("table missing %q:\n%s", want, table.String())
		}
	}

	var out bytes.Buffer
	if err := printSummary(&out, s, true); err != nil {
		t.Fatal(err)
	}
	var decoded batch.Summary
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("json output: %v", err)
	}
	if decoded.Archived != 2 || decoded.Failed != 1 || len(decoded.Failures) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"BEO L43105", 20, "BEO L43105"},
		{"Hospitality form", 8, "Hospita…"},
		{"Événement", 4, "Évé…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestRootCommands(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"run", "watch", "serve", "messages", "archive"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %s not registered (%v)", name, err)
		}
	}
}
