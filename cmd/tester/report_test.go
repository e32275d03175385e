package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/camel-workshop/tester/internal/checks"
)

func sampleReport() *checks.Report {
	return &checks.Report{
		RunID: "3f1c2a9e-0000-4000-8000-000000000000",
		Outcomes: []checks.Outcome{
			{Name: checks.NameCreate, Result: checks.OK()},
			{Name: checks.NameUpdate, Result: checks.Fail("the existence must be updated")},
		},
	}
}

func TestRenderText(t *testing.T) {
	render, err := rendererFor("text")
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	var buf bytes.Buffer
	if err := render(&buf, sampleReport()); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"PASS  create drug",
		"FAIL  update drug",
		"the existence must be updated",
		"1 of 2 checks failed (run 3f1c2a9e)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderJSONKeepsOrder(t *testing.T) {
	render, _ := rendererFor("json")
	var buf bytes.Buffer
	if err := render(&buf, sampleReport()); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if strings.Index(out, checks.NameCreate) > strings.Index(out, checks.NameUpdate) {
		t.Fatalf("keys out of run order:\n%s", out)
	}
}

func TestRenderYAML(t *testing.T) {
	render, _ := rendererFor("yaml")
	var buf bytes.Buffer
	if err := render(&buf, sampleReport()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "test_create_drug: ok") {
		t.Fatalf("unexpected yaml:\n%s", buf.String())
	}
}

func TestRendererUnknownFormat(t *testing.T) {
	if _, err := rendererFor("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestRunRequiresTarget(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"run", "--openshift-url", "https://api", "--deployment", "app"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected missing --base-url to fail")
	}
}
