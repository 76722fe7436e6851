package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"peerprep/interview/internal/judge"
	"peerprep/interview/internal/middleware"
)

func init() {
	color.NoColor = true
}

func TestListProblems(t *testing.T) {
	var buf bytes.Buffer
	if err := listProblems(&buf); err != nil {
		t.Fatalf("listProblems: %v", err)
	}
	out := buf.String()
	for _, id := range []string{"two-sum", "reverse-string", "valid-palindrome", "maximum-subarray", "merge-sorted-arrays"} {
		if !strings.Contains(out, id) {
			t.Fatalf("expected %s in listing:\n%s", id, out)
		}
	}
}

func TestPrintHarness(t *testing.T) {
	var buf bytes.Buffer
	if err := printHarness(&buf, "two-sum"); err != nil {
		t.Fatalf("printHarness: %v", err)
	}
	if !strings.Contains(buf.String(), "tests passed") {
		t.Fatalf("harness missing tally line:\n%s", buf.String())
	}
	if err := printHarness(&buf, "nope"); err == nil {
		t.Fatalf("expected error for unknown problem")
	}
}

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	printAnalysis(&buf, "function f(a) {\n  for (let i = 0; i < a.length; i++) {\n    for (let j = 0; j < a.length; j++) {}\n  }\n}")
	if !strings.Contains(buf.String(), "O(n²)") {
		t.Fatalf("expected quadratic estimate, got:\n%s", buf.String())
	}
}

func TestIssueToken(t *testing.T) {
	var buf bytes.Buffer
	if err := issueToken(&buf, "s3cret", "sess-1", "Ada", time.Hour); err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	claims, err := middleware.ParseSessionToken(strings.TrimSpace(buf.String()), "s3cret")
	if err != nil {
		t.Fatalf("token did not verify: %v", err)
	}
	if claims.SessionID != "sess-1" || claims.CandidateName != "Ada" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestRunSolution(t *testing.T) {
	stdout := base64.StdEncoding.EncodeToString([]byte("✓ Test 1 passed\n\n1/1 tests passed\n"))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"token":"tok"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"stdout": stdout,
			"status": map[string]any{"id": 3, "description": "Accepted"},
		})
	}))
	defer server.Close()

	var buf bytes.Buffer
	ok, err := runSolution(context.Background(), &buf, judge.Config{Endpoint: server.URL}, "two-sum", "function twoSum() {}")
	if err != nil {
		t.Fatalf("runSolution: %v", err)
	}
	if !ok {
		t.Fatalf("expected all tests to pass, output:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "accepted (1/1 tests passed") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}

	if _, err := runSolution(context.Background(), &buf, judge.Config{Endpoint: server.URL}, "nope", ""); err == nil {
		t.Fatalf("expected error for unknown problem")
	}
}

func TestAppHasCommands(t *testing.T) {
	app := newApp()
	want := map[string]bool{"problems": false, "harness": false, "analyze": false, "run": false, "token": false}
	for _, c := range app.Commands {
		want[c.Name] = true
	}
	for name, found := range want {
		if !found {
			t.Fatalf("missing command %s", name)
		}
	}
}
