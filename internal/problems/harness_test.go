package problems

import (
	"strings"
	"testing"
)

func TestRenderHarnessTwoSum(t *testing.T) {
	c := mustLoad(t)
	p, ok := c.Get("two-sum")
	if !ok {
		t.Fatalf("two-sum missing")
	}

	out, err := c.RenderHarness(p)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.HasPrefix(out, ImportLine("two-sum")+"\n") {
		t.Fatalf("harness must open with the import line:\n%s", out)
	}
	for _, want := range []string{
		"    { args: [[2, 7, 11, 15], 9], expected: [0, 1] },\n",
		"    { args: [[-1, -2, -3, -4], -6], expected: [1, 3] }\n];",
		"test.args[0][result[0]] + test.args[0][result[1]] === test.args[1]",
		"const result = twoSum(...args);",
		"console.log(`\\n${passed}/${testCases.length} tests passed`);",
		"if (failed > 0) process.exit(1);",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("harness missing %q:\n%s", want, out)
		}
	}
}

func TestRenderHarnessModes(t *testing.T) {
	c := mustLoad(t)

	inPlace, _ := c.Get("merge-sorted-arrays")
	out, err := c.RenderHarness(inPlace)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(out, "JSON.stringify(args[0]) === JSON.stringify(test.expected)") {
		t.Fatalf("in_place harness should compare the mutated argument:\n%s", out)
	}

	returns, _ := c.Get("maximum-subarray")
	out, err = c.RenderHarness(returns)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(out, "JSON.stringify(result) === JSON.stringify(test.expected)") {
		t.Fatalf("returns harness should compare the return value:\n%s", out)
	}
}

func TestRenderHarnessIsDeterministicAndCached(t *testing.T) {
	c := mustLoad(t)
	p, _ := c.Get("valid-palindrome")

	first, err := c.RenderHarness(p)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	fresh, err := renderHarness(p)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if first != fresh {
		t.Fatalf("rendering is not deterministic")
	}
	if _, ok := c.harness.Load(p.ID); !ok {
		t.Fatalf("expected harness to be cached")
	}
}
