package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"irkit/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	loc := diag.Location{Module: "fib", Func: "fib", Block: "loop", Instr: 2}
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.ValNotDominated,
		Message:  "use of %i.next does not follow its definition",
		Primary:  loc,
		Notes:    []diag.Note{{Loc: loc, Msg: "defined in %body"}},
	})
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.IOCacheEntry,
		Message:  "stale cache entry",
		Primary:  diag.ModuleLocation("fib"),
	})
	return bag
}

func TestPrettyPlain(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{ShowNotes: true, ShowTitle: true})
	output := buf.String()

	for _, want := range []string{
		"ERROR VAL2005: use of %i.next does not follow its definition\n",
		"  --> fib:@fib %loop #2\n",
		"  = Use is not dominated by its definition\n",
		"  = note: defined in %body\n",
		"WARNING IO5002: stale cache entry\n  --> fib\n",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Errorf("Expected no escape sequences, got:\n%q", output)
	}
}

func TestPrettyColor(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{Color: true})
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("Expected escape sequences, got:\n%q", buf.String())
	}
	if strings.Contains(buf.String(), "note:") {
		t.Error("Notes must be hidden unless ShowNotes is set")
	}
}

func TestShort(t *testing.T) {
	var buf bytes.Buffer
	Short(&buf, sampleBag())
	want := "fib:@fib %loop #2: ERROR VAL2005: use of %i.next does not follow its definition\n" +
		"fib: WARNING IO5002: stale cache entry\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleBag(), JSONOpts{Max: 1, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Code != "VAL2005" || d.Severity != "ERROR" || d.Location.Block != "loop" {
		t.Errorf("unexpected diagnostic %+v", d)
	}
	if d.Location.Instr == nil || *d.Location.Instr != 2 {
		t.Errorf("expected instr 2, got %v", d.Location.Instr)
	}
	if len(d.Notes) != 1 {
		t.Errorf("expected one note, got %d", len(d.Notes))
	}
}
