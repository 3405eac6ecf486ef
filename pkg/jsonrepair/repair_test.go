package jsonrepair

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestRepairFencedValidJSON(t *testing.T) {
	raw := "```json\n{\"entities\":[{\"name\":\"Acme Corp\"}]}\n```"
	got := Repair(raw)
	if !gjson.Valid(got) {
		t.Fatalf("Repair(%q) = %q, not valid JSON", raw, got)
	}
	if gjson.Get(got, "entities.0.name").String() != "Acme Corp" {
		t.Errorf("entities.0.name = %q, want Acme Corp", gjson.Get(got, "entities.0.name").String())
	}
}

func TestRepairTruncatedKeyMidString(t *testing.T) {
	raw := `{"entities":[{"nam`
	got := Repair(raw)
	if got != "" && !gjson.Valid(got) {
		t.Errorf("Repair(%q) = %q, neither empty nor valid JSON", raw, got)
	}
}

func TestRepairTruncatedArrayValueMidElement(t *testing.T) {
	raw := `{"entities":[{"name":"Acme Corp","type":"organiz`
	got := Repair(raw)
	if got != "" && !gjson.Valid(got) {
		t.Errorf("Repair(%q) = %q, neither empty nor valid JSON", raw, got)
	}
}

func TestRepairTrailingCommaBeforeClosingBrace(t *testing.T) {
	raw := `{"entities":[{"name":"Acme Corp",}],}`
	got := Repair(raw)
	if !gjson.Valid(got) {
		t.Fatalf("Repair(%q) = %q, want valid JSON", raw, got)
	}
}

func TestRepairEmptyInputReturnsEmpty(t *testing.T) {
	if got := Repair(""); got != "" {
		t.Errorf("Repair(\"\") = %q, want empty", got)
	}
}

func TestRepairNeverPanicsOnGarbage(t *testing.T) {
	inputs := []string{
		"not json at all",
		"{{{{{{",
		"]]]]]]",
		"\"unterminated string",
		strings.Repeat("{", 500),
		"{\"a\": NaN, \"b\": Infinity}",
		"// just a comment\n{\"a\":1}",
	}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Repair(%q) panicked: %v", in, r)
				}
			}()
			got := Repair(in)
			if got != "" && !gjson.Valid(got) {
				t.Errorf("Repair(%q) = %q, neither empty nor valid JSON", in, got)
			}
		}()
	}
}

func TestRepairStripsLineCommentsOutsideStrings(t *testing.T) {
	raw := "{\"url\": \"http://example.com\", \"note\": 1} // trailing comment"
	got := Repair(raw)
	if !gjson.Valid(got) {
		t.Fatalf("Repair(%q) = %q, want valid JSON (comment must not corrupt the URL)", raw, got)
	}
	if gjson.Get(got, "url").String() != "http://example.com" {
		t.Errorf("url = %q, want http://example.com (scheme // must survive)", gjson.Get(got, "url").String())
	}
}

func TestRepairNaNAndInfinityBecomeNull(t *testing.T) {
	raw := `{"confidence": NaN, "score": Infinity}`
	got := Repair(raw)
	if !gjson.Valid(got) {
		t.Fatalf("Repair(%q) = %q, want valid JSON", raw, got)
	}
	if gjson.Get(got, "confidence").Type != gjson.Null {
		t.Errorf("confidence = %v, want null", gjson.Get(got, "confidence"))
	}
}

func TestStripFencesWithoutFence(t *testing.T) {
	raw := `{"a":1}`
	if got := stripFences(raw); got != raw {
		t.Errorf("stripFences(%q) = %q, want unchanged", raw, got)
	}
}

func TestBalancedObjectScanFindsOutermostObject(t *testing.T) {
	scanned, stack, ok := balancedObjectScan(`garbage before {"a": [1, 2]} garbage after`)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if scanned != `{"a": [1, 2]}` {
		t.Errorf("scanned = %q", scanned)
	}
	if len(stack) != 0 {
		t.Errorf("stack = %v, want empty (fully balanced)", stack)
	}
}

func TestBalancedObjectScanNoOpeningToken(t *testing.T) {
	_, _, ok := balancedObjectScan("just plain text")
	if ok {
		t.Error("expected ok=false for input with no { or [")
	}
}

func TestClosingTokensForMixedStack(t *testing.T) {
	got := closingTokensFor([]rune{'{', '[', '{'})
	if got != "}]}" {
		t.Errorf("closingTokensFor = %q, want %q", got, "}]}")
	}
}
