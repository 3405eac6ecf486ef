// Package jsonrepair turns an LLM's best-effort JSON output into valid JSON
// without ever raising: a model response is fenced in markdown, truncated
// mid-token by a length limit, or dotted with trailing commas and comments
// far more often than it is perfectly well-formed. Repair tries a fixed
// ladder of increasingly aggressive strategies and stops at the first one
// that parses.
package jsonrepair

import (
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/valyala/fastjson"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// stripFences removes a surrounding ```json ... ``` or ``` ... ``` fence, if
// present; otherwise returns s unchanged.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

var (
	lineCommentPattern    = regexp.MustCompile(`//[^\n]*`)
	trailingCommaPattern  = regexp.MustCompile(`,\s*([}\]])`)
	nanInfinityPattern    = regexp.MustCompile(`\b(NaN|-?Infinity)\b`)
)

// sanitize strips `//` line comments outside of strings, trailing commas
// before a closing bracket, and replaces NaN/Infinity literals with null.
// It is string-aware: a `//` inside a quoted value is left alone.
func sanitize(s string) string {
	s = stripCommentsOutsideStrings(s)
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	s = nanInfinityPattern.ReplaceAllString(s, "null")
	return s
}

func stripCommentsOutsideStrings(s string) string {
	var b strings.Builder
	inString := false
	escaped := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if inString {
			b.WriteRune(r)
			if escaped {
				escaped = false
			} else if r == '\\' {
				escaped = true
			} else if r == '"' {
				inString = false
			}
			continue
		}
		if r == '"' {
			inString = true
			b.WriteRune(r)
			continue
		}
		if r == '/' && i+1 < len(runes) && runes[i+1] == '/' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			if i < len(runes) {
				b.WriteRune('\n')
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// balancedObjectScan performs a bracket/string-aware stack scan to locate
// the outermost balanced {...} or [...] substring starting at the first
// opening token. It returns ok=false if the input never opens an object or
// array at all.
func balancedObjectScan(s string) (result string, stack []rune, ok bool) {
	start := -1
	var openStack []rune
	inString := false
	escaped := false
	for i, r := range s {
		if inString {
			if escaped {
				escaped = false
			} else if r == '\\' {
				escaped = true
			} else if r == '"' {
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{', '[':
			if start == -1 {
				start = i
			}
			openStack = append(openStack, r)
		case '}', ']':
			if len(openStack) > 0 {
				openStack = openStack[:len(openStack)-1]
			}
			if start != -1 && len(openStack) == 0 {
				return s[start : i+1], nil, true
			}
		}
	}
	if start == -1 {
		return "", nil, false
	}
	return s[start:], openStack, true
}

// closingTokensFor returns the closing token for each element of an open
// bracket stack, innermost first, so appending them to a truncated document
// closes every still-open object/array.
func closingTokensFor(stack []rune) string {
	var b strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		switch stack[i] {
		case '{':
			b.WriteByte('}')
		case '[':
			b.WriteByte(']')
		}
	}
	return b.String()
}

// suffixCandidates are short closing-token completions tried when the
// bracket-stack guess alone does not parse, covering truncation mid-string
// or mid-key where the stack scan can't tell what was still open.
var suffixCandidates = []string{"\"}", "\"}]}", "]", "}", "]}", "}]}", "}]}]}"}

// valid reports whether s parses under both gjson's validator and a strict
// standards-compliant parser. gjson.Valid alone tolerates a few inputs
// (unusual number formats among them) that a downstream encoding/json
// Unmarshal would reject, so every candidate is cross-checked with fastjson
// before Repair hands it back to a caller.
func valid(s string) bool {
	if !gjson.Valid(s) {
		return false
	}
	var p fastjson.Parser
	_, err := p.Parse(s)
	return err == nil
}

// Repair runs the seven-step protocol against raw and returns the first
// candidate that parses as valid JSON, or "" if every step fails. It never
// returns an error; callers treat "" as an empty extraction. The returned
// text is always compacted to a single line so downstream logging and
// diffing treat it consistently regardless of how the model formatted it.
func Repair(raw string) string {
	if raw == "" {
		return ""
	}

	candidate := stripFences(raw)
	if valid(candidate) {
		return compact(candidate)
	}

	sanitized := sanitize(candidate)
	if valid(sanitized) {
		return compact(sanitized)
	}

	scanned, stack, ok := balancedObjectScan(sanitized)
	if ok && valid(scanned) {
		return compact(scanned)
	}

	if ok {
		guess := scanned + closingTokensFor(stack)
		if valid(guess) {
			return compact(guess)
		}

		for _, suffix := range suffixCandidates {
			attempt := scanned + suffix
			if valid(attempt) {
				return compact(attempt)
			}
		}
	}

	if repaired, ok := repairWithLibrary(sanitized); ok {
		return compact(repaired)
	}

	return ""
}

// compact reformats already-valid JSON text to its minimal single-line
// form, undoing any indentation or stray whitespace the model emitted.
func compact(s string) string {
	return string(pretty.Ugly([]byte(s)))
}

// lenientJSON is the json-iterator configuration Repair's last step decodes
// with, and it is the "JSON-repair library" step 7 of the protocol refers
// to.
var lenientJSON = jsoniter.Config{
	UseNumber:              true,
	ObjectFieldMustBeSimpleString: false,
}.Froze()

// repairWithLibrary attempts to decode s with json-iterator and, on
// success, re-marshals the decoded value back into guaranteed-valid JSON
// text. It never panics; any decode error reports ok=false.
func repairWithLibrary(s string) (repaired string, ok bool) {
	var v interface{}
	if err := lenientJSON.UnmarshalFromString(s, &v); err != nil {
		return "", false
	}
	out, err := lenientJSON.MarshalToString(v)
	if err != nil {
		return "", false
	}
	return out, true
}
