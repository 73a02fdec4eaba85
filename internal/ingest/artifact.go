// Package ingest turns dictation artifacts into clipboard text: it debounces
// filesystem events, reads and decodes the artifact with bounded retries and
// routes the extracted text through keyphrase processing, cleaning and the
// clipboard guard.
package ingest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Artifact is the subset of the dictation tool's meta.json that carries text.
type Artifact struct {
	LLMResult *string `json:"llmResult,omitempty"`
	Result    *string `json:"result,omitempty"`
	RawResult *string `json:"rawResult,omitempty"`
}

// FieldPreference selects which artifact field supplies the text.
type FieldPreference int

const (
	PreferAuto FieldPreference = iota
	PreferLLM
	PreferRaw
	PreferIntermediate
)

func (p FieldPreference) String() string {
	switch p {
	case PreferLLM:
		return "llm"
	case PreferRaw:
		return "raw"
	case PreferIntermediate:
		return "intermediate"
	default:
		return "auto"
	}
}

// ParseFieldPreference maps a configuration value to a FieldPreference.
// Unknown values yield PreferAuto with ok set to false.
func ParseFieldPreference(s string) (pref FieldPreference, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return PreferAuto, true
	case "llm":
		return PreferLLM, true
	case "raw":
		return PreferRaw, true
	case "intermediate":
		return PreferIntermediate, true
	default:
		return PreferAuto, false
	}
}

// Select returns the text for pref and the name of the JSON field it came
// from. Auto takes the first non-empty of llmResult, result and rawResult.
func (a Artifact) Select(pref FieldPreference) (text, field string, err error) {
	switch pref {
	case PreferLLM:
		return pick(a.LLMResult, "llmResult")
	case PreferRaw:
		return pick(a.RawResult, "rawResult")
	case PreferIntermediate:
		return pick(a.Result, "result")
	}
	for _, f := range []struct {
		v    *string
		name string
	}{
		{a.LLMResult, "llmResult"},
		{a.Result, "result"},
		{a.RawResult, "rawResult"},
	} {
		if text, field, err := pick(f.v, f.name); err == nil {
			return text, field, nil
		}
	}
	return "", "", ErrNoText
}

func pick(v *string, name string) (string, string, error) {
	if v == nil || *v == "" {
		return "", "", fmt.Errorf("%s: %w", name, ErrNoText)
	}
	return *v, name, nil
}

// Extract decodes data and selects its text by pref.
func Extract(data []byte, pref FieldPreference) (text, field string, err error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return "", "", fmt.Errorf("decode artifact: %w", err)
	}
	return a.Select(pref)
}

// Describe summarises an unexpected document for the log: its top-level keys
// with truncated values, or a truncated copy of the input if it is not a JSON
// object.
func Describe(data []byte) (keys []string, sample map[string]string, invalid string) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, nil, truncate(string(data), 100)
	}
	sample = make(map[string]string, len(obj))
	for k, raw := range obj {
		keys = append(keys, k)
		var s string
		if json.Unmarshal(raw, &s) == nil {
			sample[k] = truncate(s, 30)
		} else {
			sample[k] = truncate(string(raw), 30)
		}
	}
	sort.Strings(keys)
	return keys, sample, ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
