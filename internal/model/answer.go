package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// AnswerKind tags the shape of a submitted answer.
type AnswerKind int

const (
	// AnswerNone is the zero value: no answer given.
	AnswerNone AnswerKind = iota
	// AnswerSingle is a single option key, e.g. "A".
	AnswerSingle
	// AnswerMulti is a set of option keys, e.g. {"A","C"}.
	AnswerMulti
)

// Answer is the tagged single-or-multi selection value. On the wire a
// single-choice answer is a JSON string and a multi-choice answer is a JSON
// array of strings; both are normalized (trimmed) on construction but
// otherwise stored exactly as submitted.
type Answer struct {
	Kind AnswerKind
	Key  string   // set when Kind == AnswerSingle
	Keys []string // set when Kind == AnswerMulti
}

// SingleAnswer builds a single-choice answer.
func SingleAnswer(key string) Answer {
	return Answer{Kind: AnswerSingle, Key: strings.TrimSpace(key)}
}

// MultiAnswer builds a multi-choice answer.
func MultiAnswer(keys ...string) Answer {
	trimmed := make([]string, 0, len(keys))
	for _, k := range keys {
		trimmed = append(trimmed, strings.TrimSpace(k))
	}
	return Answer{Kind: AnswerMulti, Keys: trimmed}
}

// IsEmpty reports whether the answer carries no selection.
func (a Answer) IsEmpty() bool {
	switch a.Kind {
	case AnswerSingle:
		return a.Key == ""
	case AnswerMulti:
		return len(a.Keys) == 0
	}
	return true
}

// KeySet returns the selected keys as a sorted, de-duplicated slice.
func (a Answer) KeySet() []string {
	var keys []string
	switch a.Kind {
	case AnswerSingle:
		if a.Key != "" {
			keys = []string{a.Key}
		}
	case AnswerMulti:
		seen := make(map[string]struct{}, len(a.Keys))
		for _, k := range a.Keys {
			if k == "" {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	return keys
}

// String renders the answer the way the wrong-question notebook stores it:
// "A" for single, "A,C" for multi, "" for none.
func (a Answer) String() string {
	return strings.Join(a.KeySet(), ",")
}

// MarshalJSON encodes AnswerSingle as a string, AnswerMulti as an array and
// AnswerNone as null.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerSingle:
		return json.Marshal(a.Key)
	case AnswerMulti:
		if a.Keys == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(a.Keys)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts the answer wire shapes: a string key
// for single-choice, an array of string keys for multi-choice, or null.
func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*a = Answer{}
		return nil
	}

	var key string
	if err := json.Unmarshal(data, &key); err == nil {
		*a = SingleAnswer(key)
		return nil
	}

	var keys []string
	if err := json.Unmarshal(data, &keys); err == nil {
		*a = MultiAnswer(keys...)
		return nil
	}

	return fmt.Errorf("answer must be a string or an array of strings")
}
