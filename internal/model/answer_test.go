package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestAnswerUnmarshalString(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`"B"`), &a); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if a.Kind != AnswerSingle || a.Key != "B" {
		t.Errorf("got %+v, want single B", a)
	}
}

func TestAnswerUnmarshalArray(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`["C", "A"]`), &a); err != nil {
		t.Fatalf("unmarshal array: %v", err)
	}
	if a.Kind != AnswerMulti {
		t.Fatalf("got kind %v, want multi", a.Kind)
	}
	if !reflect.DeepEqual(a.Keys, []string{"C", "A"}) {
		t.Errorf("keys = %v, want submitted order preserved", a.Keys)
	}
}

func TestAnswerUnmarshalNull(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`null`), &a); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if a.Kind != AnswerNone || !a.IsEmpty() {
		t.Errorf("got %+v, want empty none", a)
	}
}

func TestAnswerUnmarshalRejectsObjects(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`{"key":"A"}`), &a); err == nil {
		t.Error("expected error for object payload")
	}
}

func TestAnswerMarshalRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Answer
		want string
	}{
		{"single", SingleAnswer("A"), `"A"`},
		{"multi", MultiAnswer("B", "D"), `["B","D"]`},
		{"none", Answer{}, `null`},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.in)
		if err != nil {
			t.Fatalf("%s: marshal: %v", tt.name, err)
		}
		if string(got) != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestAnswerKeySet(t *testing.T) {
	tests := []struct {
		name string
		in   Answer
		want []string
	}{
		{"single", SingleAnswer("C"), []string{"C"}},
		{"multi sorted", MultiAnswer("D", "A", "B"), []string{"A", "B", "D"}},
		{"multi deduped", MultiAnswer("A", "A", "C"), []string{"A", "C"}},
		{"multi drops empties", MultiAnswer("B", "", "A"), []string{"A", "B"}},
		{"empty single", SingleAnswer(""), nil},
		{"none", Answer{}, nil},
	}
	for _, tt := range tests {
		if got := tt.in.KeySet(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: KeySet() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAnswerString(t *testing.T) {
	if got := MultiAnswer("C", "A").String(); got != "A,C" {
		t.Errorf("multi String() = %q, want %q", got, "A,C")
	}
	if got := SingleAnswer(" B ").String(); got != "B" {
		t.Errorf("single String() = %q, want %q", got, "B")
	}
	if got := (Answer{}).String(); got != "" {
		t.Errorf("empty String() = %q, want empty", got)
	}
}
