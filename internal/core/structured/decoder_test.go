package structured

import (
	"testing"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

type verdictPayload struct {
	Verdict    string `json:"verdict" validate:"required,oneof=supports contradicts undecided"`
	Confidence string `json:"confidence" validate:"required,oneof=high medium low"`
	Rationale  string `json:"rationale" validate:"required"`
}

func TestDecodeStrategies(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"direct", `{"verdict":"supports","confidence":"high","rationale":"ok"}`},
		{"fenced json", "Here you go:\n```json\n{\"verdict\":\"supports\",\"confidence\":\"high\",\"rationale\":\"ok\"}\n```\nThanks"},
		{"fenced bare", "```\n{\"verdict\":\"supports\",\"confidence\":\"high\",\"rationale\":\"ok\"}\n```"},
		{"brace", `Sure! {"verdict":"supports","confidence":"high","rationale":"contains } brace"} trailing`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out verdictPayload
			if err := Decode(tc.raw, &out); err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if out.Verdict != "supports" || out.Confidence != "high" {
				t.Fatalf("unexpected payload: %+v", out)
			}
		})
	}
}

func TestDecodeRejectsEnumViolation(t *testing.T) {
	var out verdictPayload
	err := Decode(`{"verdict":"maybe","confidence":"high","rationale":"x"}`, &out)
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeUnparseableIsValidationError(t *testing.T) {
	var out verdictPayload
	err := Decode("I cannot answer that.", &out)
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeBlankIsTemporary(t *testing.T) {
	var out verdictPayload
	err := Decode("   \n", &out)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}

func TestBraceStrategyFindsArray(t *testing.T) {
	got, ok := BraceStrategy{}.Extract(`noise [ {"a": "[x]"}, {"b": 2} ] more`)
	if !ok {
		t.Fatalf("expected array candidate")
	}
	if got != `[ {"a": "[x]"}, {"b": 2} ]` {
		t.Fatalf("unexpected candidate %q", got)
	}
}

func TestBraceStrategySkipsUnbalanced(t *testing.T) {
	if _, ok := (BraceStrategy{}).Extract(`{"a": 1`); ok {
		t.Fatalf("expected no candidate for unbalanced input")
	}
}

func TestFencedStrategyWithoutFence(t *testing.T) {
	if _, ok := (FencedStrategy{}).Extract(`{"a":1}`); ok {
		t.Fatalf("expected no candidate without fences")
	}
}

func TestDecodeIntoMapSkipsStructValidation(t *testing.T) {
	var out map[string]any
	if err := Decode(`{"k": 1}`, &out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if out["k"].(float64) != 1 {
		t.Fatalf("unexpected map %v", out)
	}
}
