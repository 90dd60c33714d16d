// Package structured turns free-form model output into validated Go values.
package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

// Strategy extracts a JSON candidate from raw model output.
type Strategy interface {
	Name() string
	Extract(raw string) (string, bool)
}

// Decoder tries each strategy in order until one yields JSON that decodes
// into the target and passes struct validation.
type Decoder struct {
	strategies []Strategy
	validate   *validator.Validate
}

func NewDecoder(strategies ...Strategy) *Decoder {
	if len(strategies) == 0 {
		strategies = []Strategy{DirectStrategy{}, FencedStrategy{}, BraceStrategy{}}
	}
	return &Decoder{
		strategies: strategies,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

var defaultDecoder = NewDecoder()

// Decode uses the default strategy chain: direct, fenced block, brace matching.
func Decode(raw string, out any) error {
	return defaultDecoder.Decode(raw, out)
}

func (d *Decoder) Decode(raw string, out any) error {
	if strings.TrimSpace(raw) == "" {
		return domain.WrapError(domain.ErrTemporary, "decode structured output", errors.New("blank response"))
	}

	var attempts []string
	for _, strategy := range d.strategies {
		candidate, ok := strategy.Extract(raw)
		if !ok {
			attempts = append(attempts, strategy.Name()+": no candidate")
			continue
		}
		if err := json.Unmarshal([]byte(candidate), out); err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", strategy.Name(), err))
			continue
		}
		if err := d.Validate(out); err != nil {
			return err
		}
		return nil
	}
	return domain.Validationf("decode structured output", "no strategy produced valid json (%s)", strings.Join(attempts, "; "))
}

// Validate enforces `validate` struct tags on v.
func (d *Decoder) Validate(v any) error {
	err := d.validate.Struct(v)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		// Non-struct targets (maps, slices) carry no tags.
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return domain.Validationf("validate structured output", "%s", strings.Join(parts, ", "))
	}
	return domain.WrapError(domain.ErrValidation, "validate structured output", err)
}

// DirectStrategy parses the trimmed output as-is.
type DirectStrategy struct{}

func (DirectStrategy) Name() string { return "direct" }

func (DirectStrategy) Extract(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !json.Valid([]byte(trimmed)) {
		return "", false
	}
	return trimmed, true
}

// FencedStrategy takes the body of the first ``` fenced block.
type FencedStrategy struct{}

func (FencedStrategy) Name() string { return "fenced" }

func (FencedStrategy) Extract(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return "", false
	}
	rest := raw[start+3:]
	// Skip an optional language tag on the opening line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || isLanguageTag(tag) {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	body := strings.TrimSpace(rest[:end])
	if body == "" {
		return "", false
	}
	return body, true
}

func isLanguageTag(tag string) bool {
	for _, r := range tag {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// BraceStrategy returns the first balanced top-level object or array,
// ignoring braces inside string literals.
type BraceStrategy struct{}

func (BraceStrategy) Name() string { return "brace" }

func (BraceStrategy) Extract(raw string) (string, bool) {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' && raw[i] != '[' {
			continue
		}
		if end, ok := matchBalanced(raw, i); ok {
			candidate := raw[i : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
	}
	return "", false
}

func matchBalanced(s string, start int) (int, bool) {
	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
