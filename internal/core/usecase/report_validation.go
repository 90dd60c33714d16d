package usecase

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

var (
	citationMarker    = regexp.MustCompile(`\[(\d+)\]`)
	sentenceSplit     = regexp.MustCompile(`[.!?]+`)
	boilerplatePrefix = regexp.MustCompile(`(?i)^\s*(?:(?:here is|here's|below is)[^\n:]*:|(?:evidence summary|counter[- ]evidence report|summary|report)\s*:)\s*`)
)

const codeFence = "```"

// reportCheck is the outcome of validating generated report text.
type reportCheck struct {
	Text     string
	Warnings []string
}

// validateReport cleans generated text and applies the ordered report checks.
// Citation and diversity findings are warnings; everything else fails.
func validateReport(raw string, cfg domain.ReportConfig, numCitations int) (reportCheck, error) {
	const op = "validate report"
	check := reportCheck{Text: stripReportBoilerplate(raw)}

	if n := utf8.RuneCountInString(check.Text); n < cfg.MinLength {
		return check, domain.Validationf(op, "report has %d characters, minimum is %d", n, cfg.MinLength)
	}

	check.Warnings = append(check.Warnings, citationWarnings(check.Text, numCitations)...)

	if !strings.ContainsAny(check.Text, ".!?") {
		return check, domain.Validationf(op, "report has no sentence-ending punctuation")
	}
	if !hasSentenceOfLength(check.Text, cfg.MinSentenceLength) {
		return check, domain.Validationf(op, "report has no sentence of at least %d characters", cfg.MinSentenceLength)
	}
	if ratio, words := lexicalDiversity(check.Text); words >= cfg.DiversityMinWords && ratio < cfg.LexicalDiversityThreshold {
		check.Warnings = append(check.Warnings, fmt.Sprintf("low lexical diversity %.2f over %d words", ratio, words))
	}

	if line, ok := unclosedFence(check.Text); ok {
		return check, domain.Validationf(op, "unclosed code fence opened on line %d", line)
	}
	return check, nil
}

// stripReportBoilerplate removes a wrapping code fence and known lead-in phrases.
func stripReportBoilerplate(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, codeFence) && strings.HasSuffix(text, codeFence) && len(text) > 2*len(codeFence) {
		inner := text[len(codeFence) : len(text)-len(codeFence)]
		if nl := strings.IndexByte(inner, '\n'); nl >= 0 && isFenceTag(inner[:nl]) {
			inner = inner[nl+1:]
		}
		text = strings.TrimSpace(inner)
	}
	for {
		stripped := strings.TrimSpace(boilerplatePrefix.ReplaceAllString(text, ""))
		if stripped == text {
			return text
		}
		text = stripped
	}
}

func isFenceTag(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "markdown" || s == "md" || s == "text"
}

func citationWarnings(text string, numCitations int) []string {
	matches := citationMarker.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return []string{"no inline citation markers"}
	}

	var (
		warnings []string
		seen     []int
	)
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !slices.Contains(seen, n) {
			seen = append(seen, n)
		}
		if n < 1 || n > numCitations {
			warnings = append(warnings, fmt.Sprintf("citation [%d] outside 1..%d", n, numCitations))
		}
	}
	slices.Sort(seen)
	for i, n := range seen {
		if n != i+1 {
			warnings = append(warnings, fmt.Sprintf("citation numbers not sequential from 1: %v", seen))
			break
		}
	}
	return warnings
}

func hasSentenceOfLength(text string, minLen int) bool {
	for _, sentence := range sentenceSplit.Split(text, -1) {
		if utf8.RuneCountInString(strings.TrimSpace(sentence)) >= minLen {
			return true
		}
	}
	return false
}

// lexicalDiversity returns the unique/total word ratio and the word count.
func lexicalDiversity(text string) (float64, int) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return 0, 0
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	return float64(len(unique)) / float64(len(words)), len(words)
}

// unclosedFence reports the line of a code fence that is never closed.
func unclosedFence(text string) (int, bool) {
	open := 0
	for i, line := range strings.Split(text, "\n") {
		count := strings.Count(line, codeFence)
		for range count {
			if open == 0 {
				open = i + 1
			} else {
				open = 0
			}
		}
	}
	return open, open != 0
}
