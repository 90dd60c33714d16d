package usecase

import (
	"fmt"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

// GenerateOverallAssessment summarizes verdicts with fixed templates so the
// same verdict set always yields the same text.
func GenerateOverallAssessment(verdicts []domain.Verdict) string {
	total := len(verdicts)
	if total == 0 {
		return "No statements were assessed."
	}

	counts := map[domain.VerdictLabel]int{}
	levels := map[domain.VerdictLabel]map[domain.ConfidenceLevel]int{}
	for _, v := range verdicts {
		counts[v.Verdict]++
		if levels[v.Verdict] == nil {
			levels[v.Verdict] = map[domain.ConfidenceLevel]int{}
		}
		levels[v.Verdict][v.Confidence]++
	}
	supports := counts[domain.VerdictSupports]
	contradicts := counts[domain.VerdictContradicts]
	undecided := counts[domain.VerdictUndecided]

	switch {
	case supports == total:
		return fmt.Sprintf("%s supported%s: the counter-evidence search did not find literature that undermines %s.",
			allStatements(total), confidencePhrase(levels[domain.VerdictSupports]), pronoun(total))
	case contradicts == total:
		return fmt.Sprintf("%s contradicted%s: the literature contains counter-evidence that undermines %s.",
			allStatements(total), confidencePhrase(levels[domain.VerdictContradicts]), pronoun(total))
	case undecided == total:
		return fmt.Sprintf("%s undecided%s: the available evidence was mixed, insufficient or tangential.",
			allStatements(total), confidencePhrase(levels[domain.VerdictUndecided]))
	case contradicts*2 > total:
		return fmt.Sprintf("Most statements were contradicted (%d of %d%s); %d supported and %d undecided. The abstract's claims are substantially challenged by the literature.",
			contradicts, total, confidencePhrase(levels[domain.VerdictContradicts]), supports, undecided)
	case supports*2 > total:
		return fmt.Sprintf("Most statements were supported (%d of %d%s); %d contradicted and %d undecided. The abstract's claims largely withstand the counter-evidence search.",
			supports, total, confidencePhrase(levels[domain.VerdictSupports]), contradicts, undecided)
	default:
		return fmt.Sprintf("Evidence is mixed with no majority across %d statements: %d supported, %d contradicted, %d undecided.",
			total, supports, contradicts, undecided)
	}
}

func allStatements(n int) string {
	if n == 1 {
		return "The single statement was"
	}
	return fmt.Sprintf("All %d statements were", n)
}

func pronoun(n int) string {
	if n == 1 {
		return "it"
	}
	return "them"
}

// confidencePhrase names the confidence level when every verdict shares it.
func confidencePhrase(levels map[domain.ConfidenceLevel]int) string {
	if len(levels) != 1 {
		return " with mixed confidence"
	}
	for level := range levels {
		return fmt.Sprintf(" with %s confidence", level)
	}
	return ""
}
