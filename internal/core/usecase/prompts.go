package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

const maxPromptAbstract = 6000

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func buildExtractionPrompt(abstract string, maxStatements int) string {
	return fmt.Sprintf(`You extract testable claims from medical research abstracts.
Return at most %d statements. Prefer specific, testable, preferably quantitative claims.
Skip background, methodology and study-design sentences.

Return strict JSON object:
{"statements":[{"text":"...","context":"...","statement_type":"hypothesis|finding|conclusion","confidence":0.0}]}
"context" is the sentence or clause the claim came from. "confidence" is from 0 to 1.
No markdown, no extra keys.

Abstract:
%s`, maxStatements, truncateRunes(abstract, maxPromptAbstract))
}

func buildNegationPrompt(stmt domain.Statement) string {
	return fmt.Sprintf(`Write the precise counter-claim of the statement below.
Rules:
- Comparative claims (X is better than Y) become "Y is equal to or better than X".
- Causal or effect claims (X reduces Y) become "X does not reduce Y or increases Y".
- Association claims (X is associated with Y) become "X is not associated with Y".
- Keep the population, intervention and outcome terms unchanged.
Return only the counter-claim as one sentence.

Statement (%s):
%s

Context:
%s`, stmt.Type, stmt.Text, stmt.Context)
}

func buildHyDEPrompt(stmt domain.Statement, negated string, numAbstracts, maxKeywords int) string {
	return fmt.Sprintf(`Write %d short hypothetical medical research abstracts whose findings would support the claim below.
Each abstract follows Background, Methods, Results, Conclusion structure in one paragraph.
Then list up to %d literature search keywords ordered by importance.

Return strict JSON object:
{"abstracts":["..."],"keywords":["..."]}
No markdown, no extra keys.

Claim:
%s

Original statement it contradicts:
%s`, numAbstracts, maxKeywords, negated, stmt.Text)
}

// buildScoringQuestion frames every relevance evaluation for one counter statement.
func buildScoringQuestion(counter domain.CounterStatement) string {
	return fmt.Sprintf(
		"Does this document provide evidence supporting the claim %q, or evidence contradicting the claim %q?",
		counter.NegatedText,
		counter.Original.Text,
	)
}

func buildReportPrompt(counter domain.CounterStatement, citations []domain.ExtractedCitation) string {
	var evidence strings.Builder
	for _, c := range citations {
		fmt.Fprintf(&evidence, "[%d] %s\nPassage: %s\n\n", c.Order, c.FullCitation, c.Passage)
	}

	return fmt.Sprintf(`Write a professional evidence summary of 200 to 300 words.
Use only the evidence listed below. Reference sources inline with their numbers, e.g. [1] or [2].
Do not invent sources. Plain prose paragraphs, no headings, no markdown.

Original claim:
%s

Counter-claim under investigation:
%s

Evidence:
%s`, counter.Original.Text, counter.NegatedText, evidence.String())
}

func buildVerdictPrompt(stmt domain.Statement, report domain.CounterReport) string {
	return fmt.Sprintf(`You judge a research claim against a search for counter-evidence.
Labels:
- "contradicts": the counter-evidence undermines the original claim.
- "supports": the search found nothing that undermines the claim, so it stands.
- "undecided": evidence is mixed, insufficient or tangential. Use this when no citations were found.

Return strict JSON object:
{"verdict":"supports|contradicts|undecided","confidence":"high|medium|low","rationale":"..."}
No markdown, no extra keys.

Original claim:
%s

Counter-evidence report (%d citations):
%s`, stmt.Text, report.NumCitations, report.Summary)
}
