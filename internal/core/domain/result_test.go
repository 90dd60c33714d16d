package domain

import (
	"strings"
	"testing"
	"time"
)

func sampleResult() *PaperCheckResult {
	published := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	doc := Document{
		ID:              "doc-1",
		Title:           "Statins and mortality",
		Abstract:        "Statins did not reduce mortality in elderly patients.",
		Authors:         []string{"Smith J", "Doe A", "Roe B"},
		PublicationDate: &published,
		Journal:         Ptr("Lancet"),
		PMID:            Ptr("123"),
		Source:          "pubmed",
	}
	scored, _ := NewScoredDocument(doc, RelevanceAssessment{Score: 5, Reasoning: "direct"}, 3, []SearchStrategy{StrategySemantic})
	stmt := Statement{Text: "Statins reduce mortality", Context: "ctx", Type: StatementFinding, Confidence: 0.9, Order: 1}
	return &PaperCheckResult{
		Abstract:   "abstract",
		Statements: []Statement{stmt},
		CounterStatements: []CounterStatement{{
			Original:      stmt,
			NegatedText:   "Statins do not reduce mortality",
			HyDEAbstracts: []string{"hypothetical"},
			Keywords:      []string{"statins"},
		}},
		SearchResults:   []SearchResults{MergeSearchResults([]string{"doc-1"}, nil, nil)},
		ScoredDocuments: [][]ScoredDocument{{scored}},
		CounterReports: []CounterReport{{
			Summary:      "Evidence [1] suggests otherwise.",
			NumCitations: 1,
			Citations:    []ExtractedCitation{NewExtractedCitation(scored, "did not reduce mortality", 1)},
		}},
		Verdicts:          []Verdict{{Verdict: VerdictContradicts, Confidence: ConfidenceHigh, Rationale: "strong counter evidence", StatementOrder: 1, NumCitations: 1}},
		OverallAssessment: "overall",
	}
}

func TestPaperCheckResultJSONRoundTrip(t *testing.T) {
	original := sampleResult()
	data, err := original.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	decoded, err := DecodePaperCheckResult(data)
	if err != nil {
		t.Fatalf("DecodePaperCheckResult() error = %v", err)
	}
	if len(decoded.Statements) != len(original.Statements) {
		t.Fatalf("statement count mismatch")
	}
	if decoded.TotalCitations() != original.TotalCitations() {
		t.Fatalf("citation count mismatch: %d vs %d", decoded.TotalCitations(), original.TotalCitations())
	}
	if decoded.Verdicts[0].Verdict != VerdictContradicts || decoded.Verdicts[0].Confidence != ConfidenceHigh {
		t.Fatalf("verdict not preserved: %+v", decoded.Verdicts[0])
	}
	if decoded.CounterReports[0].Citations[0].Metadata.Journal != "Lancet" {
		t.Fatalf("citation metadata not preserved: %+v", decoded.CounterReports[0].Citations[0].Metadata)
	}
	if decoded.ScoredDocuments[0][0].Document.PublicationDate.Year() != 2021 {
		t.Fatalf("publication date not preserved")
	}
}

func TestPaperCheckResultValidateParallelLengths(t *testing.T) {
	r := sampleResult()
	r.Verdicts = nil
	if err := r.Validate(); !IsKind(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerdictReferencesItsReport(t *testing.T) {
	r := sampleResult()
	report, ok := r.ReportFor(r.Verdicts[0])
	if !ok || report.Summary != r.CounterReports[0].Summary {
		t.Fatalf("ReportFor() = %+v, %v", report, ok)
	}
	if _, ok := r.ReportFor(Verdict{StatementOrder: 9}); ok {
		t.Fatalf("unknown statement order must not resolve")
	}

	r.Verdicts[0].StatementOrder = 2
	if err := r.Validate(); !IsKind(err, ErrValidation) {
		t.Fatalf("expected validation error for dangling statement order, got %v", err)
	}
	r = sampleResult()
	r.Verdicts[0].NumCitations = 4
	if err := r.Validate(); !IsKind(err, ErrValidation) {
		t.Fatalf("expected validation error for citation count mismatch, got %v", err)
	}
}

func TestVerdictCountsIncludeAllLabels(t *testing.T) {
	counts := sampleResult().VerdictCounts()
	if counts[VerdictContradicts] != 1 || counts[VerdictSupports] != 0 || counts[VerdictUndecided] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestFormatCitation(t *testing.T) {
	got := sampleResult().ScoredDocuments[0][0].Document.FormatCitation()
	for _, want := range []string{"Smith J et al.", "(2021)", "Statins and mortality.", "Lancet.", "PMID: 123."} {
		if !strings.Contains(got, want) {
			t.Fatalf("citation %q missing %q", got, want)
		}
	}
}

func TestNewScoredDocumentRejectsOutOfRangeScore(t *testing.T) {
	for _, score := range []int{0, 6, -1} {
		_, err := NewScoredDocument(Document{ID: "d"}, RelevanceAssessment{Score: score}, 3, nil)
		if !IsKind(err, ErrValidation) {
			t.Fatalf("score %d: expected validation error, got %v", score, err)
		}
	}
	sd, err := NewScoredDocument(Document{ID: "d"}, RelevanceAssessment{Score: 3}, 3, nil)
	if err != nil || !sd.SupportsCounter {
		t.Fatalf("score at threshold should support counter: %+v %v", sd, err)
	}
}

func TestParseStatementTypeSynonyms(t *testing.T) {
	cases := map[string]StatementType{
		"Result":         StatementFinding,
		" findings ":     StatementFinding,
		"Hypothesis":     StatementHypothesis,
		"conclusions.":   StatementConclusion,
		"Interpretation": StatementConclusion,
	}
	for raw, want := range cases {
		got, ok := ParseStatementType(raw)
		if !ok || got != want {
			t.Fatalf("ParseStatementType(%q) = %q, %v; want %q", raw, got, ok, want)
		}
	}
	if _, ok := ParseStatementType("methodology"); ok {
		t.Fatalf("expected methodology to be rejected")
	}
}

func TestStatementValidate(t *testing.T) {
	valid := Statement{Text: "x", Type: StatementFinding, Confidence: 1, Order: 1}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	bad := []Statement{
		{Text: "x", Type: StatementFinding, Confidence: 1.2, Order: 1},
		{Text: "x", Type: "method", Confidence: 0.5, Order: 1},
		{Text: "x", Type: StatementFinding, Confidence: 0.5, Order: 0},
		{Text: " ", Type: StatementFinding, Confidence: 0.5, Order: 1},
	}
	for _, s := range bad {
		if err := s.Validate(); !IsKind(err, ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", s, err)
		}
	}
}
