package neo4j

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

func graphResult() *domain.PaperCheckResult {
	doc := domain.Document{ID: "d1", Title: "Trial", Abstract: "No effect.", PMID: domain.Ptr("9")}
	scored, _ := domain.NewScoredDocument(doc, domain.RelevanceAssessment{Score: 5}, 3, nil)
	stmt := domain.Statement{Text: "Drug X lowers BP", Type: domain.StatementFinding, Confidence: 0.8, Order: 1}
	return &domain.PaperCheckResult{
		SourceMetadata:    domain.SourceMetadata{Title: "Paper", DOI: "10.1/x"},
		Statements:        []domain.Statement{stmt},
		CounterStatements: []domain.CounterStatement{{Original: stmt, NegatedText: "Drug X does not lower BP"}},
		CounterReports: []domain.CounterReport{{
			NumCitations: 1,
			Citations:    []domain.ExtractedCitation{domain.NewExtractedCitation(scored, "No effect.", 1)},
		}},
		Verdicts:          []domain.Verdict{{Verdict: domain.VerdictContradicts, Confidence: domain.ConfidenceHigh}},
		OverallAssessment: "contradicted",
		Metadata:          domain.ProcessingMetadata{CheckID: "c-1", JobID: "j-1"},
	}
}

func TestRecordCheckSendsStatementsAndCitations(t *testing.T) {
	var gotCypher string
	var gotParams map[string]any
	g := &EvidenceGraph{run: func(_ context.Context, cypher string, params map[string]any) error {
		gotCypher, gotParams = cypher, params
		return nil
	}}

	if err := g.RecordCheck(context.Background(), graphResult()); err != nil {
		t.Fatalf("RecordCheck() error = %v", err)
	}
	if !strings.Contains(gotCypher, "CITED_AGAINST") {
		t.Fatalf("unexpected cypher %s", gotCypher)
	}
	if gotParams["check_id"] != "c-1" || gotParams["source_ref"] != "doi:10.1/x" {
		t.Fatalf("unexpected params %v", gotParams)
	}
	statements := gotParams["statements"].([]any)
	stmt := statements[0].(map[string]any)
	if stmt["verdict"] != "contradicts" || stmt["counter_claim"] != "Drug X does not lower BP" {
		t.Fatalf("unexpected statement params %v", stmt)
	}
	citation := stmt["citations"].([]any)[0].(map[string]any)
	if citation["doc_id"] != "d1" || citation["pmid"] != "9" || citation["score"] != 5 {
		t.Fatalf("unexpected citation params %v", citation)
	}
}

func TestRecordCheckRequiresCheckID(t *testing.T) {
	g := &EvidenceGraph{run: func(context.Context, string, map[string]any) error { return nil }}
	r := graphResult()
	r.Metadata.CheckID = ""
	if err := g.RecordCheck(context.Background(), r); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRecordCheckWrapsDriverError(t *testing.T) {
	g := &EvidenceGraph{run: func(context.Context, string, map[string]any) error { return errors.New("session expired") }}
	err := g.RecordCheck(context.Background(), graphResult())
	if err == nil || !strings.Contains(err.Error(), "session expired") {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}
