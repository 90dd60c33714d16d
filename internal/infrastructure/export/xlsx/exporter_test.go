package xlsx

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

func exportResult() *domain.PaperCheckResult {
	doc := domain.Document{ID: "d1", Title: "Trial", Abstract: "No effect."}
	scored, _ := domain.NewScoredDocument(doc, domain.RelevanceAssessment{Score: 4, Reasoning: "direct"}, 3, []domain.SearchStrategy{domain.StrategySemantic, domain.StrategyKeyword})
	stmt := domain.Statement{Text: "Drug X lowers BP", Type: domain.StatementFinding, Confidence: 0.8, Order: 1}
	return &domain.PaperCheckResult{
		Abstract:          "abstract",
		SourceMetadata:    domain.SourceMetadata{Title: "Paper", PMID: "7"},
		Statements:        []domain.Statement{stmt},
		CounterStatements: []domain.CounterStatement{{Original: stmt, NegatedText: "Drug X does not lower BP"}},
		ScoredDocuments:   [][]domain.ScoredDocument{{scored}},
		CounterReports: []domain.CounterReport{{
			Summary:      "One trial [1] found no effect.",
			NumCitations: 1,
			Citations:    []domain.ExtractedCitation{domain.NewExtractedCitation(scored, "No effect.", 1)},
		}},
		Verdicts:          []domain.Verdict{{Verdict: domain.VerdictContradicts, Confidence: domain.ConfidenceMedium, Rationale: "trial evidence", StatementOrder: 1, NumCitations: 1}},
		OverallAssessment: "contradicted",
		Metadata:          domain.ProcessingMetadata{CheckID: "c-1"},
	}
}

func TestExportWritesAllSheets(t *testing.T) {
	var buf bytes.Buffer
	if err := NewExporter().Export(&buf, exportResult()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 4 || sheets[0] != sheetSummary {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	verdict, _ := f.GetCellValue(sheetStatements, "E2")
	if verdict != "contradicts" {
		t.Fatalf("statement verdict cell = %q", verdict)
	}
	report, _ := f.GetCellValue(sheetStatements, "I2")
	if report != "One trial [1] found no effect." {
		t.Fatalf("statement report cell = %q", report)
	}
	passage, _ := f.GetCellValue(sheetCitations, "E2")
	if passage != "No effect." {
		t.Fatalf("citation passage cell = %q", passage)
	}
	foundBy, _ := f.GetCellValue(sheetDocuments, "F2")
	if foundBy != "semantic+keyword" {
		t.Fatalf("found by cell = %q", foundBy)
	}
	source, _ := f.GetCellValue(sheetSummary, "B4")
	if source != "pmid:7" {
		t.Fatalf("source cell = %q", source)
	}
}

func TestExportRejectsNil(t *testing.T) {
	if err := NewExporter().Export(&bytes.Buffer{}, nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
