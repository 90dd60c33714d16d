// Package xlsx renders a paper check result as a spreadsheet workbook.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

const (
	sheetSummary    = "Summary"
	sheetStatements = "Statements"
	sheetCitations  = "Citations"
	sheetDocuments  = "Scored documents"
)

type Exporter struct{}

func NewExporter() *Exporter { return &Exporter{} }

func (Exporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e Exporter) Export(w io.Writer, result *domain.PaperCheckResult) error {
	if result == nil {
		return domain.InvalidInputf("export xlsx", "nil result")
	}
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetStatements, sheetCitations, sheetDocuments} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	if err := writeRows(f, sheetSummary, summaryRows(result)); err != nil {
		return err
	}
	if err := writeRows(f, sheetStatements, statementRows(result)); err != nil {
		return err
	}
	if err := writeRows(f, sheetCitations, citationRows(result)); err != nil {
		return err
	}
	if err := writeRows(f, sheetDocuments, documentRows(result)); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func summaryRows(r *domain.PaperCheckResult) [][]any {
	counts := r.VerdictCounts()
	return [][]any{
		{"Field", "Value"},
		{"Check ID", r.Metadata.CheckID},
		{"Title", r.SourceMetadata.Title},
		{"Source", r.SourceMetadata.Ref()},
		{"Model", r.Metadata.Model},
		{"Completed at", r.Metadata.CompletedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Duration (ms)", r.Metadata.DurationMS},
		{"Statements", len(r.Statements)},
		{"Supported", counts[domain.VerdictSupports]},
		{"Contradicted", counts[domain.VerdictContradicts]},
		{"Undecided", counts[domain.VerdictUndecided]},
		{"Citations", r.TotalCitations()},
		{"Overall assessment", r.OverallAssessment},
		{"Abstract", r.Abstract},
	}
}

func statementRows(r *domain.PaperCheckResult) [][]any {
	rows := [][]any{{"#", "Type", "Statement", "Counter-claim", "Verdict", "Confidence", "Rationale", "Citations", "Report"}}
	for i, s := range r.Statements {
		row := []any{s.Order, string(s.Type), s.Text, "", "", "", "", 0, ""}
		if i < len(r.CounterStatements) {
			row[3] = r.CounterStatements[i].NegatedText
		}
		if i < len(r.Verdicts) {
			v := r.Verdicts[i]
			row[4] = string(v.Verdict)
			row[5] = string(v.Confidence)
			row[6] = v.Rationale
			if report, ok := r.ReportFor(v); ok {
				row[7] = report.NumCitations
				row[8] = report.Summary
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func citationRows(r *domain.PaperCheckResult) [][]any {
	rows := [][]any{{"Statement", "Citation", "Document", "Score", "Passage", "Reference"}}
	for i, report := range r.CounterReports {
		for _, c := range report.Citations {
			rows = append(rows, []any{i + 1, c.Order, c.DocID, c.RelevanceScore, c.Passage, c.FullCitation})
		}
	}
	return rows
}

func documentRows(r *domain.PaperCheckResult) [][]any {
	rows := [][]any{{"Statement", "Document", "Title", "Score", "Supports counter", "Found by", "Explanation"}}
	for i, docs := range r.ScoredDocuments {
		for _, d := range docs {
			foundBy := make([]string, len(d.FoundBy))
			for j, s := range d.FoundBy {
				foundBy[j] = string(s)
			}
			rows = append(rows, []any{i + 1, d.DocID, d.Document.Title, d.Score, d.SupportsCounter, strings.Join(foundBy, "+"), d.Explanation})
		}
	}
	return rows
}
