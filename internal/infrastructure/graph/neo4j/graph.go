// Package neo4j records which literature was cited against which claim, so
// evidence can be traversed across checks.
package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

const recordCheckCypher = `
MERGE (c:PaperCheck {id: $check_id})
SET c.source_ref = $source_ref,
    c.title = $title,
    c.job_id = $job_id,
    c.assessment = $assessment,
    c.completed_at = $completed_at
WITH c
UNWIND $statements AS s
MERGE (st:Statement {check_id: $check_id, order: s.order})
SET st.text = s.text,
    st.type = s.type,
    st.counter_claim = s.counter_claim,
    st.verdict = s.verdict,
    st.confidence = s.confidence
MERGE (c)-[:ASSERTS]->(st)
WITH st, s
UNWIND s.citations AS cit
MERGE (d:Document {id: cit.doc_id})
SET d.title = cit.title,
    d.pmid = cit.pmid,
    d.doi = cit.doi,
    d.year = cit.year
MERGE (d)-[r:CITED_AGAINST]->(st)
SET r.passage = cit.passage,
    r.score = cit.score,
    r.citation_order = cit.citation_order
`

type runFunc func(ctx context.Context, cypher string, params map[string]any) error

type EvidenceGraph struct {
	driver   neo4j.DriverWithContext
	run      runFunc
	database string
}

func New(ctx context.Context, uri, user, password, database string) (*EvidenceGraph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, domain.WrapError(domain.ErrResourceUnavailable, "neo4j connect", err)
	}
	g := &EvidenceGraph{driver: driver, database: database}
	g.run = g.execute
	return g, nil
}

func (g *EvidenceGraph) execute(ctx context.Context, cypher string, params map[string]any) error {
	opts := []neo4j.ExecuteQueryConfigurationOption{}
	if g.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(g.database))
	}
	_, err := neo4j.ExecuteQuery(ctx, g.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	return err
}

// RecordCheck merges the check, its statements and every cited document.
func (g *EvidenceGraph) RecordCheck(ctx context.Context, result *domain.PaperCheckResult) error {
	if result == nil || result.Metadata.CheckID == "" {
		return domain.InvalidInputf("record check graph", "result has no check id")
	}
	if err := g.run(ctx, recordCheckCypher, checkParams(result)); err != nil {
		return fmt.Errorf("record check graph: %w", err)
	}
	return nil
}

func (g *EvidenceGraph) Ping(ctx context.Context) error {
	if g.driver == nil {
		return nil
	}
	if err := g.driver.VerifyConnectivity(ctx); err != nil {
		return domain.WrapError(domain.ErrResourceUnavailable, "neo4j ping", err)
	}
	return nil
}

func (g *EvidenceGraph) Close(ctx context.Context) error {
	if g.driver == nil {
		return nil
	}
	return g.driver.Close(ctx)
}

func checkParams(result *domain.PaperCheckResult) map[string]any {
	statements := make([]any, 0, len(result.Statements))
	for i, stmt := range result.Statements {
		entry := map[string]any{
			"order":         stmt.Order,
			"text":          stmt.Text,
			"type":          string(stmt.Type),
			"counter_claim": "",
			"verdict":       "",
			"confidence":    "",
			"citations":     []any{},
		}
		if i < len(result.CounterStatements) {
			entry["counter_claim"] = result.CounterStatements[i].NegatedText
		}
		if i < len(result.Verdicts) {
			entry["verdict"] = string(result.Verdicts[i].Verdict)
			entry["confidence"] = string(result.Verdicts[i].Confidence)
		}
		if i < len(result.CounterReports) {
			citations := make([]any, 0, len(result.CounterReports[i].Citations))
			for _, c := range result.CounterReports[i].Citations {
				citations = append(citations, map[string]any{
					"doc_id":         c.DocID,
					"title":          c.Metadata.Title,
					"pmid":           c.Metadata.PMID,
					"doi":            c.Metadata.DOI,
					"year":           c.Metadata.PublicationYear,
					"passage":        c.Passage,
					"score":          c.RelevanceScore,
					"citation_order": c.Order,
				})
			}
			entry["citations"] = citations
		}
		statements = append(statements, entry)
	}

	completedAt := result.Metadata.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	return map[string]any{
		"check_id":     result.Metadata.CheckID,
		"job_id":       result.Metadata.JobID,
		"source_ref":   result.SourceMetadata.Ref(),
		"title":        result.SourceMetadata.Title,
		"assessment":   result.OverallAssessment,
		"completed_at": completedAt,
		"statements":   statements,
	}
}
