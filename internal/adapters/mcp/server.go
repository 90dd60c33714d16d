// Package mcpadapter exposes paper checks as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
)

const (
	serverName    = "paper-checker"
	serverVersion = "1.0.0"
)

type Server struct {
	checker ports.PaperChecker
	reader  ports.PaperCheckReader
	timeout time.Duration
}

func NewServer(checker ports.PaperChecker, reader ports.PaperCheckReader, timeout time.Duration) *Server {
	return &Server{checker: checker, reader: reader, timeout: timeout}
}

// MCPServer builds the tool server. It is separate from ServeStdio so tests
// and other transports can reuse it.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool("check_abstract",
		mcp.WithDescription("Extract the claims of a biomedical abstract, search the literature for counter-evidence and return a verdict per claim."),
		mcp.WithString("abstract", mcp.Required(), mcp.Description("Abstract text to check.")),
		mcp.WithString("title", mcp.Description("Title of the source paper.")),
		mcp.WithString("source", mcp.Description("Identifier of the source, e.g. a PMID or DOI.")),
	), s.handleCheckAbstract)

	srv.AddTool(mcp.NewTool("get_paper_check",
		mcp.WithDescription("Fetch a stored paper check by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Check id returned by check_abstract.")),
	), s.handleGetPaperCheck)

	srv.AddTool(mcp.NewTool("test_connection",
		mcp.WithDescription("Report whether the generation backend, literature store and evaluators are reachable."),
	), s.handleTestConnection)

	return srv
}

func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.MCPServer())
}

func (s *Server) handleCheckAbstract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	abstract, err := req.RequireString("abstract")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	meta := sourceMetadata(req.GetString("title", ""), req.GetString("source", ""))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.checker.CheckAbstract(ctx, abstract, meta, domain.CheckCallbacks{})
	if err != nil {
		slog.Warn("mcp_check_failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(summarize(result))
}

func (s *Server) handleGetPaperCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.reader.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(summarize(result))
}

func (s *Server) handleTestConnection(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.checker.TestConnection(ctx))
}

// sourceMetadata recognizes PMID and DOI identifiers passed as the source.
func sourceMetadata(title, source string) domain.SourceMetadata {
	meta := domain.SourceMetadata{Title: strings.TrimSpace(title)}
	source = strings.TrimSpace(source)
	lower := strings.ToLower(source)
	switch {
	case strings.HasPrefix(lower, "pmid:"):
		meta.PMID = strings.TrimSpace(source[len("pmid:"):])
	case strings.HasPrefix(lower, "doi:"):
		meta.DOI = strings.TrimSpace(source[len("doi:"):])
	case strings.HasPrefix(source, "10."):
		meta.DOI = source
	default:
		meta.Source = source
	}
	return meta
}

type statementSummary struct {
	Order        int                    `json:"order"`
	Statement    string                 `json:"statement"`
	Verdict      domain.VerdictLabel    `json:"verdict"`
	Confidence   domain.ConfidenceLevel `json:"confidence"`
	Rationale    string                 `json:"rationale"`
	Citations    []string               `json:"citations,omitempty"`
	CounterClaim string                 `json:"counter_claim,omitempty"`
}

type checkSummary struct {
	CheckID           string                      `json:"check_id,omitempty"`
	SourceRef         string                      `json:"source_ref,omitempty"`
	OverallAssessment string                      `json:"overall_assessment"`
	VerdictCounts     map[domain.VerdictLabel]int `json:"verdict_counts"`
	Statements        []statementSummary          `json:"statements"`
}

func summarize(r *domain.PaperCheckResult) checkSummary {
	out := checkSummary{
		CheckID:           r.Metadata.CheckID,
		SourceRef:         r.SourceMetadata.Ref(),
		OverallAssessment: r.OverallAssessment,
		VerdictCounts:     r.VerdictCounts(),
		Statements:        make([]statementSummary, 0, len(r.Statements)),
	}
	for i, stmt := range r.Statements {
		row := statementSummary{Order: stmt.Order, Statement: stmt.Text}
		if i < len(r.Verdicts) {
			row.Verdict = r.Verdicts[i].Verdict
			row.Confidence = r.Verdicts[i].Confidence
			row.Rationale = r.Verdicts[i].Rationale
		}
		if i < len(r.CounterStatements) {
			row.CounterClaim = r.CounterStatements[i].NegatedText
		}
		if i < len(r.CounterReports) {
			for _, c := range r.CounterReports[i].Citations {
				row.Citations = append(row.Citations, c.FullCitation)
			}
		}
		out.Statements = append(out.Statements, row)
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
