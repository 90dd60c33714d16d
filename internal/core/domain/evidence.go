package domain

import "strings"

const (
	MinRelevanceScore = 1
	MaxRelevanceScore = 5
)

// RelevanceAssessment is the scorer's verdict on a single document.
type RelevanceAssessment struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// ScoredDocument is a document that cleared the scoring threshold.
type ScoredDocument struct {
	DocID           string           `json:"doc_id"`
	Document        Document         `json:"document"`
	Score           int              `json:"score"`
	Explanation     string           `json:"explanation"`
	SupportsCounter bool             `json:"supports_counter"`
	FoundBy         []SearchStrategy `json:"found_by"`
}

// NewScoredDocument validates the score range and derives SupportsCounter.
func NewScoredDocument(doc Document, assessment RelevanceAssessment, threshold int, foundBy []SearchStrategy) (ScoredDocument, error) {
	sd := ScoredDocument{
		DocID:           doc.ID,
		Document:        doc,
		Score:           assessment.Score,
		Explanation:     strings.TrimSpace(assessment.Reasoning),
		SupportsCounter: assessment.Score >= threshold,
		FoundBy:         foundBy,
	}
	if err := sd.Validate(); err != nil {
		return ScoredDocument{}, err
	}
	return sd, nil
}

func (s ScoredDocument) Validate() error {
	if s.Score < MinRelevanceScore || s.Score > MaxRelevanceScore {
		return Validationf("validate scored document", "score %d outside [%d,%d] for %s", s.Score, MinRelevanceScore, MaxRelevanceScore, s.DocID)
	}
	if strings.TrimSpace(s.DocID) == "" {
		return Validationf("validate scored document", "empty document id")
	}
	for _, strategy := range s.FoundBy {
		if !strategy.Valid() {
			return Validationf("validate scored document", "unknown strategy %q", strategy)
		}
	}
	return nil
}

// CitationCandidate is a raw passage returned by the citation service.
type CitationCandidate struct {
	DocumentID string  `json:"document_id"`
	Passage    string  `json:"passage"`
	Relevance  float64 `json:"relevance,omitempty"`
}

// CitationMetadata is the bibliographic part of a citation.
type CitationMetadata struct {
	Title           string   `json:"title"`
	Authors         []string `json:"authors,omitempty"`
	Journal         string   `json:"journal,omitempty"`
	PublicationYear int      `json:"publication_year,omitempty"`
	PMID            string   `json:"pmid,omitempty"`
	DOI             string   `json:"doi,omitempty"`
	Source          string   `json:"source,omitempty"`
}

// ExtractedCitation is a verbatim passage bound to an eligible scored document.
type ExtractedCitation struct {
	DocID          string           `json:"doc_id"`
	Passage        string           `json:"passage"`
	RelevanceScore int              `json:"relevance_score"`
	FullCitation   string           `json:"full_citation"`
	Metadata       CitationMetadata `json:"metadata"`
	Order          int              `json:"citation_order"`
}

// NewExtractedCitation copies score and bibliography from the owning document.
func NewExtractedCitation(scored ScoredDocument, passage string, order int) ExtractedCitation {
	doc := scored.Document
	return ExtractedCitation{
		DocID:          scored.DocID,
		Passage:        strings.TrimSpace(passage),
		RelevanceScore: scored.Score,
		FullCitation:   doc.FormatCitation(),
		Metadata: CitationMetadata{
			Title:           doc.Title,
			Authors:         doc.Authors,
			Journal:         Deref(doc.Journal),
			PublicationYear: doc.Year(),
			PMID:            Deref(doc.PMID),
			DOI:             Deref(doc.DOI),
			Source:          doc.Source,
		},
		Order: order,
	}
}

func (c ExtractedCitation) Validate() error {
	if strings.TrimSpace(c.Passage) == "" {
		return Validationf("validate citation", "empty passage for %s", c.DocID)
	}
	if c.Order < 1 {
		return Validationf("validate citation", "citation order %d < 1", c.Order)
	}
	if c.RelevanceScore < MinRelevanceScore || c.RelevanceScore > MaxRelevanceScore {
		return Validationf("validate citation", "relevance score %d outside [1,5]", c.RelevanceScore)
	}
	return nil
}
