package domain

import (
	"fmt"
	"strings"
	"time"
)

// Document is a literature record as returned by the document store.
// Optional bibliographic fields are nil when the source did not provide them.
type Document struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Abstract        string     `json:"abstract"`
	Authors         []string   `json:"authors,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	Journal         *string    `json:"journal,omitempty"`
	PMID            *string    `json:"pmid,omitempty"`
	DOI             *string    `json:"doi,omitempty"`
	Source          string     `json:"source"`
}

// Validate checks the fields required for a record to enter the pipeline.
func (d Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return InvalidInputf("validate document", "empty id")
	}
	if strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Abstract) == "" {
		return InvalidInputf("validate document", "document %s has neither title nor abstract", d.ID)
	}
	return nil
}

// Year returns the publication year or 0 when unknown.
func (d Document) Year() int {
	if d.PublicationDate == nil {
		return 0
	}
	return d.PublicationDate.Year()
}

// FormatCitation renders "Authors (Year). Title. Journal. PMID: x. DOI: y".
func (d Document) FormatCitation() string {
	var b strings.Builder
	b.WriteString(formatAuthors(d.Authors))
	if year := d.Year(); year > 0 {
		fmt.Fprintf(&b, " (%d)", year)
	}
	b.WriteString(". ")
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = "Untitled"
	}
	b.WriteString(strings.TrimRight(title, "."))
	b.WriteString(".")
	if j := Deref(d.Journal); j != "" {
		b.WriteString(" ")
		b.WriteString(j)
		b.WriteString(".")
	}
	if pmid := Deref(d.PMID); pmid != "" {
		b.WriteString(" PMID: ")
		b.WriteString(pmid)
		b.WriteString(".")
	}
	if doi := Deref(d.DOI); doi != "" {
		b.WriteString(" DOI: ")
		b.WriteString(doi)
		b.WriteString(".")
	}
	return b.String()
}

func formatAuthors(authors []string) string {
	clean := make([]string, 0, len(authors))
	for _, a := range authors {
		if a = strings.TrimSpace(a); a != "" {
			clean = append(clean, a)
		}
	}
	switch len(clean) {
	case 0:
		return "Unknown authors"
	case 1:
		return clean[0]
	case 2:
		return clean[0] + " and " + clean[1]
	default:
		return clean[0] + " et al."
	}
}

// Ptr returns a pointer to s, or nil for blank strings.
func Ptr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
