package model

import (
	"strings"
)

const ccelBaseURL = "https://ccel.org/ccel/"

// Record is a passage returned by the search backend. Records are never modified after retrieval.
type Record struct {
	RecordID        string   `json:"record_id"`
	Text            string   `json:"text"`
	AuthorID        string   `json:"authorid"`
	WorkID          string   `json:"workid"`
	VersionID       string   `json:"versionid"`
	SectionID       string   `json:"sectionid"`
	DocID           int64    `json:"docid"`
	SimilarityScore float64  `json:"knn_distance"`
	References      []string `json:"refs"`
}

// Link returns the CCEL URL of the passage.
//
// Record IDs shaped like "ccel/a/augustine/confessions.xml:iv.ii-p3" map to the section page
// "https://ccel.org/ccel/augustine/confessions/confessions.iv.ii.html". Any other non-empty ID
// falls back to "https://ccel.org/ccel/<record_id>".
func (r *Record) Link() string {
	if r.RecordID == "" {
		return ""
	}
	if link, ok := sectionLink(r.RecordID); ok {
		return link
	}
	return ccelBaseURL + r.RecordID
}

func sectionLink(recordID string) (string, bool) {
	if !strings.HasPrefix(recordID, "ccel/") {
		return "", false
	}

	path, section, _ := strings.Cut(recordID, ":")
	components := strings.Split(path, "/")
	if len(components) < 4 {
		return "", false
	}

	author := components[2]
	work, _, _ := strings.Cut(components[3], ".")
	section, _, _ = strings.Cut(section, "-")
	if author == "" || work == "" {
		return "", false
	}

	return ccelBaseURL + author + "/" + work + "/" + work + "." + section + ".html", true
}

// CitationText returns "author, work" when both identifiers are known
func (r *Record) CitationText() string {
	if r.AuthorID == "" || r.WorkID == "" {
		return ""
	}
	return r.AuthorID + ", " + r.WorkID
}

// Source is the citation view of a record returned by the query endpoints
type Source struct {
	RecordID     string `json:"record_id"`
	Link         string `json:"link"`
	CitationText string `json:"citation_text"`
}

// NewSources converts records into sources, skipping records without an ID and
// dropping duplicate IDs while preserving the retrieval order.
func NewSources(records []*Record) []Source {
	sources := make([]Source, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.RecordID == "" {
			continue
		}
		if _, dup := seen[r.RecordID]; dup {
			continue
		}
		seen[r.RecordID] = struct{}{}
		sources = append(sources, Source{
			RecordID:     r.RecordID,
			Link:         r.Link(),
			CitationText: r.CitationText(),
		})
	}
	return sources
}
