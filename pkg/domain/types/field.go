package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// ReturnField is a record field a caller can request in projected results
type ReturnField string

const (
	ReturnFieldRecordID     ReturnField = "record_id"
	ReturnFieldText         ReturnField = "text"
	ReturnFieldAuthorID     ReturnField = "authorid"
	ReturnFieldWorkID       ReturnField = "workid"
	ReturnFieldVersionID    ReturnField = "versionid"
	ReturnFieldSectionID    ReturnField = "sectionid"
	ReturnFieldDocID        ReturnField = "docid"
	ReturnFieldKNNDistance  ReturnField = "knn_distance"
	ReturnFieldRefs         ReturnField = "refs"
	ReturnFieldLink         ReturnField = "link"
	ReturnFieldCitationText ReturnField = "citation_text"
	ReturnFieldAnswer       ReturnField = "answer"
)

// ErrUnsupportedReturnField is returned when a requested field name is not recognized
var ErrUnsupportedReturnField = goerr.New("unsupported return field")

var returnFieldDescriptions = map[ReturnField]string{
	ReturnFieldRecordID:     "Unique identifier for each result",
	ReturnFieldText:         "The actual content/paragraph text",
	ReturnFieldAuthorID:     "Author identifier",
	ReturnFieldWorkID:       "Work/book identifier",
	ReturnFieldVersionID:    "Version identifier",
	ReturnFieldSectionID:    "Section identifier",
	ReturnFieldDocID:        "Document ID",
	ReturnFieldKNNDistance:  "Semantic similarity score (lower is closer)",
	ReturnFieldRefs:         "References/citations",
	ReturnFieldLink:         "URL link to source",
	ReturnFieldCitationText: "Formatted citation",
	ReturnFieldAnswer:       "AI-generated response",
}

// DefaultReturnFields is used when a request does not name any field
func DefaultReturnFields() []ReturnField {
	return []ReturnField{ReturnFieldRecordID}
}

// AllReturnFields returns every recognized field in display order
func AllReturnFields() []ReturnField {
	return []ReturnField{
		ReturnFieldRecordID,
		ReturnFieldText,
		ReturnFieldAuthorID,
		ReturnFieldWorkID,
		ReturnFieldVersionID,
		ReturnFieldSectionID,
		ReturnFieldDocID,
		ReturnFieldKNNDistance,
		ReturnFieldRefs,
		ReturnFieldLink,
		ReturnFieldCitationText,
		ReturnFieldAnswer,
	}
}

// IsValid checks if the field is a recognized return field
func (f ReturnField) IsValid() bool {
	_, ok := returnFieldDescriptions[f]
	return ok
}

// Description returns a human readable description of the field
func (f ReturnField) Description() string {
	return returnFieldDescriptions[f]
}

// String returns the string representation of the field
func (f ReturnField) String() string {
	return string(f)
}

// ParseReturnFields converts raw field names into ReturnFields.
// Duplicates are dropped keeping the first occurrence; an empty input yields the default set.
// The first unrecognized name fails the whole set.
func ParseReturnFields(names []string) ([]ReturnField, error) {
	if len(names) == 0 {
		return DefaultReturnFields(), nil
	}

	fields := make([]ReturnField, 0, len(names))
	seen := make(map[ReturnField]struct{}, len(names))
	for _, name := range names {
		f := ReturnField(name)
		if !f.IsValid() {
			return nil, goerr.Wrap(ErrUnsupportedReturnField, "unsupported return field '"+name+"'",
				goerr.V("field", name))
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		fields = append(fields, f)
	}
	return fields, nil
}
