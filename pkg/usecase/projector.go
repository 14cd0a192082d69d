package usecase

import (
	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/lectio-dev/lectio/pkg/domain/types"
)

// ProjectedRecord holds exactly the fields a caller asked for
type ProjectedRecord map[string]any

type fieldExtractor func(r *model.Record, answer *string) any

var fieldExtractors = map[types.ReturnField]fieldExtractor{
	types.ReturnFieldRecordID:     func(r *model.Record, _ *string) any { return r.RecordID },
	types.ReturnFieldText:         func(r *model.Record, _ *string) any { return r.Text },
	types.ReturnFieldAuthorID:     func(r *model.Record, _ *string) any { return r.AuthorID },
	types.ReturnFieldWorkID:       func(r *model.Record, _ *string) any { return r.WorkID },
	types.ReturnFieldVersionID:    func(r *model.Record, _ *string) any { return r.VersionID },
	types.ReturnFieldSectionID:    func(r *model.Record, _ *string) any { return r.SectionID },
	types.ReturnFieldDocID:        func(r *model.Record, _ *string) any { return r.DocID },
	types.ReturnFieldKNNDistance:  func(r *model.Record, _ *string) any { return r.SimilarityScore },
	types.ReturnFieldRefs:         func(r *model.Record, _ *string) any { return nonNil(r.References) },
	types.ReturnFieldLink:         func(r *model.Record, _ *string) any { return r.Link() },
	types.ReturnFieldCitationText: func(r *model.Record, _ *string) any { return r.CitationText() },
	types.ReturnFieldAnswer: func(_ *model.Record, answer *string) any {
		// Same answer on every record; nil when generation failed
		if answer == nil {
			return nil
		}
		return *answer
	},
}

func nonNil(refs []string) []string {
	if refs == nil {
		return []string{}
	}
	return refs
}

// Project reduces records to the requested fields, keeping at most limit records.
// A limit of zero or less keeps every record. Fields must already be validated.
func Project(records []*model.Record, answer *string, fields []types.ReturnField, limit int) []ProjectedRecord {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	out := make([]ProjectedRecord, 0, len(records))
	for _, r := range records {
		item := make(ProjectedRecord, len(fields))
		for _, f := range fields {
			if extract, ok := fieldExtractors[f]; ok {
				item[f.String()] = extract(r, answer)
			}
		}
		out = append(out, item)
	}
	return out
}
