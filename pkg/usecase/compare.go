package usecase

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/lectio-dev/lectio/pkg/domain/types"
	"github.com/lectio-dev/lectio/pkg/utils/logging"
)

// ProcessingInfo describes how a comparison run went
type ProcessingInfo struct {
	Mode                  types.PipelineMode  `json:"mode"`
	TopK                  int                 `json:"top_k"`
	RequestedFields       []types.ReturnField `json:"requested_fields"`
	ProcessingTimeSeconds float64             `json:"processing_time_seconds"`
	ResultsReturned       int                 `json:"results_returned"`
	SourcesFound          int                 `json:"sources_found"`
	SessionCleaned        *bool               `json:"session_cleaned,omitempty"`
	AgentError            string              `json:"agent_error,omitempty"`
	RAGError              string              `json:"rag_error,omitempty"`
	FallbackToSearch      bool                `json:"fallback_to_search,omitempty"`
}

// Comparison is the normalized outcome of either pipeline
type Comparison struct {
	Query          string            `json:"query"`
	AgenticMode    bool              `json:"agentic_mode"`
	Results        []ProjectedRecord `json:"results"`
	AIAnswer       *string           `json:"ai_answer"`
	ProcessingInfo ProcessingInfo    `json:"processing_info"`
}

// Compare runs one pipeline without any server-held state and reports timing and fallback details.
// Generation failures are reported inside the comparison; validation, configuration and
// retrieval failures are returned as errors.
func (uc *QueryUseCase) Compare(ctx context.Context, req *model.QueryRequest, agentic bool) (*Comparison, error) {
	start := time.Now()

	req.SessionID = ""
	req.ConversationHistory = nil
	if err := prepare(req); err != nil {
		return nil, err
	}

	mode := types.PipelineModeRegular
	run := uc.Regular
	if agentic {
		mode = types.PipelineModeAgentic
		run = uc.Agentic
	}

	info := ProcessingInfo{
		Mode:            mode,
		TopK:            req.TopK,
		RequestedFields: req.ReturnFields,
	}

	result, err := run(ctx, req)
	if err != nil {
		if !errors.Is(err, ErrGenerationFailed) {
			return nil, err
		}
		// The agent failed before it retrieved anything
		result = &model.Result{Status: model.ResultPartial, Mode: mode, Reason: err}
	}

	var answer *string
	if result.HasAnswer() {
		answer = &result.Answer
	} else {
		info.FallbackToSearch = true
		if agentic {
			info.AgentError = result.Reason.Error()
		} else {
			info.RAGError = result.Reason.Error()
		}
		logging.From(ctx).Warn("comparison fell back to search results",
			"mode", mode,
			"error", result.Reason.Error(),
		)
	}

	results := Project(result.Records, answer, req.ReturnFields, req.TopK)

	info.SessionCleaned = result.SessionCleaned
	info.SourcesFound = len(result.Records)
	info.ResultsReturned = len(results)
	info.ProcessingTimeSeconds = math.Round(time.Since(start).Seconds()*1000) / 1000

	return &Comparison{
		Query:          req.Query,
		AgenticMode:    agentic,
		Results:        results,
		AIAnswer:       answer,
		ProcessingInfo: info,
	}, nil
}
