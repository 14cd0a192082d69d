package usecase

import (
	"context"

	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/lectio-dev/lectio/pkg/domain/types"
	"github.com/lectio-dev/lectio/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Regular retrieves once, generates once and never touches server-held sessions.
// A generation failure after successful retrieval yields a partial result, not an error.
func (uc *QueryUseCase) Regular(ctx context.Context, req *model.QueryRequest) (*model.Result, error) {
	if err := prepare(req); err != nil {
		return nil, err
	}
	if err := uc.requireSearch(); err != nil {
		return nil, err
	}
	if uc.generator == nil {
		return nil, withKind(goerr.New("answer generator is not configured"), ErrConfiguration)
	}

	logger := logging.From(ctx)

	records, err := uc.search(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &model.Result{
		Mode:      types.PipelineModeRegular,
		Records:   records,
		SessionID: req.SessionID,
	}

	if len(records) == 0 {
		logger.Info("no passages found, skipping generation", "query", req.Query)
		result.Status = model.ResultSuccess
		result.Answer = uc.prompts.NoSources
		result.History = appendHistory(req.ConversationHistory, req.Query, result.Answer)
		return result, nil
	}

	prompt, err := buildRegularPrompt(uc.prompts.RegularSystem, req.Query, records, req.ConversationHistory)
	if err != nil {
		return nil, err
	}

	answer, err := uc.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("generation failed, falling back to search results",
			"query", req.Query,
			"records", len(records),
			"error", err.Error(),
		)
		result.Status = model.ResultPartial
		result.Reason = withKind(err, ErrGenerationFailed)
		result.History = req.ConversationHistory
		return result, nil
	}

	result.Status = model.ResultSuccess
	result.Answer = answer
	result.History = appendHistory(req.ConversationHistory, req.Query, answer)
	return result, nil
}

func appendHistory(history []model.Turn, query, answer string) []model.Turn {
	out := make([]model.Turn, 0, len(history)+2)
	out = append(out, history...)
	return append(out, model.NewExchange(query, answer)...)
}
