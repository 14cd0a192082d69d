package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lectio-dev/lectio/pkg/agent/tool"
	"github.com/lectio-dev/lectio/pkg/agent/tool/search"
	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/lectio-dev/lectio/pkg/domain/types"
	"github.com/lectio-dev/lectio/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/strategy/simple"
)

// Agentic answers with a tool-using reasoning loop and keeps the conversation in the session store.
//
// With a session ID the session is created on first use and holds its lock for the whole run,
// so concurrent requests for one conversation are serialized. Without one an anonymous session
// is used and removed before returning. Turns are appended only after a complete answer.
func (uc *QueryUseCase) Agentic(ctx context.Context, req *model.QueryRequest) (result *model.Result, err error) {
	if err := prepare(req); err != nil {
		return nil, err
	}
	if err := uc.requireSearch(); err != nil {
		return nil, err
	}
	if uc.llmClient == nil {
		return nil, withKind(goerr.New("agent LLM is not configured"), ErrConfiguration)
	}

	sessionID := req.SessionID
	ephemeral := sessionID == ""
	if ephemeral {
		sessionID = "ephemeral-" + uuid.NewString()
	}

	logger := logging.From(ctx).With("session_id", sessionID)
	ctx = logging.With(ctx, logger)

	lock, err := uc.repo.Session().Lock(ctx, sessionID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open session")
	}
	defer func() {
		lock.Unlock()
		if !ephemeral {
			return
		}

		cleaned := true
		if delErr := uc.repo.Session().Delete(context.WithoutCancel(ctx), sessionID); delErr != nil {
			logger.Error("failed to clean up ephemeral session", "error", delErr.Error())
			cleaned = false
		}
		if result != nil {
			result.SessionCleaned = &cleaned
		}
	}()

	history := lock.Session().Turns
	searchTool := search.New(uc.searchClient, req.TopK, req.Filter)

	answer, err := uc.reason(ctx, req.Query, history, searchTool)
	if err == nil && ctx.Err() != nil {
		// The caller is gone; never record an exchange it did not receive
		err = goerr.Wrap(ctx.Err(), "request canceled before the answer was delivered")
	}

	if err != nil {
		if !searchTool.Searched() {
			return nil, err
		}
		logger.Warn("agent failed, falling back to search results",
			"query", req.Query,
			"records", len(searchTool.Records()),
			"error", err.Error(),
		)
		return &model.Result{
			Status:    model.ResultPartial,
			Mode:      types.PipelineModeAgentic,
			Records:   searchTool.Records(),
			Reason:    err,
			History:   history,
			SessionID: req.SessionID,
		}, nil
	}

	if err := lock.Append(model.NewExchange(req.Query, answer)...); err != nil {
		return nil, goerr.Wrap(err, "failed to save conversation turn")
	}

	return &model.Result{
		Status:    model.ResultSuccess,
		Mode:      types.PipelineModeAgentic,
		Records:   searchTool.Records(),
		Answer:    answer,
		History:   lock.Session().Turns,
		SessionID: req.SessionID,
	}, nil
}

// reason runs the gollem agent until the model answers without requesting tools.
// It fails with ErrReasoningExhausted once the model asks for more than maxToolCalls invocations.
func (uc *QueryUseCase) reason(ctx context.Context, query string, history []model.Turn, searchTool *search.Tool) (string, error) {
	systemPrompt, err := buildAgentSystemPrompt(uc.prompts.AgentSystem, uc.maxToolCalls)
	if err != nil {
		return "", withKind(err, ErrConfiguration)
	}
	userPrompt, err := buildAgentUserPrompt(query, history)
	if err != nil {
		return "", err
	}

	var client gollem.LLMClient = uc.llmClient
	if uc.stepTimeout > 0 {
		client = &stepTimeoutClient{LLMClient: client, timeout: uc.stepTimeout}
	}

	guard := &reasoningGuard{limit: uc.maxToolCalls}
	agent := gollem.New(client,
		gollem.WithSystemPrompt(systemPrompt),
		gollem.WithTools(searchTool),
		gollem.WithToolMiddleware(guard.middleware),
		gollem.WithStrategy(&guardedStrategy{Strategy: simple.New(), guard: guard}),
		// Every step but the final one invokes at least one tool
		gollem.WithLoopLimit(uc.maxToolCalls+2),
	)

	resp, err := agent.Execute(ctx, gollem.Text(userPrompt))
	if abort := guard.err(); abort != nil {
		return "", abort
	}
	if err != nil {
		if errors.Is(err, gollem.ErrLoopLimitExceeded) {
			return "", exhausted(err)
		}
		return "", withKind(goerr.Wrap(err, "failed to execute agent", goerr.V("tool_calls", guard.count())), ErrGenerationFailed)
	}

	var answer string
	if resp != nil {
		answer = strings.TrimSpace(strings.Join(resp.Texts, "\n"))
	}
	if answer == "" {
		return "", withKind(goerr.New("agent returned an empty answer"), ErrGenerationFailed)
	}
	logging.From(ctx).Info("agent answered", "tool_calls", guard.count())
	return answer, nil
}

// reasoningGuard bounds one agentic run. Its tool middleware counts invocations and records the
// first error that must end the run; guardedStrategy stops the loop before the next model call.
type reasoningGuard struct {
	limit int

	mu    sync.Mutex
	calls int
	abort error
}

func (g *reasoningGuard) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *reasoningGuard) err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.abort
}

func (g *reasoningGuard) stop(err error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abort == nil {
		g.abort = err
	}
	return g.abort
}

// middleware traces every tool call. Argument errors go back to the model; any other tool
// error, such as a search backend failure, ends the run.
func (g *reasoningGuard) middleware(next gollem.ToolHandler) gollem.ToolHandler {
	return func(ctx context.Context, req *gollem.ToolExecRequest) (*gollem.ToolExecResponse, error) {
		g.mu.Lock()
		g.calls++
		calls, abort := g.calls, g.abort
		g.mu.Unlock()

		if abort != nil {
			return &gollem.ToolExecResponse{Error: abort}, nil
		}
		if calls > g.limit {
			err := g.stop(exhausted(goerr.New("agent exceeded tool invocation limit",
				goerr.V("limit", g.limit),
				goerr.V("requested", calls),
			)))
			return &gollem.ToolExecResponse{Error: err}, nil
		}

		logger := logging.From(ctx)
		logger.Info("agent tool", "tool", req.Tool.Name, "args", req.Tool.Arguments)

		resp, err := next(ctx, req)
		if err != nil || resp == nil || resp.Error == nil {
			return resp, err
		}

		if errors.Is(resp.Error, tool.ErrInvalidArguments) || errors.Is(resp.Error, gollem.ErrToolArgsValidation) {
			logger.Warn("agent tool rejected arguments", "tool", req.Tool.Name, "error", resp.Error.Error())
			return resp, nil
		}
		g.stop(withKind(resp.Error, ErrRetrievalUnavailable))
		return resp, nil
	}
}

type guardedStrategy struct {
	gollem.Strategy
	guard *reasoningGuard
}

func (s *guardedStrategy) Handle(ctx context.Context, state *gollem.StrategyState) ([]gollem.Input, *gollem.ExecuteResponse, error) {
	if err := s.guard.err(); err != nil {
		return nil, nil, err
	}
	return s.Strategy.Handle(ctx, state)
}

// stepTimeoutClient bounds every model call of a session with its own deadline
type stepTimeoutClient struct {
	gollem.LLMClient
	timeout time.Duration
}

func (c *stepTimeoutClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	session, err := c.LLMClient.NewSession(ctx, options...)
	if err != nil {
		return nil, err
	}
	return &stepTimeoutSession{Session: session, timeout: c.timeout}, nil
}

type stepTimeoutSession struct {
	gollem.Session
	timeout time.Duration
}

func (s *stepTimeoutSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.Session.Generate(ctx, input, opts...)
}
