package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/lectio-dev/lectio/pkg/domain/types"
	"github.com/lectio-dev/lectio/pkg/repository/memory"
	"github.com/lectio-dev/lectio/pkg/usecase"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
)

func TestAgentic_SessionMemory(t *testing.T) {
	repo := memory.New()
	search := &mockSearchClient{}
	uc := usecase.New(repo,
		usecase.WithSearchClient(search),
		usecase.WithLLMClient(agentLLM(searchStep("salvation"), textStep("Salvation is a gift."))),
	)
	ctx := context.Background()

	first, err := uc.Query.Agentic(ctx, &model.QueryRequest{Query: "What is salvation?", SessionID: "s1"})
	gt.NoError(t, err).Required()
	gt.Value(t, first.Status).Equal(model.ResultSuccess)
	gt.Value(t, first.Mode).Equal(types.PipelineModeAgentic)
	gt.Value(t, first.Answer).Equal("Salvation is a gift.")
	gt.Array(t, first.Records).Length(model.DefaultTopK)
	gt.Array(t, first.History).Length(2)
	gt.Value(t, first.SessionCleaned).Nil()

	second, err := uc.Query.Agentic(ctx, &model.QueryRequest{Query: "Tell me more", SessionID: "s1"})
	gt.NoError(t, err).Required()
	gt.Array(t, second.History).Length(4).Required()
	gt.Value(t, second.History[0].Content).Equal("What is salvation?")
	gt.Value(t, second.History[1].Content).Equal("Salvation is a gift.")
	gt.Value(t, second.History[2]).Equal(model.Turn{Role: types.RoleUser, Content: "Tell me more"})
	gt.Value(t, second.History[3].Role).Equal(types.RoleAssistant)

	summary, err := uc.Session.Summary(ctx, "s1")
	gt.NoError(t, err).Required()
	gt.Number(t, summary.MessageCount).Equal(4)
	gt.Value(t, summary.Status).Equal(types.SessionStatusActive)

	gt.NoError(t, uc.Session.Reset(ctx, "s1")).Required()
	summary, err = uc.Session.Summary(ctx, "s1")
	gt.NoError(t, err).Required()
	gt.Number(t, summary.MessageCount).Equal(0)
}

func TestAgentic_PriorTurnsReachTheModel(t *testing.T) {
	var secondInput []gollem.Input
	calls := 0
	llm := &mockLLMClient{newSession: func() gollem.Session {
		calls++
		if calls == 1 {
			return &scriptedSession{steps: []func(context.Context, []gollem.Input) (*gollem.Response, error){
				textStep("Hello Anna."),
			}}
		}
		return &scriptedSession{steps: []func(context.Context, []gollem.Input) (*gollem.Response, error){
			func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
				secondInput = input
				return &gollem.Response{Texts: []string{"Your name is Anna."}}, nil
			},
		}}
	}}

	uc := usecase.New(memory.New(), usecase.WithSearchClient(&mockSearchClient{}), usecase.WithLLMClient(llm))
	ctx := context.Background()

	_, err := uc.Query.Agentic(ctx, &model.QueryRequest{Query: "I am Anna", SessionID: "s1"})
	gt.NoError(t, err).Required()
	_, err = uc.Query.Agentic(ctx, &model.QueryRequest{Query: "What is my name?", SessionID: "s1"})
	gt.NoError(t, err).Required()

	gt.Array(t, secondInput).Length(1).Required()
	text, ok := secondInput[0].(gollem.Text)
	gt.Bool(t, ok).True()
	gt.String(t, string(text)).Contains("I am Anna")
	gt.String(t, string(text)).Contains("What is my name?")
}

func TestAgentic_MultipleToolCallsInOneStep(t *testing.T) {
	search := &mockSearchClient{
		searchFn: func(ctx context.Context, query string, topK int, filter model.SearchFilter) ([]*model.Record, error) {
			return []*model.Record{{RecordID: "rec-" + query, Text: query}}, nil
		},
	}

	var toolResponses []gollem.Input
	llm := agentLLM(
		searchStep("grace", "faith", "grace"),
		func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
			toolResponses = input
			return &gollem.Response{Texts: []string{"Grace and faith."}}, nil
		},
	)
	uc := usecase.New(memory.New(), usecase.WithSearchClient(search), usecase.WithLLMClient(llm))

	result, err := uc.Query.Agentic(context.Background(), &model.QueryRequest{Query: "grace and faith", SessionID: "s1"})
	gt.NoError(t, err).Required()

	gt.Number(t, search.callCount()).Equal(3)
	// Duplicated records are collected once
	gt.Array(t, result.Records).Length(2)

	gt.Array(t, toolResponses).Length(3).Required()
	for i, in := range toolResponses {
		fr, ok := in.(gollem.FunctionResponse)
		gt.Bool(t, ok).True()
		gt.Value(t, fr.ID).Equal([]string{"call-0", "call-1", "call-2"}[i])
		gt.Value(t, fr.Error).Nil()
	}
}

func TestAgentic_InvalidToolArgumentsGoBackToModel(t *testing.T) {
	var toolResponse gollem.FunctionResponse
	llm := agentLLM(
		func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
			return &gollem.Response{FunctionCalls: []*gollem.FunctionCall{
				{ID: "bad", Name: "search_ccel_database", Arguments: map[string]any{}},
			}}, nil
		},
		func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
			toolResponse, _ = input[0].(gollem.FunctionResponse)
			return &gollem.Response{Texts: []string{"Could you rephrase?"}}, nil
		},
	)
	uc := usecase.New(memory.New(), usecase.WithSearchClient(&mockSearchClient{}), usecase.WithLLMClient(llm))

	result, err := uc.Query.Agentic(context.Background(), &model.QueryRequest{Query: "hm", SessionID: "s1"})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Answer).Equal("Could you rephrase?")
	gt.Value(t, toolResponse.ID).Equal("bad")
	gt.Value(t, toolResponse.Error).NotNil()
}

func TestAgentic_ReasoningExhausted(t *testing.T) {
	repo := memory.New()
	llm := agentLLM(
		searchStep("a", "b"),
		searchStep("c", "d"),
		textStep("never reached"),
	)
	uc := usecase.New(repo,
		usecase.WithSearchClient(&mockSearchClient{}),
		usecase.WithLLMClient(llm),
		usecase.WithMaxToolCalls(3),
	)

	result, err := uc.Query.Agentic(context.Background(), &model.QueryRequest{Query: "loop", SessionID: "s1"})
	gt.NoError(t, err).Required()

	// Records from the first step survive as a fallback
	gt.Value(t, result.Status).Equal(model.ResultPartial)
	gt.Error(t, result.Reason).Is(usecase.ErrReasoningExhausted)
	gt.Error(t, result.Reason).Is(usecase.ErrGenerationFailed)
	gt.Array(t, result.Records).Length(model.DefaultTopK)

	s, err := repo.Session().Get(context.Background(), "s1")
	gt.NoError(t, err).Required()
	gt.Array(t, s.Turns).Length(0)
}

func TestAgentic_FailureLeavesSessionUnchanged(t *testing.T) {
	repo := memory.New()
	providerErr := errors.New("model overloaded")
	calls := 0
	llm := &mockLLMClient{newSession: func() gollem.Session {
		calls++
		if calls == 1 {
			return &scriptedSession{steps: []func(context.Context, []gollem.Input) (*gollem.Response, error){
				textStep("first answer"),
			}}
		}
		return &scriptedSession{steps: []func(context.Context, []gollem.Input) (*gollem.Response, error){
			searchStep("grace"),
			errorStep(providerErr),
		}}
	}}
	uc := usecase.New(repo, usecase.WithSearchClient(&mockSearchClient{}), usecase.WithLLMClient(llm))
	ctx := context.Background()

	_, err := uc.Query.Agentic(ctx, &model.QueryRequest{Query: "first", SessionID: "s1"})
	gt.NoError(t, err).Required()

	result, err := uc.Query.Agentic(ctx, &model.QueryRequest{Query: "second", SessionID: "s1"})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Status).Equal(model.ResultPartial)
	gt.Error(t, result.Reason).Is(providerErr)
	gt.Array(t, result.History).Length(2)

	s, err := repo.Session().Get(ctx, "s1")
	gt.NoError(t, err).Required()
	gt.Array(t, s.Turns).Length(2).Required()
	gt.Value(t, s.Turns[0].Content).Equal("first")
	gt.Value(t, s.Turns[1].Content).Equal("first answer")
}

func TestAgentic_FailureBeforeRetrievalIsAnError(t *testing.T) {
	repo := memory.New()
	providerErr := errors.New("model overloaded")
	uc := usecase.New(repo,
		usecase.WithSearchClient(&mockSearchClient{}),
		usecase.WithLLMClient(agentLLM(errorStep(providerErr))),
	)

	_, err := uc.Query.Agentic(context.Background(), &model.QueryRequest{Query: "q", SessionID: "s1"})
	gt.Error(t, err).Is(usecase.ErrGenerationFailed)
	gt.Error(t, err).Is(providerErr)

	s, err := repo.Session().Get(context.Background(), "s1")
	gt.NoError(t, err).Required()
	gt.Array(t, s.Turns).Length(0)
}

func TestAgentic_RetrievalFailure(t *testing.T) {
	backendErr := errors.New("search down")
	uc := usecase.New(memory.New(),
		usecase.WithSearchClient(&mockSearchClient{
			searchFn: func(ctx context.Context, query string, topK int, filter model.SearchFilter) ([]*model.Record, error) {
				return nil, backendErr
			},
		}),
		usecase.WithLLMClient(agentLLM(searchStep("grace"), textStep("unused"))),
	)

	_, err := uc.Query.Agentic(context.Background(), &model.QueryRequest{Query: "grace", SessionID: "s1"})
	gt.Error(t, err).Is(usecase.ErrRetrievalUnavailable)
	gt.Error(t, err).Is(backendErr)
}

func TestAgentic_EphemeralSessionIsRemoved(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo,
		usecase.WithSearchClient(&mockSearchClient{}),
		usecase.WithLLMClient(agentLLM(textStep("Hello."))),
	)
	ctx := context.Background()

	result, err := uc.Query.Agentic(ctx, &model.QueryRequest{Query: "Hi"})
	gt.NoError(t, err).Required()
	gt.Value(t, result.SessionID).Equal("")
	gt.Value(t, result.SessionCleaned).NotNil()
	gt.Bool(t, *result.SessionCleaned).True()

	sessions, err := repo.Session().List(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, sessions).Length(0)

	// Also on failure
	uc = usecase.New(repo,
		usecase.WithSearchClient(&mockSearchClient{}),
		usecase.WithLLMClient(agentLLM(errorStep(errors.New("boom")))),
	)
	_, err = uc.Query.Agentic(ctx, &model.QueryRequest{Query: "Hi"})
	gt.Value(t, err).NotNil()

	sessions, err = repo.Session().List(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, sessions).Length(0)
}

func TestAgentic_CanceledRequestDoesNotAppend(t *testing.T) {
	repo := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	llm := agentLLM(
		searchStep("grace"),
		func(_ context.Context, input []gollem.Input) (*gollem.Response, error) {
			cancel()
			return &gollem.Response{Texts: []string{"late answer"}}, nil
		},
	)
	uc := usecase.New(repo, usecase.WithSearchClient(&mockSearchClient{}), usecase.WithLLMClient(llm))

	result, err := uc.Query.Agentic(ctx, &model.QueryRequest{Query: "grace", SessionID: "s1"})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Status).Equal(model.ResultPartial)
	gt.Error(t, result.Reason).Is(context.Canceled)

	s, err := repo.Session().Get(context.Background(), "s1")
	gt.NoError(t, err).Required()
	gt.Array(t, s.Turns).Length(0)
}

func TestAgentic_SameSessionIsSerialized(t *testing.T) {
	repo := memory.New()

	var mu sync.Mutex
	active, maxActive := 0, 0
	llm := &mockLLMClient{newSession: func() gollem.Session {
		return &scriptedSession{steps: []func(context.Context, []gollem.Input) (*gollem.Response, error){
			func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return &gollem.Response{Texts: []string{"ok"}}, nil
			},
		}}
	}}
	uc := usecase.New(repo, usecase.WithSearchClient(&mockSearchClient{}), usecase.WithLLMClient(llm))

	const n = 5
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Query.Agentic(context.Background(), &model.QueryRequest{Query: "q", SessionID: "shared"})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	gt.Number(t, maxActive).Equal(1)
	s, err := repo.Session().Get(context.Background(), "shared")
	gt.NoError(t, err).Required()
	gt.Array(t, s.Turns).Length(n * 2)
	for i, turn := range s.Turns {
		if i%2 == 0 {
			gt.Value(t, turn.Role).Equal(types.RoleUser)
		} else {
			gt.Value(t, turn.Role).Equal(types.RoleAssistant)
		}
	}
}

func TestAgentic_ConfigurationError(t *testing.T) {
	_, err := usecase.New(memory.New(), usecase.WithSearchClient(&mockSearchClient{})).
		Query.Agentic(context.Background(), &model.QueryRequest{Query: "q", SessionID: "s1"})
	gt.Error(t, err).Is(usecase.ErrConfiguration)
}

func TestAgentic_SearchFailureAfterResultsFallsBack(t *testing.T) {
	backendErr := errors.New("search down")
	search := &mockSearchClient{
		searchFn: func(ctx context.Context, query string, topK int, filter model.SearchFilter) ([]*model.Record, error) {
			if query == "second" {
				return nil, backendErr
			}
			return sampleRecords(2), nil
		},
	}
	uc := usecase.New(memory.New(),
		usecase.WithSearchClient(search),
		usecase.WithLLMClient(agentLLM(searchStep("first"), searchStep("second"), textStep("unused"))),
	)

	result, err := uc.Query.Agentic(context.Background(), &model.QueryRequest{Query: "grace", SessionID: "s1"})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Status).Equal(model.ResultPartial)
	gt.Error(t, result.Reason).Is(usecase.ErrRetrievalUnavailable)
	gt.Error(t, result.Reason).Is(backendErr)
	gt.Array(t, result.Records).Length(2)
	gt.Number(t, search.callCount()).Equal(2)
}

func TestAgentic_StepTimeout(t *testing.T) {
	llm := agentLLM(func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	uc := usecase.New(memory.New(),
		usecase.WithSearchClient(&mockSearchClient{}),
		usecase.WithLLMClient(llm),
		usecase.WithStepTimeout(10*time.Millisecond),
	)

	_, err := uc.Query.Agentic(context.Background(), &model.QueryRequest{Query: "q", SessionID: "s1"})
	gt.Error(t, err).Is(usecase.ErrGenerationFailed)
	gt.Error(t, err).Is(context.DeadlineExceeded)
}
