package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/interfaces"
	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/lectio-dev/lectio/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// SessionUseCase handles explicit session management outside the pipelines
type SessionUseCase struct {
	repo       interfaces.Repository
	idleWindow time.Duration
}

func NewSessionUseCase(repo interfaces.Repository, idleWindow time.Duration) *SessionUseCase {
	return &SessionUseCase{
		repo:       repo,
		idleWindow: idleWindow,
	}
}

func requireSessionID(sessionID string) (string, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return "", withKind(goerr.New("session ID is required"), ErrValidation)
	}
	return id, nil
}

// Reset clears the turns of an existing session
func (uc *SessionUseCase) Reset(ctx context.Context, sessionID string) error {
	id, err := requireSessionID(sessionID)
	if err != nil {
		return err
	}
	if err := uc.repo.Session().Reset(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to reset session", goerr.V("session_id", id))
	}
	logging.From(ctx).Info("session reset", "session_id", id)
	return nil
}

// Delete removes an existing session
func (uc *SessionUseCase) Delete(ctx context.Context, sessionID string) error {
	id, err := requireSessionID(sessionID)
	if err != nil {
		return err
	}
	if err := uc.repo.Session().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete session", goerr.V("session_id", id))
	}
	logging.From(ctx).Info("session deleted", "session_id", id)
	return nil
}

// Summary describes a single session
func (uc *SessionUseCase) Summary(ctx context.Context, sessionID string) (*model.SessionSummary, error) {
	id, err := requireSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	s, err := uc.repo.Session().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get session", goerr.V("session_id", id))
	}
	return s.Summary(time.Now().UTC(), uc.idleWindow), nil
}

// List describes every session held by the process
func (uc *SessionUseCase) List(ctx context.Context) ([]*model.SessionSummary, error) {
	sessions, err := uc.repo.Session().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sessions")
	}

	now := time.Now().UTC()
	summaries := make([]*model.SessionSummary, len(sessions))
	for i, s := range sessions {
		summaries[i] = s.Summary(now, uc.idleWindow)
	}
	return summaries, nil
}

// DeleteInactive removes sessions idle for longer than the idle window
func (uc *SessionUseCase) DeleteInactive(ctx context.Context) (int, error) {
	before := time.Now().UTC().Add(-uc.idleWindow)
	n, err := uc.repo.Session().DeleteInactive(ctx, before)
	if err != nil {
		return n, goerr.Wrap(err, "failed to delete inactive sessions")
	}
	return n, nil
}
