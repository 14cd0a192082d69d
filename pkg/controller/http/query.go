package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/lectio-dev/lectio/pkg/domain/types"
	"github.com/lectio-dev/lectio/pkg/utils/logging"
	"github.com/lectio-dev/lectio/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

type queryRequest struct {
	Query               string       `json:"query"`
	TopK                int          `json:"top_k"`
	ConversationHistory []model.Turn `json:"conversation_history"`
	SessionID           string       `json:"session_id"`
	Authors             []string     `json:"authors"`
	Works               []string     `json:"works"`
}

type queryResponse struct {
	Answer              *string        `json:"answer"`
	Sources             []model.Source `json:"sources"`
	ConversationHistory []model.Turn   `json:"conversation_history"`
	SessionID           string         `json:"session_id"`
	FallbackToSearch    bool           `json:"fallback_to_search,omitempty"`
	Error               string         `json:"error,omitempty"`
}

func (req *queryRequest) toModel() *model.QueryRequest {
	return &model.QueryRequest{
		Query:               req.Query,
		TopK:                req.TopK,
		Filter:              model.SearchFilter{Authors: req.Authors, Works: req.Works},
		SessionID:           req.SessionID,
		ConversationHistory: req.ConversationHistory,
	}
}

func newQueryResponse(result *model.Result) *queryResponse {
	resp := &queryResponse{
		Sources:             model.NewSources(result.Records),
		ConversationHistory: result.History,
		SessionID:           result.SessionID,
	}
	if resp.ConversationHistory == nil {
		resp.ConversationHistory = []model.Turn{}
	}

	if result.HasAnswer() {
		resp.Answer = &result.Answer
	} else {
		resp.FallbackToSearch = true
		if result.Reason != nil {
			resp.Error = result.Reason.Error()
		}
	}
	return resp
}

// queryHandler runs the regular pipeline with caller-held history
func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.uc.Query.Regular(r.Context(), req.toModel())
	if err != nil {
		handleError(w, r, err)
		return
	}
	safe.WriteJSON(r.Context(), w, http.StatusOK, newQueryResponse(result))
}

// queryAgentHandler runs the agentic pipeline with server-held session memory
func (s *Server) queryAgentHandler(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		req.SessionID = id
	}
	// History is held by the server for agent sessions
	req.ConversationHistory = nil

	result, err := s.uc.Query.Agentic(r.Context(), req.toModel())
	if err != nil {
		handleError(w, r, err)
		return
	}
	safe.WriteJSON(r.Context(), w, http.StatusOK, newQueryResponse(result))
}

type compareRequest struct {
	Query        string              `json:"query"`
	Agentic      bool                `json:"agentic"`
	TopK         int                 `json:"top_k"`
	ReturnFields []types.ReturnField `json:"return_fields"`
	Authors      []string            `json:"authors"`
	Works        []string            `json:"works"`
}

// compareHandler runs one pipeline without session state and returns projected records
func (s *Server) compareHandler(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	cmp, err := s.uc.Query.Compare(r.Context(), &model.QueryRequest{
		Query:        req.Query,
		TopK:         req.TopK,
		ReturnFields: req.ReturnFields,
		Filter:       model.SearchFilter{Authors: req.Authors, Works: req.Works},
	}, req.Agentic)
	if err != nil {
		handleError(w, r, err)
		return
	}

	logging.From(r.Context()).Info("comparison finished",
		"mode", cmp.ProcessingInfo.Mode,
		"results", cmp.ProcessingInfo.ResultsReturned,
		"seconds", cmp.ProcessingInfo.ProcessingTimeSeconds,
	)
	safe.WriteJSON(r.Context(), w, http.StatusOK, cmp)
}

type fieldsResponse struct {
	AvailableFields   []types.ReturnField          `json:"available_fields"`
	FieldDescriptions map[types.ReturnField]string `json:"field_descriptions"`
	UsageExample      map[string]any               `json:"usage_example"`
}

func fieldsHandler(w http.ResponseWriter, r *http.Request) {
	fields := types.AllReturnFields()
	descriptions := make(map[types.ReturnField]string, len(fields))
	for _, f := range fields {
		descriptions[f] = f.Description()
	}

	safe.WriteJSON(r.Context(), w, http.StatusOK, fieldsResponse{
		AvailableFields:   fields,
		FieldDescriptions: descriptions,
		UsageExample: map[string]any{
			"query":         "What is salvation?",
			"agentic":       false,
			"top_k":         model.DefaultTopK,
			"return_fields": []types.ReturnField{types.ReturnFieldRecordID, types.ReturnFieldText, types.ReturnFieldAnswer},
		},
	})
}

// recordIDsHandler returns the ranked record IDs for ?query=...&top_k=...
func (s *Server) recordIDsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	topK := 0
	if raw := q.Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			handleError(w, r, goerr.Wrap(errBadRequest, "top_k must be an integer", goerr.V("top_k", raw)))
			return
		}
		topK = n
	}

	ids, err := s.uc.Query.RecordIDs(r.Context(), q.Get("query"), topK)
	if err != nil {
		handleError(w, r, err)
		return
	}
	safe.WriteJSON(r.Context(), w, http.StatusOK, ids)
}
