package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/bluecite/internal/rules"
	"github.com/JaimeStill/bluecite/pkg/handlers"
	"github.com/JaimeStill/bluecite/pkg/routes"
)

var errTextRequired = errors.New("text required")

// retrieveRequest queries the rule index. A nil Quota uses the configured
// per-bucket quota.
type retrieveRequest struct {
	Text  string `json:"text"`
	Quota *int   `json:"quota,omitempty"`
}

type rulesHandler struct {
	retriever *rules.Retriever
	quota     int
	logger    *slog.Logger
}

func newRulesHandler(retriever *rules.Retriever, quota int, logger *slog.Logger) *rulesHandler {
	return &rulesHandler{
		retriever: retriever,
		quota:     quota,
		logger:    logger.With("handler", "rules"),
	}
}

func (h *rulesHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/rules",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.stats},
			{Method: "GET", Pattern: "/{bucket}/{id}", Handler: h.find},
			{Method: "POST", Pattern: "/retrieve", Handler: h.retrieve},
		},
	}
}

func (h *rulesHandler) corpus() (*rules.Corpus, error) {
	idx := h.retriever.Index()
	if idx == nil {
		return nil, rules.ErrCorpusUnavailable
	}
	return idx.Corpus(), nil
}

func (h *rulesHandler) stats(w http.ResponseWriter, r *http.Request) {
	corpus, err := h.corpus()
	if err != nil {
		handlers.RespondError(w, h.logger, rules.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, corpus.Stats())
}

func (h *rulesHandler) find(w http.ResponseWriter, r *http.Request) {
	corpus, err := h.corpus()
	if err != nil {
		handlers.RespondError(w, h.logger, rules.MapHTTPStatus(err), err)
		return
	}

	bucket, err := rules.ParseBucket(r.PathValue("bucket"))
	if err != nil {
		handlers.RespondError(w, h.logger, rules.MapHTTPStatus(err), err)
		return
	}

	entry, err := corpus.Find(bucket, r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, rules.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, entry)
}

func (h *rulesHandler) retrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if status, err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errTextRequired)
		return
	}

	quota := h.quota
	if req.Quota != nil {
		quota = *req.Quota
	}

	result, err := h.retriever.Retrieve(req.Text, quota)
	if err != nil {
		handlers.RespondError(w, h.logger, rules.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
