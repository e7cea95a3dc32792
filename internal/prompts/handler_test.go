package prompts_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/bluecite/internal/prompts"
	"github.com/JaimeStill/bluecite/internal/stages"
	"github.com/JaimeStill/bluecite/pkg/pagination"
	"github.com/JaimeStill/bluecite/pkg/routes"
)

type mockSystem struct {
	prompts.System

	active  map[stages.AccessTier]string
	created []prompts.CreateCommand
	stored  map[uuid.UUID]*prompts.Prompt
}

func newMockSystem() *mockSystem {
	return &mockSystem{
		active: make(map[stages.AccessTier]string),
		stored: make(map[uuid.UUID]*prompts.Prompt),
	}
}

func (m *mockSystem) Instructions(_ context.Context, tier stages.AccessTier) (string, error) {
	if text, ok := m.active[tier]; ok {
		return text, nil
	}
	return stages.DefaultInstructions(tier)
}

func (m *mockSystem) List(_ context.Context, page pagination.PageRequest, filters prompts.Filters) (*pagination.PageResult[prompts.Prompt], error) {
	var out []prompts.Prompt
	for _, p := range m.stored {
		if filters.Tier != nil && p.Tier != *filters.Tier {
			continue
		}
		out = append(out, *p)
	}
	result := pagination.NewPageResult(out, len(out), page.Page, page.PageSize)
	return &result, nil
}

func (m *mockSystem) Find(_ context.Context, id uuid.UUID) (*prompts.Prompt, error) {
	p, ok := m.stored[id]
	if !ok {
		return nil, prompts.ErrNotFound
	}
	return p, nil
}

func (m *mockSystem) Create(_ context.Context, cmd prompts.CreateCommand) (*prompts.Prompt, error) {
	if _, err := prompts.ParseTier(string(cmd.Tier)); err != nil {
		return nil, err
	}
	m.created = append(m.created, cmd)
	p := &prompts.Prompt{ID: uuid.New(), Name: cmd.Name, Tier: cmd.Tier, Instructions: cmd.Instructions}
	m.stored[p.ID] = p
	return p, nil
}

func (m *mockSystem) Activate(_ context.Context, id uuid.UUID) (*prompts.Prompt, error) {
	p, ok := m.stored[id]
	if !ok {
		return nil, prompts.ErrNotFound
	}
	p.Active = true
	m.active[p.Tier] = p.Instructions
	return p, nil
}

func setupMux(sys prompts.System) *http.ServeMux {
	h := prompts.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func TestInstructionsFallBackToDefault(t *testing.T) {
	mux := setupMux(newMockSystem())

	rec := do(t, mux, http.MethodGet, "/prompts/tiers/secondary/instructions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got prompts.TierContent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	want, err := stages.DefaultInstructions(stages.TierSecondary)
	require.NoError(t, err)
	assert.Equal(t, stages.TierSecondary, got.Tier)
	assert.Equal(t, want, got.Content)
}

func TestInstructionsUnknownTier(t *testing.T) {
	rec := do(t, setupMux(newMockSystem()), http.MethodGet, "/prompts/tiers/quaternary/instructions", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateActivateOverrides(t *testing.T) {
	sys := newMockSystem()
	mux := setupMux(sys)

	rec := do(t, mux, http.MethodPost, "/prompts", prompts.CreateCommand{
		Name:         "strict-house",
		Tier:         stages.TierPrimary,
		Instructions: "Check house rules first.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created prompts.Prompt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, mux, http.MethodPost, "/prompts/"+created.ID.String()+"/activate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	text, err := sys.Instructions(context.Background(), stages.TierPrimary)
	require.NoError(t, err)
	assert.Equal(t, "Check house rules first.", text)
}

func TestCreateRejectsUnknownFields(t *testing.T) {
	rec := do(t, setupMux(newMockSystem()), http.MethodPost, "/prompts", map[string]string{
		"name": "x", "tier": "primary", "instructions": "y", "stage": "classify",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindBadID(t *testing.T) {
	mux := setupMux(newMockSystem())

	assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodGet, "/prompts/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodGet, "/prompts/"+uuid.NewString(), nil).Code)
}

func TestTiersAndSpec(t *testing.T) {
	mux := setupMux(newMockSystem())

	rec := do(t, mux, http.MethodGet, "/prompts/tiers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["primary","secondary","tertiary"]`, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/prompts/spec", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rule_text_quote")
}

func TestListFiltersByTier(t *testing.T) {
	sys := newMockSystem()
	mux := setupMux(sys)
	for _, tier := range prompts.Tiers() {
		_, err := sys.Create(context.Background(), prompts.CreateCommand{Name: string(tier), Tier: tier, Instructions: "x"})
		require.NoError(t, err)
	}

	rec := do(t, mux, http.MethodGet, "/prompts?tier=tertiary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page pagination.PageResult[prompts.Prompt]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, stages.TierTertiary, page.Data[0].Tier)
}

func TestMapHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, prompts.MapHTTPStatus(prompts.ErrNotFound))
	assert.Equal(t, http.StatusConflict, prompts.MapHTTPStatus(prompts.ErrDuplicate))
	assert.Equal(t, http.StatusBadRequest, prompts.MapHTTPStatus(prompts.ErrInvalidTier))
	assert.Equal(t, http.StatusBadRequest, prompts.MapHTTPStatus(prompts.ErrInstructionsRequired))
}
