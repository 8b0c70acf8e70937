package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnel_copy_generator/generator"
	"funnel_copy_generator/project"
	"funnel_copy_generator/prompt"
	"funnel_copy_generator/sections"
	"funnel_copy_generator/steps"
)

type failingLLM struct{}

func (failingLLM) Complete(context.Context, generator.Request) (string, error) {
	return "", errors.New("model refused")
}

type blockingLLM struct{}

func (blockingLLM) Complete(ctx context.Context, _ generator.Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func newTestServer(t *testing.T, llm generator.LLMClient) http.Handler {
	t.Helper()
	orch, err := generator.NewOrchestrator(llm, prompt.Default(), generator.Options{})
	require.NoError(t, err)
	agent, err := generator.NewAgent(orch, generator.AgentOptions{})
	require.NoError(t, err)
	srv, err := New(agent, nil)
	require.NoError(t, err)
	return srv.Routes()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func kit() project.Snapshot {
	return project.Snapshot{
		ProjectID: "p1",
		Funnel:    project.FunnelLaunch,
		Variant:   project.VariantCampaignKit,
		Pillars: project.Pillars{
			Expert: json.RawMessage(`{"name":"Ana Lima"}`),
		},
	}
}

func TestGenerateAndFetch(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})

	rec := do(t, h, http.MethodPost, "/api/generate", generateReq{Snapshot: kit()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res generator.GenerationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, strings.HasPrefix(res.Content, sections.CampaignKit().Marker(0)))
	assert.NotEmpty(t, res.Validation.Grade)

	rec = do(t, h, http.MethodGet, "/api/projects/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched generator.GenerationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, res.Content, fetched.Content)

	rec = do(t, h, http.MethodGet, "/api/projects/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerate_ValidationIs400(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	snap := kit()
	snap.Funnel = "podcast"

	rec := do(t, h, http.MethodPost, "/api/generate", generateReq{Snapshot: snap})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var e errorResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, "funnel_type", e.Field)

	rec = do(t, h, http.MethodPost, "/api/generate", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerate_FatalPartIs502(t *testing.T) {
	h := newTestServer(t, failingLLM{})
	rec := do(t, h, http.MethodPost, "/api/generate", generateReq{Snapshot: kit()})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var e errorResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.NotEmpty(t, e.Part)

	rec = do(t, h, http.MethodGet, "/api/projects/p1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "failed jobs leave no document")
}

func TestGenerate_CallerDeadlineIs504(t *testing.T) {
	h := newTestServer(t, blockingLLM{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for _, path := range []string{"/api/generate", "/api/generate/part"} {
		body, err := json.Marshal(partReq{Snapshot: kit(), Label: "page"})
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body)).WithContext(ctx))

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code, path)
		var e errorResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		assert.Empty(t, e.Part, path)
	}
}

func TestPartsThenAssemble(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})

	rec := do(t, h, http.MethodPost, "/api/projects/p1/assemble", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, label := range []string{"messages", "page"} {
		rec = do(t, h, http.MethodPost, "/api/generate/part", partReq{Snapshot: kit(), Label: label})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	var pr partResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pr))
	assert.Equal(t, "page", pr.Part.Label)
	assert.Equal(t, []string{"deliverables"}, pr.Missing)

	rec = do(t, h, http.MethodPost, "/api/projects/p1/assemble", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	var e errorResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, []int{2}, e.Missing)

	rec = do(t, h, http.MethodPost, "/api/generate/part", partReq{Snapshot: kit(), Label: "deliverables"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/projects/p1/assemble", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res generator.GenerationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 3, res.Validation.Metrics["deliverable_headers"])
}

func TestPart_ReformattedSnapshotKeepsSession(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	post := func(pillars, label string) *httptest.ResponseRecorder {
		body := `{"label":"` + label + `","snapshot":{"project_id":"p9","funnel_type":"launch",` +
			`"variant":"campaign_kit","pillars":` + pillars + `}}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate/part", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return rec
	}

	post(`{"expert":{"name":"Ana","years":12}}`, "page")
	rec := post(`{"expert":{ "years": 12, "name": "Ana" }}`, "messages")
	var pr partResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pr))
	assert.Equal(t, []string{"deliverables"}, pr.Missing)

	rec = post(`{"expert":{"name":"Bia","years":12}}`, "messages")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pr))
	assert.Equal(t, []string{"page", "deliverables"}, pr.Missing, "changed data starts a new session")
}

func TestPart_UnknownLabelIs400(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	rec := do(t, h, http.MethodPost, "/api/generate/part", partReq{Snapshot: kit(), Label: "appendix"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSave(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	rec := do(t, h, http.MethodPost, "/api/save", saveReq{Snapshot: kit(), Content: "# Edited\n\nbody"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/projects/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Edited")

	rec = do(t, h, http.MethodPost, "/api/save", saveReq{Snapshot: kit()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSteps(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	rec := do(t, h, http.MethodPost, "/api/steps", stepsReq{Funnel: project.FunnelWebinar})
	require.Equal(t, http.StatusOK, rec.Code)
	var sr stepsResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sr))
	assert.Contains(t, sr.Steps, steps.GenerationMode)

	rec = do(t, h, http.MethodPost, "/api/steps", stepsReq{Funnel: "radio"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/steps", stepsReq{Funnel: project.FunnelVSL, Variant: "turbo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSections(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	legacy := "# Page\n\nintro\n\n# Message Sequence\n\n## Message 1\nhi\n\n# Deliverables\n\n## Bonus 1\nx"

	rec := do(t, h, http.MethodPost, "/api/sections", sectionsReq{Content: legacy, Variant: project.VariantCampaignKit})
	require.Equal(t, http.StatusOK, rec.Code)
	var sr sectionsResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sr))
	assert.Equal(t, "heuristic", sr.Tier)
	assert.True(t, sr.HasSections)
	require.Len(t, sr.Panes, 3)
	assert.Contains(t, sr.Panes[1].HTML, "Message 1")

	rec = do(t, h, http.MethodPost, "/api/sections", sectionsReq{Content: legacy})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sr))
	assert.Equal(t, "unsectioned", sr.Tier)
	assert.Len(t, sr.Panes, 1)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	rec := do(t, h, http.MethodGet, "/api/generate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
