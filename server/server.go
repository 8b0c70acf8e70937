package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"funnel_copy_generator/generator"
	"funnel_copy_generator/project"
	"funnel_copy_generator/render"
	"funnel_copy_generator/steps"
)

// generateTimeout covers every attempt of every part plus retry delays.
const generateTimeout = 4 * time.Minute

type Server struct {
	genAgent *generator.Agent
	store    *projectStore
	logger   *zap.Logger
}

// projectStore 在内存中保存每个项目的分段会话和最近一次结果。
type projectStore struct {
	mu       sync.Mutex
	sessions map[string]*generator.Session
	results  map[string]generator.GenerationResult
}

func newStore() *projectStore {
	return &projectStore{
		sessions: make(map[string]*generator.Session),
		results:  make(map[string]generator.GenerationResult),
	}
}

func (s *projectStore) session(id string) (*generator.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// sessionFor returns the project's session, replacing it when the
// snapshot has changed since its parts were generated.
func (s *projectStore) sessionFor(snap project.Snapshot, agent *generator.Agent) (*generator.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[snap.ProjectID]; ok && sess.Snapshot.Same(snap) {
		return sess, nil
	}
	sess, err := generator.NewSession(snap.ProjectID, snap, agent)
	if err != nil {
		return nil, err
	}
	s.sessions[snap.ProjectID] = sess
	return sess, nil
}

func (s *projectStore) setResult(res generator.GenerationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[res.ProjectID] = res
}

func (s *projectStore) result(id string) (generator.GenerationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.results[id]
	return res, ok
}

func New(genAgent *generator.Agent, logger *zap.Logger) (*Server, error) {
	if genAgent == nil {
		return nil, errors.New("generator agent required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{genAgent: genAgent, store: newStore(), logger: logger}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/generate/part", s.handleGeneratePart)
	mux.HandleFunc("POST /api/save", s.handleSave)
	mux.HandleFunc("POST /api/steps", s.handleSteps)
	mux.HandleFunc("POST /api/sections", s.handleSections)
	mux.HandleFunc("GET /api/projects/{id}", s.handleProject)
	mux.HandleFunc("POST /api/projects/{id}/assemble", s.handleAssemble)
	return logMiddleware(s.logger, mux)
}

// --- Handlers ---

type generateReq struct {
	Snapshot project.Snapshot `json:"snapshot"`
}

type partReq struct {
	Snapshot project.Snapshot `json:"snapshot"`
	Label    string           `json:"label"`
}

type partResp struct {
	ProjectID string               `json:"project_id"`
	Part      generator.PartResult `json:"part"`
	Labels    []string             `json:"labels"`
	Missing   []string             `json:"missing"`
}

type saveReq struct {
	Snapshot project.Snapshot `json:"snapshot"`
	Content  string           `json:"content"`
}

type stepsReq struct {
	Funnel  project.FunnelType  `json:"funnel_type"`
	Variant project.Variant     `json:"variant"`
	Presets project.PresetFlags `json:"presets"`
}

type stepsResp struct {
	Steps []steps.ID `json:"steps"`
}

type sectionsReq struct {
	Content string          `json:"content"`
	Variant project.Variant `json:"variant"`
}

type sectionsResp struct {
	Tier        string        `json:"tier"`
	HasSections bool          `json:"has_sections"`
	Panes       []render.Pane `json:"panes"`
}

type errorResp struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Part    string `json:"part,omitempty"`
	Missing []int  `json:"missing,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateReq
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()
	res, err := s.genAgent.Generate(ctx, req.Snapshot)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.store.setResult(res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGeneratePart(w http.ResponseWriter, r *http.Request) {
	var req partReq
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.store.sessionFor(req.Snapshot, s.genAgent)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()
	part, err := sess.GeneratePart(ctx, req.Label)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, partResp{
		ProjectID: sess.ID,
		Part:      part,
		Labels:    sess.Labels(),
		Missing:   nonNil(sess.Missing()),
	})
}

func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.store.session(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp{Error: "no parts generated for project " + id})
		return
	}
	res, err := sess.Finish()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.store.setResult(res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, ok := s.store.result(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp{Error: "project not found"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveReq
	if !decode(w, r, &req) {
		return
	}
	res, err := s.genAgent.Save(req.Snapshot, req.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.store.setResult(res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	var req stepsReq
	if !decode(w, r, &req) {
		return
	}
	if !req.Funnel.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "unknown funnel type", Field: "funnel_type"})
		return
	}
	if !req.Variant.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "unknown variant", Field: "variant"})
		return
	}
	writeJSON(w, http.StatusOK, stepsResp{Steps: steps.Resolve(req.Funnel, req.Variant, req.Presets)})
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	var req sectionsReq
	if !decode(w, r, &req) {
		return
	}
	if !req.Variant.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "unknown variant", Field: "variant"})
		return
	}
	parsed, reg := s.genAgent.Sections(req.Variant, req.Content)
	panes, err := render.Panes(parsed, reg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sectionsResp{
		Tier:        string(parsed.Tier),
		HasSections: parsed.HasSections,
		Panes:       panes,
	})
}

// --- Helpers ---

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		verr  *generator.ValidationError
		aerr  *generator.AssemblyError
		fatal *generator.FatalPartError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error(), Field: verr.Field})
	case errors.As(err, &aerr):
		writeJSON(w, http.StatusConflict, errorResp{Error: err.Error(), Missing: aerr.Missing})
	case errors.As(err, &fatal):
		writeJSON(w, http.StatusBadGateway, errorResp{Error: err.Error(), Part: fatal.Label})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeJSON(w, http.StatusGatewayTimeout, errorResp{Error: err.Error()})
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
