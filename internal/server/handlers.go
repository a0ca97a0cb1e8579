package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lawnchairsociety/chronicle/internal/actions"
	"github.com/lawnchairsociety/chronicle/internal/database"
	"github.com/lawnchairsociety/chronicle/internal/dice"
	"github.com/lawnchairsociety/chronicle/internal/logger"
	"github.com/lawnchairsociety/chronicle/internal/play"
	"github.com/lawnchairsociety/chronicle/internal/rules"
)

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/vampires", s.handleCreateVampire)
	mux.HandleFunc("GET /api/vampires", s.handleListVampires)
	mux.HandleFunc("GET /api/vampires/{id}", s.handleSheet)
	mux.HandleFunc("DELETE /api/vampires/{id}", s.handleDeleteVampire)
	mux.HandleFunc("POST /api/vampires/{id}/setup/{step}", s.handleSetup)
	mux.HandleFunc("POST /api/vampires/{id}/end", s.handleEndGame)

	mux.HandleFunc("POST /api/vampires/{id}/experiences", s.handleAddExperience)
	mux.HandleFunc("POST /api/vampires/{id}/skills", s.handleCreateSkill)
	mux.HandleFunc("POST /api/vampires/{id}/skills/{skillID}/check", s.handleCheckSkill)
	mux.HandleFunc("POST /api/vampires/{id}/resources", s.handleCreateResource)
	mux.HandleFunc("POST /api/vampires/{id}/characters", s.handleCreateCharacter)
	mux.HandleFunc("POST /api/vampires/{id}/marks", s.handleCreateMark)
	mux.HandleFunc("POST /api/vampires/{id}/diary", s.handleCreateDiary)

	mux.HandleFunc("POST /api/vampires/{id}/resolve", s.handleResolve)
	mux.HandleFunc("POST /api/vampires/{id}/execute", s.handleExecute)
	mux.HandleFunc("POST /api/vampires/{id}/turn", s.handleTurn)
	mux.HandleFunc("GET /api/vampires/{id}/sessions", s.handleSessions)

	mux.HandleFunc("GET /api/prompts/{id}", s.handleGetPrompt)
	mux.HandleFunc("POST /api/dice", s.handleDice)
	mux.HandleFunc("GET /api/status", s.handleStatus)

	mux.HandleFunc("GET /ws", s.handleWebSocketUpgrade)
}

type createVampireRequest struct {
	Name   string `json:"name"`
	Origin string `json:"origin"`
}

func (s *Server) handleCreateVampire(w http.ResponseWriter, r *http.Request) {
	var req createVampireRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.controller.CreateVampire(req.Name, req.Origin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleListVampires(w http.ResponseWriter, r *http.Request) {
	vampires, err := s.db.ListVampires()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if vampires == nil {
		vampires = []*database.Vampire{}
	}
	writeJSON(w, http.StatusOK, vampires)
}

func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	sheet, err := s.controller.Sheet(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

func (s *Server) handleDeleteVampire(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.db.DeleteVampire(id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setupResponse struct {
	Log           []string `json:"log"`
	SetupComplete bool     `json:"setup_complete"`
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	step, err := strconv.Atoi(r.PathValue("step"))
	if err != nil {
		writeError(w, r, play.ErrInvalidSetupStep)
		return
	}
	var req play.SetupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	log, err := s.controller.ApplySetup(id, step, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	done, err := s.controller.SetupComplete(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setupResponse{Log: log, SetupComplete: done})
}

func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.controller.EndGame(id); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.db.GetVampire(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type addExperienceRequest struct {
	MemoryID int64  `json:"memory_id"`
	Text     string `json:"text"`
}

func (s *Server) handleAddExperience(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req addExperienceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, r, badRequest("text is required"))
		return
	}
	exp, err := s.db.AddExperience(id, req.MemoryID, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

type entityRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	IsStationary bool   `json:"is_stationary"`
	Type         string `json:"type"`
	Relationship string `json:"relationship"`
	HowConcealed string `json:"how_concealed"`
}

// decodeEntity reads an entityRequest and the owning vampire id, requiring
// the named field to be non-blank.
func (s *Server) decodeEntity(r *http.Request, required string) (int64, *entityRequest, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return 0, nil, err
	}
	req := &entityRequest{}
	if err := decodeJSON(r, req); err != nil {
		return 0, nil, err
	}

	value := req.Name
	if required == "description" {
		value = req.Description
	}
	if required != "" && strings.TrimSpace(value) == "" {
		return 0, nil, badRequest("%s is required", required)
	}

	if _, err := s.db.GetVampire(id); err != nil {
		return 0, nil, err
	}
	return id, req, nil
}

func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	id, req, err := s.decodeEntity(r, "name")
	if err != nil {
		writeError(w, r, err)
		return
	}
	skill, err := s.db.CreateSkill(id, req.Name, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, skill)
}

func (s *Server) handleCheckSkill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	skillID, err := pathID(r, "skillID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.db.CheckSkill(id, skillID); err != nil {
		writeError(w, r, err)
		return
	}
	skill, err := s.db.GetSkill(id, skillID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

func (s *Server) handleCreateResource(w http.ResponseWriter, r *http.Request) {
	id, req, err := s.decodeEntity(r, "name")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.db.CreateResource(id, req.Name, req.Description, req.IsStationary)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	id, req, err := s.decodeEntity(r, "name")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ch, err := s.db.CreateCharacter(id, database.NewCharacter{
		Name:         req.Name,
		Description:  req.Description,
		Type:         rules.CharacterType(req.Type),
		Relationship: rules.Relationship(req.Relationship),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

func (s *Server) handleCreateMark(w http.ResponseWriter, r *http.Request) {
	id, req, err := s.decodeEntity(r, "description")
	if err != nil {
		writeError(w, r, err)
		return
	}
	mark, err := s.db.CreateMark(id, req.Description, req.HowConcealed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mark)
}

func (s *Server) handleCreateDiary(w http.ResponseWriter, r *http.Request) {
	id, req, err := s.decodeEntity(r, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	diary, err := s.db.CreateDiary(id, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, diary)
}

type resolveResponse struct {
	Actions []actions.PendingAction `json:"actions"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req actions.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := s.resolve(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) resolve(ctx context.Context, vampireID int64, req actions.Request) (*resolveResponse, error) {
	_, span := tracer.Start(ctx, "actions.Resolve")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("vampire.id", vampireID),
		attribute.String("prompt.id", req.PromptID),
	)

	pending, err := s.resolver.Resolve(vampireID, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("actions.count", len(pending)))
	return &resolveResponse{Actions: pending}, nil
}

type executeResponse struct {
	Log []string `json:"log"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req actions.ExecuteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := s.execute(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) execute(ctx context.Context, vampireID int64, req actions.ExecuteRequest) (*executeResponse, error) {
	_, span := tracer.Start(ctx, "actions.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("vampire.id", vampireID),
		attribute.String("action.type", string(req.Type)),
	)

	log, err := s.executor.Execute(vampireID, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for _, line := range log {
		logger.Info("Action executed", "vampire_id", vampireID, "type", req.Type, "result", line)
	}
	return &executeResponse{Log: log}, nil
}

type turnRequest struct {
	Response string `json:"response"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req turnRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.controller.AdvanceTurn(r.Context(), id, req.Response)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.db.GetVampire(id); err != nil {
		writeError(w, r, err)
		return
	}
	sessions, err := s.db.ListSessions(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []*database.GameSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

type promptResponse struct {
	ID      string             `json:"id"`
	Number  int                `json:"number"`
	Entry   string             `json:"entry"`
	Text    string             `json:"text"`
	Actions []rules.Descriptor `json:"actions"`
}

func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	id, err := rules.ParsePromptID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.db.GetPrompt(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := promptResponse{
		ID:      p.ID.String(),
		Number:  p.ID.Number,
		Entry:   p.ID.Entry,
		Text:    p.Text,
		Actions: p.Actions,
	}
	if resp.Actions == nil {
		resp.Actions = []rules.Descriptor{}
	}
	writeJSON(w, http.StatusOK, resp)
}

type diceRequest struct {
	Notation string `json:"notation"`
}

type notationRollResponse struct {
	Notation string `json:"notation"`
	Total    int    `json:"total"`
}

type promptRollResponse struct {
	D10      int `json:"d10"`
	D6       int `json:"d6"`
	Movement int `json:"movement"`
}

// handleDice rolls the given notation, or the prompt dice when none is given.
func (s *Server) handleDice(w http.ResponseWriter, r *http.Request) {
	var req diceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if strings.TrimSpace(req.Notation) == "" {
		roll := dice.RandomRoller{}.Roll()
		writeJSON(w, http.StatusOK, promptRollResponse{D10: roll.D10, D6: roll.D6, Movement: roll.Movement()})
		return
	}

	n, err := dice.ParseNotation(strings.ToLower(strings.TrimSpace(req.Notation)))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notationRollResponse{Notation: n.String(), Total: n.Roll()})
}

type statusResponse struct {
	Vampires    int       `json:"vampires"`
	Prompts     int       `json:"prompts"`
	Connections ConnStats `json:"connections"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	vampires, err := s.db.ListVampires()
	if err != nil {
		writeError(w, r, err)
		return
	}
	prompts, err := s.db.CountPrompts()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Vampires:    len(vampires),
		Prompts:     prompts,
		Connections: s.connLimiter.Stats(),
	})
}
