package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/wricardo/wordbrain/game/board"
	"github.com/wricardo/wordbrain/game/catalog"
	"github.com/wricardo/wordbrain/game/service"
	"github.com/wricardo/wordbrain/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.ProgressService
	hub     *websocket.Hub
	router  *mux.Router
	logger  zerolog.Logger
}

// NewServer creates a new API server. A nil hub disables the /ws endpoint.
func NewServer(progressService service.ProgressService, hub *websocket.Hub, logger zerolog.Logger) *Server {
	s := &Server{
		service: progressService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(chimw.RequestID, chimw.RealIP, s.accessLog, chimw.Recoverer)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)

	// Progress
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/save", s.handleSave).Methods("POST")
	api.HandleFunc("/reset", s.handleReset).Methods("POST")

	// Categories
	api.HandleFunc("/categories", s.handleListCategories).Methods("GET")
	api.HandleFunc("/categories/{name}", s.handleGetCategory).Methods("GET")

	// Levels
	api.HandleFunc("/levels/start", s.handleStartLevel).Methods("POST")
	api.HandleFunc("/daily/start", s.handleStartDaily).Methods("POST")

	// Active board
	api.HandleFunc("/board", s.handleGetBoard).Methods("GET")
	api.HandleFunc("/board/restart", s.handleRestartBoard).Methods("POST")
	api.HandleFunc("/board/words", s.handleWordFound).Methods("POST")
	api.HandleFunc("/board/animation-complete", s.handleAnimationComplete).Methods("POST")
	api.HandleFunc("/board/completion/dismiss", s.handleDismissCompletion).Methods("POST")

	// Hints
	api.HandleFunc("/hints/next", s.handleNextHint).Methods("POST")
	api.HandleFunc("/hints", s.handleAddHints).Methods("POST")

	// WebSocket
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.hub.ServeWS)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLog writes one structured line per request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// handleNotFound answers 405 when the path is routed for another method.
// mux reports some method mismatches inside a subrouter as not found.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if s.pathRouted(r.URL.Path) {
		s.handleMethodNotAllowed(w, r)
		return
	}
	respondError(w, http.StatusNotFound, "not found")
}

// pathRouted reports whether a method-restricted route matches path.
func (s *Server) pathRouted(path string) bool {
	found := false
	s.router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		if _, err := route.GetMethods(); err != nil {
			return nil
		}
		expr, err := route.GetPathRegexp()
		if err != nil {
			return nil
		}
		if ok, _ := regexp.MatchString(expr, path); ok {
			found = true
		}
		return nil
	})
	return found
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondResult writes result, or the error and the result together when an
// operation succeeded in memory but could not be saved.
func respondResult(w http.ResponseWriter, status int, result interface{}, err error) {
	if err != nil {
		respondJSON(w, statusFor(err), map[string]interface{}{
			"error":  err.Error(),
			"result": result,
		})
		return
	}
	respondJSON(w, status, result)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrBoardNotFound), errors.Is(err, catalog.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoActiveBoard),
		errors.Is(err, service.ErrNoDailyPuzzles),
		errors.Is(err, service.ErrNoPendingAnimation),
		errors.Is(err, service.ErrNoCompletion):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvariant):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidHintAmount), errors.Is(err, service.ErrInvalidLevel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Progress Handlers

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Save(r.Context()); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Progress saved"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ResetProgress(r.Context()); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Progress reset"})
}

// Category Handlers

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.service.Categories(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(summaries),
		"categories": summaries,
	})
}

// LevelView is one level of a category with its completion flag.
type LevelView struct {
	Index     int      `json:"index"`
	BoardID   string   `json:"board_id"`
	Words     []string `json:"words"`
	Completed bool     `json:"completed"`
}

// CategoryView is the detail response of a category.
type CategoryView struct {
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	CompletedCount int         `json:"completed_count"`
	Levels         []LevelView `json:"levels"`
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	info, err := s.service.CategoryInfo(r.Context(), name)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	completed, err := s.service.CompletedLevelCount(r.Context(), name)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	view := CategoryView{
		Name:           info.Name,
		Description:    info.Description,
		CompletedCount: completed,
		Levels:         make([]LevelView, 0, len(info.Levels)),
	}
	for i, level := range info.Levels {
		view.Levels = append(view.Levels, LevelView{
			Index:     i,
			BoardID:   board.FormatID(info.Name, i),
			Words:     level.Words,
			Completed: s.service.IsLevelCompleted(r.Context(), info.Name, i),
		})
	}
	respondJSON(w, http.StatusOK, view)
}

// Level Handlers

func (s *Server) handleStartLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
		Index    *int   `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Category == "" || req.Index == nil {
		respondError(w, http.StatusBadRequest, "category and index are required")
		return
	}

	active, err := s.service.StartLevel(r.Context(), req.Category, *req.Index)
	if active == nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondResult(w, http.StatusOK, active, err)
}

func (s *Server) handleStartDaily(w http.ResponseWriter, r *http.Request) {
	active, err := s.service.StartDailyPuzzle(r.Context())
	if active == nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondResult(w, http.StatusOK, active, err)
}

// Board Handlers

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	active, err := s.service.Board(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, active)
}

func (s *Server) handleRestartBoard(w http.ResponseWriter, r *http.Request) {
	active, err := s.service.RestartBoard(r.Context())
	if active == nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondResult(w, http.StatusOK, active, err)
}

func (s *Server) handleWordFound(w http.ResponseWriter, r *http.Request) {
	var req board.WordFound
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Word == "" {
		respondError(w, http.StatusBadRequest, "word is required")
		return
	}

	result, err := s.service.ReportWordFound(r.Context(), req)
	if result == nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondResult(w, http.StatusOK, result, err)
}

// AnimationResponse is returned once the found-word animation completes.
type AnimationResponse struct {
	Completed  bool                `json:"completed"`
	Completion *service.Completion `json:"completion,omitempty"`
}

func (s *Server) handleAnimationComplete(w http.ResponseWriter, r *http.Request) {
	completion, err := s.service.FinishAnimation(r.Context())
	if err != nil && completion == nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondResult(w, http.StatusOK, AnimationResponse{Completed: completion != nil, Completion: completion}, err)
}

func (s *Server) handleDismissCompletion(w http.ResponseWriter, r *http.Request) {
	transition, err := s.service.DismissCompletion(r.Context())
	if transition == nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondResult(w, http.StatusOK, transition, err)
}

// Hint Handlers

func (s *Server) handleNextHint(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.DisplayNextHint(r.Context())
	if result == nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondResult(w, http.StatusOK, result, err)
}

func (s *Server) handleAddHints(w http.ResponseWriter, r *http.Request) {
	amount := 1
	if q := r.URL.Query().Get("amount"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			respondError(w, http.StatusBadRequest, "amount must be an integer")
			return
		}
		amount = n
	} else if r.ContentLength != 0 {
		var req struct {
			Amount *int `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Amount != nil {
			amount = *req.Amount
		}
	}

	hints, err := s.service.AddHint(r.Context(), amount)
	if err != nil && !service.IsPersistError(err) {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondResult(w, http.StatusOK, map[string]int{"hints": hints}, err)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
