package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/solresol/haruspex/internal/classify"
	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/consensus"
	"github.com/solresol/haruspex/internal/hypothesis"
	"github.com/solresol/haruspex/internal/model"
	"github.com/solresol/haruspex/internal/session"
	"github.com/solresol/haruspex/internal/source"
	"github.com/solresol/haruspex/internal/store"
	"github.com/solresol/haruspex/internal/traverse"
)

type Server struct {
	Store      store.Store
	Sessions   *session.Manager
	Controller *traverse.Controller
	Aggregator *consensus.Aggregator
	Tracker    *hypothesis.Tracker
	Config     *config.Config
}

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	oracle, err := classify.NewOracle(ctx, cfg.Oracle)
	if err != nil {
		return nil, err
	}
	engine := classify.NewEngine(oracle, cfg.Classify, cfg.Oracle.Votes)

	var src source.PaperSource
	ads, err := source.NewADSClient(cfg.Source)
	if err != nil {
		// The API surface that only reads stored data still works
		// without a catalog token; research runs will fail cleanly.
		log.Printf("Warning: paper source unavailable: %v", err)
	} else {
		src = source.WithRetries(ads, cfg.Source.Retries)
	}

	return &Server{
		Store:      st,
		Sessions:   session.NewManager(st),
		Controller: traverse.NewController(st, src, engine, cfg.Traversal),
		Aggregator: consensus.NewAggregator(st, cfg.Classify.AggregateWeight),
		Tracker:    hypothesis.NewTracker(st, cfg.Hypothesis),
		Config:     cfg,
	}, nil
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/papers", s.ListPapers)
	r.GET("/papers/:bibcode", s.GetPaper)
	r.GET("/papers/:bibcode/consensus", s.PaperConsensus)

	r.POST("/sessions", s.CreateSession)
	r.GET("/sessions", s.ListSessions)
	r.GET("/sessions/:id", s.GetSession)
	r.POST("/sessions/:id/research", s.Research)
	r.GET("/sessions/:id/consensus", s.SessionConsensus)
	r.POST("/sessions/:id/complete", s.CompleteSession)

	r.POST("/hypotheses", s.CreateHypothesis)
	r.GET("/hypotheses", s.ListHypotheses)
	r.POST("/hypotheses/:id/links", s.LinkHypothesis)
	r.POST("/hypotheses/:id/evaluate", s.EvaluateHypothesis)

	r.GET("/stats", s.GetStats)
	r.GET("/export", s.GetExport)

	return r
}

// respondError maps the error taxonomy onto status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrSelfCitation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrAlreadyComplete):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("server: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (s *Server) ListPapers(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	papers, err := s.Store.ListPapers(c.Request.Context(), year, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": papers})
}

func (s *Server) GetPaper(c *gin.Context) {
	paper, err := s.Store.GetPaper(c.Request.Context(), c.Param("bibcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paper)
}

func (s *Server) PaperConsensus(c *gin.Context) {
	score, breakdown, err := s.Aggregator.ForPaper(c.Request.Context(), c.Param("bibcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bibcode":   c.Param("bibcode"),
		"score":     score,
		"verdict":   consensus.Describe(score),
		"breakdown": breakdown,
	})
}

type CreateSessionRequest struct {
	Question string `json:"question" binding:"required"`
}

func (s *Server) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	id, err := s.Sessions.Create(c.Request.Context(), req.Question)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

func (s *Server) ListSessions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	sessions, err := s.Sessions.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *Server) GetSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sess, err := s.Sessions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	papers, err := s.Sessions.Papers(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess, "papers": papers})
}

type ResearchRequest struct {
	Seeds []string `json:"seeds" binding:"required"`
}

func (s *Server) Research(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Seeds) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one seed bibcode is required"})
		return
	}
	if s.Controller.Source == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "paper source not configured"})
		return
	}

	result, err := s.Controller.Run(c.Request.Context(), id, req.Seeds)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) SessionConsensus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	score, breakdown, err := s.Aggregator.ForSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": id,
		"score":      score,
		"verdict":    consensus.Describe(score),
		"breakdown":  breakdown,
	})
}

type CompleteSessionRequest struct {
	Summary string `json:"summary"`
}

func (s *Server) CompleteSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	score, _, err := s.Aggregator.ForSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.Sessions.Complete(c.Request.Context(), id, req.Summary, score); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "score": score})
}

type CreateHypothesisRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Origin      string `json:"origin_bibcode"`
}

func (s *Server) CreateHypothesis(c *gin.Context) {
	var req CreateHypothesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	id, err := s.Tracker.Record(c.Request.Context(), req.Name, req.Description, req.Origin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"hypothesis_id": id})
}

func (s *Server) ListHypotheses(c *gin.Context) {
	status := model.HypothesisStatus(c.Query("status"))
	hypotheses, err := s.Store.ListHypotheses(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hypotheses": hypotheses})
}

type LinkHypothesisRequest struct {
	Bibcode string  `json:"bibcode" binding:"required"`
	Stance  string  `json:"stance" binding:"required"`
	Weight  float64 `json:"weight"`
}

func (s *Server) LinkHypothesis(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req LinkHypothesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	stance, err := model.ParseStance(req.Stance)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.Tracker.LinkStance(c.Request.Context(), id, req.Bibcode, stance, req.Weight); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "linked"})
}

func (s *Server) EvaluateHypothesis(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	status, err := s.Tracker.Evaluate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hypothesis_id": id, "status": status})
}

func (s *Server) GetStats(c *gin.Context) {
	stats, err := s.Store.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) GetExport(c *gin.Context) {
	var sessionID int64
	if raw := c.Query("session"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			return
		}
		sessionID = id
	}

	dump, err := s.Store.Export(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dump)
}
