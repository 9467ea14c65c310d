// Package server exposes the board over HTTP: authentication, the board
// and backlog projections, story mutation, and document import. Handlers
// stay thin; every rule about ordering, filtering, and consistency lives
// in the store and views packages.
package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/storyflow/internal/auth"
	"github.com/mesh-intelligence/storyflow/internal/extract"
	"github.com/mesh-intelligence/storyflow/internal/importer"
	"github.com/mesh-intelligence/storyflow/internal/store"
	"github.com/mesh-intelligence/storyflow/internal/views"
	"github.com/mesh-intelligence/storyflow/pkg/types"
)

// maxUploadBytes bounds a single import submission.
const maxUploadBytes = 16 << 20

// currentUserKey is the gin context key for the authenticated user.
const currentUserKey = "currentUser"

// Server is the HTTP layer over the store and its collaborators.
type Server struct {
	store     *store.Store
	auth      auth.Authenticator
	pipeline  *importer.Pipeline
	presenter extract.Presenter
	config    types.Config
	logger    *slog.Logger
	engine    *gin.Engine
}

// New assembles the server and its routes. pipeline and presenter may be
// nil when no model is configured; the import and present endpoints then
// answer 503.
func New(st *store.Store, authr auth.Authenticator, pipeline *importer.Pipeline, presenter extract.Presenter, config types.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		store:     st,
		auth:      authr,
		pipeline:  pipeline,
		presenter: presenter,
		config:    config,
		logger:    logger,
		engine:    engine,
	}
	s.routes()
	return s
}

// Handler returns the root http.Handler, mostly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until the listener fails.
func (s *Server) Run() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = types.DefaultListenAddr
	}
	s.logger.Info("listening", "addr", addr, "project", s.store.Project())
	return s.engine.Run(addr)
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")

	ar := api.Group("/auth")
	ar.POST("/signup", s.handleSignUp)
	ar.POST("/signin", s.handleSignIn)
	ar.POST("/guest", s.handleGuest)
	ar.GET("/avatars", s.handleAvatars)

	authed := api.Group("")
	authed.Use(s.requireSession)
	authed.POST("/auth/signout", s.handleSignOut)
	authed.GET("/auth/me", s.handleMe)
	authed.GET("/team", s.handleTeam)

	authed.GET("/board", s.handleBoard)
	authed.GET("/backlog", s.handleBacklog)
	authed.GET("/stats", s.handleStats)

	authed.GET("/stories", s.handleListStories)
	authed.POST("/stories", s.handleCreateStory)
	authed.GET("/stories/:id", s.handleGetStory)
	authed.PUT("/stories/:id", s.handleUpdateStory)
	authed.DELETE("/stories/:id", s.handleDeleteStory)
	authed.POST("/stories/:id/move", s.handleMoveStory)
	authed.POST("/stories/:id/assign", s.handleAssignStory)
	authed.POST("/stories/:id/comments", s.handleAddComment)

	authed.POST("/import/text", s.handleImportText)
	authed.POST("/import/files", s.handleImportFiles)

	authed.GET("/present", s.handlePresent)

	authed.GET("/sync/dirty", s.handleDirty)
	authed.POST("/sync/retry", s.handleRetry)
}

// requireSession resolves the bearer token and stashes the user in the
// request context. Requests without a live session get 401.
func (s *Server) requireSession(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	user, err := s.auth.Current(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
		return
	}
	c.Set(currentUserKey, user)
	c.Next()
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimPrefix(header, prefix)
	}
	return ""
}

func currentUser(c *gin.Context) types.User {
	u, _ := c.Get(currentUserKey)
	user, _ := u.(types.User)
	return user
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "project": s.store.Project()})
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sess, err := s.auth.SignUp(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sess, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type guestRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// handleGuest opens a guest session when the authenticator supports it.
// Database-backed deployments answer 404: guests are a local-only mode.
func (s *Server) handleGuest(c *gin.Context) {
	guests, ok := s.auth.(*auth.Memory)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "guest sign-in is not enabled"})
		return
	}
	var req guestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sess, err := guests.SignInGuest(c.Request.Context(), req.Name, req.Avatar)
	if err != nil {
		s.respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleAvatars(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"avatars": auth.GuestAvatarURLs()})
}

func (s *Server) handleSignOut(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if err := s.auth.SignOut(c.Request.Context(), token); err != nil {
		s.respondInternal(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) handleTeam(c *gin.Context) {
	team, err := s.auth.Team(c.Request.Context())
	if err != nil {
		s.respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": team})
}

// handleBoard returns the five-column projection plus everything the
// board header needs: epic chips, story numbers, and aggregates.
func (s *Server) handleBoard(c *gin.Context) {
	epicFilter := c.Query("epic")
	stories := s.store.Stories()

	c.JSON(http.StatusOK, gin.H{
		"columns": views.Board(stories, epicFilter),
		"chips":   views.BoardChips(stories, epicFilter, s.config.DarkTheme),
		"numbers": views.Numbers(stories),
		"stats":   views.Summarize(stories),
	})
}

func (s *Server) handleBacklog(c *gin.Context) {
	epicFilter := c.Query("epic")
	stories := s.store.Stories()

	c.JSON(http.StatusOK, gin.H{
		"stories": views.Backlog(stories, epicFilter),
		"chips":   views.BacklogChips(stories, epicFilter, s.config.DarkTheme),
		"numbers": views.Numbers(stories),
		"stats":   views.Summarize(stories),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, views.Summarize(s.store.Stories()))
}

func (s *Server) handleListStories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stories": s.store.Stories()})
}

func (s *Server) handleGetStory(c *gin.Context) {
	story, ok := s.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "story not found"})
		return
	}
	c.JSON(http.StatusOK, story)
}

type createStoryRequest struct {
	Title string          `json:"title"`
	Type  types.StoryType `json:"type"`
	View  types.View      `json:"view"`
}

// handleCreateStory adds a fresh story with placeholder defaults. The
// view decides the initial status: board creations land in TODO, backlog
// creations in BACKLOG.
func (s *Server) handleCreateStory(c *gin.Context) {
	var req createStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.View != types.ViewBoard && req.View != types.ViewBacklog {
		c.JSON(http.StatusBadRequest, gin.H{"error": "view must be board or backlog"})
		return
	}
	if req.Type != "" && !types.ValidType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown story type"})
		return
	}

	story := types.NewStory(req.Title, req.Type, req.View)
	s.store.Create(c.Request.Context(), story)
	c.JSON(http.StatusCreated, story)
}

func (s *Server) handleUpdateStory(c *gin.Context) {
	var story types.Story
	if err := c.ShouldBindJSON(&story); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	story.ID = c.Param("id")
	if !types.ValidStatus(story.Status) || !types.ValidPriority(story.Priority) || !types.ValidType(story.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown enum value"})
		return
	}

	existing, ok := s.store.Get(story.ID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "story not found"})
		return
	}
	// Identity fields are immutable.
	story.CreatedAt = existing.CreatedAt

	s.store.Update(c.Request.Context(), story)
	c.JSON(http.StatusOK, story)
}

func (s *Server) handleDeleteStory(c *gin.Context) {
	s.store.Remove(c.Request.Context(), c.Param("id"))
	c.Status(http.StatusNoContent)
}

type moveRequest struct {
	Status types.Status `json:"status"`
}

// handleMoveStory changes a story's status. Any recognized status is
// reachable from any other; moving an unknown ID is a silent no-op.
func (s *Server) handleMoveStory(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !types.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	s.store.Move(c.Request.Context(), c.Param("id"), req.Status)
	c.Status(http.StatusNoContent)
}

type assignRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) handleAssignStory(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	s.store.Assign(c.Request.Context(), c.Param("id"), req.UserID)
	c.Status(http.StatusNoContent)
}

type commentRequest struct {
	Text         string `json:"text"`
	TaggedUserID string `json:"taggedUserId"`
}

// handleAddComment appends a comment to a story on behalf of the signed
// in user.
func (s *Server) handleAddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "comment text required"})
		return
	}

	story, ok := s.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "story not found"})
		return
	}

	story.AddComment(currentUser(c).ID, req.Text, req.TaggedUserID)
	s.store.Update(c.Request.Context(), story)
	c.JSON(http.StatusOK, story)
}

type importTextRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleImportText(c *gin.Context) {
	if s.pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no extractor configured"})
		return
	}
	var req importTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	stories, err := s.pipeline.ImportText(c.Request.Context(), req.Text)
	if err != nil {
		s.respondImportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": stories})
}

// handleImportFiles accepts a multipart upload under the "files" field
// and runs one extraction over the combined documents.
func (s *Server) handleImportFiles(c *gin.Context) {
	if s.pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no extractor configured"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files submitted"})
		return
	}

	files := make([]importer.File, 0, len(uploads))
	var total int64
	for _, upload := range uploads {
		total += upload.Size
		if total > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return
		}
		f, err := upload.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload: " + upload.Filename})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload: " + upload.Filename})
			return
		}
		files = append(files, importer.File{Name: upload.Filename, Data: data})
	}

	stories, err := s.pipeline.ImportFiles(c.Request.Context(), files)
	if err != nil {
		s.respondImportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": stories})
}

// handlePresent renders a meeting narrative over the whole collection.
// format=summary (default) gives the status summary, format=script the
// spoken run-of-show.
func (s *Server) handlePresent(c *gin.Context) {
	if s.presenter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no presenter configured"})
		return
	}

	format := c.DefaultQuery("format", "summary")
	stories := s.store.Stories()

	var (
		narrative string
		err       error
	)
	switch format {
	case "summary":
		narrative, err = s.presenter.StandupSummary(c.Request.Context(), s.store.Project(), stories)
	case "script":
		narrative, err = s.presenter.MeetingScript(c.Request.Context(), s.store.Project(), stories)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be summary or script"})
		return
	}
	if err != nil {
		s.logger.Error("presentation failed", "format", format, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "presentation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"format": format, "narrative": narrative})
}

func (s *Server) handleDirty(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"dirty": s.store.Dirty()})
}

func (s *Server) handleRetry(c *gin.Context) {
	s.store.Retry(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"dirty": s.store.Dirty()})
}

func (s *Server) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, auth.ErrNameRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
	default:
		s.respondInternal(c, err)
	}
}

func (s *Server) respondImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrFileRead):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrExtractionFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": "extraction failed; no stories were imported"})
	default:
		s.respondInternal(c, err)
	}
}

func (s *Server) respondInternal(c *gin.Context, err error) {
	s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
