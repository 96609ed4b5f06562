package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/GriffinCanCode/rnpad/internal/api/middleware"
	"github.com/GriffinCanCode/rnpad/internal/domain/device"
	"github.com/GriffinCanCode/rnpad/internal/domain/host"
	"github.com/GriffinCanCode/rnpad/internal/domain/preview"
	"github.com/GriffinCanCode/rnpad/internal/domain/source"
	"github.com/GriffinCanCode/rnpad/internal/domain/workspace"
	"github.com/GriffinCanCode/rnpad/internal/providers/builder"
	"github.com/GriffinCanCode/rnpad/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	brand      = "reactnative-pad"
	brandShort = "RN"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	workspaces *workspace.Manager
	dispatcher builder.Dispatcher
	logger     *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(workspaces *workspace.Manager, dispatcher builder.Dispatcher, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		workspaces: workspaces,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// WorkspaceView is the JSON shape of a workspace
type WorkspaceView struct {
	Source  source.Snapshot  `json:"source"`
	Device  device.Profile   `json:"device"`
	Session preview.Snapshot `json:"session"`
	Frame   host.Frame       `json:"frame"`
}

type editorPage struct {
	Brand    string
	Short    string
	FileName string
	Code     string
	Session  preview.Snapshot
	Frame    host.Frame
	Profiles []device.Profile
}

type sourceRequest struct {
	Code *string `json:"code" binding:"required"`
}

type deviceRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// Landing renders the entry page
func (h *Handlers) Landing(c *gin.Context) {
	c.HTML(http.StatusOK, "landing.html", gin.H{
		"Brand": brand,
		"Short": brandShort,
	})
}

// Editor renders the playground for the caller's workspace
func (h *Handlers) Editor(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}

	snap := w.Session.Snapshot()
	profiles := make([]device.Profile, 0, len(device.Kinds))
	for _, k := range device.Kinds {
		p, _ := device.Lookup(k)
		profiles = append(profiles, p)
	}

	c.HTML(http.StatusOK, "editor.html", editorPage{
		Brand:    brand,
		Short:    brandShort,
		FileName: source.FileName,
		Code:     w.Source.Code(),
		Session:  snap,
		Frame:    w.Host.Frame(snap),
		Profiles: profiles,
	})
}

// Health reports liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"workspaces": h.workspaces.Count(),
	})
}

// GetWorkspace returns the caller's workspace
func (h *Handlers) GetWorkspace(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view(w, w.Session.Snapshot()))
}

// PutSource replaces the source buffer. Nothing else changes.
func (h *Handlers) PutSource(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}

	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	if err := utils.ValidateCode(*req.Code); err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}

	rev := w.Source.Set(*req.Code)
	c.JSON(http.StatusOK, gin.H{"revision": rev})
}

// PutDevice selects the simulated device. The session is not touched.
func (h *Handlers) PutDevice(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}

	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind is required"})
		return
	}
	kind, err := device.ParseKind(req.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := w.Device.Select(kind)
	c.JSON(http.StatusOK, gin.H{
		"device": profile,
		"frame":  w.Host.Frame(w.Session.Snapshot()),
	})
}

// Run builds the current source and answers once the builder has. Build
// failures are reported through the session, not the status code.
func (h *Handlers) Run(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}

	// The build outlives a dropped connection so the session always settles.
	ctx := context.WithoutCancel(c.Request.Context())

	snap, err := w.Session.Run(ctx, w.ID, w.Source.Snapshot(), h.dispatcher)
	if errors.Is(err, preview.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "run already in progress",
			"session": snap,
			"frame":   w.Host.Frame(snap),
		})
		return
	}
	if err != nil {
		h.logger.Error("Run failed", zap.String("browser_id", w.ID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, view(w, snap))
}

// OpenPreview redirects to the current preview URL
func (h *Handlers) OpenPreview(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}

	snap := w.Session.Snapshot()
	if snap.LastURL == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no preview yet"})
		return
	}
	c.Redirect(http.StatusFound, snap.LastURL)
}

func (h *Handlers) workspace(c *gin.Context) (*workspace.Workspace, bool) {
	bid, ok := middleware.BrowserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "identity unavailable"})
		return nil, false
	}
	return h.workspaces.GetOrCreate(bid), true
}

func view(w *workspace.Workspace, snap preview.Snapshot) WorkspaceView {
	return WorkspaceView{
		Source:  w.Source.Snapshot(),
		Device:  w.Device.Current(),
		Session: snap,
		Frame:   w.Host.Frame(snap),
	}
}
