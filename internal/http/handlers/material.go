package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-companion/internal/http/response"
	"github.com/yungbote/neurobridge-companion/internal/modules/library"
	"github.com/yungbote/neurobridge-companion/internal/modules/workspace"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

// maxUploadBytes bounds the multipart form held in memory.
const maxUploadBytes = 32 << 20

type MaterialHandler struct {
	log       *logger.Logger
	registry  *library.Registry
	workspace *workspace.Workspace
}

func NewMaterialHandler(log *logger.Logger, registry *library.Registry, ws *workspace.Workspace) *MaterialHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &MaterialHandler{log: log.With("handler", "MaterialHandler"), registry: registry, workspace: ws}
}

// GET /api/dashboard
func (h *MaterialHandler) Dashboard(c *gin.Context) {
	if _, err := h.workspace.Navigate(c.Request.Context(), ""); err != nil {
		response.RespondFailure(c, err)
		return
	}
	d, err := h.registry.Dashboard(c.Request.Context())
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, d)
}

// GET /api/materials?q=cells
func (h *MaterialHandler) List(c *gin.Context) {
	items, err := h.registry.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"materials": items})
}

// GET /api/materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	m, ok := mountFor(c, h.workspace)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{
		"material":   m.Material,
		"ready":      m.Material.Ready(),
		"active_tab": m.ActiveTab(),
		"route":      h.workspace.Route(),
	})
}

// POST /api/materials/upload (multipart: file, title)
func (h *MaterialHandler) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
	}
	m, err := h.registry.Upload(c.Request.Context(), library.UploadInput{Title: title, FileName: fh.Filename, Content: f})
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	h.log.Info("material uploaded", "material_id", m.ID, "bytes", fh.Size)
	c.JSON(http.StatusCreated, gin.H{"material": m})
}

// POST /api/navigate {"material_id": "..."} or {"path": "/materials/..."}
func (h *MaterialHandler) Navigate(c *gin.Context) {
	var req struct {
		MaterialID string `json:"material_id"`
		Path       string `json:"path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id := req.MaterialID
	if strings.TrimSpace(id) == "" {
		id = workspace.MaterialIDFromPath(req.Path)
	}
	route, err := h.workspace.Navigate(c.Request.Context(), id)
	if err != nil {
		status, code := response.StatusFor(err)
		c.JSON(status, gin.H{"route": route, "redirect": route.Path(), "error": response.APIError{Message: err.Error(), Code: code}})
		return
	}
	response.RespondOK(c, gin.H{"route": route, "redirect": route.Path()})
}
