package handlers

import (
	"net/http"
	"net/url"
	"strings"

	apperrors "docchat/errors"
	"docchat/web/format"
	"docchat/web/services"
	"docchat/web/templates/pages"
	"docchat/web/types"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PageHandler serves the server-rendered pages.
type PageHandler struct {
	uploads      *services.UploadService
	chat         *services.ChatService
	stores       *services.StoreService
	render       format.Renderer
	defaultModel string
	logger       *zap.Logger
}

func NewPageHandler(
	uploads *services.UploadService,
	chat *services.ChatService,
	stores *services.StoreService,
	render format.Renderer,
	defaultModel string,
	logger *zap.Logger,
) *PageHandler {
	return &PageHandler{
		uploads:      uploads,
		chat:         chat,
		stores:       stores,
		render:       render,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

func (h *PageHandler) Index(c *gin.Context) {
	h.index(c, http.StatusOK, "")
}

func (h *PageHandler) index(c *gin.Context, status int, alert string) {
	stores, err := h.stores.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list stores", zap.Error(err))
	}
	h.page(c, status, pages.IndexPage(stores, alert))
}

// Upload handles the upload form and redirects to the chat page.
func (h *PageHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.index(c, http.StatusBadRequest, "Please choose a file to upload.")
		return
	}
	src, err := file.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		h.index(c, http.StatusInternalServerError, "Error uploading file: could not read file")
		return
	}
	defer src.Close()

	resp, err := h.uploads.ProcessUpload(c.Request.Context(), file.Filename, file.Size, src)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Upload failed", zap.String("filename", file.Filename), zap.Error(err))
		}
		h.index(c, status, "Error uploading file: "+apperrors.Message(err))
		return
	}

	c.Redirect(http.StatusSeeOther, "/ui/chat/"+resp.StoreID)
}

// Chat shows the transcript of a store.
func (h *PageHandler) Chat(c *gin.Context) {
	h.chatPage(c, http.StatusOK, c.Query("model"), "")
}

func (h *PageHandler) chatPage(c *gin.Context, status int, model, alert string) {
	rec, err := h.chat.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		if apperrors.IsNotFound(err) {
			h.index(c, http.StatusNotFound, msgDocumentNotFound)
			return
		}
		h.logger.Error("Failed to load store", zap.Error(err))
		h.index(c, http.StatusInternalServerError, "Failed to load document")
		return
	}
	if model == "" {
		model = h.defaultModel
	}
	h.page(c, status, pages.ChatPage(rec, model, h.render, alert))
}

// Ask posts a question from the chat form.
func (h *PageHandler) Ask(c *gin.Context) {
	storeID := c.Param("id")
	model := strings.TrimSpace(c.PostForm("model"))
	req := types.ChatRequest{
		Question: c.PostForm("question"),
		StoreID:  storeID,
		Model:    model,
	}

	if _, err := h.chat.Ask(c.Request.Context(), req); err != nil {
		if apperrors.IsNotFound(err) {
			h.index(c, http.StatusNotFound, msgDocumentNotFound)
			return
		}
		h.logger.Warn("Chat from page failed", zap.String("store_id", storeID), zap.Error(err))
		h.chatPage(c, statusFor(err), model, "Sorry, I encountered an error: "+apperrors.Message(err))
		return
	}

	target := "/ui/chat/" + storeID
	if model != "" {
		target += "?model=" + url.QueryEscape(model)
	}
	c.Redirect(http.StatusSeeOther, target)
}

// Close deletes the store and returns to the upload page.
func (h *PageHandler) Close(c *gin.Context) {
	id := c.Param("id")
	if err := h.stores.Delete(c.Request.Context(), id); err != nil && !apperrors.IsNotFound(err) {
		h.logger.Error("Error closing document", zap.String("store_id", id), zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *PageHandler) page(c *gin.Context, status int, component templ.Component) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		h.logger.Error("Failed to render page", zap.Error(err))
	}
}
