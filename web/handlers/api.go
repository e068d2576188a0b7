package handlers

import (
	"net/http"

	apperrors "docchat/errors"
	"docchat/web/services"
	"docchat/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgDocumentNotFound = "Document not found. Please upload a document first."
	msgStoreNotFound    = "Store not found"
)

type APIHandler struct {
	uploads *services.UploadService
	chat    *services.ChatService
	stores  *services.StoreService
	models  *services.ModelService
	logger  *zap.Logger
}

func NewAPIHandler(
	uploads *services.UploadService,
	chat *services.ChatService,
	stores *services.StoreService,
	models *services.ModelService,
	logger *zap.Logger,
) *APIHandler {
	return &APIHandler{
		uploads: uploads,
		chat:    chat,
		stores:  stores,
		models:  models,
		logger:  logger,
	}
}

// Upload accepts a multipart "file" and registers it as a new store.
func (h *APIHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondWithClientError(c, http.StatusBadRequest, "No file provided")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to read uploaded file", h.logger)
		return
	}
	defer src.Close()

	resp, err := h.uploads.ProcessUpload(c.Request.Context(), file.Filename, file.Size, src)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusBadRequest {
			respondWithClientError(c, status, apperrors.Message(err))
			return
		}
		respondWithError(c, status, err, apperrors.Message(err), h.logger,
			zap.String("filename", file.Filename))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Chat answers a question about an uploaded document.
func (h *APIHandler) Chat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.chat.Ask(c.Request.Context(), req)
	if err != nil {
		switch status := statusFor(err); status {
		case http.StatusNotFound:
			respondWithClientError(c, status, msgDocumentNotFound)
		case http.StatusBadRequest:
			respondWithClientError(c, status, apperrors.Message(err))
		default:
			respondWithError(c, status, err, err.Error(), h.logger,
				zap.String("store_id", req.StoreID),
				zap.String("model", req.Model))
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *APIHandler) ListStores(c *gin.Context) {
	stores, err := h.stores.List(c.Request.Context())
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to list stores", h.logger)
		return
	}
	c.JSON(http.StatusOK, types.StoresResponse{Stores: stores})
}

func (h *APIHandler) DeleteStore(c *gin.Context) {
	id := c.Param("id")
	if err := h.stores.Delete(c.Request.Context(), id); err != nil {
		if apperrors.IsNotFound(err) {
			respondWithClientError(c, http.StatusNotFound, msgStoreNotFound)
			return
		}
		respondWithError(c, http.StatusInternalServerError, err, "Failed to delete store", h.logger,
			zap.String("store_id", id))
		return
	}
	c.JSON(http.StatusOK, types.DeleteResponse{Success: true, Message: "Store deleted successfully"})
}

// ListModels proxies the upstream model list.
func (h *APIHandler) ListModels(c *gin.Context) {
	models, err := h.models.List(c.Request.Context())
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, err.Error(), h.logger)
		return
	}
	c.JSON(http.StatusOK, types.ModelsResponse{Data: models})
}
