package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"docchat/config"
	"docchat/database"
	apperrors "docchat/errors"
	"docchat/utils"
	"docchat/web/types"

	"go.uber.org/zap"
)

type UploadService struct {
	store  database.Store
	docs   *DocumentService
	cfg    *config.Config
	logger *zap.Logger
}

func NewUploadService(store database.Store, docs *DocumentService, cfg *config.Config, logger *zap.Logger) *UploadService {
	return &UploadService{
		store:  store,
		docs:   docs,
		cfg:    cfg,
		logger: logger,
	}
}

// ValidateFile checks the name and size of an upload.
// Returns the sanitized filename and its lowercased extension.
func (us *UploadService) ValidateFile(filename string, size int64) (string, string, error) {
	if !utils.HasAllowedExtension(filename, us.cfg.AllowedExtensions) {
		return "", "", apperrors.WrapError(apperrors.ErrUnsupportedFileType, "Only PDF, TXT, and MD files are allowed")
	}

	sanitized := utils.SanitizeFilename(filename)
	if sanitized == "" || !utils.HasAllowedExtension(sanitized, us.cfg.AllowedExtensions) {
		return "", "", apperrors.WrapError(apperrors.ErrInvalidInput, "Invalid filename")
	}

	if limit := us.cfg.MaxUploadBytes(); limit > 0 && size > limit {
		return "", "", apperrors.WrapErrorf(apperrors.ErrInvalidInput, "File too large. Maximum size is %dMB", us.cfg.MaxUploadSizeMB)
	}

	return sanitized, utils.Extension(sanitized), nil
}

// ProcessUpload saves src, extracts its text and registers a new store.
func (us *UploadService) ProcessUpload(ctx context.Context, filename string, size int64, src io.Reader) (types.UploadResponse, error) {
	sanitized, ext, err := us.ValidateFile(filename, size)
	if err != nil {
		return types.UploadResponse{}, err
	}

	if err := os.MkdirAll(us.cfg.UploadDir, 0o755); err != nil {
		return types.UploadResponse{}, fmt.Errorf("failed to create upload directory: %w", err)
	}

	storeID := utils.GenerateStoreID()
	savedName := storeID + ext
	dst := filepath.Join(us.cfg.UploadDir, savedName)

	if err := saveFile(dst, src, us.cfg.MaxUploadBytes()); err != nil {
		os.Remove(dst)
		return types.UploadResponse{}, err
	}
	if !utils.VerifyFileExists(us.cfg.UploadDir, savedName) {
		return types.UploadResponse{}, fmt.Errorf("file verification failed after upload")
	}

	content, err := us.docs.ExtractText(dst, ext)
	if err != nil {
		os.Remove(dst)
		return types.UploadResponse{}, fmt.Errorf("Error processing document: %w", err)
	}

	now := time.Now()
	rec := types.StoreRecord{
		ID:         storeID,
		Filename:   sanitized,
		FilePath:   dst,
		Content:    content,
		CreatedAt:  now,
		LastActive: now,
	}
	if err := us.store.SaveStore(ctx, rec); err != nil {
		os.Remove(dst)
		return types.UploadResponse{}, apperrors.WrapErrorf(apperrors.ErrDatabaseOperation, "save store: %v", err)
	}

	us.logger.Info("Document uploaded",
		zap.String("store_id", storeID),
		zap.String("filename", sanitized),
		zap.Int("characters", len(content)))

	return types.UploadResponse{
		Success:  true,
		StoreID:  storeID,
		Filename: sanitized,
		Message:  fmt.Sprintf("Successfully processed %s", sanitized),
	}, nil
}

func saveFile(dst string, src io.Reader, limit int64) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer out.Close()

	if limit > 0 {
		src = io.LimitReader(src, limit+1)
	}
	n, err := io.Copy(out, src)
	if err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	if limit > 0 && n > limit {
		return apperrors.WrapError(apperrors.ErrInvalidInput, "File too large")
	}
	return nil
}
