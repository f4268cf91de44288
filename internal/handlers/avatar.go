package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/Chijioke91/Task-Api/internal/avatar"
	"github.com/Chijioke91/Task-Api/internal/handlers/dto"
	"github.com/Chijioke91/Task-Api/internal/middleware"
	"github.com/Chijioke91/Task-Api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// запас на multipart-обвязку сверх самого файла
const multipartOverhead = 64 << 10

type AvatarHandler struct {
	avatars *services.AvatarService
	logger  *slog.Logger
}

func NewAvatarHandler(avatars *services.AvatarService, logger *slog.Logger) *AvatarHandler {
	return &AvatarHandler{avatars: avatars, logger: logger}
}

// Upload всегда отвечает {status, message}.
// Имя файла проверяется по заголовку части, до чтения её содержимого.
func (h *AvatarHandler) Upload(c *gin.Context) {
	ac := middleware.MustAuth(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, avatar.MaxUploadBytes+multipartOverhead)

	part, err := avatarPart(c.Request)
	if err != nil {
		uploadFailed(c, err)
		return
	}
	defer part.Close()

	// размер заранее неизвестен, его ограничивает чтение в сервисе
	if err := h.avatars.Upload(c.Request.Context(), ac.User, part.FileName(), 0, part); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			err = avatar.ErrFileTooLarge
		case !isUploadError(err):
			h.logger.ErrorContext(c.Request.Context(), "avatar upload failed", "user_id", ac.UserID, "error", err)
		}
		uploadFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UploadResponse{Status: dto.StatusSuccess, Message: "Upload successful"})
}

// avatarPart пропускает остальные поля формы и возвращает часть "avatar"
func avatarPart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, avatar.ErrUnsupportedMediaType
	}

	for {
		part, err := mr.NextPart()
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, avatar.ErrFileTooLarge
			}
			return nil, avatar.ErrUnsupportedMediaType
		}
		if part.FormName() == "avatar" {
			return part, nil
		}
		part.Close()
	}
}

func (h *AvatarHandler) Delete(c *gin.Context) {
	ac := middleware.MustAuth(c)

	if err := h.avatars.Delete(c.Request.Context(), ac.User); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusOK)
}

// Get отдаёт PNG без авторизации; отсутствие картинки это 500 {error}
func (h *AvatarHandler) Get(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "avatar not found"})
		return
	}

	data, err := h.avatars.Get(c.Request.Context(), userID)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			h.logger.ErrorContext(c.Request.Context(), "avatar load failed", "user_id", userID, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "avatar not found"})
		return
	}

	c.Data(http.StatusOK, avatar.MimeType, data)
}

func isUploadError(err error) bool {
	return errors.Is(err, avatar.ErrUnsupportedMediaType) ||
		errors.Is(err, avatar.ErrFileTooLarge) ||
		errors.Is(err, avatar.ErrInvalidImage)
}

func uploadFailed(c *gin.Context, err error) {
	var msg string
	switch {
	case errors.Is(err, avatar.ErrUnsupportedMediaType):
		msg = "Please upload an image file"
	case errors.Is(err, avatar.ErrFileTooLarge):
		msg = "File too large"
	case errors.Is(err, avatar.ErrInvalidImage):
		msg = "Invalid image file"
	default:
		msg = "Upload failed"
	}
	c.JSON(http.StatusBadRequest, dto.UploadResponse{Status: dto.StatusError, Message: msg})
}
