package handler

import (
	"github.com/labstack/echo/v4"

	"secondlife/internal/domain/repository"
	"secondlife/internal/infrastructure/storage"
	"secondlife/pkg/errors"
	"secondlife/pkg/logger"
	"secondlife/pkg/response"
)

const maxImageSize = 5 << 20

var uploadFolders = map[string]bool{"chat": true, "products": true, "avatars": true}

type UploadHandler struct {
	images repository.ImageStore
}

var uploadHandler *UploadHandler

func NewUploadHandler(images repository.ImageStore) *UploadHandler {
	return &UploadHandler{images: images}
}

func SetupUploadHandler(images repository.ImageStore) {
	uploadHandler = NewUploadHandler(images)
}

func GetUploadHandler() *UploadHandler {
	return uploadHandler
}

// UploadImage stores a multipart "image" under <folder>/<uid>/ and returns
// its public URL. folder is one of chat, products or avatars.
func (h *UploadHandler) UploadImage(c echo.Context) error {
	if h.images == nil {
		return response.Error(c, errors.Unavailable("Image uploads are not configured", nil))
	}

	uid := c.Get("uid").(string)
	folder := c.FormValue("folder")
	if folder == "" {
		folder = "chat"
	}
	if !uploadFolders[folder] {
		return response.Error(c, errors.BadRequest("folder must be one of: chat products avatars", nil))
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return response.Error(c, errors.BadRequest("image file is required", err))
	}
	if fh.Size > maxImageSize {
		return response.Error(c, errors.BadRequest("image must be at most 5MB", nil))
	}
	contentType := fh.Header.Get("Content-Type")
	if !storage.IsAllowedImage(contentType) {
		return response.Error(c, errors.BadRequest("Only JPEG, PNG, GIF and WebP images are allowed", nil))
	}

	file, err := fh.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Could not read image", err))
	}
	defer file.Close()

	url, err := h.images.Upload(c.Request().Context(), file, contentType, folder+"/"+uid)
	if err != nil {
		logger.Error("UploadImage Error: %v", err)
		return response.Error(c, errors.Internal("Failed to upload image", err))
	}
	return response.Created(c, map[string]string{"url": url})
}
