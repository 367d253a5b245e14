// handlers/media.go
package handlers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"

	"nft-mint-service/storage"
)

const maxMediaSize = 25 * 1024 * 1024 // 25MB

// MediaHandler accepts image/animation uploads and stores them in R2 so the
// returned URL can be referenced from NFT metadata before minting.
type MediaHandler struct {
	media *storage.R2Client
	log   *logrus.Logger
}

func NewMediaHandler(media *storage.R2Client, log *logrus.Logger) *MediaHandler {
	return &MediaHandler{media: media, log: log}
}

func SetupMediaRoutes(api fiber.Router, h *MediaHandler) {
	api.Post("/nfts/media", h.Upload)
}

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	if h.media == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "media storage not configured"})
	}

	fileHeader, err := c.FormFile("media")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "media file is required"})
	}
	if fileHeader.Size > maxMediaSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file too large (max 25MB)"})
	}

	ext := filepath.Ext(fileHeader.Filename)
	if ext == "" {
		ext = ".bin"
	}
	base := slug.Make(strings.TrimSuffix(fileHeader.Filename, ext))
	if base == "" {
		base = "asset"
	}
	key := fmt.Sprintf("media/%s-%s%s", base, uuid.NewString()[:8], ext)

	url, err := h.media.UploadFile(c.Context(), fileHeader, key)
	if err != nil {
		h.log.WithError(err).Error("media upload failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store media"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"url": url,
		"key": key,
	})
}
