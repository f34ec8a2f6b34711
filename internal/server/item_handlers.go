package server

import (
	"qipu/internal/middleware"
	"qipu/internal/models"
	"qipu/internal/service"

	"github.com/gofiber/fiber/v2"
)

type addItemRequest struct {
	Content     string `json:"content"`
	CreatedTime string `json:"created_time"`
	MediaURL    string `json:"media_url"`
	Tags        IDList `json:"tags"`
	IsMedia     bool   `json:"is_media"`
}

// AddItem handles POST /items/add
// @Summary Ingest a post or media item
// @Description Creates a post, or a media row pointing at an uploaded object, with its tags
// @Tags items
// @Accept json
// @Produce json
// @Param request body addItemRequest true "Item"
// @Success 200 {object} object{message=string}
// @Failure 500 {object} object{error=string}
// @Security BearerAuth
// @Router /items/add [post]
func (s *Server) AddItem(c *fiber.Ctx) error {
	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	err := s.itemService.Add(c.UserContext(), currentUserID(c), service.AddItemInput{
		Content:     req.Content,
		CreatedTime: req.CreatedTime,
		MediaURL:    req.MediaURL,
		Tags:        req.Tags,
		IsMedia:     req.IsMedia,
	})
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "item ingestion failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Item added successfully"})
}

// GetMediaDetail handles GET /media-detail/:id
// @Summary Media with a download URL
// @Tags media
// @Produce json
// @Param id path int true "Media ID"
// @Success 200 {object} service.MediaDetail
// @Failure 404 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Security BearerAuth
// @Router /media-detail/{id} [get]
func (s *Server) GetMediaDetail(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.mediaService.Detail(c.UserContext(), id)
	if err != nil {
		if models.StatusFor(err) == fiber.StatusNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Media object not found"})
		}
		middleware.Logger.ErrorContext(c.UserContext(), "media detail failed", "media_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(detail)
}

// GenerateSignedURL handles GET /generate-signed-url
// @Summary Signed upload URL
// @Tags media
// @Produce json
// @Param filename query string true "Object name"
// @Param contentType query string true "Content type of the upload"
// @Success 200 {object} object{signedUrl=string}
// @Failure 400 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Security BearerAuth
// @Router /generate-signed-url [get]
func (s *Server) GenerateSignedURL(c *fiber.Ctx) error {
	signed, err := s.mediaService.UploadURL(c.UserContext(), c.Query("filename"), c.Query("contentType"))
	if err != nil {
		if models.StatusFor(err) == fiber.StatusBadRequest {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing filename or contentType"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"signedUrl": signed})
}

// TagSearch handles GET /tag_search?q=
// @Summary Tag autocomplete
// @Tags tags
// @Produce json
// @Param q query string false "Substring of the tag name"
// @Success 200 {array} models.Tag
// @Security BearerAuth
// @Router /tag_search [get]
func (s *Server) TagSearch(c *fiber.Ctx) error {
	tags, err := s.tagRepo.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tags)
}
