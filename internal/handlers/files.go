package handlers

import (
	"github.com/filesmanager/backend/internal/middleware"
	"github.com/filesmanager/backend/internal/models"
	"github.com/filesmanager/backend/internal/services"
	"github.com/filesmanager/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type FilesHandler struct {
	Files *services.FileService
}

func NewFilesHandler(files *services.FileService) *FilesHandler {
	return &FilesHandler{Files: files}
}

type createFileRequest struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	ParentID interface{} `json:"parentId"`
	IsPublic bool        `json:"isPublic"`
	Data     string      `json:"data"`
}

func (h *FilesHandler) Create(c *fiber.Ctx) error {
	var req createFileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	file, err := h.Files.CreateEntry(c.UserContext(), middleware.GetUserID(c), services.CreateEntryInput{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: parentIDFromJSON(req.ParentID),
		Data:     req.Data,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSON(c, fiber.StatusCreated, file.View())
}

func (h *FilesHandler) Get(c *fiber.Ctx) error {
	file, err := h.Files.GetEntry(c.UserContext(), middleware.GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSON(c, fiber.StatusOK, file.View())
}

// List serves GET /files?parentId=&page=. An absent parentId or "0" is root.
func (h *FilesHandler) List(c *fiber.Ctx) error {
	page := utils.ParsePage(c.Query("page"))
	files, err := h.Files.ListEntries(c.UserContext(), middleware.GetUserID(c), c.Query("parentId"), page.Page)
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSON(c, fiber.StatusOK, models.Views(files))
}

func (h *FilesHandler) Publish(c *fiber.Ctx) error {
	return h.setPublic(c, true)
}

func (h *FilesHandler) Unpublish(c *fiber.Ctx) error {
	return h.setPublic(c, false)
}

func (h *FilesHandler) setPublic(c *fiber.Ctx, isPublic bool) error {
	file, err := h.Files.SetPublic(c.UserContext(), middleware.GetUserID(c), c.Params("id"), isPublic)
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSON(c, fiber.StatusOK, file.View())
}

// Data streams the record's bytes. Mounted behind OptionalAuth: anonymous
// callers can read public records only.
func (h *FilesHandler) Data(c *fiber.Ctx) error {
	content, err := h.Files.ReadContent(c.UserContext(), middleware.GetUserID(c), c.Params("id"), c.QueryInt("size", 0))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, content.ContentType)
	return c.Status(fiber.StatusOK).Send(content.Data)
}
