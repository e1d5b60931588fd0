package controller

import (
	"strings"

	"smart-gateway-be/internal/dto"
	"smart-gateway-be/internal/pkg/serverutils"
	"smart-gateway-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKBController interface {
	RegisterRoutes(r fiber.Router)
	IngestDocument(ctx *fiber.Ctx) error
}

type kbController struct {
	service service.IKBService
}

func NewKBController(service service.IKBService) IKBController {
	return &kbController{service: service}
}

func (c *kbController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/kb")
	h.Post("/documents", c.IngestDocument)
}

func (c *kbController) IngestDocument(ctx *fiber.Ctx) error {
	var req dto.KBDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := c.service.Ingest(ctx.Context(), &req); err != nil {
		if strings.Contains(err.Error(), "invalid kb document") {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued for ingestion", map[string]string{
		"doc_id": req.DocId,
	}))
}
