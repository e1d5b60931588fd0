package controller

import (
	"strings"

	"smart-gateway-be/internal/dto"
	"smart-gateway-be/internal/pkg/serverutils"
	"smart-gateway-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IGatewayController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
}

type gatewayController struct {
	service service.IGatewayService
}

func NewGatewayController(service service.IGatewayService) IGatewayController {
	return &gatewayController{service: service}
}

func (c *gatewayController) RegisterRoutes(r fiber.Router) {
	r.Post("/chat", c.Chat)
}

func (c *gatewayController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	res, err := c.service.Chat(ctx.Context(), &req)
	if err != nil {
		if strings.Contains(err.Error(), "invalid chat request") {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(res)
}
