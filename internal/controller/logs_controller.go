package controller

import (
	"smart-gateway-be/internal/pkg/logger"
	"smart-gateway-be/internal/pkg/serverutils"
	"smart-gateway-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ILogsController feeds the external operations dashboard. All routes
// are JWT-guarded; the dashboard itself lives outside this service.
type ILogsController interface {
	RegisterRoutes(r fiber.Router)
	RecentChatLogs(ctx *fiber.Ctx) error
	SessionChatLogs(ctx *fiber.Ctx) error
	AppLogs(ctx *fiber.Ctx) error
}

type logsController struct {
	gateway   service.IGatewayService
	appLogger logger.ILogger
}

func NewLogsController(gateway service.IGatewayService, appLogger logger.ILogger) ILogsController {
	return &logsController{
		gateway:   gateway,
		appLogger: appLogger,
	}
}

func (c *logsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/logs", serverutils.JwtMiddleware)
	h.Get("/recent", c.RecentChatLogs)
	h.Get("/session/:sessionId", c.SessionChatLogs)
	h.Get("/app", c.AppLogs)
}

func (c *logsController) RecentChatLogs(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)

	res, err := c.gateway.RecentLogs(ctx.Context(), limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Recent chat logs", res))
}

func (c *logsController) SessionChatLogs(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("sessionId")
	if sessionID == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "sessionId is required"))
	}
	limit := ctx.QueryInt("limit", 50)

	res, err := c.gateway.SessionLogs(ctx.Context(), sessionID, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Session chat logs", res))
}

func (c *logsController) AppLogs(ctx *fiber.Ctx) error {
	level := ctx.Query("level", "")
	limit := ctx.QueryInt("limit", 100)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.appLogger.GetLogs(level, limit, offset)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Application logs", res))
}
