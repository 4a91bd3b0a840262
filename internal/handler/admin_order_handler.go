package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"grocery/internal/config"
	"grocery/internal/domain/model"
	"grocery/internal/middleware"
	repo "grocery/internal/repository"
	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing completed cancelled"`
	Notes  string `json:"notes" validate:"max=500"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin/orders")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.GET("", h.list)
	g.PUT("/:id/status", h.updateStatus)
	g.GET("/:id/history", h.history)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	f := repo.AdminOrderListFilter{
		Page:   1,
		Limit:  50,
		Status: strings.TrimSpace(c.QueryParam("status")),
	}
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		f.Page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		f.Limit = v
	}
	if v, err := strconv.ParseInt(c.QueryParam("user_id"), 10, 64); err == nil && v > 0 {
		f.UserID = &v
	}
	if t, ok := parseDateTimeRFC3339(c.QueryParam("from")); ok {
		f.From = t
	}
	if t, ok := parseDateTimeRFC3339(c.QueryParam("to")); ok {
		f.To = t
	}

	outs, total, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": outs,
		"total": total,
	})
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order id"})
	}

	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	err = h.uc.UpdateStatus(c.Request().Context(), actorID, orderID, usecase.UpdateOrderStatusInput{
		Status: req.Status,
		Notes:  req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminOrderHandler) history(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order id"})
	}

	rows, err := h.uc.History(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// 期間パラメータ。handlerでtime.ParseしてからUsecaseへ渡す。
func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
