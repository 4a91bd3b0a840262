package handler

import (
	"errors"
	"net/http"

	"grocery/internal/logger"
	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`

	//在庫不足のときだけ入る
	ProductID *int64 `json:"product_id,omitempty"`
	Available *int64 `json:"available,omitempty"`
}

// usecaseの型付きエラーをHTTPへ写す。写し方はここ（controller層）の責務。
func writeError(c echo.Context, err error) error {
	var ve *usecase.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Msg})
	}

	var nf *usecase.NotFoundError
	if errors.As(err, &nf) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: nf.Error()})
	}

	var pu *usecase.ProductUnavailableError
	if errors.As(err, &pu) {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:     pu.Error(),
			ProductID: &pu.ProductID,
		})
	}

	var is *usecase.InsufficientStockError
	if errors.As(err, &is) {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:     is.Error(),
			ProductID: &is.ProductID,
			Available: &is.Available,
		})
	}

	var se *usecase.StateError
	if errors.As(err, &se) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: se.Msg})
	}

	var it *usecase.InvalidTransitionError
	if errors.As(err, &it) {
		return c.JSON(http.StatusConflict, ErrorResponse{Error: it.Error()})
	}

	//整合性エラーはバグの兆候。詳細は内部ログ、外には一般メッセージ。
	var ce *usecase.ConsistencyError
	if errors.As(err, &ce) {
		logger.Error(c.Request().Context(), "consistency error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	//残りはインフラ系として500
	logger.Error(c.Request().Context(), "internal error", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// contextからuser_idを取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get("user_id")
	id, ok := v.(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// contextからsession_idを取り出す
func getSessionIDFromContext(c echo.Context) (string, bool) {
	v := c.Get("session_id")
	sid, ok := v.(string)
	if !ok || sid == "" {
		return "", false
	}
	return sid, true
}
