package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocery/internal/domain/model"
	"grocery/internal/usecase"
)

func callWriteError(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, writeError(c, err))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec, body
}

// usecaseの型付きエラーとHTTPステータスの対応表。
func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"入力不備は400", usecase.NewValidationError("bad input"), http.StatusBadRequest},
		{"not foundは404", &usecase.NotFoundError{Resource: "product", ID: 1}, http.StatusNotFound},
		{"非公開商品は409", &usecase.ProductUnavailableError{ProductID: 1, Name: "x"}, http.StatusConflict},
		{"空カートは400", &usecase.StateError{Msg: "cart is empty"}, http.StatusBadRequest},
		{"不正遷移は409", &usecase.InvalidTransitionError{OrderID: 1, From: model.OrderStatusCompleted, To: model.OrderStatusPending}, http.StatusConflict},
		{"整合性エラーは500", &usecase.ConsistencyError{Msg: "boom"}, http.StatusInternalServerError},
		{"未知のエラーは500", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := callWriteError(t, tc.err)
			assert.Equal(t, tc.code, rec.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

// 在庫不足はproduct_idとavailableをレスポンスに含める。
func TestWriteError_InsufficientStock(t *testing.T) {
	rec, body := callWriteError(t, &usecase.InsufficientStockError{
		ProductID: 101,
		Name:      "りんご",
		Requested: 3,
		Available: 2,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, body.ProductID)
	assert.Equal(t, int64(101), *body.ProductID)
	require.NotNil(t, body.Available)
	assert.Equal(t, int64(2), *body.Available)
}

// 内部のエラー内容は外に漏らさない。
func TestWriteError_HidesInternalDetail(t *testing.T) {
	_, body := callWriteError(t, errors.New("pq: connection refused"))
	assert.Equal(t, "internal error", body.Error)
}
