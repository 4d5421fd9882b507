//go:build unit

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flashsale-service/internal/handler/api"
	"flashsale-service/internal/usecase/commands"
	"flashsale-service/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type fakeSeckillCommands struct {
	orderID int64
	err     error
}

func (f *fakeSeckillCommands) Seckill(_ context.Context, _, _ int64) (int64, error) {
	return f.orderID, f.err
}

type fakeVoucherCommands struct {
	id  int64
	err error
}

func (f *fakeVoucherCommands) AddSeckillVoucher(_ context.Context, _ commands.AddVoucherParams) (int64, error) {
	return f.id, f.err
}

type fakeVoucherQueries struct {
	view *queries.VoucherView
	err  error
}

func (f *fakeVoucherQueries) GetVoucher(_ context.Context, _ int64) (*queries.VoucherView, error) {
	return f.view, f.err
}

type VoucherHandlerTestSuite struct {
	suite.Suite
	router   *gin.Engine
	seckill  *fakeSeckillCommands
	vouchers *fakeVoucherCommands
	queries  *fakeVoucherQueries
}

func (s *VoucherHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.seckill = &fakeSeckillCommands{}
	s.vouchers = &fakeVoucherCommands{}
	s.queries = &fakeVoucherQueries{}
	handler := api.NewVoucherHandler(s.vouchers, s.seckill, s.queries)

	authed := func(c *gin.Context) {
		c.Set("user_id", int64(1001))
	}
	s.router.POST("/api/vouchers", authed, handler.AddVoucher)
	s.router.POST("/api/vouchers/:id/seckill", authed, handler.Seckill)
	s.router.GET("/api/vouchers/:id", handler.GetVoucher)
}

func TestVoucherHandlerSuite(t *testing.T) {
	suite.Run(t, new(VoucherHandlerTestSuite))
}

func (s *VoucherHandlerTestSuite) TestSeckill_StatusMapping() {
	tests := []struct {
		name       string
		err        error
		expectCode int
	}{
		{name: "admitted", err: nil, expectCode: http.StatusCreated},
		{name: "unknown sale", err: commands.ErrSaleNotFound, expectCode: http.StatusNotFound},
		{name: "not started", err: commands.ErrSaleNotStarted, expectCode: http.StatusBadRequest},
		{name: "ended", err: commands.ErrSaleEnded, expectCode: http.StatusBadRequest},
		{name: "sold out", err: commands.ErrSoldOut, expectCode: http.StatusConflict},
		{name: "duplicate", err: commands.ErrDuplicateOrder, expectCode: http.StatusConflict},
		{name: "infrastructure failure", err: errors.New("store down"), expectCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.seckill.orderID = 123456789012345
			s.seckill.err = tt.err

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/vouchers/7/seckill", nil)
			s.router.ServeHTTP(w, req)

			s.Equal(tt.expectCode, w.Code)
			if tt.err == nil {
				var body struct {
					OrderID string `json:"orderId"`
				}
				s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
				s.Equal("123456789012345", body.OrderID)
			}
		})
	}
}

func (s *VoucherHandlerTestSuite) TestSeckill_ErrorBody() {
	s.seckill.err = commands.ErrSoldOut

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/vouchers/7/seckill", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusConflict, w.Code)
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("Sold out", body.Error.Message)
}

func (s *VoucherHandlerTestSuite) TestSeckill_InvalidID() {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/vouchers/abc/seckill", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *VoucherHandlerTestSuite) TestAddVoucher() {
	s.vouchers.id = 42

	body := `{
		"title": "100 off",
		"stock": 200,
		"begin_time": "2026-05-01T10:00:00Z",
		"end_time": "2026-05-01T12:00:00Z"
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/vouchers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusCreated, w.Code)

	var resp struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("42", resp.ID)
}

func (s *VoucherHandlerTestSuite) TestAddVoucher_ValidationError() {
	s.vouchers.err = commands.ErrVoucherValidation

	body := `{
		"title": "100 off",
		"stock": 200,
		"begin_time": "2026-05-01T12:00:00Z",
		"end_time": "2026-05-01T10:00:00Z"
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/vouchers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *VoucherHandlerTestSuite) TestGetVoucher() {
	s.queries.view = &queries.VoucherView{
		ID:        7,
		Title:     "100 off",
		Stock:     150,
		BeginTime: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/vouchers/7", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Stock int32  `json:"stock"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("7", resp.ID)
	s.Equal("100 off", resp.Title)
	s.Equal(int32(150), resp.Stock)
}

func (s *VoucherHandlerTestSuite) TestGetVoucher_NotFound() {
	s.queries.err = queries.ErrVoucherNotFound

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/vouchers/404", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNotFound, w.Code)
}
