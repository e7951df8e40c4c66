package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pharmacy/internal/apperror"
	"pharmacy/internal/middleware"
	"pharmacy/internal/repository"
	"pharmacy/internal/service"
	"pharmacy/pkg/logger"
	"pharmacy/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "handler-secret"

func init() {
	gin.SetMode(gin.TestMode)
	middleware.InitAuth(secret)
}

func bearer(t *testing.T, sub, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + signed
}

type routes interface {
	RegisterRoutes(router *gin.RouterGroup)
}

func newAPI(h routes) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(logger.Nop()))
	h.RegisterRoutes(r.Group("/api"))
	return r
}

func call(r http.Handler, method, path, auth string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

type stubSaleService struct {
	calls   int
	userID  string
	request service.SaleRequest
	result  service.SaleResponse
	err     error
}

func (s *stubSaleService) CreateSale(_ context.Context, userID string, req service.SaleRequest) (service.SaleResponse, error) {
	s.calls++
	s.userID = userID
	s.request = req
	return s.result, s.err
}

func (s *stubSaleService) UpdateSale(_ context.Context, userID, _ string, req service.SaleRequest) (service.SaleResponse, error) {
	s.calls++
	s.userID = userID
	s.request = req
	return s.result, s.err
}

func (s *stubSaleService) GetSale(context.Context, string) (service.SaleResponse, error) {
	s.calls++
	return s.result, s.err
}

func (s *stubSaleService) ListSales(context.Context, int, int) ([]service.SaleResponse, int64, error) {
	s.calls++
	return []service.SaleResponse{s.result}, 1, s.err
}

func TestCreateSaleReturnsCreated(t *testing.T) {
	stub := &stubSaleService{result: service.SaleResponse{ID: "sale-1", TotalAmount: "18.00"}}
	r := newAPI(NewSaleHandler(stub))

	w := call(r, http.MethodPost, "/api/sales", bearer(t, "user-7", "pharmacist"), map[string]any{
		"discount_percentage": "10",
		"input_items":         []map[string]any{{"medicine": "m-1", "quantity": 4}},
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "user-7", stub.userID)
	require.Len(t, stub.request.InputItems, 1)
	assert.Equal(t, 4, stub.request.InputItems[0].Quantity)
	assert.Equal(t, "10", stub.request.DiscountPercentage.String())
	assert.Contains(t, w.Body.String(), `"total_amount":"18.00"`)
}

func TestCreateSaleBindingErrors(t *testing.T) {
	cases := []struct {
		name  string
		body  any
		field string
	}{
		{"item without medicine", map[string]any{"input_items": []map[string]any{{"quantity": 1}}}, apperror.ItemsField},
		{"unknown payment method", map[string]any{"payment_method": "cheque", "input_items": []map[string]any{{"medicine": "m", "quantity": 1}}}, "payment_method"},
		{"quantity of wrong type", `{"input_items":[{"medicine":"m","quantity":"two"}]}`, apperror.ItemsField},
		{"malformed json", `{"input_items":`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubSaleService{}
			r := newAPI(NewSaleHandler(stub))

			w := call(r, http.MethodPost, "/api/sales", bearer(t, "u", "admin"), tc.body)

			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Zero(t, stub.calls)
			res := decode(t, w)
			assert.Equal(t, apperror.CodeValidation, res.Code)
			if tc.field != "" {
				assert.Contains(t, res.Fields, tc.field)
			}
		})
	}
}

func TestSaleErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		field  string
	}{
		{"insufficient stock", apperror.NewInsufficientStock("Paracetamol", 2, 5), http.StatusBadRequest, apperror.CodeInsufficientStock, apperror.ItemsField},
		{"not found", apperror.NewNotFound("Sale", "x"), http.StatusNotFound, apperror.CodeNotFound, ""},
		{"lock timeout", apperror.NewConcurrency(errors.New("55P03")), http.StatusConflict, apperror.CodeConcurrency, ""},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, apperror.CodeInternal, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newAPI(NewSaleHandler(&stubSaleService{err: tc.err}))

			w := call(r, http.MethodPut, "/api/sales/abc", bearer(t, "u", "pharmacist"), map[string]any{
				"input_items": []map[string]any{{"medicine": "m", "quantity": 5}},
			})

			require.Equal(t, tc.status, w.Code)
			res := decode(t, w)
			assert.Equal(t, tc.code, res.Code)
			if tc.field != "" {
				assert.Contains(t, res.Fields, tc.field)
			}
			assert.NotContains(t, res.Error, "boom")
		})
	}
}

func TestSalesRequireStaffRole(t *testing.T) {
	stub := &stubSaleService{}
	r := newAPI(NewSaleHandler(stub))

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/sales", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/sales", bearer(t, "u", "guest"), nil).Code)
	assert.Zero(t, stub.calls)

	w := call(r, http.MethodGet, "/api/sales?page=2&limit=5", bearer(t, "u", "admin"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"page":2`)
	assert.Contains(t, w.Body.String(), `"limit":5`)
}

type stubMedicineService struct {
	service.MedicineService
	filter  repository.MedicineFilter
	created int
}

func (s *stubMedicineService) ListMedicines(_ context.Context, filter repository.MedicineFilter) ([]service.MedicineResponse, int64, error) {
	s.filter = filter
	return []service.MedicineResponse{}, 0, nil
}

func (s *stubMedicineService) CreateMedicine(context.Context, string, service.CreateMedicineRequest) (service.MedicineResponse, error) {
	s.created++
	return service.MedicineResponse{ID: "m-1"}, nil
}

func TestListMedicinesFilter(t *testing.T) {
	stub := &stubMedicineService{}
	r := newAPI(NewMedicineHandler(stub))
	auth := bearer(t, "u", "pharmacist")

	w := call(r, http.MethodGet, "/api/medicines?search=para&ordering=-stock&department=6f1c2f3e-8a8e-4a57-9a3c-0f6d6a1d2b11", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "para", stub.filter.Search)
	assert.Equal(t, "-stock", stub.filter.Ordering)
	require.NotNil(t, stub.filter.DepartmentID)
	assert.Equal(t, "6f1c2f3e-8a8e-4a57-9a3c-0f6d6a1d2b11", stub.filter.DepartmentID.String())

	w = call(r, http.MethodGet, "/api/medicines?department=nope", auth, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Fields, "department")
}

func TestMedicineWritesAreAdminOnly(t *testing.T) {
	stub := &stubMedicineService{}
	r := newAPI(NewMedicineHandler(stub))
	body := map[string]any{
		"code_no": "P-1", "brand_name": "Panadol",
		"manufacture_date": "2026-01-01", "expire_date": "2028-01-01", "price": "5.00",
	}

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/api/medicines", bearer(t, "u", "pharmacist"), body).Code)
	assert.Zero(t, stub.created)

	w := call(r, http.MethodPost, "/api/medicines", bearer(t, "u", "admin"), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, stub.created)

	delete(body, "brand_name")
	w = call(r, http.MethodPost, "/api/medicines", bearer(t, "u", "admin"), body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "This field is required.", decode(t, w).Fields["brand_name"])
}

type stubUserService struct {
	service.UserService
	actorID   string
	actorRole string
}

func (s *stubUserService) CreateUser(_ context.Context, actorID, actorRole string, req service.CreateUserRequest) (*service.UserResponse, error) {
	s.actorID = actorID
	s.actorRole = actorRole
	return &service.UserResponse{Username: req.Username, Email: req.Email, Role: "admin"}, nil
}

func (s *stubUserService) Login(context.Context, service.LoginUserRequest) (*service.TokenResponse, error) {
	return nil, apperror.NewUnauthorized("invalid email or password")
}

func TestRegisterPassesCallerIdentity(t *testing.T) {
	stub := &stubUserService{}
	r := newAPI(NewUserHandler(stub))
	body := map[string]any{"username": "root", "email": "root@example.com", "password": "secret1"}

	w := call(r, http.MethodPost, "/api/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, stub.actorID)
	assert.Empty(t, stub.actorRole)

	w = call(r, http.MethodPost, "/api/register", bearer(t, "admin-1", "admin"), body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "admin-1", stub.actorID)
	assert.Equal(t, "admin", stub.actorRole)

	w = call(r, http.MethodPost, "/api/register", "Bearer junk", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginFailure(t *testing.T) {
	r := newAPI(NewUserHandler(&stubUserService{}))

	w := call(r, http.MethodPost, "/api/login", "", map[string]any{"email": "a@b.co", "password": "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, decode(t, w).Code)

	w = call(r, http.MethodPost, "/api/login", "", map[string]any{"email": "not-an-email", "password": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Enter a valid email address.", decode(t, w).Fields["email"])
}
