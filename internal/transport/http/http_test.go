package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/coupon"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
	"github.com/corray333/backend-labs/grocery/pkg/http/middleware/auth"
)

const jwtSecret = "http-test-secret"

type fakeOrders struct {
	created    order.CreateOrderModel
	listed     order.ListOrdersModel
	status     order.Status
	note       *string
	reason     string
	caller     identity.Caller
	err        error
	orderToGet order.Order
}

func (f *fakeOrders) CreateOrder(_ context.Context, caller identity.Caller, req order.CreateOrderModel) (order.Order, error) {
	f.caller, f.created = caller, req
	if f.err != nil {
		return order.Order{}, f.err
	}

	return order.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1234567-ABCD",
		CustomerID:  caller.ID,
		VendorID:    req.VendorID,
		TotalAmount: decimal.RequireFromString("90.00"),
		Status:      order.StatusPending,
	}, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, caller identity.Caller, id uuid.UUID) (order.Order, error) {
	f.caller = caller
	if f.err != nil {
		return order.Order{}, f.err
	}
	o := f.orderToGet
	o.ID = id

	return o, nil
}

func (f *fakeOrders) ListOrders(_ context.Context, caller identity.Caller, req order.ListOrdersModel) (order.Page, error) {
	f.caller, f.listed = caller, req
	if f.err != nil {
		return order.Page{}, f.err
	}

	return order.Page{Orders: []order.Order{}, Total: 0, Page: 1, PageSize: 20}, nil
}

func (f *fakeOrders) UpdateOrderStatus(
	_ context.Context,
	caller identity.Caller,
	id uuid.UUID,
	status order.Status,
	note *string,
) (order.Order, error) {
	f.caller, f.status, f.note = caller, status, note
	if f.err != nil {
		return order.Order{}, f.err
	}

	return order.Order{ID: id, Status: status}, nil
}

func (f *fakeOrders) CancelOrder(_ context.Context, caller identity.Caller, id uuid.UUID, reason string) (order.Order, error) {
	f.caller, f.reason = caller, reason
	if f.err != nil {
		return order.Order{}, f.err
	}

	return order.Order{ID: id, Status: order.StatusCancelled, CancellationReason: &reason}, nil
}

func (f *fakeOrders) Reorder(_ context.Context, caller identity.Caller, _ uuid.UUID) (order.ReorderCart, error) {
	f.caller = caller
	if f.err != nil {
		return order.ReorderCart{}, f.err
	}

	return order.ReorderCart{VendorID: uuid.New(), Items: []order.ReorderItem{}}, nil
}

type fakeCoupons struct {
	created coupon.CreateModel
	patch   coupon.Patch
	code    string
}

func (f *fakeCoupons) CreateCoupon(_ context.Context, _ identity.Caller, req coupon.CreateModel) (coupon.Coupon, error) {
	f.created = req

	return coupon.Coupon{Code: coupon.NormalizeCode(req.Code), DiscountType: req.DiscountType}, nil
}

func (f *fakeCoupons) GetCoupon(_ context.Context, _ identity.Caller, code string) (coupon.Coupon, error) {
	f.code = code

	return coupon.Coupon{Code: code}, nil
}

func (f *fakeCoupons) ListCoupons(_ context.Context, _ identity.Caller, page, pageSize int) (coupon.Page, error) {
	return coupon.Page{Coupons: []coupon.Coupon{}, Page: page, PageSize: pageSize}, nil
}

func (f *fakeCoupons) PatchCoupon(_ context.Context, _ identity.Caller, code string, patch coupon.Patch) (coupon.Coupon, error) {
	f.code, f.patch = code, patch

	return coupon.Coupon{Code: code}, nil
}

type HTTPTransportSuite struct {
	suite.Suite

	orders  *fakeOrders
	coupons *fakeCoupons
	handler http.Handler

	customer identity.Caller
	admin    identity.Caller
}

func TestHTTPTransportSuite(t *testing.T) {
	suite.Run(t, new(HTTPTransportSuite))
}

func (s *HTTPTransportSuite) SetupTest() {
	s.orders = &fakeOrders{}
	s.coupons = &fakeCoupons{}
	s.customer = identity.Caller{ID: uuid.New(), Role: identity.RoleCustomer}
	s.admin = identity.Caller{ID: uuid.New(), Role: identity.RoleAdmin}

	transport := NewHTTPTransport(s.orders, s.coupons, auth.NewAuthenticator(jwtSecret))
	transport.RegisterRoutes()
	s.handler = transport.Handler()
}

func (s *HTTPTransportSuite) token(caller identity.Caller) string {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role: string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(jwtSecret))
	s.Require().NoError(err)

	return raw
}

func (s *HTTPTransportSuite) do(method, target, body string, caller *identity.Caller) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(*caller))
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	return rec
}

func (s *HTTPTransportSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func (s *HTTPTransportSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HTTPTransportSuite) TestRequiresToken() {
	rec := s.do(http.MethodGet, "/api/v1/orders", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HTTPTransportSuite) TestCreateOrder() {
	vendorID, productID, addressID := uuid.New(), uuid.New(), uuid.New()
	body := `{"vendor_id":"` + vendorID.String() + `","delivery_address_id":"` + addressID.String() +
		`","items":[{"product_id":"` + productID.String() + `","quantity":2}],"coupon_code":"save10"}`

	rec := s.do(http.MethodPost, "/api/v1/orders", body, &s.customer)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	resp := s.decode(rec)
	s.Equal(true, resp["success"])
	s.Equal("Order placed successfully", resp["message"])
	data := resp["data"].(map[string]any)
	s.Equal("90", data["total_amount"])

	s.Equal(s.customer, s.orders.caller)
	s.Equal(vendorID, s.orders.created.VendorID)
	s.Equal(order.PaymentMethodCOD, s.orders.created.PaymentMethod)
	s.Require().Len(s.orders.created.Items, 1)
	s.Equal(2, s.orders.created.Items[0].Quantity)
	s.Equal("save10", *s.orders.created.CouponCode)
}

func (s *HTTPTransportSuite) TestCreateOrder_RejectsBadBodies() {
	vendorID, addressID := uuid.New(), uuid.New()
	tests := []struct {
		name string
		body string
	}{
		{name: "no items", body: `{"vendor_id":"` + vendorID.String() + `","delivery_address_id":"` + addressID.String() + `","items":[]}`},
		{name: "zero quantity", body: `{"vendor_id":"` + vendorID.String() + `","delivery_address_id":"` + addressID.String() +
			`","items":[{"product_id":"` + uuid.NewString() + `","quantity":0}]}`},
		{name: "bad uuid", body: `{"vendor_id":"x","delivery_address_id":"` + addressID.String() + `","items":[]}`},
		{name: "missing vendor", body: `{"delivery_address_id":"` + addressID.String() +
			`","items":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodPost, "/api/v1/orders", tt.body, &s.customer)
			s.Equal(http.StatusBadRequest, rec.Code)
			errBody := s.decode(rec)["error"].(map[string]any)
			s.Equal("VALIDATION_ERROR", errBody["code"])
		})
	}
}

func (s *HTTPTransportSuite) TestServiceErrorsAreMapped() {
	s.orders.err = apperr.InsufficientStock("Apples")
	body := `{"vendor_id":"` + uuid.NewString() + `","delivery_address_id":"` + uuid.NewString() +
		`","items":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`

	rec := s.do(http.MethodPost, "/api/v1/orders", body, &s.customer)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.JSONEq(`{"success":false,"error":{"code":"INSUFFICIENT_STOCK","message":"Insufficient stock for Apples"}}`, rec.Body.String())

	s.orders.err = errors.New("connection reset by peer")
	rec = s.do(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), "", &s.customer)
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.NotContains(rec.Body.String(), "connection reset")
}

func (s *HTTPTransportSuite) TestGetOrder_BadID() {
	rec := s.do(http.MethodGet, "/api/v1/orders/not-a-uuid", "", &s.customer)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HTTPTransportSuite) TestListOrders_ParsesFilters() {
	vendorID := uuid.New()
	rec := s.do(http.MethodGet,
		"/api/v1/orders?status=shipped&payment_status=bogus&vendor_id="+vendorID.String()+"&page=2&page_size=5&date_from=2026-01-01",
		"", &s.customer)
	s.Require().Equal(http.StatusOK, rec.Code)

	listed := s.orders.listed
	s.Require().NotNil(listed.Status)
	s.Equal(order.StatusShipped, *listed.Status)
	s.Nil(listed.PaymentStatus)
	s.Equal(vendorID, *listed.VendorID)
	s.Equal(2, listed.Page)
	s.Equal(5, listed.PageSize)
	s.NotNil(listed.DateFrom)

	resp := s.decode(rec)
	s.Equal(true, resp["success"])
	s.Equal([]any{}, resp["data"])
	s.EqualValues(20, resp["page_size"])
}

func (s *HTTPTransportSuite) TestUpdateStatus() {
	id := uuid.New()

	rec := s.do(http.MethodPut, "/api/v1/orders/"+id.String()+"/status", `{"status":"teleported"}`, &s.admin)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/v1/orders/"+id.String()+"/status", `{"status":"packed","note":"ready"}`, &s.admin)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(order.StatusPacked, s.orders.status)
	s.Equal("ready", *s.orders.note)

	s.orders.err = apperr.InvalidStateTransition("packed", "pending")
	rec = s.do(http.MethodPut, "/api/v1/orders/"+id.String()+"/status", `{"status":"pending"}`, &s.admin)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HTTPTransportSuite) TestCancelOrder() {
	id := uuid.New()

	rec := s.do(http.MethodPost, "/api/v1/orders/"+id.String()+"/cancel?reason=late", "", &s.customer)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("late", s.orders.reason)

	rec = s.do(http.MethodPost, "/api/v1/orders/"+id.String()+"/cancel", `{"reason":"wrong address"}`, &s.customer)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("wrong address", s.orders.reason)
}

func (s *HTTPTransportSuite) TestReorder() {
	rec := s.do(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/reorder", "", &s.customer)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Reorder items retrieved", s.decode(rec)["message"])
}

func (s *HTTPTransportSuite) TestAdminRoutesRequireAdmin() {
	for _, target := range []string{"/api/v1/admin/orders", "/api/v1/admin/coupons"} {
		rec := s.do(http.MethodGet, target, "", &s.customer)
		s.Equal(http.StatusForbidden, rec.Code, target)
	}

	rec := s.do(http.MethodGet, "/api/v1/admin/orders?customer_id="+s.customer.ID.String(), "", &s.admin)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(s.customer.ID, *s.orders.listed.CustomerID)
}

func (s *HTTPTransportSuite) TestCoupons() {
	rec := s.do(http.MethodPost, "/api/v1/admin/coupons",
		`{"code":"save10","discount_type":"flat","discount_value":"10.00","min_order_amount":100}`, &s.admin)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Equal("SAVE10", s.decode(rec)["data"].(map[string]any)["code"])
	s.True(s.coupons.created.DiscountValue.Equal(decimal.NewFromInt(10)))
	s.True(s.coupons.created.MinOrderAmount.Equal(decimal.NewFromInt(100)))

	rec = s.do(http.MethodPost, "/api/v1/admin/coupons", `{"code":"X","discount_type":"cashback"}`, &s.admin)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/admin/coupons/SAVE10", "", &s.admin)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("SAVE10", s.coupons.code)

	rec = s.do(http.MethodPatch, "/api/v1/admin/coupons/SAVE10", `{"is_active":false}`, &s.admin)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NotNil(s.coupons.patch.IsActive)
	s.False(*s.coupons.patch.IsActive)

	s.Nil(s.coupons.patch.MaxDiscountAmount)
	s.False(s.coupons.patch.ClearMaxDiscount)

	rec = s.do(http.MethodPatch, "/api/v1/admin/coupons/SAVE10", `{"max_discount_amount":"75.50"}`, &s.admin)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Require().NotNil(s.coupons.patch.MaxDiscountAmount)
	s.Equal("75.5", s.coupons.patch.MaxDiscountAmount.String())
	s.False(s.coupons.patch.ClearMaxDiscount)

	rec = s.do(http.MethodPatch, "/api/v1/admin/coupons/SAVE10", `{"max_discount_amount":null}`, &s.admin)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Nil(s.coupons.patch.MaxDiscountAmount)
	s.True(s.coupons.patch.ClearMaxDiscount)

	rec = s.do(http.MethodPatch, "/api/v1/admin/coupons/SAVE10", `{"used_count":0}`, &s.admin)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/admin/coupons?page=2&page_size=10", "", &s.admin)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.EqualValues(2, s.decode(rec)["page"])
}

func TestRequireRoleWithoutCaller(t *testing.T) {
	h := requireRole(identity.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}
