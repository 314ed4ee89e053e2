package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/coupon"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
	cancelorder "github.com/corray333/backend-labs/grocery/internal/transport/http/v1/cancel_order"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/coupons"
	createorder "github.com/corray333/backend-labs/grocery/internal/transport/http/v1/create_order"
	getorder "github.com/corray333/backend-labs/grocery/internal/transport/http/v1/get_order"
	listorders "github.com/corray333/backend-labs/grocery/internal/transport/http/v1/list_orders"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/params"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/reorder"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/respond"
	updatestatus "github.com/corray333/backend-labs/grocery/internal/transport/http/v1/update_status"
	"github.com/corray333/backend-labs/grocery/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/grocery/pkg/logger"
)

type orderService interface {
	CreateOrder(ctx context.Context, caller identity.Caller, req order.CreateOrderModel) (order.Order, error)
	GetOrder(ctx context.Context, caller identity.Caller, id uuid.UUID) (order.Order, error)
	ListOrders(ctx context.Context, caller identity.Caller, req order.ListOrdersModel) (order.Page, error)
	UpdateOrderStatus(
		ctx context.Context,
		caller identity.Caller,
		id uuid.UUID,
		status order.Status,
		note *string,
	) (order.Order, error)
	CancelOrder(ctx context.Context, caller identity.Caller, id uuid.UUID, reason string) (order.Order, error)
	Reorder(ctx context.Context, caller identity.Caller, id uuid.UUID) (order.ReorderCart, error)
}

type couponService interface {
	CreateCoupon(ctx context.Context, caller identity.Caller, req coupon.CreateModel) (coupon.Coupon, error)
	GetCoupon(ctx context.Context, caller identity.Caller, code string) (coupon.Coupon, error)
	ListCoupons(ctx context.Context, caller identity.Caller, page, pageSize int) (coupon.Page, error)
	PatchCoupon(ctx context.Context, caller identity.Caller, code string, patch coupon.Patch) (coupon.Coupon, error)
}

// authenticator turns bearer tokens into callers.
type authenticator interface {
	Middleware(next http.Handler) http.Handler
}

type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	orders  orderService
	coupons couponService
	auth    authenticator
}

func NewHTTPTransport(orders orderService, coupons couponService, auth authenticator) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:  server,
		router:  router,
		orders:  orders,
		coupons: coupons,
		auth:    auth,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler exposes the router, mostly for tests.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h.router.Route("/api/v1", func(r chi.Router) {
		r.Use(h.auth.Middleware)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.createOrder)
			r.Get("/", h.listOrders)
			r.Get("/{id}", h.getOrder)
			r.Put("/{id}/status", h.updateStatus)
			r.Post("/{id}/cancel", h.cancelOrder)
			r.Post("/{id}/reorder", h.reorder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireRole(identity.RoleAdmin))

			r.Get("/orders", h.listOrders)
			r.Post("/coupons", h.createCoupon)
			r.Get("/coupons", h.listCoupons)
			r.Get("/coupons/{code}", h.getCoupon)
			r.Patch("/coupons/{code}", h.patchCoupon)
		})
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.orders)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.orders)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.orders)
}

func (h *HTTPTransport) updateStatus(w http.ResponseWriter, r *http.Request) {
	updatestatus.UpdateStatus(w, r, h.orders)
}

func (h *HTTPTransport) cancelOrder(w http.ResponseWriter, r *http.Request) {
	cancelorder.CancelOrder(w, r, h.orders)
}

func (h *HTTPTransport) reorder(w http.ResponseWriter, r *http.Request) {
	reorder.Reorder(w, r, h.orders)
}

func (h *HTTPTransport) createCoupon(w http.ResponseWriter, r *http.Request) {
	coupons.Create(w, r, h.coupons)
}

func (h *HTTPTransport) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons.List(w, r, h.coupons)
}

func (h *HTTPTransport) getCoupon(w http.ResponseWriter, r *http.Request) {
	coupons.Get(w, r, h.coupons)
}

func (h *HTTPTransport) patchCoupon(w http.ResponseWriter, r *http.Request) {
	coupons.Patch(w, r, h.coupons)
}

func requireRole(role identity.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := params.Caller(r)
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			if caller.Role != role {
				respond.Error(w, r, apperr.Forbidden("Admin access required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(trace.NewTraceMiddleware("order-svc"))
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: viper.GetDuration("server.http.read_header_timeout"),
	}
}
