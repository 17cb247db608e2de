package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"sushikoi/internal/domain"
	"sushikoi/internal/format"
	"sushikoi/internal/geo"
	"sushikoi/internal/logging"
	"sushikoi/internal/repository"
	"sushikoi/internal/service"
)

// Deps всё, что нужно HTTP-слою
type Deps struct {
	Orders     *service.OrderService
	Promotions *service.PromotionService
	Customers  *service.CustomerService
	Sessions   *geo.Sessions
	Router     service.RoutePlanner
	Origin     domain.LatLng
	CityHint   string
	Log        *logging.Logger
}

type Server struct {
	engine *gin.Engine
	Deps
}

func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = logging.NopLogger()
	}
	d.Log = d.Log.WithComponent("http")
	r := gin.New()
	r.Use(requestLogger(d.Log), gin.Recovery())
	s := &Server{engine: r, Deps: d}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", s.healthz)

	v1 := s.engine.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		orders.GET("", s.listOrders)
		orders.POST("", s.createOrder)
		orders.DELETE("", s.clearOrders)
		orders.GET(":id", s.getOrder)
		orders.PATCH(":id", s.patchOrder)
		orders.DELETE(":id", s.removeOrder)
		orders.PUT(":id/items", s.updateItems)
		orders.POST(":id/cook", s.startCooking)
		orders.POST(":id/ready", s.markReady)
		orders.POST(":id/cancel-packing", s.cancelPacking)
		orders.POST(":id/deliver", s.markDelivered)
		orders.POST(":id/cancel", s.cancelOrder)
		orders.POST(":id/pay", s.confirmPayment)
		orders.POST(":id/reject-payment", s.rejectPayment)
		orders.POST(":id/refund", s.refundPayment)
		orders.GET(":id/navigation", s.navigation)

		v1.GET("/dashboard", s.dashboard)

		v1.GET("/geocode", s.geocode)
		v1.GET("/reverse", s.reverse)
		v1.GET("/route", s.route)

		promotions := v1.Group("/promotions")
		promotions.GET("", s.listPromotions)
		promotions.POST("", s.createPromotion)
		promotions.GET(":id", s.getPromotion)
		promotions.PUT(":id", s.updatePromotion)
		promotions.DELETE(":id", s.deletePromotion)

		customers := v1.Group("/customers")
		customers.GET("", s.listCustomers)
		customers.POST("", s.createCustomer)
		customers.GET(":id", s.getCustomer)
		customers.PUT(":id", s.updateCustomer)
		customers.DELETE(":id", s.deleteCustomer)
	}
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary List orders visible to a role
// @Tags orders
// @Produce json
// @Param role query string false "cashier, cook, delivery or admin" default(cashier)
// @Success 200 {array} service.OrderView
// @Failure 400 {object} map[string]string
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Orders.ListOrders(c, role))
}

type paymentReq struct {
	Method domain.PaymentMethod `json:"method"`
	Status domain.PaymentStatus `json:"status"`
}

type createOrderReq struct {
	Customer    domain.Customer    `json:"customer"`
	Items       []domain.OrderItem `json:"items"`
	Payment     paymentReq         `json:"payment"`
	Notes       string             `json:"notes"`
	CreatedBy   string             `json:"created_by"`
	Destination *domain.LatLng     `json:"destination"`
}

// @Summary Create order
// @Tags orders
// @Accept json
// @Produce json
// @Param input body createOrderReq true "Order"
// @Success 201 {object} service.OrderView
// @Failure 400 {object} map[string]string
// @Router /orders [post]
func (s *Server) createOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	draft := domain.Order{
		Customer:  req.Customer,
		Items:     req.Items,
		Payment:   domain.Payment{Method: req.Payment.Method, Status: domain.NormalizePaymentStatus(string(req.Payment.Status))},
		Notes:     req.Notes,
		CreatedBy: req.CreatedBy,
	}
	if req.Destination != nil {
		draft.Delivery = &domain.Delivery{Destination: req.Destination}
	}
	o, err := s.Orders.CreateOrder(c, draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Orders.View(*o, domain.RoleCashier))
}

// @Summary Remove all orders
// @Tags orders
// @Produce json
// @Success 200 {object} map[string]int
// @Router /orders [delete]
func (s *Server) clearOrders(c *gin.Context) {
	n := s.Orders.ClearAll(c)
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

// @Summary Get order by id
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Param role query string false "cashier, cook, delivery or admin" default(cashier)
// @Success 200 {object} service.OrderView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}
	v, err := s.Orders.GetOrderView(c, c.Param("id"), role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Patch customer, notes, payment method or destination
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param input body service.OrderPatch true "Patch"
// @Success 200 {object} service.OrderView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id} [patch]
func (s *Server) patchOrder(c *gin.Context) {
	var req service.OrderPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.orderAction(c, func(ctx context.Context, id string) (*domain.Order, error) {
		return s.Orders.UpdateOrder(ctx, id, req)
	})
}

// @Summary Remove order
// @Tags orders
// @Param id path string true "Order ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [delete]
func (s *Server) removeOrder(c *gin.Context) {
	if err := s.Orders.RemoveOrder(c, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type itemsReq struct {
	Items []domain.OrderItem `json:"items"`
}

// @Summary Replace order items
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param input body itemsReq true "Items"
// @Success 200 {object} service.OrderView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/items [put]
func (s *Server) updateItems(c *gin.Context) {
	var req itemsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.orderAction(c, func(ctx context.Context, id string) (*domain.Order, error) {
		return s.Orders.UpdateItems(ctx, id, req.Items)
	})
}

// @Summary Start cooking
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} service.OrderView
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/cook [post]
func (s *Server) startCooking(c *gin.Context) {
	s.orderAction(c, s.Orders.StartCooking)
}

// @Summary Mark ready and start the packing countdown
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} service.OrderView
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/ready [post]
func (s *Server) markReady(c *gin.Context) {
	s.orderAction(c, s.Orders.MarkReady)
}

// @Summary Stop the packing countdown
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} service.OrderView
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/cancel-packing [post]
func (s *Server) cancelPacking(c *gin.Context) {
	s.orderAction(c, s.Orders.CancelPacking)
}

// @Summary Confirm delivery
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} service.OrderView
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/deliver [post]
func (s *Server) markDelivered(c *gin.Context) {
	s.orderAction(c, s.Orders.MarkDelivered)
}

// @Summary Cancel order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} service.OrderView
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/cancel [post]
func (s *Server) cancelOrder(c *gin.Context) {
	s.orderAction(c, s.Orders.Cancel)
}

type payReq struct {
	Reference string `json:"reference"`
}

// @Summary Confirm payment
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param input body payReq false "Receipt or transaction reference"
// @Success 200 {object} service.OrderView
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/pay [post]
func (s *Server) confirmPayment(c *gin.Context) {
	var req payReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	s.orderAction(c, func(ctx context.Context, id string) (*domain.Order, error) {
		return s.Orders.ConfirmPayment(ctx, id, req.Reference)
	})
}

// @Summary Reject payment
// @Tags payments
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} service.OrderView
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/reject-payment [post]
func (s *Server) rejectPayment(c *gin.Context) {
	s.orderAction(c, s.Orders.RejectPayment)
}

// @Summary Refund payment of a cancelled order
// @Tags payments
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} service.OrderView
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/refund [post]
func (s *Server) refundPayment(c *gin.Context) {
	s.orderAction(c, s.Orders.RefundPayment)
}

type navigationResp struct {
	Links    geo.Links        `json:"links"`
	Origin   domain.LatLng    `json:"origin"`
	Dest     domain.LatLng    `json:"destination"`
	Distance string           `json:"distance,omitempty"`
	ETA      string           `json:"eta,omitempty"`
	Delivery *domain.Delivery `json:"delivery,omitempty"`
}

// @Summary Navigation links for the rider
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} navigationResp
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/navigation [get]
func (s *Server) navigation(c *gin.Context) {
	o, err := s.Orders.GetOrder(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	var dest *domain.LatLng
	switch {
	case o.Delivery != nil && o.Delivery.Destination != nil:
		dest = o.Delivery.Destination
	case o.Customer.Address.Location != nil:
		dest = o.Customer.Address.Location
	default:
		c.JSON(http.StatusConflict, gin.H{"error": "order has no destination"})
		return
	}
	resp := navigationResp{
		Links:    geo.NavigationLinks(s.Origin, *dest),
		Origin:   s.Origin,
		Dest:     *dest,
		Delivery: o.Delivery,
	}
	if o.Delivery != nil && o.Delivery.DistanceMeters > 0 {
		resp.Distance = format.Km(o.Delivery.DistanceMeters)
	}
	if o.Delivery != nil && o.Delivery.DurationSeconds > 0 {
		resp.ETA = format.Duration(o.Delivery.DurationSeconds)
	}
	c.JSON(http.StatusOK, resp)
}

type dashboardResp struct {
	service.Stats
	RevenueFormatted string                  `json:"revenue_formatted"`
	TopClients       []service.ClientSummary `json:"top_clients"`
	GeneratedAt      time.Time               `json:"generated_at"`
}

// @Summary Dashboard aggregates
// @Tags dashboard
// @Produce json
// @Param top query int false "Number of top clients" default(5)
// @Success 200 {object} dashboardResp
// @Router /dashboard [get]
func (s *Server) dashboard(c *gin.Context) {
	top := 5
	if v := c.Query("top"); v != "" {
		n, err := parseInt(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid top"})
			return
		}
		top = n
	}
	st := s.Orders.Stats(c)
	c.JSON(http.StatusOK, dashboardResp{
		Stats:            st,
		RevenueFormatted: format.CLP(st.Revenue),
		TopClients:       s.Orders.TopClients(c, top),
		GeneratedAt:      time.Now().UTC(),
	})
}

// orderAction runs a single-id order operation and writes the result
// orderAction runs a mutation and answers with the order as the caller's role sees it
func (s *Server) orderAction(c *gin.Context, fn func(ctx context.Context, id string) (*domain.Order, error)) {
	role, ok := roleParam(c)
	if !ok {
		return
	}
	o, err := fn(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Orders.View(*o, role))
}

// roleParam reads ?role=, defaulting to the cashier; it answers 400 itself
func roleParam(c *gin.Context) (domain.Role, bool) {
	v := c.Query("role")
	if v == "" {
		return domain.RoleCashier, true
	}
	r, err := domain.ParseRole(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return r, true
}

func writeError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrPaymentDue),
		errors.Is(err, service.ErrNotPacked):
		return http.StatusConflict
	case errors.Is(err, geo.ErrServiceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if strings.HasPrefix(path, "/swagger") {
			return
		}
		log.Info("request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
