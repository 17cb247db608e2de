package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sushikoi/internal/domain"
	"sushikoi/internal/format"
)

type promotionResp struct {
	domain.Promotion
	Price          int64  `json:"price"`
	PriceFormatted string `json:"price_formatted"`
}

func promotionView(p domain.Promotion) promotionResp {
	return promotionResp{Promotion: p, Price: p.Price(), PriceFormatted: format.CLP(p.Price())}
}

// @Summary List promotions
// @Tags promotions
// @Produce json
// @Param active query bool false "Only promotions available now"
// @Success 200 {array} promotionResp
// @Router /promotions [get]
func (s *Server) listPromotions(c *gin.Context) {
	active, _ := strconv.ParseBool(c.Query("active"))
	list := s.Promotions.List(c, active)
	out := make([]promotionResp, 0, len(list))
	for _, p := range list {
		out = append(out, promotionView(p))
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Create promotion
// @Tags promotions
// @Accept json
// @Produce json
// @Param input body domain.Promotion true "Promotion"
// @Success 201 {object} promotionResp
// @Failure 400 {object} map[string]string
// @Router /promotions [post]
func (s *Server) createPromotion(c *gin.Context) {
	var req domain.Promotion
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.Promotions.Create(c, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, promotionView(*p))
}

// @Summary Get promotion by id
// @Tags promotions
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 200 {object} promotionResp
// @Failure 404 {object} map[string]string
// @Router /promotions/{id} [get]
func (s *Server) getPromotion(c *gin.Context) {
	p, err := s.Promotions.GetByID(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, promotionView(*p))
}

// @Summary Update promotion
// @Tags promotions
// @Accept json
// @Produce json
// @Param id path string true "Promotion ID"
// @Param input body domain.Promotion true "Promotion"
// @Success 200 {object} promotionResp
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /promotions/{id} [put]
func (s *Server) updatePromotion(c *gin.Context) {
	var req domain.Promotion
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.ID = c.Param("id")
	p, err := s.Promotions.Update(c, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, promotionView(*p))
}

// @Summary Delete promotion
// @Tags promotions
// @Param id path string true "Promotion ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /promotions/{id} [delete]
func (s *Server) deletePromotion(c *gin.Context) {
	if err := s.Promotions.Delete(c, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List customers
// @Tags customers
// @Produce json
// @Param q query string false "Name or phone contains"
// @Param phone query string false "Exact phone lookup"
// @Success 200 {array} domain.Customer
// @Failure 404 {object} map[string]string
// @Router /customers [get]
func (s *Server) listCustomers(c *gin.Context) {
	if phone := c.Query("phone"); phone != "" {
		cust, err := s.Customers.FindByPhone(c, phone)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, []domain.Customer{*cust})
		return
	}
	c.JSON(http.StatusOK, s.Customers.List(c, c.Query("q")))
}

// @Summary Create customer
// @Tags customers
// @Accept json
// @Produce json
// @Param input body domain.Customer true "Customer"
// @Success 201 {object} domain.Customer
// @Failure 400 {object} map[string]string
// @Router /customers [post]
func (s *Server) createCustomer(c *gin.Context) {
	var req domain.Customer
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cust, err := s.Customers.Create(c, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

// @Summary Get customer by id
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} domain.Customer
// @Failure 404 {object} map[string]string
// @Router /customers/{id} [get]
func (s *Server) getCustomer(c *gin.Context) {
	cust, err := s.Customers.GetByID(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

// @Summary Update customer
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID"
// @Param input body domain.Customer true "Customer"
// @Success 200 {object} domain.Customer
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /customers/{id} [put]
func (s *Server) updateCustomer(c *gin.Context) {
	var req domain.Customer
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.ID = c.Param("id")
	cust, err := s.Customers.Update(c, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

// @Summary Delete customer
// @Tags customers
// @Param id path string true "Customer ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /customers/{id} [delete]
func (s *Server) deleteCustomer(c *gin.Context) {
	if err := s.Customers.Delete(c, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
