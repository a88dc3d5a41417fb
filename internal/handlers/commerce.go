package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/adapters"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/services"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// marketFromQuery 解析 ?market= 市场码，缺省 US。
func (h *Handler) marketFromQuery(c *gin.Context) (*storage.Market, bool) {
	code := c.DefaultQuery("market", "US")
	m, err := h.marketSvc.ByCode(c.Request.Context(), code)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return m, true
}

func (h *Handler) listMarkets(c *gin.Context) {
	markets, err := h.marketSvc.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"markets": markets})
}

func (h *Handler) listShippingMethods(c *gin.Context) {
	m, err := h.marketSvc.ByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	methods, err := h.marketSvc.ShippingMethods(c.Request.Context(), m.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"market": m, "shipping_methods": methods})
}

func (h *Handler) listMerchants(c *gin.Context) {
	m, err := h.marketSvc.ByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	merchants, err := h.catalogSvc.Merchants(c.Request.Context(), m.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"merchants": merchants})
}

func (h *Handler) listProducts(c *gin.Context) {
	page, perPage, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	f := services.ProductFilter{
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Query:    c.Query("q"),
		InStock:  c.Query("in_stock") == "true",
		OnSale:   c.Query("on_sale") == "true",
	}
	if code := c.Query("market"); code != "" {
		m, err := h.marketSvc.ByCode(c.Request.Context(), code)
		if err != nil {
			fail(c, err)
			return
		}
		f.MarketID = m.ID
	}
	if v := c.Query("merchant_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			badRequest(c, "merchant_id must be a positive integer")
			return
		}
		f.MerchantID = id
	}
	if v := c.Query("price_min"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			badRequest(c, "price_min must be a decimal number")
			return
		}
		f.PriceMin = d
	}
	if v := c.Query("price_max"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			badRequest(c, "price_max must be a decimal number")
			return
		}
		f.PriceMax = d
	}
	products, total, err := h.catalogSvc.Products(c.Request.Context(), f, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, listPayload(products, page, perPage, total))
}

func (h *Handler) getProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	p, err := h.catalogSvc.Product(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"product": p})
}

// productStock 返回实时库存；商家支持对账时透传其报告值。
func (h *Handler) productStock(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	stock, err := h.catalogSvc.Stock(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"stock": stock})
}

// cartPayload 组装购物车响应：头部金额与逐条明细。
func (h *Handler) cartPayload(c *gin.Context, cart *storage.Cart) {
	items, err := h.cartSvc.Items(c.Request.Context(), cart.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"cart": cart, "items": items})
}

func (h *Handler) getCart(c *gin.Context) {
	m, ok := h.marketFromQuery(c)
	if !ok {
		return
	}
	cart, err := h.cartSvc.Active(c.Request.Context(), currentUserID(c), m.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.cartPayload(c, cart)
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req struct {
		ProductID uint64 `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity"`
		Color     string `json:"color"`
		Size      string `json:"size"`
		Market    string `json:"market"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id is required")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	code := req.Market
	if code == "" {
		code = c.DefaultQuery("market", "US")
	}
	m, err := h.marketSvc.ByCode(c.Request.Context(), code)
	if err != nil {
		fail(c, err)
		return
	}
	uid := currentUserID(c)
	cart, err := h.cartSvc.AddItem(c.Request.Context(), uid, m.ID, req.ProductID, req.Quantity, req.Color, req.Size)
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.cartPayload(c, cart)
}

func (h *Handler) updateCartItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "quantity is required")
		return
	}
	m, ok := h.marketFromQuery(c)
	if !ok {
		return
	}
	uid := currentUserID(c)
	cart, err := h.cartSvc.UpdateItem(c.Request.Context(), uid, m.ID, id, *req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.cartPayload(c, cart)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	m, ok := h.marketFromQuery(c)
	if !ok {
		return
	}
	uid := currentUserID(c)
	cart, err := h.cartSvc.RemoveItem(c.Request.Context(), uid, m.ID, id)
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.cartPayload(c, cart)
}

func (h *Handler) clearCart(c *gin.Context) {
	m, ok := h.marketFromQuery(c)
	if !ok {
		return
	}
	uid := currentUserID(c)
	cart, err := h.cartSvc.Clear(c.Request.Context(), uid, m.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.cartPayload(c, cart)
}

type addressReq struct {
	Label                string `json:"label"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	AddressLine1         string `json:"address_line1"`
	AddressLine2         string `json:"address_line2"`
	City                 string `json:"city"`
	State                string `json:"state"`
	PostalCode           string `json:"postal_code"`
	Country              string `json:"country"`
	Phone                string `json:"phone"`
	Email                string `json:"email"`
	IsDefault            *bool  `json:"is_default"`
	DeliveryInstructions string `json:"delivery_instructions"`
}

func (r addressReq) toInput() services.AddressInput {
	return services.AddressInput{
		Label:                r.Label,
		FirstName:            r.FirstName,
		LastName:             r.LastName,
		AddressLine1:         r.AddressLine1,
		AddressLine2:         r.AddressLine2,
		City:                 r.City,
		State:                r.State,
		PostalCode:           r.PostalCode,
		Country:              r.Country,
		Phone:                r.Phone,
		Email:                r.Email,
		IsDefault:            r.IsDefault,
		DeliveryInstructions: r.DeliveryInstructions,
	}
}

func (h *Handler) createAddress(c *gin.Context) {
	var req addressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid address payload")
		return
	}
	uid := currentUserID(c)
	addr, err := h.addressSvc.Create(c.Request.Context(), uid, req.toInput())
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusCreated, map[string]any{"address": addr})
}

func (h *Handler) listAddresses(c *gin.Context) {
	addrs, err := h.addressSvc.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"addresses": addrs})
}

func (h *Handler) updateAddress(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req addressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid address payload")
		return
	}
	uid := currentUserID(c)
	addr, err := h.addressSvc.Update(c.Request.Context(), uid, id, req.toInput())
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"address": addr})
}

func (h *Handler) deleteAddress(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	uid := currentUserID(c)
	if err := h.addressSvc.Delete(c.Request.Context(), uid, id); err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"message": "address deleted"})
}

// validateCoupon 试算优惠码可得的折扣，不产生核销记录。
func (h *Handler) validateCoupon(c *gin.Context) {
	var req struct {
		Code     string `json:"code" binding:"required"`
		Market   string `json:"market"`
		Subtotal string `json:"subtotal"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}
	code := req.Market
	if code == "" {
		code = "US"
	}
	m, err := h.marketSvc.ByCode(c.Request.Context(), code)
	if err != nil {
		fail(c, err)
		return
	}
	subtotal := decimal.Zero
	if req.Subtotal != "" {
		subtotal, err = decimal.NewFromString(req.Subtotal)
		if err != nil {
			badRequest(c, "subtotal must be a decimal number")
			return
		}
	}
	coupon, discount, err := h.couponSvc.Validate(c.Request.Context(), req.Code, currentUserID(c), m.ID, subtotal)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{
		"valid":    true,
		"coupon":   coupon,
		"discount": discount,
	})
}

func (h *Handler) checkoutStart(c *gin.Context) {
	var req struct {
		Market string `json:"market"`
	}
	_ = c.ShouldBindJSON(&req)
	code := req.Market
	if code == "" {
		code = "US"
	}
	m, err := h.marketSvc.ByCode(c.Request.Context(), code)
	if err != nil {
		fail(c, err)
		return
	}
	sess, err := h.checkoutSvc.Start(c.Request.Context(), currentUserID(c), m.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusCreated, map[string]any{"checkout": sess})
}

func (h *Handler) checkoutStatus(c *gin.Context) {
	sess, err := h.checkoutSvc.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"checkout": sess})
}

func (h *Handler) checkoutConfirmCart(c *gin.Context) {
	sess, err := h.checkoutSvc.ConfirmCart(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"checkout": sess})
}

func (h *Handler) checkoutShipping(c *gin.Context) {
	var req struct {
		AddressID  uint64 `json:"address_id" binding:"required"`
		MethodCode string `json:"shipping_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "address_id and shipping_method are required")
		return
	}
	sess, err := h.checkoutSvc.SetShipping(c.Request.Context(), currentUserID(c), c.Param("id"), req.AddressID, req.MethodCode)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"checkout": sess})
}

func (h *Handler) checkoutPayment(c *gin.Context) {
	var req struct {
		PaymentMethodID uint64 `json:"payment_method_id" binding:"required"`
		CouponCode      string `json:"coupon_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payment_method_id is required")
		return
	}
	sess, err := h.checkoutSvc.SetPayment(c.Request.Context(), currentUserID(c), c.Param("id"), req.PaymentMethodID, req.CouponCode)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"checkout": sess})
}

// checkoutComplete 在 confirmation 步发起扣款并完成下单。
// 授权成功才落订单并把会话推进 completed；拒付把会话退回 payment 步，
// 响应 200 {status:"declined"}；网关故障响应 502，会话停留在 confirmation。
func (h *Handler) checkoutComplete(c *gin.Context) {
	uid := currentUserID(c)
	sess, err := h.checkoutSvc.RequireConfirmed(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if sess.PaymentMethodID == 0 {
		badRequest(c, "payment method not selected")
		return
	}
	market, err := h.marketSvc.ByID(c.Request.Context(), sess.MarketID)
	if err != nil {
		fail(c, err)
		return
	}

	// 客户端重试时复用同一 reference 以保证至多一次扣款
	var body struct {
		PaymentReference string `json:"payment_reference"`
	}
	_ = c.ShouldBindJSON(&body)
	ref := body.PaymentReference
	if ref == "" {
		ref = services.NewReference()
	}

	txn, err := h.paymentSvc.ChargeCheckout(c.Request.Context(), uid, sess.PaymentMethodID, sess.Totals.Total, market.Currency, ref)
	if err != nil {
		fail(c, err)
		return
	}
	switch txn.Status {
	case adapters.PaymentDeclined:
		if err := h.checkoutSvc.ReturnToPayment(c.Request.Context(), sess, txn.FailureReason); err != nil {
			fail(c, err)
			return
		}
		h.respond(c, http.StatusOK, map[string]any{
			"status":   "declined",
			"reason":   txn.FailureReason,
			"checkout": sess,
		})
		return
	case adapters.PaymentError:
		c.JSON(http.StatusBadGateway, gin.H{"error": "gateway_error", "details": txn.FailureReason})
		return
	}

	order, err := h.orderSvc.PlaceFromCheckout(c.Request.Context(), sess)
	if err != nil {
		// 款已授权但订单没落下（库存竞争、券被用尽、风控拦截），必须冲正
		if _, rerr := h.paymentSvc.Refund(c.Request.Context(), uid, txn.ID); rerr != nil {
			log.WithError(rerr).WithField("reference", txn.Reference).
				Error("refund after failed order placement failed")
		}
		fail(c, err)
		return
	}
	if err := h.paymentSvc.BindOrder(c.Request.Context(), uid, txn, order, sess.PaymentMethodID); err != nil {
		fail(c, err)
		return
	}
	if err := h.checkoutSvc.MarkCompleted(c.Request.Context(), sess, order.ID); err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusCreated, map[string]any{
		"order":       order,
		"transaction": txn,
		"checkout":    sess,
	})
}

type payOrderReq struct {
	PaymentMethodID  uint64 `json:"payment_method_id" binding:"required"`
	PaymentReference string `json:"payment_reference"`
}

// payOrder 对支付失败或中断的订单重试扣款。
func (h *Handler) payOrder(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req payOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payment_method_id is required")
		return
	}
	ref := req.PaymentReference
	if ref == "" {
		ref = services.NewReference()
	}
	uid := currentUserID(c)
	txn, err := h.paymentSvc.ChargeOrder(c.Request.Context(), uid, id, req.PaymentMethodID, ref)
	if err != nil {
		fail(c, err)
		return
	}
	if txn.Status == adapters.PaymentDeclined {
		h.respond(c, http.StatusOK, map[string]any{"status": "declined", "reason": txn.FailureReason, "transaction": txn})
		return
	}
	if txn.Status == adapters.PaymentError {
		c.JSON(http.StatusBadGateway, gin.H{"error": "gateway_error", "details": txn.FailureReason})
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"status": "paid", "transaction": txn})
}

func (h *Handler) checkoutAbandon(c *gin.Context) {
	if err := h.checkoutSvc.Abandon(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"message": "checkout abandoned"})
}

func (h *Handler) listOrders(c *gin.Context) {
	page, perPage, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	orders, total, err := h.orderSvc.List(c.Request.Context(), currentUserID(c), c.Query("status"), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, listPayload(orders, page, perPage, total))
}

func (h *Handler) getOrder(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	order, items, err := h.orderSvc.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"order": order, "items": items})
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req struct {
		Status         string `json:"status" binding:"required"`
		TrackingNumber string `json:"tracking_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	uid := currentUserID(c)
	order, err := h.orderSvc.UpdateStatus(c.Request.Context(), uid, id, req.Status, req.TrackingNumber)
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"order": order})
}

// cancelOrder 取消未发货的订单并回补库存；已支付订单转入退款。
func (h *Handler) cancelOrder(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	uid := currentUserID(c)
	order, err := h.orderSvc.Cancel(c.Request.Context(), uid, id)
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) listPaymentMethods(c *gin.Context) {
	methods, err := h.paymentSvc.Methods(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"payment_methods": methods})
}

func (h *Handler) addPaymentMethod(c *gin.Context) {
	var req struct {
		MethodType  string `json:"method_type" binding:"required"`
		Token       string `json:"token" binding:"required"`
		Label       string `json:"label"`
		LastFour    string `json:"last_four"`
		ExpiryMonth int    `json:"expiry_month"`
		ExpiryYear  int    `json:"expiry_year"`
		IsDefault   bool   `json:"is_default"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "method_type and token are required")
		return
	}
	m, err := h.paymentSvc.AddMethod(c.Request.Context(), currentUserID(c), services.PaymentMethodInput{
		MethodType:  req.MethodType,
		Token:       req.Token,
		Label:       req.Label,
		LastFour:    req.LastFour,
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusCreated, map[string]any{"payment_method": m})
}

func (h *Handler) removePaymentMethod(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.paymentSvc.RemoveMethod(c.Request.Context(), currentUserID(c), id); err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"message": "payment method removed"})
}

func (h *Handler) listPaymentGateways(c *gin.Context) {
	gws, err := h.paymentSvc.Gateways(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"gateways": gws})
}

func (h *Handler) listTransactions(c *gin.Context) {
	page, perPage, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	txns, total, err := h.paymentSvc.Transactions(c.Request.Context(), currentUserID(c), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, listPayload(txns, page, perPage, total))
}

// convertCurrency 按当前汇率换算金额，例：/currency/convert?from=USD&to=INR&amount=10。
func (h *Handler) convertCurrency(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		badRequest(c, "from and to currency codes are required")
		return
	}
	amount := decimal.NewFromInt(1)
	if v := c.Query("amount"); v != "" {
		var err error
		amount, err = decimal.NewFromString(v)
		if err != nil {
			badRequest(c, "amount must be a decimal number")
			return
		}
	}
	conv, err := h.currencySvc.Convert(c.Request.Context(), from, to, amount)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"conversion": conv})
}
