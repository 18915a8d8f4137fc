package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"checkout-gateway/internal/models"
	"checkout-gateway/internal/service"
	"checkout-gateway/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const sessionContextKey = "checkout_session"

// Initiator starts gateway payments for the session's last order.
type Initiator interface {
	StartPayment(ctx context.Context, sess *models.CheckoutSession) *service.StartResult
}

// Reconciler handles customers returning from the gateway.
type Reconciler interface {
	Reconcile(ctx context.Context, sess *models.CheckoutSession, params service.ReturnParams) (*service.ReturnResult, error)
}

// SessionStore loads and saves checkout sessions.
type SessionStore interface {
	LoadSession(ctx context.Context, id string) (*models.CheckoutSession, error)
	SaveSession(ctx context.Context, sess *models.CheckoutSession) error
}

// AuditReader lists recorded checkout events.
type AuditReader interface {
	GetCheckoutEvents(ctx context.Context, orderID int64) ([]models.CheckoutEventRecord, error)
}

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configure the storefront-facing side of the handler.
type Options struct {
	StorefrontURL string
	SessionCookie string
	SessionTTL    time.Duration
	SecureCookie  bool
}

type readinessCheck struct {
	name   string
	pinger Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	initiator  Initiator
	reconciler Reconciler
	sessions   SessionStore
	audit      AuditReader
	checks     []readinessCheck
	opts       Options
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(initiator Initiator, reconciler Reconciler, sessions SessionStore, audit AuditReader, opts Options) *Handler {
	opts.StorefrontURL = strings.TrimRight(opts.StorefrontURL, "/")
	return &Handler{
		initiator:  initiator,
		reconciler: reconciler,
		sessions:   sessions,
		audit:      audit,
		opts:       opts,
		logger:     util.GetLogger(),
	}
}

// AddReadinessCheck registers a dependency pinged by /ready
func (h *Handler) AddReadinessCheck(name string, p Pinger) {
	h.checks = append(h.checks, readinessCheck{name: name, pinger: p})
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	checkout := router.Group("/checkout", h.sessionMiddleware())
	{
		checkout.GET("/redirect", h.startPayment)
		checkout.GET("/finish", h.finishPayment)
		checkout.POST("/finish", h.finishPayment)
		checkout.GET("/messages", h.messages)
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/orders/:id/checkout-events", h.getCheckoutEvents)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for _, check := range h.checks {
		if err := check.pinger.Ping(ctx); err != nil {
			failed[check.name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"checks": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// startPayment sends the customer to the gateway's hosted payment page
func (h *Handler) startPayment(c *gin.Context) {
	sess := currentSession(c)

	result := h.initiator.StartPayment(c.Request.Context(), sess)
	h.redirect(c, result.Redirect)
}

// finishPayment handles the customer's return from the gateway
func (h *Handler) finishPayment(c *gin.Context) {
	sess := currentSession(c)

	result, err := h.reconciler.Reconcile(c.Request.Context(), sess, h.returnParams(c))
	if err != nil {
		// The customer only sees the status; details stay in the log.
		h.logger.Error("Failed to reconcile payment return", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	h.redirect(c, result.Redirect)
}

// messages returns and clears the session's flash messages
func (h *Handler) messages(c *gin.Context) {
	sess := currentSession(c)

	msgs := sess.TakeMessages()
	if msgs == nil {
		msgs = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// getCheckoutEvents lists the audit trail of an order
func (h *Handler) getCheckoutEvents(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	events, err := h.audit.GetCheckoutEvents(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load checkout events",
			"details": err.Error(),
		})
		return
	}
	if events == nil {
		events = []models.CheckoutEventRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"events":   events,
	})
}

func (h *Handler) redirect(c *gin.Context, r service.Redirect) {
	if r.NoCache {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
	}
	c.Redirect(http.StatusFound, h.resolveURL(r))
}

// resolveURL turns a redirect into an absolute URL. Relative paths are
// resolved against the storefront.
func (h *Handler) resolveURL(r service.Redirect) string {
	target := r.Path
	u, err := url.Parse(target)
	if err != nil || !u.IsAbs() {
		target = h.opts.StorefrontURL + "/" + strings.TrimLeft(target, "/")
		u, err = url.Parse(target)
		if err != nil {
			return target
		}
	}

	if len(r.Query) > 0 {
		q := u.Query()
		for key, values := range r.Query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// returnRequest is the callback the gateway appends to the return URL.
type returnRequest struct {
	OrderID       string `form:"orderId"`
	OrderIDLower  string `form:"orderid"`
	OrderStatusID string `form:"orderStatusId"`
}

// returnParams binds the callback parameters from the query string or the
// form body. A malformed body leaves the ids empty, which the reconciler
// reports as an invalid return.
func (h *Handler) returnParams(c *gin.Context) service.ReturnParams {
	var req returnRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("Failed to bind payment return parameters", zap.Error(err))
	}

	raw := make(map[string]string, len(c.Request.Form))
	for key := range c.Request.Form {
		raw[key] = c.Request.Form.Get(key)
	}

	return service.ReturnParams{
		OrderID:       req.OrderID,
		OrderIDLower:  req.OrderIDLower,
		OrderStatusID: req.OrderStatusID,
		Raw:           raw,
	}
}

// sessionMiddleware binds the checkout session named by the session cookie
// and saves it once the handler is done.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(h.opts.SessionCookie)
		if err != nil {
			id = ""
		}
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}

		sess, err := h.sessions.LoadSession(c.Request.Context(), id)
		if err != nil {
			h.logger.Error("Failed to load checkout session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Session unavailable",
			})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.opts.SessionCookie, id, int(h.opts.SessionTTL.Seconds()), "/", "", h.opts.SecureCookie, true)
		c.Set(sessionContextKey, sess)

		c.Next()

		if err := h.sessions.SaveSession(c.Request.Context(), sess); err != nil {
			h.logger.Error("Failed to save checkout session",
				zap.String("session_id", id),
				zap.Error(err))
		}
	}
}

func currentSession(c *gin.Context) *models.CheckoutSession {
	return c.MustGet(sessionContextKey).(*models.CheckoutSession)
}

// requestLogger logs every request through zap
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
