package server

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"scriptstore/internal/config"
	"scriptstore/internal/handler"
	"scriptstore/internal/middleware"
	"scriptstore/internal/service"
)

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

type Server struct {
	echo               *echo.Echo
	authSecret         string
	checkoutHandler    *handler.CheckoutHandler
	webhookHandler     *handler.WebhookHandler
	catalogHandler     *handler.CatalogHandler
	entitlementHandler *handler.EntitlementHandler
}

func NewServer(
	cfg *config.Config,
	checkoutService service.CheckoutService,
	webhookService service.WebhookService,
	catalogService service.CatalogService,
	entitlementService service.EntitlementService,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	s := &Server{
		echo:               e,
		authSecret:         cfg.Auth.JWTSecret,
		checkoutHandler:    handler.NewCheckoutHandler(checkoutService),
		webhookHandler:     handler.NewWebhookHandler(webhookService),
		catalogHandler:     handler.NewCatalogHandler(catalogService),
		entitlementHandler: handler.NewEntitlementHandler(entitlementService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- public catalog (anon tier) --------
	api.GET("/products", s.catalogHandler.ListProducts)
	api.GET("/products/:id", s.catalogHandler.GetProduct)

	// -------- checkout --------
	api.POST("/checkout", s.checkoutHandler.Checkout)
	api.POST("/subscription", s.checkoutHandler.Subscribe)

	// -------- stripe webhooks --------
	stripe := api.Group("/stripe")
	stripe.POST("/webhook", s.webhookHandler.StripeWebhook)

	// -------- buyer surface --------
	purchases := api.Group("/purchases", middleware.JWTAuth(s.authSecret))
	purchases.GET("", s.entitlementHandler.ListPurchases)
	purchases.GET("/access", s.entitlementHandler.CheckAccess)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
