package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flashsale-service/internal/handler/api"
	"flashsale-service/internal/handler/middleware"
	"flashsale-service/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(engine *gin.Engine, cfg config.Config, voucherHandler *api.VoucherHandler, shopHandler *api.ShopHandler, orderHandler *api.OrderHandler, authMiddleware *middleware.AuthMiddleware) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, voucherHandler, shopHandler, orderHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, voucherHandler *api.VoucherHandler, shopHandler *api.ShopHandler, orderHandler *api.OrderHandler, authMiddleware *middleware.AuthMiddleware) {
	engine.GET("/health", healthCheck)

	apiGroup := engine.Group("/api")
	{
		vouchers := apiGroup.Group("/vouchers")
		{
			addRoutes(vouchers, []route{
				{Method: http.MethodGet, Path: "/:id", Handler: voucherHandler.GetVoucher},
			})

			authRequired := vouchers.Group("")
			authRequired.Use(authMiddleware.RequireAuth())
			addRoutes(authRequired, []route{
				{Method: http.MethodPost, Path: "", Handler: voucherHandler.AddVoucher},
				{Method: http.MethodPost, Path: "/:id/seckill", Handler: voucherHandler.Seckill},
			})
		}

		shops := apiGroup.Group("/shops")
		{
			addRoutes(shops, []route{
				{Method: http.MethodGet, Path: "/:id", Handler: shopHandler.GetShop},
				{Method: http.MethodGet, Path: "/hot/:id", Handler: shopHandler.GetHotShop},
			})

			authRequired := shops.Group("")
			authRequired.Use(authMiddleware.RequireAuth())
			addRoutes(authRequired, []route{
				{Method: http.MethodPut, Path: "/:id", Handler: shopHandler.UpdateShop},
				{Method: http.MethodPost, Path: "/:id/warm", Handler: shopHandler.WarmHotShop},
			})
		}

		orders := apiGroup.Group("/orders")
		orders.Use(authMiddleware.RequireAuth())
		{
			addRoutes(orders, []route{
				{Method: http.MethodGet, Path: "/:id", Handler: orderHandler.GetOrder},
			})
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
