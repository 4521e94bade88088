package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"farmtrack-backend/internal/auth"
	"farmtrack-backend/internal/mw"
	"farmtrack-backend/internal/notification"
	"farmtrack-backend/internal/store"
)

// RouterOptions bundles the collaborators the router wires together.
type RouterOptions struct {
	Store           store.Store
	Tokens          *auth.TokenManager
	Webpush         *webpush.Options
	Alerts          *notification.WorkerPool
	RateLimitPerSec float64
	RateLimitBurst  int
}

// NewRouter creates and configures a new Gin router.
func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(opts.Store, opts.Tokens, opts.Webpush, opts.Alerts)
	rateLimiter := mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)

	// Parsed bearer tokens are cached for a minute to skip repeated
	// signature checks; the user lookup still runs on every request.
	tokenCache := cache.New(time.Minute, 5*time.Minute)

	r.GET("/", handler.Health)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/", handler.Health)
		api.POST("/register", handler.Register)
		api.POST("/login", handler.Login)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	authed := api.Group("")
	authed.Use(mw.RequireAuth(opts.Tokens, opts.Store, tokenCache, time.Minute))
	{
		authed.GET("/me", handler.Me)

		authed.GET("/machines", handler.ListMachines)
		authed.POST("/machines", handler.CreateMachine)
		authed.PUT("/machines/:machine_id", handler.UpdateMachine)
		authed.DELETE("/machines/:machine_id", handler.DeleteMachine)

		authed.POST("/maintenance", handler.CreateMaintenance)
		authed.GET("/maintenance/:machine_id", handler.ListMaintenance)

		authed.GET("/supplies", handler.ListSupplies)
		authed.POST("/supplies", handler.CreateSupply)
		authed.PUT("/supplies/:supply_id", handler.UpdateSupply)
		authed.DELETE("/supplies/:supply_id", handler.DeleteSupply)

		authed.POST("/movements", handler.CreateMovement)
		authed.GET("/movements/:supply_id", handler.ListMovements)

		authed.GET("/subscriptions", handler.GetSubscription)
		authed.PUT("/subscriptions", handler.PutSubscription)
		authed.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	return r
}
