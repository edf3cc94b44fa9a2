package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	iauth "github.com/splitnest/splitnest/internal/auth"
	"github.com/splitnest/splitnest/internal/handlers"
	"github.com/splitnest/splitnest/internal/middleware"
	"github.com/splitnest/splitnest/internal/realtime"
	"github.com/splitnest/splitnest/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, hub *realtime.Hub) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if hub == nil {
		return nil, fmt.Errorf("realtime hub must be provided")
	}

	userService, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	friendService, err := services.NewFriendService(db)
	if err != nil {
		return nil, err
	}
	settlementService, err := services.NewSettlementService(db)
	if err != nil {
		return nil, err
	}
	sharedExpenseService, err := services.NewSharedExpenseService(db)
	if err != nil {
		return nil, err
	}
	expenseService, err := services.NewExpenseService(db, sharedExpenseService)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	// Public endpoints
	r.GET("/health", handlers.Health(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", handlers.Realtime(hub))

	authHandler := handlers.NewAuthHandler(userService, jwt)
	userHandler := handlers.NewUserHandler(userService)
	friendHandler := handlers.NewFriendHandler(friendService, settlementService, userService, hub)
	expenseHandler := handlers.NewExpenseHandler(expenseService, sharedExpenseService, hub)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/verify-phone", authHandler.VerifyPhone)
	}
	r.POST("/api/users/check", userHandler.Check)

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	api.GET("/auth/profile", authHandler.Profile)
	api.PUT("/auth/profile", authHandler.UpdateProfile)
	api.PUT("/auth/change-password", authHandler.ChangePassword)

	api.POST("/users/search", userHandler.Search)
	api.POST("/users/by-phone", userHandler.ByPhone)

	friends := api.Group("/friends")
	{
		friends.GET("", friendHandler.List)
		friends.POST("", friendHandler.Add)
		friends.PUT("/:id", friendHandler.Update)
		friends.DELETE("/:id", friendHandler.Remove)
		friends.POST("/invite", friendHandler.Invite)
		friends.GET("/pending", friendHandler.Pending)
		friends.POST("/accept", friendHandler.Accept)
	}

	personal := api.Group("/personal-expenses")
	{
		personal.GET("", expenseHandler.ListPersonal)
		personal.POST("", expenseHandler.CreatePersonal)
		personal.PUT("/:id", expenseHandler.UpdatePersonal)
		personal.DELETE("/:id", expenseHandler.RemovePersonal)
	}

	expenses := api.Group("/expenses")
	{
		expenses.GET("", expenseHandler.ListMerged)
		expenses.POST("", expenseHandler.Create)
		expenses.GET("/shared", expenseHandler.ListShared)
	}

	return r, nil
}
