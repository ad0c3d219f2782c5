// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"account/config"
	"account/internal/delivery/api/middleware"
	"account/internal/delivery/api/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler    *handler.UserHandler
	AuthMiddleware *middleware.AuthMiddleware
	Config         *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler    *handler.UserHandler
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:    params.UserHandler,
		authMiddleware: params.AuthMiddleware,
		config:         params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	e.POST("/register", r.userHandler.RegisterUser)
	e.POST("/login", r.userHandler.Login)

	if r.config.Auth != nil && r.config.Auth.PublicUserList {
		e.GET("/", r.userHandler.ListUsers)
	} else {
		e.GET("/", r.userHandler.ListUsers, r.authMiddleware.Authenticate)
	}

	profileGroup := e.Group("/profile")
	profileGroup.Use(r.authMiddleware.Authenticate)
	{
		profileGroup.GET("/:id", r.userHandler.GetProfile)
		profileGroup.PUT("/:id", r.userHandler.UpdateProfile)
	}
}
