package router

import (
	"context"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"

	"github.com/avoronov/notigate/internal/api/handlers/account"
	"github.com/avoronov/notigate/internal/api/handlers/auth"
	"github.com/avoronov/notigate/internal/api/handlers/notify"
	"github.com/avoronov/notigate/internal/api/middlewares"
)

type sessionStore interface {
	Get(ctx context.Context, id string) (uuid.UUID, error)
}

// New builds the HTTP routing table.
func New(
	authHandler *auth.Handler,
	accountHandler *account.Handler,
	notifyHandler *notify.Handler,
	sessions sessionStore,
) *ginext.Engine {
	e := ginext.New()
	e.Use(middlewares.CORSMiddleware())
	e.Use(ginext.Logger())
	e.Use(ginext.Recovery())

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.GET("/login", authHandler.LoginPage)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/logout", authHandler.Logout)
	}

	protected := api.Group("")
	protected.Use(middlewares.SessionAuth(sessions))
	{
		protected.GET("/account", accountHandler.Get)
		protected.PUT("/account", accountHandler.Update)
		protected.POST("/admin/promote", accountHandler.Promote)

		protected.POST("/notify", notifyHandler.Notify)
		protected.POST("/notify/email", notifyHandler.NotifyEmail)
		protected.POST("/notify/sms", notifyHandler.NotifySMS)
		protected.POST("/notify/telegram", notifyHandler.NotifyTelegram)
	}

	return e
}
