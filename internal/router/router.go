package router

import (
	"github.com/gin-gonic/gin"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/config"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/handler"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/middleware"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/jwtauth"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	jwtService *jwtauth.Service,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	friendHandler *handler.FriendHandler,
	groupHandler *handler.GroupHandler,
	chatHandler *handler.ChatHandler,
) *gin.Engine {
	// 设置 Gin 模式
	gin.SetMode(cfg.App.Mode)

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowCredentials,
	))

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证接口（无需登录）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/register/complete", authHandler.CompleteRegistration)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/password/forgot", authHandler.RequestPasswordReset)
			auth.POST("/password/verify", authHandler.VerifyResetCode)
			auth.POST("/password/reset", authHandler.ResetPassword)
		}

		// 需要认证的接口
		authenticated := v1.Group("")
		authenticated.Use(middleware.JWTAuth(jwtService))
		{
			// 用户接口
			users := authenticated.Group("/users")
			{
				users.GET("", userHandler.ListUsers)
				users.GET("/me", userHandler.GetMe)
				users.PATCH("/me", userHandler.UpdateProfile)
				users.DELETE("/me", userHandler.DeleteAccount)
				users.POST("/me/avatar", userHandler.UploadAvatar)
				users.PUT("/me/status", userHandler.UpdateOnlineStatus)
				users.GET("/:id", userHandler.GetUser)
			}

			// 好友接口
			friends := authenticated.Group("/friends")
			{
				friends.GET("", friendHandler.GetFriends)
				friends.GET("/requests", friendHandler.GetRequests)
				friends.POST("/requests", friendHandler.SendRequest)
				friends.PUT("/requests/:id/accept", friendHandler.AcceptRequest)
				friends.PUT("/requests/:id/reject", friendHandler.RejectRequest)
				friends.DELETE("/:id", friendHandler.RemoveFriend)
			}

			// 群组接口
			groups := authenticated.Group("/groups")
			{
				groups.GET("", groupHandler.GetUserGroups)
				groups.POST("", groupHandler.CreateGroup)
				groups.GET("/:id", groupHandler.GetGroupDetails)
				groups.PATCH("/:id", groupHandler.UpdateGroup)
				groups.DELETE("/:id", groupHandler.DeleteGroup)
				groups.POST("/:id/members", groupHandler.AddMember)
				groups.DELETE("/:id/members/:memberId", groupHandler.RemoveMember)
			}

			// 会话接口
			chats := authenticated.Group("/chats")
			{
				chats.GET("", chatHandler.GetAllChats)
				chats.PUT("/read", chatHandler.MarkAsRead)
				chats.GET("/private/:userId", chatHandler.GetPrivateChat)
				chats.GET("/group/:groupId", chatHandler.GetGroupChat)
				chats.GET("/:id/unread", chatHandler.GetUnreadCount)
				chats.GET("/:id/messages", chatHandler.GetMessages)
				chats.POST("/:id/messages", chatHandler.SendMessage)
			}
		}
	}

	return r
}
