package api

import (
	"Alumnet/internal/api/middleware"
	"Alumnet/internal/model"
	"Alumnet/internal/pkg/logger"
	"Alumnet/internal/pkg/redis"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, kv redis.KV, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware(allowedOrigins))
	logger.SetupGin(r)

	auth := middleware.AuthMiddleware(kv)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"success": true,
				"message": "pong",
				"data":    nil,
			})
		})

		// 握手时通过 userId 声明身份，非匿名连接需附带 token
		apiGroup.GET("/socket", group.WsHandler.Connect)

		userGroup := apiGroup.Group("/user")
		{
			// 无需登录即可访问的接口
			userGroup.POST("/login", group.UserHandler.Login)
			userGroup.POST("/register", group.UserHandler.Register)
			userGroup.GET("/:userId/simple", group.UserHandler.GetUserSimpleInfo)

			authGroup := userGroup.Group("")
			authGroup.Use(auth)
			{
				authGroup.POST("/logout", group.UserHandler.Logout)
				authGroup.GET("/info", group.UserHandler.GetUserInfo)
				authGroup.PUT("/info", group.UserHandler.UpdateUserInfo)
				authGroup.POST("/avatar", group.UserHandler.UploadAvatar)
			}

			// 需要登录 & 拥有 admin 角色
			adminGroup := authGroup.Group("")
			adminGroup.Use(middleware.CheckRoles(model.RoleAdmin))
			{
				adminGroup.PUT("/:userId/verify", group.UserHandler.VerifyUser)
			}
		}

		chatGroup := apiGroup.Group("/chat")
		chatGroup.Use(auth)
		{
			chatGroup.POST("/request", group.ChatHandler.RequestConnection)
			chatGroup.POST("/manage-request", group.ChatHandler.ManageRequest)
			chatGroup.GET("/requests", group.ChatHandler.GetPendingRequests)
			chatGroup.GET("/my-chats", group.ChatHandler.GetMyChats)
			chatGroup.POST("/send", group.ChatHandler.SendMessage)
			chatGroup.GET("/online", group.ChatHandler.GetOnlineUsers)
			chatGroup.GET("/:conversationId", group.ChatHandler.OpenConversation)
		}

		resumeGroup := apiGroup.Group("/resume")
		resumeGroup.Use(auth)
		{
			resumeGroup.POST("/match", group.MatchHandler.MatchResume)
		}
	}

	return r
}
