package wire

import (
	"Alumnet/internal/api"
	"Alumnet/internal/api/config"
	"Alumnet/internal/api/handler"
	"Alumnet/internal/job"
	"Alumnet/internal/pkg/async"
	"Alumnet/internal/pkg/cron"
	"Alumnet/internal/pkg/llm"
	"Alumnet/internal/pkg/mail"
	"Alumnet/internal/pkg/redis"
	"Alumnet/internal/pkg/ws"
	"Alumnet/internal/repository"
	"Alumnet/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// Infra 由 main 初始化的外部依赖
type Infra struct {
	Mongo    *mongo.Database
	KV       redis.KV
	Storage  service.AvatarStorage
	Analyzer *llm.ResumeAnalyzer // 可为空，AI 不可用时降级
}

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router  *gin.Engine
	Hub     *ws.Hub
	Runner  *async.Runner
	CronMgr *cron.Manager
}

func BuildApplication(infra *Infra, cfg *config.Config) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(infra.Mongo)
	convRepo := repository.NewConversationRepo(infra.Mongo)
	messageRepo := repository.NewMessageRepo(infra.Mongo)

	hub := ws.NewHub()
	runner := async.NewRunner(time.Duration(cfg.Chat.NotifyTimeoutSecs) * time.Second)

	var analyzer service.ResumeAnalyzer
	if infra.Analyzer != nil {
		analyzer = infra.Analyzer
	}

	userService := service.NewUserService(userRepo, infra.KV, infra.Storage)
	notifyService := service.NewNotifyService(userRepo, mail.NewClient(cfg.Mail), runner)
	chatService := service.NewChatService(convRepo, messageRepo, userRepo, userService, hub, notifyService)
	messageService := service.NewMessageService(convRepo, messageRepo, hub)
	matchService := service.NewMatchService(analyzer)

	handlers := &api.HandlersGroup{
		UserHandler:  handler.NewUserHandler(userService),
		ChatHandler:  handler.NewChatHandler(chatService, messageService, hub, cfg.Chat),
		WsHandler:    handler.NewWsHandler(hub, infra.KV),
		MatchHandler: handler.NewMatchHandler(matchService),
	}

	router := api.SetupRouter(handlers, infra.KV, cfg.Server.AllowedOrigins)

	reminderJob := job.NewPendingRequestReminderJob(chatService, infra.KV, cfg.Chat.ReminderAfterHours)
	cronMgr := cron.NewCronManager()
	cronMgr.Add("pending-request-reminder", cfg.Cron.ReminderSpec, reminderJob)

	return &ApplicationContainer{
		Router:  router,
		Hub:     hub,
		Runner:  runner,
		CronMgr: cronMgr,
	}, nil
}
