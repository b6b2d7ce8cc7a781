package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"triphub/apps/recommend-service/consumer"
	"triphub/apps/recommend-service/dao"
	"triphub/apps/recommend-service/gateway"
	"triphub/apps/recommend-service/handler"
	"triphub/apps/recommend-service/model"
	"triphub/apps/recommend-service/service"
	"triphub/pkg/lifecycle"
	"triphub/pkg/server"
	"triphub/pkg/telemetry"
)

func main() {
	// 初始化链路追踪
	if err := telemetry.InitGlobal(telemetry.DefaultConfig("recommend-service")); err != nil {
		log.Printf("Failed to initialize telemetry: %v", err)
	}

	// 创建应用程序
	app := server.NewApplication("recommend-service")

	// 启用HTTP服务器
	app.EnableHTTP()

	// 初始化PostgreSQL连接
	postgreSQL := app.GetPostgreSQL()

	// 自动迁移数据库表结构
	if err := postgreSQL.AutoMigrate(
		&model.InteractionEvent{},
		&model.PreferenceScore{},
		&model.Rating{},
		&model.RatingStats{},
	); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// 初始化DAO层
	eventDAO := dao.NewEventDAO(postgreSQL)
	prefDAO := dao.NewPreferenceDAO(postgreSQL)
	ratingDAO := dao.NewRatingDAO(postgreSQL)
	catalogDAO := dao.NewCatalogDAO(app.GetMongoDB())
	searchDAO := dao.NewSearchDAO(app.GetElasticSearch().GetClient(), app.GetLogger())

	// 初始化推荐引擎客户端
	cfg := app.GetConfig()
	engineTimeout, err := time.ParseDuration(cfg.Engine.Timeout)
	if err != nil {
		engineTimeout = 3 * time.Second
	}
	engine := gateway.NewEngineClient(cfg.Engine.BaseURL, engineTimeout, app.GetLogger())

	// 初始化Service层
	svc := service.NewService(
		eventDAO,
		prefDAO,
		ratingDAO,
		catalogDAO,
		searchDAO,
		app.GetRedisClient(),
		app.GetKafkaProducer(),
		engine,
		app.GetSnowflake(),
		app.GetLogger(),
	)

	// 初始化Handler
	httpHandler := handler.NewHTTPHandler(svc, app.GetLogger())

	// 注册HTTP路由
	app.RegisterHTTPRoutes(func(engine *gin.Engine) {
		httpHandler.RegisterRoutes(engine)
	})

	// 启动互动历史索引消费者
	indexConsumer := consumer.NewIndexConsumer(searchDAO)
	app.AddLifecycleHook(lifecycle.Hook{
		Name:     "index-consumer",
		Priority: 310,
		OnStart: func(ctx context.Context) error {
			return indexConsumer.Start(ctx, cfg.Kafka.Brokers)
		},
	})

	// 运行应用程序
	if err := app.Run(); err != nil {
		panic(err)
	}
}
