package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/yourusername/quizroom-api/internal/config"
	"github.com/yourusername/quizroom-api/internal/handler"
	"github.com/yourusername/quizroom-api/internal/middleware"
	pgRepo "github.com/yourusername/quizroom-api/internal/repository/postgres"
	"github.com/yourusername/quizroom-api/internal/repository/questionbank"
	redisRepo "github.com/yourusername/quizroom-api/internal/repository/redis"
	"github.com/yourusername/quizroom-api/internal/service"
	"github.com/yourusername/quizroom-api/internal/service/gameroom"
	ws "github.com/yourusername/quizroom-api/internal/websocket"
	"github.com/yourusername/quizroom-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Загружаем банк вопросов из файла
	questionBank, err := questionbank.Load(cfg.Game.QuestionBankPath)
	if err != nil {
		log.Printf("Failed to load question bank from %s: %v", cfg.Game.QuestionBankPath, err)
		os.Exit(1)
	}
	log.Printf("Загружено наборов вопросов: %d", len(questionBank.SetIDs()))

	// Инициализируем репозитории
	sessionRepo := pgRepo.NewSessionRepo(db)
	playerRepo := pgRepo.NewPlayerRepo(db)
	responseRepo := pgRepo.NewResponseRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// --- Инициализация WebSocket (PubSubProvider создается здесь) ---
	var pubSubProvider ws.PubSubProvider = &ws.NoOpPubSub{} // Провайдер по умолчанию

	// Создаем PubSubProvider только если кластеризация включена
	if cfg.WebSocket.Cluster.Enabled {
		log.Println("Инициализация Redis PubSub для кластеризации WebSocket...")
		redisPubSubClient, errPubSub := database.NewUniversalRedisClient(cfg.Redis)
		if errPubSub != nil {
			log.Printf("Ошибка при инициализации Redis клиента для PubSub: %v. Кластеризация WS будет неактивна.", errPubSub)
		} else {
			redisProvider, errProv := ws.NewRedisPubSub(redisPubSubClient)
			if errProv != nil {
				log.Printf("Ошибка при создании Redis PubSub провайдера: %v. Кластеризация WS будет неактивна.", errProv)
				redisPubSubClient.Close()
			} else {
				log.Println("Redis PubSub провайдер успешно инициализирован")
				pubSubProvider = redisProvider
			}
		}
	}

	wsHub := ws.NewHub(pubSubProvider)
	go wsHub.Run()
	wsManager := ws.NewManager(wsHub)
	// --- Конец инициализации WebSocket ---

	// Конфигурация игрового движка
	gameConfig := gameroom.DefaultConfig()
	gameConfig.RoundDurationSec = cfg.Game.RoundDurationSec
	gameConfig.FastForwardRemainingSec = cfg.Game.FastForwardRemainingSec

	gameDeps := &gameroom.Dependencies{
		SessionRepo:  sessionRepo,
		PlayerRepo:   playerRepo,
		ResponseRepo: responseRepo,
		Bank:         questionBank,
		CacheRepo:    cacheRepo,
		Clock:        clockwork.NewRealClock(),
	}

	// Инициализируем сервисы
	gameService := service.NewGameService(gameConfig, gameDeps, wsManager)
	leaderboardService := service.NewLeaderboardService(sessionRepo, playerRepo)

	// Инициализируем обработчики
	roomHandler := handler.NewRoomHandler(gameService, leaderboardService)
	answerHandler := handler.NewAnswerHandler(gameService)
	wsHandler := handler.NewWSHandler(wsManager, gameService)

	// Инициализируем middleware
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	// В production (GIN_MODE=release): не доверяем прокси (защита от IP spoofing)
	// В development: доверяем localhost
	// При деплое на VM с load balancer: добавьте IP балансировщика в список
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8000", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Комнаты
		rooms := api.Group("/rooms")
		{
			// Создание комнаты под строгим лимитом
			rooms.POST("", rateLimiter.LimitByIP(middleware.StrictCreateRateLimitConfig()), roomHandler.CreateRoom)

			// Группа маршрутов, требующих кода комнаты
			roomWithCode := rooms.Group("/:code")
			roomWithCode.Use(middleware.ExtractRoomCode("code", "roomCode")) // Применяем middleware
			roomWithCode.Use(rateLimiter.Limit(middleware.DefaultRoomRateLimitConfig()))
			{
				roomWithCode.POST("/join", roomHandler.JoinRoom)
				roomWithCode.GET("/state", roomHandler.GetState)
				roomWithCode.GET("/stats", roomHandler.GetStats)
				roomWithCode.GET("/leaderboard", roomHandler.GetLeaderboard)
				roomWithCode.GET("/leaderboard/export", roomHandler.ExportLeaderboard)

				// Команды ведущего
				roomWithCode.POST("/start", roomHandler.Start)
				roomWithCode.POST("/advance", roomHandler.Advance)
				roomWithCode.POST("/reveal", roomHandler.Reveal)
				roomWithCode.POST("/reset", roomHandler.Reset)
				roomWithCode.POST("/fast-forward", roomHandler.FastForward)
			}
		}

		// Ответы игроков
		players := api.Group("/players")
		players.Use(rateLimiter.Limit(middleware.AnswerRateLimitConfig()))
		{
			players.POST("/:playerID/answers", answerHandler.SubmitAnswer)
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// После получения сигнала SIGINT или SIGTERM начинаем graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем хаб и закрываем PubSubProvider
	wsHub.Stop()
	if err := pubSubProvider.Close(); err != nil {
		log.Printf("Error closing PubSub provider: %v", err)
	}

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
