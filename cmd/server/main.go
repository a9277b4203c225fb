package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"xforce-terminal-backend/internal/common/logger"
	"xforce-terminal-backend/internal/common/middleware"
	"xforce-terminal-backend/internal/config"
	assistantservice "xforce-terminal-backend/internal/features/assistant/service"
	authhttp "xforce-terminal-backend/internal/features/auth/delivery/http"
	authrepo "xforce-terminal-backend/internal/features/auth/repository/sqlite"
	authservice "xforce-terminal-backend/internal/features/auth/service"
	chainhttp "xforce-terminal-backend/internal/features/chain/delivery/http"
	chathttp "xforce-terminal-backend/internal/features/chat/delivery/http"
	chatrepo "xforce-terminal-backend/internal/features/chat/repository/sqlite"
	chatservice "xforce-terminal-backend/internal/features/chat/service"
	"xforce-terminal-backend/internal/features/contracts/batchswap"
	contractshttp "xforce-terminal-backend/internal/features/contracts/delivery/http"
	contractmodels "xforce-terminal-backend/internal/features/contracts/models"
	"xforce-terminal-backend/internal/features/contracts/registry"
	friendshttp "xforce-terminal-backend/internal/features/friends/delivery/http"
	friendsrepo "xforce-terminal-backend/internal/features/friends/repository/sqlite"
	friendsservice "xforce-terminal-backend/internal/features/friends/service"
	markethttp "xforce-terminal-backend/internal/features/market/delivery/http"
	marketws "xforce-terminal-backend/internal/features/market/delivery/ws"
	marketcache "xforce-terminal-backend/internal/features/market/repository/redis"
	marketservice "xforce-terminal-backend/internal/features/market/service"
	swaphttp "xforce-terminal-backend/internal/features/swap/delivery/http"
	swaprepo "xforce-terminal-backend/internal/features/swap/repository/sqlite"
	swapservice "xforce-terminal-backend/internal/features/swap/service"
	"xforce-terminal-backend/internal/platform/jupiter"
	redisplatform "xforce-terminal-backend/internal/platform/redis"
	solanaplatform "xforce-terminal-backend/internal/platform/solana"
	"xforce-terminal-backend/internal/platform/sqlite"
	"xforce-terminal-backend/internal/workers"
)

const serviceName = "xforce-terminal-backend"

func main() {
	cfg := config.MustLoad()

	logger.Init(serviceName, cfg.LogLevel, cfg.Debug)
	logger.Info().
		Str("network", cfg.Solana.Network).
		Bool("debug", cfg.Debug).
		Msg("Starting XForce Terminal Backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.SQLitePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()
	logger.Info().Str("path", cfg.SQLitePath()).Msg("Database ready")

	var redisClient *redisplatform.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = redisplatform.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connected")
	}

	chain, err := solanaplatform.NewBuilder(cfg.Solana.Network).
		WithCustomRPCURL(cfg.Solana.RPCURL).
		WithHeliusAPIKey(cfg.Solana.HeliusAPIKey).
		WithCommitment(cfg.Solana.Commitment).
		Build()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build chain client")
	}
	logger.Info().Str("endpoint", chain.Endpoint()).Msg("Chain client ready")

	aggregatorClient := jupiter.NewClient()
	aggregatorClient.StartTokenRefresh(ctx)

	// Repositories.
	userRepo := authrepo.NewUserRepository(db)
	swapRepo := swaprepo.NewSwapRepository(db)
	friendshipRepo := friendsrepo.NewFriendshipRepository(db)
	messageRepo := chatrepo.NewMessageRepository(db)

	if err := messageRepo.EnsureBotUser(ctx, assistantservice.BotName, "system@ai.bot"); err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed assistant user")
	}

	// Services.
	tokenSvc := authservice.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpirationHours)
	authSvc := authservice.NewAuthService(userRepo, tokenSvc)
	walletSvc := authservice.NewWalletService(userRepo, tokenSvc)
	swapSvc := swapservice.NewSwapService(aggregatorClient, chain, userRepo, swapRepo)
	friendsSvc := friendsservice.NewFriendsService(friendshipRepo, userRepo)

	convoHub := chatservice.NewConvoHub()
	chatSvc := chatservice.NewChatService(messageRepo, convoHub, friendsSvc)

	// Market pipeline.
	candles := marketservice.NewCandleAggregator()
	priceHub := marketservice.NewHub()
	var streamCache workers.PriceCache
	var readCache markethttp.PriceReader
	if redisClient != nil {
		priceCache := marketcache.NewPriceCache(redisClient)
		streamCache = priceCache
		readCache = priceCache
	}
	priceStream := workers.NewPriceStream(aggregatorClient, candles, priceHub, streamCache, cfg.Market.UpdateIntervalMs, cfg.Market.DefaultTokens)
	go priceStream.Start(ctx)

	// Contract plugins.
	contractRegistry := registry.New()
	batchSwapPlugin := batchswap.NewPlugin(chain)
	if cfg.Solana.BatchSwapProgramID != "" {
		err := contractRegistry.Register(batchSwapPlugin, contractmodels.PluginConfig{
			ProgramID:  cfg.Solana.BatchSwapProgramID,
			Cluster:    cfg.Solana.Network,
			RPCURL:     chain.Endpoint(),
			Commitment: cfg.Solana.Commitment,
			Enabled:    true,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to register batch-swap plugin")
		}
		logger.Info().Str("program_id", cfg.Solana.BatchSwapProgramID).Msg("Batch-swap plugin registered")
	} else {
		logger.Warn().Msg("BATCH_SWAP_PROGRAM_ID not set, batch-swap composition disabled")
	}

	// Assistant bot.
	startAssistant(ctx, cfg, chatSvc)

	router := buildRouter(cfg, routerDeps{
		tokens:     tokenSvc,
		auth:       authhttp.NewAuthHandler(authSvc, walletSvc),
		market:     markethttp.NewMarketHandler(candles, priceStream, aggregatorClient, readCache),
		priceFeed:  marketws.NewPriceFeedHandler(priceHub),
		swap:       swaphttp.NewSwapHandler(swapSvc),
		chain:      chainhttp.NewChainHandler(chain),
		contracts:  contractshttp.NewContractsHandler(contractRegistry, batchSwapPlugin, chain, cfg.Solana.FeeRecipient),
		friends:    friendshttp.NewFriendsHandler(friendsSvc),
		chat:       chathttp.NewChatHandler(chatSvc),
		dbPing:     db.PingContext,
		chainCheck: chain.Health,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE and WebSocket connections stay open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Forced shutdown")
	}
	logger.Info().Msg("Server exited")
}

type routerDeps struct {
	tokens     middleware.TokenParser
	auth       *authhttp.AuthHandler
	market     *markethttp.MarketHandler
	priceFeed  *marketws.PriceFeedHandler
	swap       *swaphttp.SwapHandler
	chain      *chainhttp.ChainHandler
	contracts  *contractshttp.ContractsHandler
	friends    *friendshttp.FriendsHandler
	chat       *chathttp.ChatHandler
	dbPing     func(context.Context) error
	chainCheck func(context.Context) (string, error)
}

func buildRouter(cfg *config.Config, deps routerDeps) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "Subscribe", "Parents"}
	corsConfig.ExposeHeaders = []string{"Version", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	requireAuth := middleware.RequireAuth(deps.tokens)

	api := router.Group("/api")
	{
		deps.auth.RegisterRoutes(api, requireAuth)
		deps.market.RegisterRoutes(api, requireAuth)
		deps.swap.RegisterRoutes(api, requireAuth)
		deps.chain.RegisterRoutes(api)
		deps.contracts.RegisterRoutes(api, requireAuth)
		deps.friends.RegisterRoutes(api, requireAuth)
		deps.chat.RegisterRoutes(api, requireAuth)
		deps.priceFeed.RegisterRoutes(api)
	}

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"database": "ok", "chain": "ok"}
		if err := deps.dbPing(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if _, err := deps.chainCheck(ctx); err != nil {
			checks["chain"] = err.Error()
		}
		c.JSON(status, gin.H{
			"status":    map[bool]string{true: "ok", false: "degraded"}[status == http.StatusOK],
			"service":   serviceName,
			"timestamp": time.Now().UTC(),
			"checks":    checks,
		})
	})

	return router
}

// startAssistant wires the chat bot when the configured provider has
// an api key. Without one the bot stays offline and conversations with
// it behave like any other.
func startAssistant(ctx context.Context, cfg *config.Config, chatSvc *chatservice.ChatService) {
	apiKey := assistantAPIKey(cfg)
	if apiKey == "" {
		logger.Warn().Str("provider", cfg.Assistant.Provider).Msg("Assistant disabled, no api key configured")
		return
	}

	llm, err := assistantservice.NewLLMClient(cfg.Assistant.Provider, apiKey, cfg.Assistant.Model)
	if err != nil {
		logger.Error().Err(err).Msg("Assistant disabled")
		return
	}

	bot := assistantservice.NewBot(assistantservice.Config{
		SystemPrompt:  cfg.Assistant.SystemPrompt,
		ContextWindow: cfg.Assistant.ContextWindow,
		MaxTokens:     cfg.Assistant.MaxTokens,
		Temperature:   cfg.Assistant.Temperature,
		RespondToAll:  cfg.Assistant.RespondToAll,
	}, llm, chatSvc)
	go bot.Run(ctx)
}

func assistantAPIKey(cfg *config.Config) string {
	switch cfg.Assistant.Provider {
	case assistantservice.ProviderDeepSeek:
		return cfg.Assistant.DeepSeekKey
	case assistantservice.ProviderOpenAI:
		return cfg.Assistant.OpenAIKey
	case assistantservice.ProviderAnthropic:
		return cfg.Assistant.AnthropicKey
	case assistantservice.ProviderGemini:
		return cfg.Assistant.GeminiKey
	default:
		return ""
	}
}
