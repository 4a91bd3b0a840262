package main

import (
	"grocery/internal/config"
	"grocery/internal/domain/model"
	"grocery/internal/handler"
	"grocery/internal/infra/cartstore"
	"grocery/internal/infra/db"
	infraRepo "grocery/internal/infra/repository"
	"grocery/internal/logger"
	repo "grocery/internal/repository"
	"grocery/internal/server"
	"grocery/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.Initialize(cfg.GoEnv)
	defer logger.Log.Sync()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.InventoryLog{},
		&model.OrderHistory{},
	); err != nil {
		logger.Log.Fatal("migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB, cfg.LowStockThreshold)
	txManager := infraRepo.NewTxManagerGorm(gormDB, cfg.LowStockThreshold)

	//カート保存先。REDIS_ADDRがあればRedis、無ければメモリ。
	var carts repo.CartStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		carts = cartstore.NewRedis(client, cfg.CartTTL)
		logger.Log.Info("cart store: redis", zap.String("addr", cfg.RedisAddr))
	} else {
		carts = cartstore.NewMemory()
		logger.Log.Info("cart store: memory")
	}

	//Usecase生成
	cartUC := usecase.NewCartUsecase(carts, productRepo)
	orderUC := usecase.NewOrderUsecase(txManager, carts)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager)
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, txManager)

	//Handler生成
	handlers := server.Handlers{
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
	}

	//Server起動
	addr := ":" + cfg.Port
	if err := server.Start(addr, cfg, handlers); err != nil {
		logger.Log.Fatal("server stopped", zap.Error(err))
	}
}
