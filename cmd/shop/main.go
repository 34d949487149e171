package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/minieshop/go-shop-client/internal/config"
	"github.com/minieshop/go-shop-client/internal/handler"
	"github.com/minieshop/go-shop-client/internal/middleware"
	"github.com/minieshop/go-shop-client/internal/prefs"
	"github.com/minieshop/go-shop-client/internal/repository"
	"github.com/minieshop/go-shop-client/internal/state"
	"github.com/minieshop/go-shop-client/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Embedded store
	st, err := store.Open(ctx, cfg.DB.DSN)
	if err != nil {
		log.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		log.Error("migrate store", "error", err)
		os.Exit(1)
	}
	if cfg.DB.Seed {
		if err := st.Seed(ctx, cfg.Auth.BcryptCost); err != nil {
			log.Error("seed store", "error", err)
			os.Exit(1)
		}
	}
	log.Info("store ready", "dsn", cfg.DB.DSN)

	// Preferences
	sessions, err := prefs.Open(cfg.Prefs.Path, log)
	if err != nil {
		log.Error("open prefs", "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	// Repositories
	userRepo := repository.NewUserRepository(st, cfg.Auth.BcryptCost)
	productRepo := repository.NewProductRepository(st)
	cartRepo := repository.NewCartRepository(st, productRepo)
	orderRepo := repository.NewOrderRepository(st)
	addressRepo := repository.NewAddressRepository(st)
	favoriteRepo := repository.NewFavoriteRepository(st, productRepo)

	// Long-lived state holders
	authHolder := state.NewAuthHolder(userRepo, sessions, log)
	productList := state.NewProductListHolder(productRepo, favoriteRepo, cartRepo, sessions, log)
	cartHolder := state.NewCartHolder(cartRepo, sessions, log)
	favoritesHolder := state.NewFavoritesHolder(favoriteRepo, cartRepo, sessions, log)
	ordersHolder := state.NewOrdersHolder(orderRepo, sessions, log)
	addressHolder := state.NewAddressHolder(addressRepo, sessions, log)
	settingsHolder := state.NewSettingsHolder(sessions, log)

	go authHolder.Run(ctx)
	go productList.Run(ctx)
	go cartHolder.Run(ctx)
	go favoritesHolder.Run(ctx)
	go ordersHolder.Run(ctx)
	go addressHolder.Run(ctx)
	go settingsHolder.Run(ctx)

	// Handlers
	authH := handler.NewAuthHandler(userRepo, sessions)
	productH := handler.NewProductHandler(productRepo, favoriteRepo, sessions)
	cartH := handler.NewCartHandler(cartRepo)
	orderH := handler.NewOrderHandler(orderRepo, cartRepo, productRepo, addressRepo)
	addressH := handler.NewAddressHandler(addressRepo)
	settingsH := handler.NewSettingsHandler(sessions)
	healthH := handler.NewHealthHandler(st)

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	session := middleware.SessionRequired(sessions, userRepo)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.POST("/logout", authH.Logout)
		auth.GET("/me", session, authH.Me)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.GetByID)

		admin := products.Group("", session, middleware.AdminOnly())
		admin.POST("", productH.Create)
		admin.PUT("/:id", productH.Update)
		admin.DELETE("/:id", productH.Delete)

		favorites := v1.Group("/favorites", session)
		favorites.GET("", productH.ListFavorites)
		favorites.PUT("/:id", productH.AddFavorite)
		favorites.DELETE("/:id", productH.RemoveFavorite)

		cart := v1.Group("/cart", session)
		cart.GET("", cartH.GetCart)
		cart.POST("/items", cartH.AddItem)
		cart.PUT("/items/:id", cartH.UpdateItem)
		cart.DELETE("/items/:id", cartH.DeleteItem)
		cart.DELETE("", cartH.Clear)

		orders := v1.Group("/orders", session)
		orders.POST("", orderH.Checkout)
		orders.GET("", orderH.ListOrders)
		orders.GET("/:id", orderH.GetOrder)

		addresses := v1.Group("/addresses", session)
		addresses.GET("", addressH.List)
		addresses.POST("", addressH.Create)
		addresses.PUT("/:id", addressH.Update)
		addresses.DELETE("/:id", addressH.Delete)
		addresses.POST("/:id/default", addressH.SetDefault)

		settings := v1.Group("/settings")
		settings.GET("", settingsH.Get)
		settings.PUT("", settingsH.Update)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	cancel()
	log.Info("stopped")
}
