package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	httptransport "github.com/vkyc/golang_services/internal/bridge_service/transport/http"
	"github.com/vkyc/golang_services/internal/platform/config"
	"github.com/vkyc/golang_services/internal/platform/logger"
	"github.com/vkyc/golang_services/internal/platform/transport"
	"github.com/vkyc/golang_services/internal/video_session_service/app"
	"github.com/vkyc/golang_services/internal/video_session_service/ipresolver"
)

const serviceName = "bridge_service"

func main() {
	cfg, err := config.Load("./configs", "config.defaults")
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Bridge service starting...", "gateway_env", cfg.GatewayEnv, "http_port", cfg.BridgeHTTPPort)

	opts := transport.Options{
		Environment: cfg.GatewayEnv,
		BaseURL:     cfg.GatewayBaseURL,
		Timeout:     cfg.GatewayTimeout(),
		Credential:  cfg.GatewayToken,
		Logger:      appLogger,
	}
	if cfg.GatewayTokenRefreshURL != "" {
		refresh := transport.HTTPTokenRefresher(nil, cfg.GatewayTokenRefreshURL)
		opts.TokenSource = transport.NewJWTTokenSource(cfg.GatewayToken, refresh, transport.DefaultRefreshSkew, appLogger)
		appLogger.Info("Gateway token refresh enabled")
	}
	client := transport.New(opts)
	appLogger.Info("Gateway client configured", "base_url", client.BaseURL().String(), "timeout", client.Timeout().String())

	sessionService := app.NewSessionService(client, app.EndpointsFromConfig(cfg), appLogger)

	var resolver httptransport.AddressResolver
	if cfg.IPLookupURL != "" {
		resolver = ipresolver.New(ipresolver.HTTPLookup(nil, cfg.IPLookupURL), appLogger)
	} else {
		appLogger.Warn("IP_LOOKUP_URL not set; address discovery disabled")
	}

	validate := validator.New()
	sessionHandler := httptransport.NewSessionHandler(sessionService, resolver, cfg.IPLookupTimeout(), appLogger, validate)
	router := httptransport.NewRouter(sessionHandler, httptransport.RouterConfig{
		JWTSecret:      cfg.BridgeJWTSecret,
		RateLimitRPS:   cfg.BridgeRateLimitRPS,
		RateLimitBurst: cfg.BridgeRateLimitBurst,
	}, appLogger)
	if cfg.BridgeJWTSecret == "" {
		appLogger.Warn("BRIDGE_JWT_SECRET not set; /v1 routes are unauthenticated")
	}

	// gRPC health for orchestrators
	healthServer := health.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.BridgeGRPCHealthPort))
	if err != nil {
		appLogger.Error("Failed to listen for gRPC health", "port", cfg.BridgeGRPCHealthPort, "error", err)
		os.Exit(1)
	}
	go func() {
		appLogger.Info("gRPC health server listening", "address", grpcListener.Addr().String())
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			appLogger.Error("gRPC health server failed to serve", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.BridgeHTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("HTTP server listening", "port", cfg.BridgeHTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
			os.Exit(1)
		}
	}()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	<-quitChan
	appLogger.Info("Shutdown signal received, shutting down servers...")
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	} else {
		appLogger.Info("HTTP server shut down gracefully.")
	}
	grpcServer.GracefulStop()
	appLogger.Info("Bridge service shut down.")
}
