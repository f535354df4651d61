package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/epc-sgw/internal/adminserver"
	"github.com/your-org/epc-sgw/internal/audit"
	"github.com/your-org/epc-sgw/internal/config"
	"github.com/your-org/epc-sgw/internal/dispatch"
	"github.com/your-org/epc-sgw/internal/engine"
	"github.com/your-org/epc-sgw/internal/gwcontext"
	"github.com/your-org/epc-sgw/internal/kernel"
	"github.com/your-org/epc-sgw/internal/messages"
	"github.com/your-org/epc-sgw/internal/metrics"
	"github.com/your-org/epc-sgw/internal/paa"
	"github.com/your-org/epc-sgw/internal/pco"
	"github.com/your-org/epc-sgw/internal/teid"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	logger := initLogger()
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	s11Addr, err := cfg.SGW.S11Address()
	if err != nil {
		logger.Fatal("invalid sgw.s11_ipv4", zap.Error(err))
	}
	s1uAddr, err := cfg.SGW.S1UAddress()
	if err != nil {
		logger.Fatal("invalid sgw.s1u_ipv4", zap.Error(err))
	}

	store := gwcontext.NewStore()
	teids := teid.NewPair()

	pool, err := paa.NewIPv4Pool(cfg.PAA.IPv4PoolCIDR)
	if err != nil {
		logger.Fatal("invalid paa.ipv4_pool_cidr", zap.Error(err))
	}
	paaCoord := paa.New(pool, logger)

	var tunnelProgrammer kernel.TunnelProgrammer
	if cfg.Kernel.Backend == "ebpf" {
		tunnelProgrammer, err = kernel.LoadPinned(cfg.Kernel.PinnedPath, logger)
		if err != nil {
			logger.Fatal("failed to load pinned kernel tunnel map", zap.Error(err))
		}
	} else {
		tunnelProgrammer = kernel.NewSimulated(logger)
	}

	sender := dispatch.NewLogSender(logger)
	metricsRecorder := metrics.NewRecorder()

	leaseGaugeDone := make(chan struct{})
	defer close(leaseGaugeDone)
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metricsRecorder.SetPAALeases(pool.AllocatedCount())
			case <-leaseGaugeDone:
				return
			}
		}
	}()

	var auditSink engine.AuditSink
	if cfg.Audit.Enabled {
		rec, err := audit.New(cfg.Audit.DSN, cfg.Audit.BufferSize, logger)
		if err != nil {
			logger.Fatal("failed to initialize audit recorder", zap.Error(err))
		}
		defer rec.Close()
		auditSink = rec
	}

	engineCfg := engine.Config{
		S11Address: s11Addr,
		S1UAddress: s1uAddr,
		DefaultAMBR: messages.AMBR{
			DownlinkBps: 100_000_000,
			UplinkBps:   40_000_000,
		},
		DedicatedBearerQoS: messages.QoS{
			QCI:           cfg.DedicatedBearer.QCI,
			PCI:           true,
			PriorityLevel: cfg.DedicatedBearer.PriorityLevel,
			PVI:           true,
			GBRUplink:     cfg.DedicatedBearer.GBRUplinkKbps * 1000,
			GBRDownlink:   cfg.DedicatedBearer.GBRDownlinkKbps * 1000,
			MBRUplink:     cfg.DedicatedBearer.MBRUplinkKbps * 1000,
			MBRDownlink:   cfg.DedicatedBearer.MBRDownlinkKbps * 1000,
		},
		DedicatedBearerTFT: messages.TFT{
			Direction: "uplink_only",
			Filters: []messages.TFTFilter{
				{Protocol: cfg.DedicatedBearer.TFTProtocol, RemotePort: cfg.DedicatedBearer.TFTRemotePort},
			},
		},
	}

	eng := engine.New(engineCfg, store, teids, paaCoord, pco.NewPassthrough(), tunnelProgrammer, sender, logger, metricsRecorder, auditSink)
	_ = eng // driven by the S11 message-bus collaborator once attached

	metricsServer := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: promhttp.Handler()}
	go func() {
		logger.Info("metrics server listening", zap.String("addr", cfg.Metrics.ListenAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	admin := adminserver.New(cfg.Admin.ListenAddr, store, logger)
	adminErrs := admin.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-adminErrs:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("admin server stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := admin.Stop(shutdownCtx); err != nil {
		logger.Error("admin server shutdown error", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func initLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
