package main

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/sensorledger/relay-backend/internal/archive"
	"github.com/sensorledger/relay-backend/internal/ledger"
	"github.com/sensorledger/relay-backend/internal/metrics"
	"github.com/sensorledger/relay-backend/internal/relay"
	"github.com/sensorledger/relay-backend/internal/transport"
)

type config struct {
	Addr            string        `long:"addr" env:"ADDR" description:"listen address" default:":8080"`
	RPCURL          string        `long:"rpc-url" env:"RPC_URL" description:"ledger node RPC URL"`
	ContractAddress string        `long:"contract-address" env:"CONTRACT_ADDRESS" description:"reading storage contract address"`
	PrivateKey      string        `long:"private-key" env:"PRIVATE_KEY" description:"hex-encoded signing key"`
	ChainID         uint64        `long:"chain-id" env:"CHAIN_ID" description:"ledger chain id" default:"11155111"`
	PinataJWT       string        `long:"pinata-jwt" env:"PINATA_JWT" description:"archive service token, archiving disabled when empty"`
	PinataURL       string        `long:"pinata-url" env:"PINATA_URL" description:"archive pin endpoint" default:"https://api.pinata.cloud/pinning/pinJSONToIPFS"`
	BootTimeout     time.Duration `long:"boot-timeout" env:"BOOT_TIMEOUT" description:"RPC reachability check timeout" default:"10s"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	_ = godotenv.Load()

	cfg := config{}
	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}
	if cfg.RPCURL == "" || cfg.PrivateKey == "" || cfg.ContractAddress == "" {
		logger.Fatal("RPC_URL, PRIVATE_KEY and CONTRACT_ADDRESS are required")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		logger.Fatal("invalid contract address", zap.String("contract_address", cfg.ContractAddress))
	}

	bootCtx, cancel := context.WithTimeout(ctx, cfg.BootTimeout)
	defer cancel()
	ethClient, err := ethclient.DialContext(bootCtx, cfg.RPCURL)
	if err != nil {
		logger.Fatal("dial ledger rpc", zap.Error(err))
	}
	chainID, err := ethClient.ChainID(bootCtx)
	if err != nil {
		logger.Fatal("ledger rpc unreachable", zap.Error(err))
	}
	if chainID.Uint64() != cfg.ChainID {
		logger.Fatal("chain id mismatch",
			zap.Uint64("configured", cfg.ChainID),
			zap.String("reported", chainID.String()),
		)
	}

	account, err := ledger.NewAccount(cfg.PrivateKey)
	if err != nil {
		logger.Fatal("load signing key", zap.Error(err))
	}
	logger.Info("relayer account loaded", zap.String("address", account.Address().Hex()))

	ledgerClient, err := ledger.NewClient(
		ethClient,
		account,
		common.HexToAddress(cfg.ContractAddress),
		new(big.Int).SetUint64(cfg.ChainID),
		metrics.NewLedgerRPC(cfg.ChainID),
		logger.Named("ledger"),
	)
	if err != nil {
		logger.Fatal("init ledger client", zap.Error(err))
	}

	archiveClient := archive.NewClient(cfg.PinataJWT, cfg.PinataURL, metrics.NewArchive(), logger.Named("archive"))

	relayService, err := relay.NewService(archiveClient, ledgerClient, metrics.NewRelay(), logger.Named("relay"))
	if err != nil {
		logger.Fatal("init relay service", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", transport.NewHandler(relayService, logger.Named("http")).Router())

	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           cors.Default().Handler(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// Confirmation polling keeps a relay request open well past the
		// usual write timeout.
		WriteTimeout:   2 * time.Minute,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: http.DefaultMaxHeaderBytes,
	}
	go func() {
		<-ctx.Done()
		logger.Info("shutting down the http server")
		if err := s.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("starting HTTP server", zap.String("addr", cfg.Addr))
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("failed to listen and serve", zap.Error(err))
	}
}
