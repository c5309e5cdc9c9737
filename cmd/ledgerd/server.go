package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ledgerd/api"
	"ledgerd/build"
	"ledgerd/modules"
	"ledgerd/modules/ledger"
	"ledgerd/modules/storage"
	"ledgerd/modules/storage/docstore"
	"ledgerd/persist"
	"ledgerd/types"
)

// Config gathers every option cobra/viper accept on the command line, in an
// env var, or in a config file. Unknown keys upstream are ignored before
// they ever reach this struct.
type Config struct {
	APIAddr   string
	APIKey    string
	BridgeKey string

	Difficulty int
	AutoMine   bool

	DocstoreProjectID         string
	DocstoreCollectionPrefix  string
	DocstoreBackupProjectID   string
	DocstoreBackupKeyFile     string
	SQLitePath                string
	AllowMemstoreFallback     bool

	PremineFounder        string
	PremineFounderAmount  string
	PremineTreasury       string
	PremineTreasuryAmount string
	PremineLiquidity      string
	PremineLiquidityAmount string

	LogFile string
}

// DefaultConfig returns the configuration used when an operator supplies no
// overrides: loopback API address, no credentials, the embedded SQL store
// under ./ledgerd.db, and Bitcoin-style tokenomics at the recommended
// difficulty floor.
func DefaultConfig() Config {
	return Config{
		APIAddr:               "localhost:8080",
		Difficulty:            modules.RecommendedDifficulty,
		SQLitePath:            "ledgerd.db",
		AllowMemstoreFallback: true,
		LogFile:               "ledgerd.log",
	}
}

// Server owns every long-lived component of the daemon: the logger, the
// ledger engine, and the HTTP server. Close tears them all down in reverse
// order of construction, mirroring the teacher's moduleCloser convention.
type Server struct {
	log    *persist.Logger
	engine *ledger.Engine
	http   *api.Server
}

// NewServer builds the storage backend, the ledger engine, and the HTTP
// adapter in sequence, bounding the whole sequence by
// modules.EngineReadyDeadline so a stuck remote store can never hang
// startup forever.
func NewServer(cfg Config) (*Server, error) {
	plog, err := persist.NewLogger(cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	zlog, err := zap.NewProduction()
	if err != nil {
		zlog = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), modules.EngineReadyDeadline)
	defer cancel()

	storageCfg := storage.Config{SQLitePath: cfg.SQLitePath}
	if cfg.DocstoreProjectID != "" {
		storageCfg.Docstore = &docstore.Config{
			ProjectID:         cfg.DocstoreProjectID,
			CollectionPrefix:  cfg.DocstoreCollectionPrefix,
			BackupProjectID:   cfg.DocstoreBackupProjectID,
			BackupKeyFilename: cfg.DocstoreBackupKeyFile,
		}
	}
	sel, err := storage.MustSelect(ctx, storageCfg, zlog, cfg.AllowMemstoreFallback)
	if err != nil {
		plog.Close()
		return nil, err
	}
	plog.Printf("storage backend selected: %s", sel.Tier)

	ledgerCfg := ledger.DefaultConfig()
	ledgerCfg.Difficulty = cfg.Difficulty
	ledgerCfg.AutoMine = cfg.AutoMine
	ledgerCfg.BridgeKey = cfg.BridgeKey
	ledgerCfg.Advisor = ledger.NewVelocityAdvisor()
	premine, err := buildPremine(cfg)
	if err != nil {
		plog.Close()
		return nil, err
	}
	ledgerCfg.Premine = premine

	engine, err := ledger.New(ctx, sel.Backend, ledgerCfg, zlog)
	if err != nil {
		plog.Close()
		return nil, fmt.Errorf("starting ledger engine: %w", err)
	}

	a := api.NewAPI(engine, cfg.APIKey, cfg.BridgeKey)
	httpSrv, err := api.NewServer(cfg.APIAddr, a)
	if err != nil {
		plog.Close()
		return nil, fmt.Errorf("binding API listener: %w", err)
	}

	return &Server{log: plog, engine: engine, http: httpSrv}, nil
}

func buildPremine(cfg Config) ([]types.PremineAllocation, error) {
	parse := func(amountStr string) (types.Amount, error) {
		if amountStr == "" {
			return 0, nil
		}
		amt, err := types.NewAmount(amountStr)
		if err != nil {
			return 0, fmt.Errorf("parsing premine amount %q: %w", amountStr, err)
		}
		return amt, nil
	}
	founderAmt, err := parse(cfg.PremineFounderAmount)
	if err != nil {
		return nil, err
	}
	treasuryAmt, err := parse(cfg.PremineTreasuryAmount)
	if err != nil {
		return nil, err
	}
	liquidityAmt, err := parse(cfg.PremineLiquidityAmount)
	if err != nil {
		return nil, err
	}
	return types.DefaultPremineAllocations(
		cfg.PremineFounder, founderAmt,
		cfg.PremineTreasury, treasuryAmt,
		cfg.PremineLiquidity, liquidityAmt,
	), nil
}

// Serve blocks, serving the HTTP API until Close is called or the process
// receives an interrupt.
func (srv *Server) Serve() error {
	return srv.http.Serve()
}

// Close shuts down the HTTP listener, which causes the Serve goroutine to
// close the ledger engine in turn, then closes the log file. Both errors,
// if any, are reported together rather than the second silently shadowing
// the first.
func (srv *Server) Close() error {
	httpErr := srv.http.Close()
	logErr := srv.log.Close()
	return build.ComposeErrors(httpErr, logErr)
}
