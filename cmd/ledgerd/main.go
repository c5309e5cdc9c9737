package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ledgerd/build"
)

func bindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("addr", "localhost:8080", "address to listen on for the HTTP API")
	flags.String("api-key", "", "credential required on every API request except /api/health (x-api-key); empty disables the check")
	flags.String("bridge-key", "", "credential required on the bridge-in endpoint; empty disables bridge-in entirely")
	flags.Int("difficulty", 4, "proof-of-work difficulty (leading hex zeros a block hash must meet)")
	flags.Bool("automine", false, "mine a block automatically after every accepted transaction")

	flags.String("docstore-project", "", "Firestore project ID for the remote document store; empty skips this tier")
	flags.String("docstore-prefix", "", "collection name prefix for the remote document store")
	flags.String("docstore-backup-project", "", "Firestore project ID for the optional best-effort replica")
	flags.String("docstore-backup-keyfile", "", "service account key file for the backup Firestore project")
	flags.String("sqlite-path", "ledgerd.db", "path to the embedded SQLite database file")
	flags.Bool("allow-memstore", true, "allow falling back to the non-durable in-memory store if docstore and sqlite both fail")

	flags.String("premine-founder-address", "", "founder premine recipient address")
	flags.String("premine-founder-amount", "", "founder premine amount")
	flags.String("premine-treasury-address", "", "treasury premine recipient address")
	flags.String("premine-treasury-amount", "", "treasury premine amount")
	flags.String("premine-liquidity-address", "", "liquidity pool premine recipient address")
	flags.String("premine-liquidity-amount", "", "liquidity pool premine amount")

	flags.String("logfile", "ledgerd.log", "path to the daemon's log file")

	viper.BindPFlags(flags)
}

func configFromViper() Config {
	return Config{
		APIAddr:   viper.GetString("addr"),
		APIKey:    viper.GetString("api-key"),
		BridgeKey: viper.GetString("bridge-key"),

		Difficulty: viper.GetInt("difficulty"),
		AutoMine:   viper.GetBool("automine"),

		DocstoreProjectID:        viper.GetString("docstore-project"),
		DocstoreCollectionPrefix: viper.GetString("docstore-prefix"),
		DocstoreBackupProjectID:  viper.GetString("docstore-backup-project"),
		DocstoreBackupKeyFile:    viper.GetString("docstore-backup-keyfile"),
		SQLitePath:               viper.GetString("sqlite-path"),
		AllowMemstoreFallback:    viper.GetBool("allow-memstore"),

		PremineFounder:         viper.GetString("premine-founder-address"),
		PremineFounderAmount:   viper.GetString("premine-founder-amount"),
		PremineTreasury:        viper.GetString("premine-treasury-address"),
		PremineTreasuryAmount:  viper.GetString("premine-treasury-amount"),
		PremineLiquidity:       viper.GetString("premine-liquidity-address"),
		PremineLiquidityAmount: viper.GetString("premine-liquidity-amount"),

		LogFile: viper.GetString("logfile"),
	}
}

func main() {
	root := &cobra.Command{
		Use:   os.Args[0],
		Short: "ledgerd v" + build.Version,
		Long:  "ledgerd v" + build.Version + " - a single-node proof-of-work ledger daemon",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
	bindFlags(root)

	viper.SetConfigName("ledgerd")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("LEDGERD")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Fprintln(os.Stderr, "error reading config file:", err)
			os.Exit(1)
		}
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer() {
	cfg := configFromViper()
	srv, err := NewServer(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error starting ledgerd:", err)
		os.Exit(1)
	}
	fmt.Printf("ledgerd v%s listening on %s\n", build.Version, cfg.APIAddr)
	if err := srv.Serve(); err != nil {
		fmt.Fprintln(os.Stderr, "ledgerd exited with error:", err)
		os.Exit(1)
	}
}
