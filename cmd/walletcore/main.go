package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"flow-wallet/go-core/internal/config"
	"flow-wallet/go-core/internal/keyindexer"
	"flow-wallet/go-core/internal/keys"
	"flow-wallet/go-core/internal/platform/privacylog"
	"flow-wallet/go-core/internal/storage"
	"flow-wallet/go-core/pkg/models"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "Path to walletcore.yaml (optional)")
	flag.Parse()
	if *showVersion {
		fmt.Printf("walletcore version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg := config.LoadFromPath(*configPath)
	logger := newLogger(cfg.Logging.Level)

	if err := run(args, cfg, logger); err != nil {
		logger.Error("walletcore failed", "error", err.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: walletcore [flags] <command>

commands:
  generate   create a new seed phrase key and store it encrypted
  restore    restore a key from a mnemonic and store it encrypted
  show       print the public keys of a stored key
  eth        print an Ethereum address derived from a stored key
  discover   query the key indexer for accounts controlled by a stored key
  list       list stored key ids`)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(privacylog.WrapHandler(inner))
}

func openStorage(cfg config.Config) (storage.Storage, error) {
	if cfg.Storage.Dir == "" {
		return storage.NewInMemory(), nil
	}
	return storage.NewFile(cfg.Storage.Dir)
}

func run(args []string, cfg config.Config, logger *slog.Logger) error {
	command, rest := args[0], args[1:]
	switch command {
	case "generate":
		return runGenerate(rest, cfg, logger)
	case "restore":
		return runRestore(rest, cfg, logger)
	case "show":
		return runShow(rest, cfg)
	case "eth":
		return runEth(rest, cfg)
	case "discover":
		return runDiscover(rest, cfg, logger)
	case "list":
		return runList(cfg)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runGenerate(args []string, cfg config.Config, logger *slog.Logger) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	id := fs.String("id", "", "record id for the stored key (required)")
	password := fs.String("password", "", "vault password (required)")
	strength := fs.Int("strength", keys.DefaultSeedPhraseStrength, "mnemonic entropy bits: 128..256")
	fs.Parse(args)
	if *id == "" || *password == "" {
		return fmt.Errorf("generate: -id and -password are required")
	}

	st, err := openStorage(cfg)
	if err != nil {
		return err
	}
	key, err := keys.GenerateSeedPhraseKey(keys.SeedPhraseOptions{Strength: *strength}, st)
	if err != nil {
		return err
	}
	defer key.Wipe()

	key.SetVaultOptions(cfg.Vault.VaultOptions())
	if err := key.Store(*id, *password); err != nil {
		return err
	}
	logger.Info("key stored", "id", *id, "fingerprint", key.ID())

	// The mnemonic goes to stdout once, at creation time, so the user can
	// write it down. It is never logged.
	fmt.Println(key.Mnemonic())
	return nil
}

func runRestore(args []string, cfg config.Config, logger *slog.Logger) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	id := fs.String("id", "", "record id for the stored key (required)")
	password := fs.String("password", "", "vault password (required)")
	passphrase := fs.String("passphrase", "", "optional BIP-39 passphrase")
	fs.Parse(args)
	if *id == "" || *password == "" {
		return fmt.Errorf("restore: -id and -password are required")
	}

	// The mnemonic comes in on stdin so it never lands in shell history.
	fmt.Fprint(os.Stderr, "mnemonic: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("reading mnemonic: %w", err)
	}
	mnemonic := strings.TrimSpace(line)

	st, err := openStorage(cfg)
	if err != nil {
		return err
	}
	key, err := keys.RestoreSeedPhraseKey(mnemonic, keys.SeedPhraseOptions{Passphrase: *passphrase}, st)
	if err != nil {
		return err
	}
	defer key.Wipe()

	key.SetVaultOptions(cfg.Vault.VaultOptions())
	if err := key.Store(*id, *password); err != nil {
		return err
	}
	logger.Info("key stored", "id", *id, "fingerprint", key.ID())
	return nil
}

func runShow(args []string, cfg config.Config) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	id := fs.String("id", "", "record id of the stored key (required)")
	password := fs.String("password", "", "vault password (required)")
	fs.Parse(args)
	if *id == "" || *password == "" {
		return fmt.Errorf("show: -id and -password are required")
	}

	st, err := openStorage(cfg)
	if err != nil {
		return err
	}
	key, err := keys.LoadKey(st, nil, *id, *password)
	if err != nil {
		return err
	}

	out := map[string]string{"fingerprint": keys.KeyID(key.PublicKey(models.UnknownSignatureAlgorithm))}
	if pub := key.PublicKey(models.ECDSAP256); pub != nil {
		out["p256"] = hex.EncodeToString(pub)
	}
	if pub := key.PublicKey(models.ECDSASecp256k1); pub != nil {
		out["secp256k1"] = hex.EncodeToString(pub)
	}
	return printJSON(out)
}

func runEth(args []string, cfg config.Config) error {
	fs := flag.NewFlagSet("eth", flag.ExitOnError)
	id := fs.String("id", "", "record id of the stored key (required)")
	password := fs.String("password", "", "vault password (required)")
	index := fs.Uint("index", 0, "ethereum address index")
	fs.Parse(args)
	if *id == "" || *password == "" {
		return fmt.Errorf("eth: -id and -password are required")
	}

	st, err := openStorage(cfg)
	if err != nil {
		return err
	}
	key, err := keys.LoadKey(st, nil, *id, *password)
	if err != nil {
		return err
	}
	seedKey, ok := key.(*keys.SeedPhraseKey)
	if !ok {
		return fmt.Errorf("eth: key %q is not a seed phrase key", *id)
	}
	defer seedKey.Wipe()

	addr, err := seedKey.EthereumAddress(uint32(*index))
	if err != nil {
		return err
	}
	fmt.Println(addr)
	return nil
}

func runDiscover(args []string, cfg config.Config, logger *slog.Logger) error {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	id := fs.String("id", "", "record id of the stored key (required)")
	password := fs.String("password", "", "vault password (required)")
	network := fs.String("network", string(keyindexer.Mainnet), "flow network: mainnet | testnet")
	fs.Parse(args)
	if *id == "" || *password == "" {
		return fmt.Errorf("discover: -id and -password are required")
	}

	st, err := openStorage(cfg)
	if err != nil {
		return err
	}
	key, err := keys.LoadKey(st, nil, *id, *password)
	if err != nil {
		return err
	}

	endpoints := make(map[keyindexer.ChainID]string, len(cfg.Indexer.Endpoints))
	for name, base := range cfg.Indexer.Endpoints {
		endpoints[keyindexer.ChainID(name)] = base
	}
	client := keyindexer.NewClient(keyindexer.Options{
		HTTPClient:        &http.Client{Timeout: cfg.Indexer.Timeout},
		Logger:            logger,
		RequestsPerSecond: cfg.Indexer.RequestsPerSecond,
		Burst:             cfg.Indexer.Burst,
		Endpoints:         endpoints,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Indexer.Timeout+time.Second)
	defer cancel()

	var accounts []models.Account
	seen := map[string]bool{}
	for _, algo := range []models.SignatureAlgorithm{models.ECDSAP256, models.ECDSASecp256k1} {
		pub := key.PublicKey(algo)
		if pub == nil {
			continue
		}
		found, err := client.DiscoverAccounts(ctx, keyindexer.ChainID(*network), pub)
		if err != nil {
			return err
		}
		for _, account := range found {
			if !seen[account.Address] {
				seen[account.Address] = true
				accounts = append(accounts, account)
			}
		}
	}
	return printJSON(accounts)
}

func runList(cfg config.Config) error {
	st, err := openStorage(cfg)
	if err != nil {
		return err
	}
	ids, err := st.AllKeys()
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
