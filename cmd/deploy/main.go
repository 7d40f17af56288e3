package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/zeitdao/zeitdao-contract/contracts"
	"github.com/zeitdao/zeitdao-contract/deploy"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	neoRPCEndpoint := flag.String("rpc", "", "Network address of the Neo RPC server")
	contractsDir := flag.String("contracts", "contracts", "Directory with compiled ZeitDAO contracts")
	constructorName := flag.String("constructor", "new", "DAO constructor to call on deployment (only 'new' is supported)")
	constructorArgs := flag.String("args", "", "DAO constructor arguments: <trading flag>,[<member address>,...]")
	walletPath := flag.String("wallet", "", "Path to NEP-6 wallet with the deployer account")
	walletPassword := flag.String("password", "", "Password of the deployer account")
	wif := flag.String("wif", "", "WIF of the deployer account (overrides -wallet)")
	execute := flag.Bool("x", false, "Send deployment transactions instead of a dry run")
	logLevel := flag.String("log", "info", "Log verbosity ('debug', 'info', 'warn' or 'error')")

	flag.Parse()

	switch {
	case *neoRPCEndpoint == "":
		log.Fatal("missing Neo RPC endpoint")
	case *constructorName != "new":
		log.Fatalf("unsupported DAO constructor '%s'", *constructorName)
	case *constructorArgs == "":
		log.Fatal("missing DAO constructor arguments")
	case *wif == "" && *walletPath == "":
		log.Fatal("missing deployer account (use -wallet or -wif)")
	}

	l, err := newLogger(*logLevel)
	if err != nil {
		log.Fatal(fmt.Errorf("init logger: %w", err))
	}

	cfg, err := parseConstructorArgs(*constructorArgs)
	if err != nil {
		log.Fatal(fmt.Errorf("parse DAO constructor arguments: %w", err))
	}

	acc, err := deployerAccount(*wif, *walletPath, *walletPassword)
	if err != nil {
		log.Fatal(fmt.Errorf("open deployer account: %w", err))
	}

	cs, err := contracts.GetFromDir(*contractsDir)
	if err != nil {
		log.Fatal(fmt.Errorf("read compiled contracts from '%s': %w", *contractsDir, err))
	}

	c, err := rpcclient.New(context.Background(), *neoRPCEndpoint, rpcclient.Options{
		DialTimeout:    15 * time.Second,
		RequestTimeout: 15 * time.Second,
	})
	if err != nil {
		log.Fatal(fmt.Errorf("RPC client dial: %w", err))
	}

	defer c.Close()

	res, err := deploy.Deploy(context.Background(), deploy.Prm{
		Logger:       l,
		Blockchain:   c,
		LocalAccount: acc,
		DAOContract: deploy.DAOContractPrm{
			Common: deploy.CommonDeployPrm{
				NEF:      cs[0].NEF,
				Manifest: cs[0].Manifest,
			},
			Config: cfg,
		},
		MarketContract: deploy.MarketContractPrm{
			Common: deploy.CommonDeployPrm{
				NEF:      cs[1].NEF,
				Manifest: cs[1].Manifest,
			},
		},
		DryRun: !*execute,
	})
	if err != nil {
		log.Fatal(fmt.Errorf("deploy ZeitDAO contracts: %w", err))
	}

	l.Info("ZeitDAO contract addresses",
		zap.Stringer("dao", res.DAO), zap.Stringer("market", res.Market))
}

// newLogger builds console logger with the given verbosity. The original
// '-log info,module=debug' filter syntax is accepted but per-module filters
// are not supported: only the leading global level is used.
func newLogger(level string) (*zap.Logger, error) {
	level, _, _ = strings.Cut(level, ",")

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// parseConstructorArgs parses 'new' constructor arguments: boolean trading
// flag followed by one or more Neo addresses of the initial DAO members.
// The member list may be wrapped into square brackets.
func parseConstructorArgs(s string) (deploy.DAOConfiguration, error) {
	var cfg deploy.DAOConfiguration

	s = strings.NewReplacer("[", "", "]", "", " ", "").Replace(s)

	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return cfg, errors.New("expected trading flag followed by at least one member address")
	}

	var err error

	cfg.TradingEnabled, err = strconv.ParseBool(parts[0])
	if err != nil {
		return cfg, fmt.Errorf("parse trading flag '%s': %w", parts[0], err)
	}

	cfg.Members = make([][]byte, 0, len(parts)-1)

	for _, addr := range parts[1:] {
		member, err := deploy.MemberFromAddress(addr)
		if err != nil {
			return cfg, fmt.Errorf("parse member address '%s': %w", addr, err)
		}

		cfg.Members = append(cfg.Members, member)
	}

	return cfg, nil
}

func deployerAccount(wif, walletPath, password string) (*wallet.Account, error) {
	if wif != "" {
		return wallet.NewAccountFromWIF(wif)
	}

	w, err := wallet.NewWalletFromFile(walletPath)
	if err != nil {
		return nil, fmt.Errorf("read NEP-6 wallet: %w", err)
	}

	if len(w.Accounts) == 0 {
		return nil, errors.New("wallet has no accounts")
	}

	acc := w.Accounts[0]

	err = acc.Decrypt(password, w.Scrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypt deployer account: %w", err)
	}

	return acc, nil
}
