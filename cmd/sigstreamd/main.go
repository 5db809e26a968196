// Command sigstreamd runs a sigstream registry node: the encrypted signal
// registry, its event journal, the decryption gateway and the JSON-RPC
// server.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sigstream/sigstream/log"
	"github.com/sigstream/sigstream/node"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a JSON config file")
		committee  = flag.String("committee", "", "comma-separated hex committee keys")
	)
	flagCfg := node.DefaultConfig()

	flag.StringVar(&flagCfg.DataDir, "datadir", flagCfg.DataDir, "data directory (empty runs in memory)")
	flag.StringVar(&flagCfg.Name, "name", flagCfg.Name, "node name used in logs")
	flag.StringVar(&flagCfg.RegistryAddress, "registry", flagCfg.RegistryAddress, "registry address input proofs bind to")
	flag.IntVar(&flagCfg.RPCPort, "rpc-port", flagCfg.RPCPort, "HTTP-RPC server listening port")
	flag.StringVar(&flagCfg.MetadataGateway, "metadata-gateway", flagCfg.MetadataGateway, "base URL for info pointer resolution")
	flag.StringVar(&flagCfg.FHEMode, "fhe", flagCfg.FHEMode, "fhe backend (sim, paillier)")
	flag.IntVar(&flagCfg.PaillierBits, "paillier-bits", flagCfg.PaillierBits, "paillier modulus size in bits")
	flag.IntVar(&flagCfg.Threshold, "threshold", flagCfg.Threshold, "committee shares required per decryption")
	flag.StringVar(&flagCfg.LogLevel, "log-level", flagCfg.LogLevel, "log verbosity (debug, info, warn, error)")
	flag.StringVar(&flagCfg.LogFormat, "log-format", flagCfg.LogFormat, "log encoding (text, json)")
	flag.Parse()

	cfg := flagCfg
	if *configPath != "" {
		loaded, err := node.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		// Flags given explicitly on the command line win over the file.
		set := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		cfg = applyFlagOverrides(loaded, flagCfg, set)
	}
	if *committee != "" {
		cfg.Committee = strings.Split(*committee, ",")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log.SetDefault(log.New(os.Stderr, log.ParseLevel(cfg.LogLevel), log.Format(cfg.LogFormat)))
	logger := log.Module("sigstreamd")

	n, err := node.New(cfg)
	if err != nil {
		logger.Error("failed to create node", "err", err)
		os.Exit(1)
	}
	if err := n.Start(); err != nil {
		logger.Error("failed to start node", "err", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutdown signal received")
	if err := n.Stop(); err != nil {
		logger.Error("failed to stop node", "err", err)
		os.Exit(1)
	}
}

// applyFlagOverrides layers the explicitly set command-line flags on top
// of a config loaded from file. set holds the flag names the user gave.
func applyFlagOverrides(cfg, flags node.Config, set map[string]bool) node.Config {
	if set["datadir"] {
		cfg.DataDir = flags.DataDir
	}
	if set["name"] {
		cfg.Name = flags.Name
	}
	if set["registry"] {
		cfg.RegistryAddress = flags.RegistryAddress
	}
	if set["rpc-port"] {
		cfg.RPCPort = flags.RPCPort
	}
	if set["metadata-gateway"] {
		cfg.MetadataGateway = flags.MetadataGateway
	}
	if set["fhe"] {
		cfg.FHEMode = flags.FHEMode
	}
	if set["paillier-bits"] {
		cfg.PaillierBits = flags.PaillierBits
	}
	if set["threshold"] {
		cfg.Threshold = flags.Threshold
	}
	if set["log-level"] {
		cfg.LogLevel = flags.LogLevel
	}
	if set["log-format"] {
		cfg.LogFormat = flags.LogFormat
	}
	return cfg
}
