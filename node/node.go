package node

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/holiman/uint256"

	"github.com/sigstream/sigstream/core"
	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/ethbridge"
	"github.com/sigstream/sigstream/fhe"
	"github.com/sigstream/sigstream/gateway"
	"github.com/sigstream/sigstream/log"
	"github.com/sigstream/sigstream/metadata"
	"github.com/sigstream/sigstream/rpc"
	"github.com/sigstream/sigstream/storage"
)

var ErrAlreadyRunning = errors.New("node: already running")

// Node is the top-level sigstream process: the registry plus its
// persistence, event fan-out, decryption gateway and RPC surface.
type Node struct {
	config Config
	logger *log.Logger

	db       storage.Database
	journal  *storage.Journal
	snap     *Snapshotter
	bus      *EventBus
	registry *core.Registry
	gateway  *gateway.Gateway // nil without a committee
	meta     *metadata.Client // nil without a gateway URL

	rpcServer   *http.Server
	rpcListener net.Listener

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// New creates a node with the given configuration. It initializes all
// subsystems but does not start the RPC listener.
func New(config Config) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	n := &Node{
		config: config,
		logger: log.Module("node"),
		stop:   make(chan struct{}),
	}

	if config.DataDir == "" {
		n.db = storage.NewMemoryDB()
	} else {
		db, err := storage.OpenLevelDB(config.ResolvePath("registrydb"))
		if err != nil {
			return nil, fmt.Errorf("open registry db: %w", err)
		}
		n.db = db
	}

	journal, err := storage.NewJournal(n.db)
	if err != nil {
		n.db.Close()
		return nil, fmt.Errorf("open event journal: %w", err)
	}
	n.journal = journal
	n.bus = NewEventBus(128)

	engine, dec, err := buildEngine(config)
	if err != nil {
		n.db.Close()
		return nil, err
	}

	registryAddr := types.HexToAddress(config.RegistryAddress)
	ledger := core.NewLedger()
	for addr, amount := range config.GenesisBalances {
		// Validate has already vetted both fields.
		v, err := uint256.FromHex(amount)
		if err != nil {
			n.db.Close()
			return nil, fmt.Errorf("genesis balance for %s: %w", addr, err)
		}
		ledger.Deposit(types.HexToAddress(addr), v)
	}
	n.registry = core.NewRegistry(registryAddr, engine, ledger)
	n.snap = NewSnapshotter(n.db, n.registry)
	n.registry.SetEventSink(MultiSink{n.journal, n.snap, n.bus})

	if len(config.Committee) > 0 {
		committee, err := decodeCommittee(config.Committee)
		if err != nil {
			n.snap.Close()
			n.db.Close()
			return nil, err
		}
		gw, err := gateway.New(gateway.Config{
			Committee: committee,
			Threshold: config.Threshold,
			Recoverer: ethbridge.Recoverer{},
		}, n.registry, dec)
		if err != nil {
			n.snap.Close()
			n.db.Close()
			return nil, err
		}
		n.gateway = gw
	}

	if config.MetadataGateway != "" {
		meta, err := metadata.NewClient(config.MetadataGateway)
		if err != nil {
			n.snap.Close()
			n.db.Close()
			return nil, err
		}
		n.meta = meta
	}

	return n, nil
}

// buildEngine constructs the configured FHE backend and its decryptor.
func buildEngine(config Config) (fhe.Engine, fhe.Decryptor, error) {
	switch config.FHEMode {
	case "sim":
		e := fhe.NewSimEngine()
		return e, e, nil
	case "paillier":
		key, err := fhe.GeneratePaillierKey(config.PaillierBits)
		if err != nil {
			return nil, nil, fmt.Errorf("generate paillier key: %w", err)
		}
		e := fhe.NewPaillierDecryptEngine(key)
		return e, e, nil
	default:
		return nil, nil, fmt.Errorf("node: unknown fhe mode %q", config.FHEMode)
	}
}

func decodeCommittee(hexKeys []string) ([][]byte, error) {
	out := make([][]byte, 0, len(hexKeys))
	for i, h := range hexKeys {
		raw, err := hex.DecodeString(strings.TrimPrefix(h, "0x"))
		if err != nil || len(raw) == 0 {
			return nil, fmt.Errorf("node: bad committee key %d: %q", i, h)
		}
		out = append(out, raw)
	}
	return out, nil
}

// Start brings up the RPC listener. The registry itself is passive and
// needs no startup.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.running {
		return ErrAlreadyRunning
	}

	handler := rpc.NewServer(n.registry, n.gateway, n.meta)
	listener, err := net.Listen("tcp", n.config.RPCAddr())
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	n.rpcListener = listener
	n.rpcServer = &http.Server{Handler: handler.Handler()}

	go func() {
		n.logger.Info("rpc server listening", "addr", listener.Addr().String())
		if err := n.rpcServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			n.logger.Error("rpc server failed", "err", err)
		}
	}()

	n.running = true
	n.logger.Info("node started", "name", n.config.Name, "fhe", n.config.FHEMode, "gateway", n.gateway != nil)
	return nil
}

// Stop shuts subsystems down in reverse order of startup.
func (n *Node) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.running {
		return nil
	}

	if n.rpcServer != nil {
		if err := n.rpcServer.Close(); err != nil {
			n.logger.Warn("rpc server close", "err", err)
		}
	}
	n.bus.Close()
	n.snap.Close()
	if err := n.db.Close(); err != nil {
		n.logger.Warn("database close", "err", err)
	}

	n.running = false
	close(n.stop)
	n.logger.Info("node stopped", "name", n.config.Name)
	return nil
}

// Wait blocks until the node is stopped.
func (n *Node) Wait() { <-n.stop }

// Running reports whether the node is currently running.
func (n *Node) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

// RPCAddr returns the bound RPC address, useful when port 0 was
// configured.
func (n *Node) RPCAddr() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rpcListener == nil {
		return ""
	}
	return n.rpcListener.Addr().String()
}

// Registry returns the registry instance.
func (n *Node) Registry() *core.Registry { return n.registry }

// Journal returns the persistent event journal.
func (n *Node) Journal() *storage.Journal { return n.journal }

// Bus returns the in-process event bus.
func (n *Node) Bus() *EventBus { return n.bus }

// Gateway returns the decryption gateway, or nil when no committee is
// configured.
func (n *Node) Gateway() *gateway.Gateway { return n.gateway }

// Config returns the node configuration.
func (n *Node) Config() Config { return n.config }
