// Package node is the main service which launches a beacon node and manages
// the lifecycle of all its associated services at runtime, such as the chain
// and gossip validation, gracefully closing them if the process ends.
package node

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/async"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/blockchain"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/cache"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/db"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/db/kv"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/execution"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/protoarray"
	regularsync "github.com/prysmaticlabs/prysm-epbs/beacon-chain/sync"
	"github.com/prysmaticlabs/prysm-epbs/cmd"
	"github.com/prysmaticlabs/prysm-epbs/cmd/beacon-chain/flags"
	"github.com/prysmaticlabs/prysm-epbs/io/logs"
	"github.com/prysmaticlabs/prysm-epbs/monitoring/prometheus"
	"github.com/prysmaticlabs/prysm-epbs/runtime"
	"github.com/prysmaticlabs/prysm-epbs/runtime/version"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "node")

// BeaconNode defines a struct that handles the services running an ePBS beacon chain
// node. It handles the lifecycle of the entire system and registers services to a
// service registry.
type BeaconNode struct {
	cliCtx          *cli.Context
	ctx             context.Context
	cancel          context.CancelFunc
	services        *runtime.ServiceRegistry
	lock            sync.RWMutex
	stop            chan struct{} // Channel to wait for termination notifications.
	db              db.Database
	forkChoiceStore forkchoice.ForkChoicer
	engine          *execution.EngineClient
	envelopeBuffer  *cache.PayloadEnvelopeBuffer
	chainFlagOpts   []blockchain.Option
	engineFlagOpts  []execution.Option
}

// New creates a new node instance, sets up configuration options, and registers
// every required service to the node.
func New(cliCtx *cli.Context, opts ...Option) (*BeaconNode, error) {
	if err := configureChainConfig(cliCtx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(cliCtx.Context)
	beacon := &BeaconNode{
		cliCtx:         cliCtx,
		ctx:            ctx,
		cancel:         cancel,
		services:       runtime.NewServiceRegistry(),
		stop:           make(chan struct{}),
		envelopeBuffer: cache.NewPayloadEnvelopeBuffer(),
	}
	for _, opt := range opts {
		if err := opt(beacon); err != nil {
			cancel()
			return nil, err
		}
	}

	if err := beacon.registerServices(cliCtx); err != nil {
		beacon.release()
		return nil, err
	}
	return beacon, nil
}

func (b *BeaconNode) registerServices(cliCtx *cli.Context) error {
	if err := b.startDB(cliCtx); err != nil {
		return err
	}
	b.startForkChoice()
	if err := b.startExecutionEngine(cliCtx); err != nil {
		return err
	}

	log.Debugln("Registering Blockchain Service")
	chain, err := b.registerBlockchainService(cliCtx)
	if err != nil {
		return err
	}

	log.Debugln("Registering Sync Service")
	if err := b.registerSyncService(cliCtx, chain); err != nil {
		return err
	}

	genesis, err := b.genesisState(cliCtx)
	if err != nil {
		return errors.Wrap(err, "could not load genesis state")
	}
	if err := chain.SaveGenesisData(b.ctx, genesis); err != nil {
		return errors.Wrap(err, "could not save genesis data")
	}

	if !cliCtx.Bool(cmd.DisableMonitoringFlag.Name) {
		log.Debugln("Registering Prometheus Service")
		b.registerPrometheusService(cliCtx)
	}
	return nil
}

// Start the BeaconNode and kicks off every registered service.
func (b *BeaconNode) Start() {
	b.lock.Lock()

	log.WithFields(logrus.Fields{
		"version": version.Version(),
	}).Info("Starting beacon node")

	b.services.StartAll()

	stop := b.stop
	b.lock.Unlock()

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		select {
		case <-sigc:
		case <-stop:
			return
		}
		log.Info("Got interrupt, shutting down...")
		go b.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.WithField("times", i-1).Info("Already shutting down, interrupt more to panic")
			}
		}
		panic("Panic closing the beacon node")
	}()

	// Wait for stop channel to be closed.
	<-stop
}

// Close handles graceful shutdown of the system.
func (b *BeaconNode) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()

	log.Info("Stopping beacon node")
	b.services.StopAll()
	b.release()
	close(b.stop)
}

// release frees what the node holds outside the service registry.
func (b *BeaconNode) release() {
	if b.engine != nil {
		b.engine.Close()
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			log.WithError(err).Error("Failed to close database")
		}
	}
	b.cancel()
}

func (b *BeaconNode) startForkChoice() {
	b.forkChoiceStore = protoarray.New()
}

func (b *BeaconNode) startDB(cliCtx *cli.Context) error {
	baseDir := cliCtx.String(cmd.DataDirFlag.Name)
	dbPath := filepath.Join(baseDir, kv.BeaconNodeDbDirName)
	log.WithField("databasePath", dbPath).Info("Checking DB")

	d, err := db.NewDB(b.ctx, dbPath)
	if err != nil {
		return errors.Wrap(err, "could not open database")
	}
	if cliCtx.Bool(cmd.ForceClearDB.Name) {
		log.Warning("Removing database")
		if err := d.Close(); err != nil {
			return errors.Wrap(err, "could not close db prior to clearing")
		}
		if err := d.ClearDB(); err != nil {
			return errors.Wrap(err, "could not clear database")
		}
		d, err = db.NewDB(b.ctx, dbPath)
		if err != nil {
			return errors.Wrap(err, "could not create new database")
		}
	}
	b.db = d
	return nil
}

// startExecutionEngine dials the execution client when an endpoint is configured.
// Without one, revealed payloads are imported optimistically.
func (b *BeaconNode) startExecutionEngine(cliCtx *cli.Context) error {
	endpoint := cliCtx.String(flags.ExecutionEngineEndpoint.Name)
	if endpoint == "" {
		log.Warn("No execution engine endpoint set, payloads will not be verified by an execution client")
		return nil
	}
	opts := append([]execution.Option{}, b.engineFlagOpts...)
	if secretPath := cliCtx.String(flags.ExecutionJWTSecretFlag.Name); secretPath != "" {
		enc, err := os.ReadFile(secretPath) // #nosec G304
		if err != nil {
			return errors.Wrap(err, "could not read JWT secret file")
		}
		secret, err := execution.ParseJWTSecret(string(enc))
		if err != nil {
			return err
		}
		opts = append(opts, execution.WithJWTSecret(secret))
	}
	if cliCtx.IsSet(flags.ExecutionTimeoutFlag.Name) {
		opts = append(opts, execution.WithTimeout(cliCtx.Duration(flags.ExecutionTimeoutFlag.Name)))
	}
	engine, err := execution.NewEngineClient(b.ctx, endpoint, opts...)
	if err != nil {
		return err
	}
	log.WithField("endpoint", logs.MaskCredentialsLogging(endpoint)).Info("Connected to execution engine")
	b.engine = engine
	return nil
}

func (b *BeaconNode) registerBlockchainService(cliCtx *cli.Context) (*blockchain.Service, error) {
	opts := append([]blockchain.Option{}, b.chainFlagOpts...)
	opts = append(opts,
		blockchain.WithDatabase(b.db),
		blockchain.WithForkChoiceStore(b.forkChoiceStore),
		blockchain.WithPool(async.NewPool(cliCtx.Int(flags.ChainWorkersFlag.Name))),
		blockchain.WithPayloadEnvelopeBuffer(b.envelopeBuffer),
	)
	if n := cliCtx.Int(flags.MaxPendingBlocksFlag.Name); n > 0 {
		opts = append(opts, blockchain.WithMaxPendingBlocks(n))
	}
	if b.engine != nil {
		opts = append(opts, blockchain.WithExecutionEngineCaller(b.engine))
	}
	chain, err := blockchain.NewService(b.ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not register blockchain service")
	}
	return chain, b.services.RegisterService(chain)
}

func (b *BeaconNode) registerSyncService(cliCtx *cli.Context, chain *blockchain.Service) error {
	rs, err := regularsync.NewService(
		b.ctx,
		regularsync.WithChainService(chain),
		regularsync.WithPool(async.NewPool(cliCtx.Int(flags.GossipWorkersFlag.Name))),
	)
	if err != nil {
		return errors.Wrap(err, "could not register sync service")
	}
	chain.AddFinalizationSubscriber(rs)
	return b.services.RegisterService(rs)
}

func (b *BeaconNode) registerPrometheusService(cliCtx *cli.Context) {
	addr := fmt.Sprintf("%s:%d",
		cliCtx.String(cmd.MonitoringHostFlag.Name),
		cliCtx.Int(flags.MonitoringPortFlag.Name),
	)
	service := prometheus.NewService(addr, b.services)
	if err := b.services.RegisterService(service); err != nil {
		log.WithError(err).Error("Could not register prometheus service")
	}
}
