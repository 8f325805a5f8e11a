// Package testnode runs a single-validator Neo node in the current process for
// tests that need real RPC interaction.
package testnode

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/config"
	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/consensus"
	"github.com/nspcc-dev/neo-go/pkg/core"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/network"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/nspcc-dev/neo-go/pkg/services/rpcsrv"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Magic of the test network.
const Magic = netmode.UnitTestNet

// Node is a running single-validator network.
type Node struct {
	Chain *core.Blockchain

	// RPC is an in-process client of the node RPC server.
	RPC *rpcclient.Internal

	// Endpoint is the HTTP address of the node RPC server.
	Endpoint string

	// Committee is the 1-out-of-1 multisignature account of the only
	// validator. It holds all GAS and NEO of the network.
	Committee *wallet.Account
}

// New starts a node producing blocks every 50ms. The node is stopped on test
// cleanup.
func New(t testing.TB) *Node {
	validatorAcc, err := wallet.NewAccount()
	require.NoError(t, err)

	var committee = new(wallet.Account)
	*committee = *validatorAcc
	err = committee.ConvertMultisig(1, []*keys.PublicKey{validatorAcc.PublicKey()})
	require.NoError(t, err)

	var (
		walletPath = filepath.Join(t.TempDir(), "wallet.json")
	)
	wlt, err := wallet.NewWallet(walletPath)
	require.NoError(t, err)

	err = validatorAcc.Encrypt("", keys.NEP2ScryptParams())
	require.NoError(t, err)
	wlt.Accounts = append(wlt.Accounts, validatorAcc)
	require.NoError(t, wlt.Save())

	rpcAddr := freeAddress(t)

	var (
		cfg = config.Config{
			ApplicationConfiguration: config.ApplicationConfiguration{
				RPC: config.RPC{
					BasicService: config.BasicService{
						Enabled:   true,
						Addresses: []string{rpcAddr},
					},
					MaxGasInvoke: fixedn.Fixed8FromInt64(50),
				},
				Consensus: config.Consensus{
					Enabled: true,
					UnlockWallet: config.Wallet{
						Path:     walletPath,
						Password: "",
					},
				},
			},
			ProtocolConfiguration: config.ProtocolConfiguration{
				Magic:                       Magic,
				MaxTraceableBlocks:          1000,
				MaxValidUntilBlockIncrement: 1000 / 2,
				TimePerBlock:                50 * time.Millisecond,
				StandbyCommittee:            []string{hex.EncodeToString(validatorAcc.PublicKey().Bytes())},
				ValidatorsCount:             1,
				VerifyTransactions:          true,
			},
		}
		logger = zaptest.NewLogger(t)
		store  = storage.NewMemoryStore()
	)

	bc, err := core.NewBlockchain(store, config.Blockchain{ProtocolConfiguration: cfg.ProtocolConfiguration}, logger)
	require.NoError(t, err)
	go bc.Run()
	t.Cleanup(bc.Close)

	serverConfig, err := network.NewServerConfig(config.Config{ProtocolConfiguration: cfg.ProtocolConfiguration})
	require.NoError(t, err)
	serverConfig.UserAgent = fmt.Sprintf(config.UserAgentFormat, "fundme-test")
	netSrv, err := network.NewServer(serverConfig, bc, bc.GetStateSyncModule(), logger)
	require.NoError(t, err)
	cons, err := consensus.NewService(consensus.Config{
		Logger:                logger,
		Broadcast:             netSrv.BroadcastExtensible,
		Chain:                 bc,
		BlockQueue:            netSrv.GetBlockQueue(),
		ProtocolConfiguration: cfg.ProtocolConfiguration,
		RequestTx:             netSrv.RequestTx,
		StopTxFlow:            netSrv.StopTxFlow,
		Wallet:                cfg.ApplicationConfiguration.Consensus.UnlockWallet,
		TimePerBlock:          cfg.ProtocolConfiguration.TimePerBlock,
	})
	require.NoError(t, err)
	netSrv.AddConsensusService(cons, cons.OnPayload, cons.OnTransaction)
	go netSrv.Start()
	t.Cleanup(netSrv.Shutdown)

	errCh := make(chan error, 2)
	rpcServer := rpcsrv.New(bc, cfg.ApplicationConfiguration.RPC, netSrv, nil, logger, errCh)
	rpcServer.Start()
	t.Cleanup(rpcServer.Shutdown)

	rpcClient, err := rpcclient.NewInternal(context.TODO(), rpcServer.RegisterLocal)
	require.NoError(t, err)
	require.NoError(t, rpcClient.Init())

	return &Node{
		Chain:     bc,
		RPC:       rpcClient,
		Endpoint:  "http://" + rpcAddr,
		Committee: committee,
	}
}

// NewAccount creates a new account and transfers amount of GAS fractions to
// it from the committee.
func (n *Node) NewAccount(t testing.TB, amount int64) *wallet.Account {
	acc, err := wallet.NewAccount()
	require.NoError(t, err)

	a, err := actor.NewSimple(n.RPC, n.Committee)
	require.NoError(t, err)

	aer, err := a.Wait(gas.New(a).Transfer(a.Sender(), acc.ScriptHash(), big.NewInt(amount), nil))
	require.NoError(t, err)
	require.Equal(t, vmstate.Halt, aer.VMState, aer.FaultException)

	return acc
}

// freeAddress returns local TCP address nobody listens to at the moment.
func freeAddress(t testing.TB) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	return addr
}
