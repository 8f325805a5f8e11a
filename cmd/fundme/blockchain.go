package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nspcc-dev/fundme-contract/config"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

// remoteBlockchain is a connection to the network RPC server.
type remoteBlockchain struct {
	rpc   *rpcclient.Client
	actor *actor.Actor
	inv   *invoker.Invoker
}

// dial connects to RPC server of the network. Transactions are signed by acc,
// nil acc means read-only connection (a throwaway account is used then).
func dial(ctx context.Context, n config.Network, acc *wallet.Account) (*remoteBlockchain, error) {
	endpoint, err := n.Endpoint()
	if err != nil {
		return nil, err
	}

	if acc == nil {
		acc, err = wallet.NewAccount()
		if err != nil {
			return nil, fmt.Errorf("generate new Neo account: %w", err)
		}
	}

	c, err := rpcclient.New(ctx, endpoint, rpcclient.Options{
		DialTimeout:    n.RPCTimeout(),
		RequestTimeout: n.RPCTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("RPC client dial: %w", err)
	}

	err = c.Init()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init RPC client: %w", err)
	}

	act, err := actor.NewSimple(c, acc)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init actor: %w", err)
	}

	return &remoteBlockchain{
		rpc:   c,
		actor: act,
		inv:   invoker.New(c, nil),
	}, nil
}

func (x *remoteBlockchain) close() {
	x.rpc.Close()
}

// stateRoot returns height of the latest block and the state root at it.
func (x *remoteBlockchain) stateRoot() (uint32, util.Uint256, error) {
	nLatestBlock, err := x.rpc.GetBlockCount()
	if err != nil {
		return 0, util.Uint256{}, fmt.Errorf("get number of the latest block: %w", err)
	}

	if nLatestBlock < 2 {
		return 0, util.Uint256{}, errors.New("chain has no state roots yet")
	}

	height := nLatestBlock - 1

	sr, err := x.rpc.GetStateRootByHeight(height)
	if err != nil {
		return 0, util.Uint256{}, fmt.Errorf("get state root at block #%d: %w", height, err)
	}

	return height, sr.Root, nil
}

// iterateContractStorage iterates over all storage items of the contract at
// the given state root and passes them into f.
func (x *remoteBlockchain) iterateContractStorage(root util.Uint256, contract util.Uint160, f func(key, value []byte) error) error {
	var start []byte

	for {
		res, err := x.rpc.FindStates(root, contract, nil, start, nil)
		if err != nil {
			return fmt.Errorf("find storage items at state root '%s': %w", root, err)
		}

		for i := range res.Results {
			err = f(res.Results[i].Key, res.Results[i].Value)
			if err != nil {
				return err
			}
		}

		if !res.Truncated {
			return nil
		}

		start = res.Results[len(res.Results)-1].Key
	}
}
