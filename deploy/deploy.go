package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/fundme-contract/contracts"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for FundMe deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions.
	actor.RPCActor

	// GetContractStateByHash returns network state of the smart contract by its
	// address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// CommonDeployPrm groups common deployment parameters of the smart contract.
type CommonDeployPrm struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

// PriceFeedContractPrm groups deployment parameters of the price feed mock.
type PriceFeedContractPrm struct {
	Common CommonDeployPrm
	// Precision of the answers, DefaultDecimals if not set.
	Decimals *uint8
	// Answer of the first round, DefaultInitialAnswer if not set.
	InitialAnswer *int64
}

// FundMeContractPrm groups deployment parameters of the FundMe contract.
type FundMeContractPrm struct {
	Common CommonDeployPrm
	// Owner of the contract. Zero value means the deployer.
	Owner util.Uint160
}

// Prm groups all parameters of the deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Particular Neo blockchain instance to deploy contracts to.
	Blockchain Blockchain

	// Local process account used for transaction signing (must be unlocked).
	LocalAccount *wallet.Account

	// Tag selects deployed contracts, see contracts.Tagged.
	Tag string

	// PriceFeed is the address of existing price feed contract. It's required
	// if the tag does not include the mock, the mock is used otherwise.
	PriceFeed util.Uint160

	PriceFeedContract PriceFeedContractPrm
	FundMeContract    FundMeContractPrm
}

// Result describes deployed contracts. Zero address means contract was not
// deployed.
type Result struct {
	PriceFeed util.Uint160
	FundMe    util.Uint160
}

// Default price feed mock parameters.
const (
	DefaultDecimals      = 8
	DefaultInitialAnswer = 2000_0000_0000
)

// Deploy deploys contracts selected by Prm.Tag to the network represented by
// Prm.Blockchain. Already deployed contracts (same sender, NEF and name) are
// not redeployed.
func Deploy(ctx context.Context, prm Prm) (Result, error) {
	var res Result

	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}

	if prm.Blockchain == nil {
		return res, errors.New("missing blockchain")
	}

	if prm.LocalAccount == nil {
		return res, errors.New("missing local account")
	}

	names, err := contracts.Tagged(prm.Tag)
	if err != nil {
		return res, err
	}

	localActor, err := actor.NewSimple(prm.Blockchain, prm.LocalAccount)
	if err != nil {
		return res, fmt.Errorf("init transaction sender from local account: %w", err)
	}

	res.PriceFeed = prm.PriceFeed

	for _, name := range names {
		switch name {
		case contracts.PriceFeed:
			prm.Logger.Info("synchronizing price feed mock with the chain...")

			res.PriceFeed, err = syncContract(ctx, syncContractPrm{
				logger:     prm.Logger,
				blockchain: prm.Blockchain,
				actor:      localActor,
				common:     prm.PriceFeedContract.Common,
				args:       PriceFeedArgs(prm.PriceFeedContract),
			})
			if err != nil {
				return res, fmt.Errorf("sync price feed mock with the chain: %w", err)
			}

			prm.Logger.Info("price feed mock successfully synchronized", zap.Stringer("address", res.PriceFeed))
		case contracts.FundMe:
			if res.PriceFeed.Equals(util.Uint160{}) {
				return res, errors.New("price feed address is required")
			}

			prm.Logger.Info("synchronizing FundMe contract with the chain...",
				zap.Stringer("price feed", res.PriceFeed))

			res.FundMe, err = syncContract(ctx, syncContractPrm{
				logger:     prm.Logger,
				blockchain: prm.Blockchain,
				actor:      localActor,
				common:     prm.FundMeContract.Common,
				args:       FundMeArgs(prm.FundMeContract, localActor.Sender(), res.PriceFeed),
			})
			if err != nil {
				return res, fmt.Errorf("sync FundMe contract with the chain: %w", err)
			}

			prm.Logger.Info("FundMe contract successfully synchronized", zap.Stringer("address", res.FundMe))
		}
	}

	return res, nil
}

// PriceFeedArgs returns deployment data of the price feed mock. Unset values
// are replaced with defaults.
func PriceFeedArgs(prm PriceFeedContractPrm) []any {
	decimals, answer := int64(DefaultDecimals), int64(DefaultInitialAnswer)
	if prm.Decimals != nil {
		decimals = int64(*prm.Decimals)
	}

	if prm.InitialAnswer != nil {
		answer = *prm.InitialAnswer
	}

	return []any{decimals, answer}
}

// FundMeArgs returns deployment data of the FundMe contract.
func FundMeArgs(prm FundMeContractPrm, deployer, priceFeed util.Uint160) []any {
	owner := prm.Owner
	if owner.Equals(util.Uint160{}) {
		owner = deployer
	}

	return []any{owner, priceFeed}
}

// ContractAddress returns address the contract gets being deployed by the
// sender.
func ContractAddress(sender util.Uint160, c CommonDeployPrm) util.Uint160 {
	return state.CreateContractHash(sender, c.NEF.Checksum, c.Manifest.Name)
}

type syncContractPrm struct {
	logger     *zap.Logger
	blockchain Blockchain
	actor      *actor.Actor
	common     CommonDeployPrm
	args       []any
}

func syncContract(ctx context.Context, prm syncContractPrm) (util.Uint160, error) {
	addr := ContractAddress(prm.actor.Sender(), prm.common)

	l := prm.logger.With(zap.String("contract", prm.common.Manifest.Name), zap.Stringer("address", addr))

	st, err := prm.blockchain.GetContractStateByHash(addr)
	if err == nil && st != nil {
		if st.NEF.Checksum != prm.common.NEF.Checksum {
			l.Warn("on-chain contract differs from the local one, skip deployment")
		} else {
			l.Info("contract is already deployed")
		}

		return addr, nil
	}

	if err != nil && !isErrContractNotFound(err) {
		return addr, fmt.Errorf("get contract state: %w", err)
	}

	l.Info("contract is missing on the chain, sending deployment transaction...")

	txHash, vub, err := management.New(prm.actor).Deploy(&prm.common.NEF, &prm.common.Manifest, prm.args)
	if err != nil {
		return addr, fmt.Errorf("send deployment transaction: %w", err)
	}

	l.Info("deployment transaction sent, waiting for it to be accepted...",
		zap.Stringer("tx", txHash), zap.Uint32("vub", vub))

	aer, err := Await(ctx, prm.actor, txHash, vub)
	if err != nil {
		return addr, err
	}

	if aer.VMState != vmstate.Halt {
		return addr, fmt.Errorf("deployment transaction %s failed: %s", txHash.StringLE(), aer.FaultException)
	}

	return addr, nil
}

// Waiter waits for transactions to be accepted.
type Waiter interface {
	Wait(h util.Uint256, vub uint32, err error) (*state.AppExecResult, error)
}

// Await waits for the transaction to be accepted respecting the context.
func Await(ctx context.Context, w Waiter, h util.Uint256, vub uint32) (*state.AppExecResult, error) {
	type waitResult struct {
		aer *state.AppExecResult
		err error
	}

	ch := make(chan waitResult, 1)

	go func() {
		aer, err := w.Wait(h, vub, nil)
		ch <- waitResult{aer, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for transaction %s: %w", h.StringLE(), ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("wait for transaction %s: %w", h.StringLE(), r.err)
		}
		return r.aer, nil
	}
}

func isErrContractNotFound(err error) bool {
	return strings.Contains(err.Error(), "Unknown contract")
}
