package deploy

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nspcc-dev/fundme-contract/contracts"
	"github.com/nspcc-dev/fundme-contract/internal/testnode"
	"github.com/nspcc-dev/fundme-contract/rpc/fundme"
	"github.com/nspcc-dev/fundme-contract/rpc/pricefeed"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type waiterFunc func(h util.Uint256, vub uint32, err error) (*state.AppExecResult, error)

func (f waiterFunc) Wait(h util.Uint256, vub uint32, err error) (*state.AppExecResult, error) {
	return f(h, vub, err)
}

func TestPriceFeedArgs(t *testing.T) {
	require.Equal(t, []any{int64(8), int64(2000_0000_0000)}, PriceFeedArgs(PriceFeedContractPrm{}))

	decimals, answer := uint8(6), int64(3000_000000)
	require.Equal(t, []any{int64(6), int64(3000_000000)}, PriceFeedArgs(PriceFeedContractPrm{
		Decimals:      &decimals,
		InitialAnswer: &answer,
	}))

	decimals, answer = 0, 0
	require.Equal(t, []any{int64(0), int64(0)}, PriceFeedArgs(PriceFeedContractPrm{
		Decimals:      &decimals,
		InitialAnswer: &answer,
	}))
}

func TestFundMeArgs(t *testing.T) {
	var (
		deployer  = util.Uint160{1}
		owner     = util.Uint160{2}
		priceFeed = util.Uint160{3}
	)

	require.Equal(t, []any{deployer, priceFeed}, FundMeArgs(FundMeContractPrm{}, deployer, priceFeed))
	require.Equal(t, []any{owner, priceFeed}, FundMeArgs(FundMeContractPrm{Owner: owner}, deployer, priceFeed))
}

func TestContractAddress(t *testing.T) {
	c := CommonDeployPrm{
		NEF:      nef.File{Checksum: 42},
		Manifest: *manifest.NewManifest("FundMe"),
	}

	sender := util.Uint160{1, 2, 3}
	require.Equal(t, state.CreateContractHash(sender, 42, "FundMe"), ContractAddress(sender, c))
	require.NotEqual(t, ContractAddress(sender, c), ContractAddress(util.Uint160{4}, c))
}

func TestAwait(t *testing.T) {
	h := util.Uint256{1}

	t.Run("accepted", func(t *testing.T) {
		aer, err := Await(context.Background(), waiterFunc(func(actual util.Uint256, vub uint32, err error) (*state.AppExecResult, error) {
			require.Equal(t, h, actual)
			require.EqualValues(t, 10, vub)
			return &state.AppExecResult{Container: actual, Execution: state.Execution{VMState: vmstate.Halt}}, nil
		}), h, 10)
		require.NoError(t, err)
		require.Equal(t, vmstate.Halt, aer.VMState)
	})
	t.Run("expired", func(t *testing.T) {
		expected := errors.New("transaction expired")

		_, err := Await(context.Background(), waiterFunc(func(util.Uint256, uint32, error) (*state.AppExecResult, error) {
			return nil, expected
		}), h, 10)
		require.ErrorIs(t, err, expected)
	})
	t.Run("context", func(t *testing.T) {
		release := make(chan struct{})
		t.Cleanup(func() { close(release) })

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := Await(ctx, waiterFunc(func(util.Uint256, uint32, error) (*state.AppExecResult, error) {
			<-release
			return nil, nil
		}), h, 10)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestDeployParameters(t *testing.T) {
	acc, err := wallet.NewAccount()
	require.NoError(t, err)

	_, err = Deploy(context.Background(), Prm{Logger: zaptest.NewLogger(t), LocalAccount: acc, Tag: "all"})
	require.ErrorContains(t, err, "missing blockchain")
}

func TestIsErrContractNotFound(t *testing.T) {
	require.True(t, isErrContractNotFound(errors.New("Invalid params: Unknown contract")))
	require.False(t, isErrContractNotFound(errors.New("connection refused")))
}

// sendCounter counts transactions sent through the blockchain.
type sendCounter struct {
	Blockchain
	sent atomic.Int32
}

func (x *sendCounter) SendRawTransaction(tx *transaction.Transaction) (util.Uint256, error) {
	x.sent.Add(1)
	return x.Blockchain.SendRawTransaction(tx)
}

func compileAll(t *testing.T) (CommonDeployPrm, CommonDeployPrm) {
	var res [2]CommonDeployPrm

	for i, name := range []string{contracts.PriceFeed, contracts.FundMe} {
		c, err := contracts.Compile(filepath.Join("..", "contracts", name), "0.102.0")
		require.NoError(t, err)

		res[i] = CommonDeployPrm{NEF: c.NEF, Manifest: c.Manifest}
	}

	return res[0], res[1]
}

func TestDeploy(t *testing.T) {
	node := testnode.New(t)

	priceFeed, fundMe := compileAll(t)

	prm := Prm{
		Logger:            zaptest.NewLogger(t),
		Blockchain:        node.RPC,
		LocalAccount:      node.Committee,
		Tag:               "all",
		PriceFeedContract: PriceFeedContractPrm{Common: priceFeed},
		FundMeContract:    FundMeContractPrm{Common: fundMe},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := Deploy(ctx, prm)
	require.NoError(t, err)

	deployer := node.Committee.ScriptHash()
	require.Equal(t, ContractAddress(deployer, priceFeed), res.PriceFeed)
	require.Equal(t, ContractAddress(deployer, fundMe), res.FundMe)

	for _, h := range []util.Uint160{res.PriceFeed, res.FundMe} {
		st, err := node.RPC.GetContractStateByHash(h)
		require.NoError(t, err)
		require.Equal(t, h, st.Hash)
	}

	inv := invoker.New(node.RPC, nil)
	reader := fundme.NewReader(inv, res.FundMe)

	owner, err := reader.GetOwner()
	require.NoError(t, err)
	require.Equal(t, deployer, owner)

	pf, err := reader.GetPriceFeed()
	require.NoError(t, err)
	require.Equal(t, res.PriceFeed, pf)

	answer, err := pricefeed.NewReader(inv, res.PriceFeed).LatestAnswer()
	require.NoError(t, err)
	require.EqualValues(t, DefaultInitialAnswer, answer.Int64())

	t.Run("already deployed", func(t *testing.T) {
		counter := &sendCounter{Blockchain: node.RPC}

		again := prm
		again.Blockchain = counter

		res2, err := Deploy(ctx, again)
		require.NoError(t, err)
		require.Equal(t, res, res2)
		require.Zero(t, counter.sent.Load())
	})

	t.Run("fund and withdraw", func(t *testing.T) {
		const amount = 10_0000_0000

		funder := node.NewAccount(t, 100_0000_0000)

		funderActor, err := actor.NewSimple(node.RPC, funder)
		require.NoError(t, err)

		aer, err := funderActor.Wait(fundme.Fund(funderActor, res.FundMe, big.NewInt(amount)))
		require.NoError(t, err)
		require.NoError(t, fundme.FromAppExecResult(aer))

		funded, err := reader.GetAddressToAmountFunded(funder.ScriptHash())
		require.NoError(t, err)
		require.EqualValues(t, amount, funded.Int64())

		f, err := reader.GetFunder(big.NewInt(0))
		require.NoError(t, err)
		require.Equal(t, funder.ScriptHash(), f)

		// Below the minimum contribution.
		_, _, err = fundme.Fund(funderActor, res.FundMe, big.NewInt(1))
		require.ErrorIs(t, err, fundme.ErrNotEnoughFunds)

		// Only the owner withdraws.
		_, _, err = fundme.New(funderActor, res.FundMe).Withdraw()
		require.ErrorIs(t, fundme.FromError(err), fundme.ErrNotOwner)

		ownerActor, err := actor.NewSimple(node.RPC, node.Committee)
		require.NoError(t, err)

		txHash, vub, err := fundme.New(ownerActor, res.FundMe).Withdraw()
		require.NoError(t, err)

		aer, err = ownerActor.Wait(txHash, vub, nil)
		require.NoError(t, err)
		require.NoError(t, fundme.FromAppExecResult(aer))

		log, err := node.RPC.GetApplicationLog(txHash, nil)
		require.NoError(t, err)

		withdrawn, err := fundme.WithdrawnEventsFromApplicationLog(log)
		require.NoError(t, err)
		require.Len(t, withdrawn, 1)
		require.Equal(t, deployer, withdrawn[0].Owner)
		require.EqualValues(t, amount, withdrawn[0].Amount.Int64())

		balance, err := gas.NewReader(inv).BalanceOf(res.FundMe)
		require.NoError(t, err)
		require.Zero(t, balance.Sign())

		count, err := reader.GetFundersCount()
		require.NoError(t, err)
		require.Zero(t, count.Sign())
	})
}
