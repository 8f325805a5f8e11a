package tests

import (
	"path"
	"testing"

	"github.com/nspcc-dev/fundme-contract/contracts"
	"github.com/nspcc-dev/fundme-contract/deploy"
	"github.com/nspcc-dev/fundme-contract/rpc/pricefeed"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/stretchr/testify/require"
)

const errNoData = "no data present"

func newPriceFeed(t *testing.T) (*Fixture, *Client) {
	f := DeployFixture(t, "mocks")
	return f, f.Contract(t, contracts.PriceFeed, f.Signers[1])
}

func roundOf(t *testing.T, c *Client, method string, args ...any) pricefeed.RoundData {
	var rd pricefeed.RoundData
	require.NoError(t, rd.FromStackItem(c.Call(method, args...)))
	return rd
}

func TestPriceFeed_Deploy(t *testing.T) {
	_, c := newPriceFeed(t)

	require.EqualValues(t, deploy.DefaultDecimals, BigInt(t, c.Call("decimals")).Int64())
	require.EqualValues(t, deploy.DefaultInitialAnswer, BigInt(t, c.Call("latestAnswer")).Int64())
	require.EqualValues(t, 1, BigInt(t, c.Call("latestRound")).Int64())

	s, err := c.Call("description").TryBytes()
	require.NoError(t, err)
	require.Equal(t, "GAS / USD", string(s))

	rd := roundOf(t, c, "latestRoundData")
	require.EqualValues(t, 1, rd.RoundID.Int64())
	require.EqualValues(t, 1, rd.AnsweredInRound.Int64())
	require.EqualValues(t, deploy.DefaultInitialAnswer, rd.Answer.Int64())
	require.Equal(t, rd.UpdatedAt, BigInt(t, c.Call("latestTimestamp")))
	require.Equal(t, rd, roundOf(t, c, "getRoundData", 1))
}

func TestPriceFeed_DeployZeroValues(t *testing.T) {
	e := newExecutor(t)

	var (
		decimals uint8
		answer   int64
		srcPath  = path.Join(contractsPath, contracts.PriceFeed)
	)

	ctr := neotest.CompileFile(t, e.CommitteeHash, srcPath, path.Join(srcPath, "config.yml"))
	e.DeployContract(t, ctr, deploy.PriceFeedArgs(deploy.PriceFeedContractPrm{
		Decimals:      &decimals,
		InitialAnswer: &answer,
	}))

	inv := e.CommitteeInvoker(ctr.Hash)

	for method, expected := range map[string]int64{
		"decimals":     0,
		"latestAnswer": 0,
		"latestRound":  1,
	} {
		s, err := inv.TestInvoke(t, method)
		require.NoError(t, err, method)
		require.EqualValues(t, expected, BigInt(t, s.Pop().Item()).Int64(), method)
	}
}

func TestPriceFeed_UpdateAnswer(t *testing.T) {
	_, c := newPriceFeed(t)

	const answer = 1234_5678_9000

	r := c.Invoke("updateAnswer", answer)

	require.EqualValues(t, answer, BigInt(t, c.Call("latestAnswer")).Int64())
	require.EqualValues(t, 2, BigInt(t, c.Call("latestRound")).Int64())

	updated := eventsOf(r, c.Hash, "AnswerUpdated")
	require.Len(t, updated, 1)

	var e pricefeed.AnswerUpdatedEvent
	require.NoError(t, e.FromStackItem(updated[0].Item))
	require.EqualValues(t, answer, e.Current.Int64())
	require.EqualValues(t, 2, e.RoundID.Int64())

	rounds := eventsOf(r, c.Hash, "NewRound")
	require.Len(t, rounds, 1)

	var nr pricefeed.NewRoundEvent
	require.NoError(t, nr.FromStackItem(rounds[0].Item))
	require.EqualValues(t, 2, nr.RoundID.Int64())
	require.Equal(t, c.Signer.ScriptHash(), nr.StartedBy)

	// Previous round stays available.
	require.EqualValues(t, deploy.DefaultInitialAnswer, roundOf(t, c, "getRoundData", 1).Answer.Int64())
}

func TestPriceFeed_UpdateRoundData(t *testing.T) {
	_, c := newPriceFeed(t)

	c.Invoke("updateRoundData", 5, 42, 1000, 900)

	rd := roundOf(t, c, "latestRoundData")
	require.EqualValues(t, 5, rd.RoundID.Int64())
	require.EqualValues(t, 42, rd.Answer.Int64())
	require.EqualValues(t, 900, rd.StartedAt.Int64())
	require.EqualValues(t, 1000, rd.UpdatedAt.Int64())
	require.EqualValues(t, 5, rd.AnsweredInRound.Int64())

	_, err := c.CallErr("getRoundData", 3)
	require.ErrorContains(t, err, errNoData)

	r := c.Send("updateRoundData", 0, 42, 1000, 900).Receipt()
	require.Contains(t, r.FaultException, "invalid round ID")
}
