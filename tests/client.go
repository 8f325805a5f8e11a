package tests

import (
	"errors"
	"math/big"
	"testing"

	"github.com/nspcc-dev/fundme-contract/rpc/fundme"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/stretchr/testify/require"
)

// Client invokes methods of a single contract on behalf of the signer.
type Client struct {
	t    testing.TB
	f    *Fixture
	name string
	inv  *neotest.ContractInvoker

	Hash   util.Uint160
	Signer neotest.Signer
}

// PendingTx is a transaction sent to the chain.
type PendingTx struct {
	c        *Client
	method   string
	tx       *transaction.Transaction
	recorded bool

	Hash util.Uint256
}

// Receipt describes executed transaction.
type Receipt struct {
	Hash           util.Uint256
	VMState        vmstate.State
	FaultException string
	Stack          []stackitem.Item
	Events         []state.NotificationEvent

	// SystemFee is GAS paid for script execution, NetworkFee is GAS paid
	// for transaction verification and size.
	SystemFee  int64
	NetworkFee int64
}

// Cost returns total GAS charged from the sender.
func (r *Receipt) Cost() *big.Int {
	return big.NewInt(r.SystemFee + r.NetworkFee)
}

// Connect returns client of the same contract bound to another signer.
func (c *Client) Connect(signer neotest.Signer) *Client {
	return &Client{
		t:      c.t,
		f:      c.f,
		name:   c.name,
		inv:    c.inv.WithSigners(signer),
		Hash:   c.Hash,
		Signer: signer,
	}
}

// Send sends a transaction invoking the method and persists it in a new
// block.
func (c *Client) Send(method string, args ...any) *PendingTx {
	tx := c.inv.PrepareInvoke(c.t, method, args...)
	c.f.AddNewBlock(c.t, tx)

	return &PendingTx{c: c, method: method, tx: tx, Hash: tx.Hash()}
}

// Receipt returns execution result of the transaction regardless of its
// state.
func (p *PendingTx) Receipt() *Receipt {
	aer := p.c.f.GetTxExecResult(p.c.t, p.Hash)

	r := &Receipt{
		Hash:           p.Hash,
		VMState:        aer.VMState,
		FaultException: aer.FaultException,
		Stack:          aer.Stack,
		Events:         aer.Events,
		SystemFee:      p.tx.SystemFee,
		NetworkFee:     p.tx.NetworkFee,
	}

	if rep := p.c.f.reporter; rep != nil && !p.recorded {
		rep.Record(p.c.name, p.method, r.SystemFee+r.NetworkFee)
		p.recorded = true
	}

	return r
}

// Wait returns receipt of the successfully executed transaction, the test
// fails otherwise.
func (p *PendingTx) Wait() *Receipt {
	r := p.Receipt()
	require.Equal(p.c.t, vmstate.Halt, r.VMState, "transaction %s of '%s' failed: %s",
		p.Hash.StringLE(), p.method, r.FaultException)
	return r
}

// Err returns nil for successful transaction and *fundme.FaultError
// otherwise.
func (p *PendingTx) Err() error {
	r := p.Receipt()
	if r.VMState == vmstate.Halt {
		return nil
	}

	return &fundme.FaultError{Kind: fundme.Classify(r.FaultException), Exception: r.FaultException}
}

// Invoke is like Send followed by Wait.
func (c *Client) Invoke(method string, args ...any) *Receipt {
	return c.Send(method, args...).Wait()
}

// Call performs test invocation of the method without sending a transaction
// and returns resulting stack item.
func (c *Client) Call(method string, args ...any) stackitem.Item {
	s, err := c.inv.TestInvoke(c.t, method, args...)
	require.NoError(c.t, err, "call '%s'", method)
	require.Equal(c.t, 1, s.Len(), "call '%s' result", method)
	return s.Pop().Item()
}

// CallErr is like Call, but returns invocation error instead of failing the
// test.
func (c *Client) CallErr(method string, args ...any) (stackitem.Item, error) {
	s, err := c.inv.TestInvoke(c.t, method, args...)
	if err != nil {
		return nil, fundme.FromError(err)
	}

	if s.Len() == 0 {
		return nil, errors.New("empty stack")
	}

	return s.Pop().Item(), nil
}

// ExpectRevert sends a transaction and checks that it fails with the reason
// of the given kind. Unexpected success or another reason fail the test.
func (c *Client) ExpectRevert(kind fundme.ErrorKind, method string, args ...any) *Receipt {
	p := c.Send(method, args...)
	r := p.Receipt()

	require.Equal(c.t, vmstate.Fault, r.VMState, "'%s' expected to fail with %s", method, kind)
	require.Equal(c.t, kind, fundme.Classify(r.FaultException),
		"'%s' failed with unexpected reason: %s", method, r.FaultException)

	if msg := kind.Message(); msg != "" {
		require.Contains(c.t, r.FaultException, msg)
	}

	return r
}

// ExpectCallRevert checks that test invocation of the method fails with the
// reason of the given kind.
func (c *Client) ExpectCallRevert(kind fundme.ErrorKind, method string, args ...any) {
	_, err := c.CallErr(method, args...)
	require.Error(c.t, err, "'%s' expected to fail with %s", method, kind)

	var fe *fundme.FaultError
	if kind == fundme.UnknownError {
		require.False(c.t, errors.As(err, &fe), "'%s' failed with known reason: %v", method, err)
		return
	}

	require.ErrorAs(c.t, err, &fe)
	require.Equal(c.t, kind, fe.Kind, "'%s' failed with unexpected reason: %v", method, err)
}

// BigInt converts stack item into integer failing the test if it's not
// possible.
func BigInt(t testing.TB, item stackitem.Item) *big.Int {
	v, err := item.TryInteger()
	require.NoError(t, err)
	return v
}

// Hash160 converts stack item into address failing the test if it's not
// possible.
func Hash160(t testing.TB, item stackitem.Item) util.Uint160 {
	b, err := item.TryBytes()
	require.NoError(t, err)

	u, err := util.Uint160DecodeBytesBE(b)
	require.NoError(t, err)

	return u
}
