package fundme

import (
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/nep17"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// FundActor is used to transfer GAS to FundMe contract on behalf of its
// sender.
type FundActor interface {
	nep17.Actor

	Sender() util.Uint160
}

// Fund creates a transaction transferring amount of GAS from the actor's
// sender to FundMe contract. This transaction is signed and immediately sent
// to the network. The values returned are its hash, ValidUntilBlock value and
// error if any.
func Fund(a FundActor, contract util.Uint160, amount *big.Int) (util.Uint256, uint32, error) {
	h, vub, err := gas.New(a).Transfer(a.Sender(), contract, amount, nil)
	return h, vub, FromError(err)
}

// FundTransaction is like Fund, but the signed transaction is returned to the
// caller instead of being sent.
func FundTransaction(a FundActor, contract util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	tx, err := gas.New(a).TransferTransaction(a.Sender(), contract, amount, nil)
	return tx, FromError(err)
}

// FundUnsigned is like Fund, but the transaction is neither signed nor sent.
func FundUnsigned(a FundActor, contract util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	tx, err := gas.New(a).TransferUnsigned(a.Sender(), contract, amount, nil)
	return tx, FromError(err)
}
