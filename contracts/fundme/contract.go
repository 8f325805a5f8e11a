package fundme

import (
	"github.com/nspcc-dev/fundme-contract/common"
	"github.com/nspcc-dev/fundme-contract/contracts/fundme/fundmeconst"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// roundData is a copy of github.com/nspcc-dev/fundme-contract/contracts/pricefeed.RoundData
// to prevent cross-contract imports that may fail due to internal `_deploy` calls.
type roundData struct {
	RoundID         int
	Answer          int
	StartedAt       int
	UpdatedAt       int
	AnsweredInRound int
}

const (
	ownerKey     = 'o'
	priceFeedKey = 'p'
	fundersKey   = 'f'
	amountPrefix = 'a'
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		owner     interop.Hash160
		priceFeed interop.Hash160
	})

	if len(args.owner) != interop.Hash160Len {
		panic("incorrect length of owner address")
	}

	if len(args.priceFeed) != interop.Hash160Len {
		panic("incorrect length of price feed script hash")
	}

	ctx := storage.GetContext()

	storage.Put(ctx, ownerKey, args.owner)
	storage.Put(ctx, priceFeedKey, args.priceFeed)

	runtime.Log("fundme contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by the contract owner.
func Update(nefFile, manifest []byte, data any) {
	ctx := storage.GetReadOnlyContext()
	common.CheckOwnerWitness(getOwner(ctx))

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("fundme contract updated")
}

// OnNEP17Payment is a callback for NEP-17 compatible native GAS contract.
// It is the funding entry point: the GAS transferred to the contract is
// recorded for the sender.
//
// Payment is rejected if its USD value (see GetConversionRate) is below
// fundmeconst.MinimumUSD. Sender is added to the funder list on its first
// contribution after the latest withdrawal.
//
// It produces Funded notification.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	caller := runtime.GetCallingScriptHash()
	if !caller.Equals(gas.Hash) {
		panic(fundmeconst.ErrGASOnly)
	}

	if len(from) != interop.Hash160Len {
		panic("invalid sender")
	}

	ctx := storage.GetContext()

	if getConversionRate(ctx, amount) < fundmeconst.MinimumUSD {
		panic(fundmeconst.ErrNotEnoughFunds)
	}

	key := append([]byte{amountPrefix}, from...)

	funded := storage.Get(ctx, key)
	if funded == nil {
		funders := common.GetList(ctx, fundersKey)
		funders = append(funders, from)
		common.SetSerialized(ctx, fundersKey, funders)

		storage.Put(ctx, key, amount)
	} else {
		storage.Put(ctx, key, funded.(int)+amount)
	}

	runtime.Notify(fundmeconst.FundedEvent, from, amount)
}

// Withdraw transfers all GAS held by the contract to the owner and resets
// funding records: every funded amount is removed and the funder list is
// emptied. It can be invoked only by the contract owner.
//
// It produces Withdrawn notification.
func Withdraw() {
	ctx := storage.GetContext()

	owner := getOwner(ctx)
	common.CheckOwnerWitness(owner)

	funders := common.GetList(ctx, fundersKey)
	for i := range funders {
		storage.Delete(ctx, append([]byte{amountPrefix}, funders[i]...))
	}

	storage.Delete(ctx, fundersKey)

	self := runtime.GetExecutingScriptHash()

	balance := gas.BalanceOf(self)
	if balance > 0 && !gas.Transfer(self, owner, balance, nil) {
		panic("can't transfer GAS to the owner")
	}

	runtime.Notify(fundmeconst.WithdrawnEvent, owner, balance)
}

// GetOwner returns address of the contract owner.
func GetOwner() interop.Hash160 {
	return getOwner(storage.GetReadOnlyContext())
}

// GetPriceFeed returns script hash of the GAS/USD price feed contract.
func GetPriceFeed() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return common.GetHash160(ctx, priceFeedKey, fundmeconst.ErrPriceFeedNotConfigured)
}

// GetAddressToAmountFunded returns amount of GAS funded by the given address
// since the latest withdrawal.
func GetAddressToAmountFunded(funder interop.Hash160) int {
	if len(funder) != interop.Hash160Len {
		panic("invalid funder address")
	}

	data := storage.Get(storage.GetReadOnlyContext(), append([]byte{amountPrefix}, funder...))
	if data == nil {
		return 0
	}

	return data.(int)
}

// GetFunder returns funder address by its index in the funder list. Funders
// are ordered by their first contribution.
func GetFunder(index int) interop.Hash160 {
	funders := common.GetList(storage.GetReadOnlyContext(), fundersKey)
	if index < 0 || index >= len(funders) {
		panic(fundmeconst.ErrFunderIndexOutOfRange)
	}

	return funders[index]
}

// GetFundersCount returns number of funders since the latest withdrawal.
func GetFundersCount() int {
	return len(common.GetList(storage.GetReadOnlyContext(), fundersKey))
}

// IterateFunded is like [GetAddressToAmountFunded] but for every funder.
// Iteration is through key-value pair, where key is funder address, value
// is funded amount.
func IterateFunded() iterator.Iterator {
	return storage.Find(storage.GetReadOnlyContext(), []byte{amountPrefix}, storage.RemovePrefix)
}

// GetConversionRate returns USD value of the given GAS amount according to
// the latest price feed answer. Result has fundmeconst.USDDecimals precision.
func GetConversionRate(amount int) int {
	return getConversionRate(storage.GetReadOnlyContext(), amount)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func getOwner(ctx storage.Context) interop.Hash160 {
	return common.GetHash160(ctx, ownerKey, "owner is not set")
}

func getConversionRate(ctx storage.Context, amount int) int {
	feed := common.GetHash160(ctx, priceFeedKey, fundmeconst.ErrPriceFeedNotConfigured)

	round := contract.Call(feed, "latestRoundData", contract.ReadOnly).(roundData)
	if round.Answer <= 0 {
		panic(fundmeconst.ErrInvalidPrice)
	}

	decimals := contract.Call(feed, "decimals", contract.ReadOnly).(int)

	divisor := 1
	for i := 0; i < decimals; i++ {
		divisor *= 10
	}

	return amount * round.Answer / divisor
}
