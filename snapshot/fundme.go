package snapshot

import (
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// FundMe storage keys.
const (
	ownerKey     = 'o'
	priceFeedKey = 'p'
	fundersKey   = 'f'
	amountPrefix = 'a'
)

// Funder is a funding record of the single address.
type Funder struct {
	Address util.Uint160
	Amount  *big.Int
}

// FundMeState is the decoded storage of the FundMe contract.
type FundMeState struct {
	Owner     util.Uint160
	PriceFeed util.Uint160
	// Funders in order of their first contribution.
	Funders []Funder
}

// Total returns the sum of funded amounts.
func (s FundMeState) Total() *big.Int {
	res := new(big.Int)
	for i := range s.Funders {
		res.Add(res, s.Funders[i].Amount)
	}
	return res
}

// DecodeFundMe decodes FundMe storage items. Amount records must match the
// funder list exactly.
func DecodeFundMe(items []Item) (FundMeState, error) {
	var (
		res     FundMeState
		order   []util.Uint160
		amounts = make(map[util.Uint160]*big.Int)
		err     error
	)

	for _, it := range items {
		if len(it.Key) == 0 {
			return res, fmt.Errorf("empty storage key")
		}

		switch {
		case len(it.Key) == 1 && it.Key[0] == ownerKey:
			res.Owner, err = util.Uint160DecodeBytesBE(it.Value)
			if err != nil {
				return res, fmt.Errorf("decode owner: %w", err)
			}
		case len(it.Key) == 1 && it.Key[0] == priceFeedKey:
			res.PriceFeed, err = util.Uint160DecodeBytesBE(it.Value)
			if err != nil {
				return res, fmt.Errorf("decode price feed: %w", err)
			}
		case len(it.Key) == 1 && it.Key[0] == fundersKey:
			order, err = decodeFunders(it.Value)
			if err != nil {
				return res, err
			}
		case it.Key[0] == amountPrefix:
			addr, err := util.Uint160DecodeBytesBE(it.Key[1:])
			if err != nil {
				return res, fmt.Errorf("decode funder address: %w", err)
			}

			amounts[addr] = bigint.FromBytes(it.Value)
		default:
			return res, fmt.Errorf("unexpected storage key %x", it.Key)
		}
	}

	if len(order) != len(amounts) {
		return res, fmt.Errorf("%d funders listed, %d amounts recorded", len(order), len(amounts))
	}

	for _, addr := range order {
		amount, ok := amounts[addr]
		if !ok {
			return res, fmt.Errorf("missing amount of funder %s", addr.StringLE())
		}

		res.Funders = append(res.Funders, Funder{Address: addr, Amount: amount})
	}

	return res, nil
}

func decodeFunders(data []byte) ([]util.Uint160, error) {
	item, err := stackitem.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("deserialize funder list: %w", err)
	}

	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return nil, fmt.Errorf("funder list is not an array")
	}

	res := make([]util.Uint160, 0, len(arr))

	for i := range arr {
		b, err := arr[i].TryBytes()
		if err != nil {
			return nil, fmt.Errorf("funder #%d: %w", i, err)
		}

		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return nil, fmt.Errorf("funder #%d: %w", i, err)
		}

		res = append(res, u)
	}

	return res, nil
}
