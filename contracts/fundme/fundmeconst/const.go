/*
Package fundmeconst holds FundMe contract constants shared with off-chain code.
*/
package fundmeconst

import "github.com/nspcc-dev/fundme-contract/common"

const (
	// MinimumUSD is the smallest accepted contribution in USD with
	// USDDecimals precision.
	MinimumUSD = 50 * 1_0000_0000

	// USDDecimals is the precision of USD values returned by
	// getConversionRate. It matches native GAS precision.
	USDDecimals = 8

	// FundedEvent is emitted on every accepted contribution.
	FundedEvent = "Funded"
	// WithdrawnEvent is emitted when the owner takes the funds.
	WithdrawnEvent = "Withdrawn"
)

// Rejection reasons FundMe panics with.
const (
	ErrNotEnoughFunds         = "You need to spend more ETH!"
	ErrNotOwner               = common.ErrOwnerWitnessFailed
	ErrFunderIndexOutOfRange  = "funder index out of range"
	ErrGASOnly                = "FundMe accepts GAS only"
	ErrInvalidPrice           = "invalid price feed answer"
	ErrPriceFeedNotConfigured = "price feed is not configured"
)
