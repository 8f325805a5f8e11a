// Package pricefeed contains RPC wrappers for GAS USD Price Feed Mock contract.
package pricefeed

import (
	"errors"
	"fmt"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"math/big"
)

// RoundData is a contract-specific pricefeed.RoundData type used by its methods.
type RoundData struct {
	RoundID *big.Int
	Answer *big.Int
	StartedAt *big.Int
	UpdatedAt *big.Int
	AnsweredInRound *big.Int
}

// AnswerUpdatedEvent represents "AnswerUpdated" event emitted by the contract.
type AnswerUpdatedEvent struct {
	Current *big.Int
	RoundID *big.Int
	UpdatedAt *big.Int
}

// NewRoundEvent represents "NewRound" event emitted by the contract.
type NewRoundEvent struct {
	RoundID *big.Int
	StartedBy util.Uint160
	StartedAt *big.Int
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeRun(script []byte) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	MakeUnsignedRun(script []byte, attrs []transaction.Attribute) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
	SendRun(script []byte) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// Decimals invokes `decimals` method of contract.
func (c *ContractReader) Decimals() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "decimals"))
}

// Description invokes `description` method of contract.
func (c *ContractReader) Description() (string, error) {
	return unwrap.UTF8String(c.invoker.Call(c.hash, "description"))
}

// GetRoundData invokes `getRoundData` method of contract.
func (c *ContractReader) GetRoundData(roundID *big.Int) (*RoundData, error) {
	return itemToRoundData(unwrap.Item(c.invoker.Call(c.hash, "getRoundData", roundID)))
}

// LatestAnswer invokes `latestAnswer` method of contract.
func (c *ContractReader) LatestAnswer() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "latestAnswer"))
}

// LatestRound invokes `latestRound` method of contract.
func (c *ContractReader) LatestRound() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "latestRound"))
}

// LatestRoundData invokes `latestRoundData` method of contract.
func (c *ContractReader) LatestRoundData() (*RoundData, error) {
	return itemToRoundData(unwrap.Item(c.invoker.Call(c.hash, "latestRoundData")))
}

// LatestTimestamp invokes `latestTimestamp` method of contract.
func (c *ContractReader) LatestTimestamp() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "latestTimestamp"))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// UpdateAnswer creates a transaction invoking `updateAnswer` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) UpdateAnswer(answer *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "updateAnswer", answer)
}

// UpdateAnswerTransaction creates a transaction invoking `updateAnswer` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateAnswerTransaction(answer *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "updateAnswer", answer)
}

// UpdateAnswerUnsigned creates a transaction invoking `updateAnswer` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateAnswerUnsigned(answer *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "updateAnswer", nil, answer)
}

// UpdateRoundData creates a transaction invoking `updateRoundData` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) UpdateRoundData(roundID *big.Int, answer *big.Int, timestamp *big.Int, startedAt *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "updateRoundData", roundID, answer, timestamp, startedAt)
}

// UpdateRoundDataTransaction creates a transaction invoking `updateRoundData` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateRoundDataTransaction(roundID *big.Int, answer *big.Int, timestamp *big.Int, startedAt *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "updateRoundData", roundID, answer, timestamp, startedAt)
}

// UpdateRoundDataUnsigned creates a transaction invoking `updateRoundData` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateRoundDataUnsigned(roundID *big.Int, answer *big.Int, timestamp *big.Int, startedAt *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "updateRoundData", nil, roundID, answer, timestamp, startedAt)
}

// itemToRoundData converts stack item into *RoundData.
func itemToRoundData(item stackitem.Item, err error) (*RoundData, error) {
	if err != nil {
		return nil, err
	}
	var res = new(RoundData)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of RoundData from the given
// [stackitem.Item] or returns an error if it's not possible to do to so.
func (res *RoundData) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 5 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err error
	)
	index++
	res.RoundID, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field RoundID: %w", err)
	}

	index++
	res.Answer, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Answer: %w", err)
	}

	index++
	res.StartedAt, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field StartedAt: %w", err)
	}

	index++
	res.UpdatedAt, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field UpdatedAt: %w", err)
	}

	index++
	res.AnsweredInRound, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field AnsweredInRound: %w", err)
	}

	return nil
}

// AnswerUpdatedEventsFromApplicationLog retrieves a set of all emitted events
// with "AnswerUpdated" name from the provided [result.ApplicationLog].
func AnswerUpdatedEventsFromApplicationLog(log *result.ApplicationLog) ([]*AnswerUpdatedEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*AnswerUpdatedEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "AnswerUpdated" {
				continue
			}
			event := new(AnswerUpdatedEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize AnswerUpdatedEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to AnswerUpdatedEvent or
// returns an error if it's not possible to do to so.
func (e *AnswerUpdatedEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 3 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err error
	)
	index++
	e.Current, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Current: %w", err)
	}

	index++
	e.RoundID, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field RoundID: %w", err)
	}

	index++
	e.UpdatedAt, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field UpdatedAt: %w", err)
	}

	return nil
}

// NewRoundEventsFromApplicationLog retrieves a set of all emitted events
// with "NewRound" name from the provided [result.ApplicationLog].
func NewRoundEventsFromApplicationLog(log *result.ApplicationLog) ([]*NewRoundEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*NewRoundEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "NewRound" {
				continue
			}
			event := new(NewRoundEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize NewRoundEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to NewRoundEvent or
// returns an error if it's not possible to do to so.
func (e *NewRoundEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 3 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err error
	)
	index++
	e.RoundID, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field RoundID: %w", err)
	}

	index++
	e.StartedBy, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field StartedBy: %w", err)
	}

	index++
	e.StartedAt, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field StartedAt: %w", err)
	}

	return nil
}
