// Package market contains RPC wrappers for ZeitDAO Market contract.
package market

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// MarketMarket is a contract-specific market.Market type used by its methods.
type MarketMarket struct {
	ID         *big.Int
	Proposal   *big.Int
	Question   []byte
	Outcomes   *big.Int
	CloseBlock *big.Int
	Resolved   bool
	Winner     *big.Int
	Pool       *big.Int
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
	CallAndExpandIterator(contract util.Uint160, method string, maxItems int, params ...any) (*result.Invoke, error)
	TerminateSession(sessionID uuid.UUID) error
	TraverseIterator(sessionID uuid.UUID, iterator *result.Iterator, num int) ([]stackitem.Item, error)
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
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// DAOContract invokes `dAOContract` method of contract.
func (c *ContractReader) DAOContract() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "dAOContract"))
}

// GetMarket invokes `getMarket` method of contract.
func (c *ContractReader) GetMarket(id *big.Int) (*MarketMarket, error) {
	return itemToMarketMarket(unwrap.Item(c.invoker.Call(c.hash, "getMarket", id)))
}

// IterateMarkets invokes `iterateMarkets` method of contract.
func (c *ContractReader) IterateMarkets() (uuid.UUID, result.Iterator, error) {
	return unwrap.SessionIterator(c.invoker.Call(c.hash, "iterateMarkets"))
}

// IterateMarketsExpanded is similar to IterateMarkets (uses the same contract
// method), but can be useful if the server used doesn't support sessions and
// doesn't expand iterators. It creates a script that will get the specified
// number of result items from the iterator right in the VM and return them to
// you. It's only limited by VM stack and GAS available for RPC invocations.
func (c *ContractReader) IterateMarketsExpanded(_numOfIteratorItems int) ([]stackitem.Item, error) {
	return unwrap.Array(c.invoker.CallAndExpandIterator(c.hash, "iterateMarkets", _numOfIteratorItems))
}

// MarketCount invokes `marketCount` method of contract.
func (c *ContractReader) MarketCount() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "marketCount"))
}

// OutcomePool invokes `outcomePool` method of contract.
func (c *ContractReader) OutcomePool(id *big.Int, outcome *big.Int) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "outcomePool", id, outcome))
}

// StakeOf invokes `stakeOf` method of contract.
func (c *ContractReader) StakeOf(id *big.Int, outcome *big.Int, account util.Uint160) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "stakeOf", id, outcome, account))
}

// Verify invokes `verify` method of contract.
func (c *ContractReader) Verify() (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "verify"))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// Claim creates a transaction invoking `claim` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Claim(bettor []byte, id *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "claim", bettor, id)
}

// ClaimTransaction creates a transaction invoking `claim` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) ClaimTransaction(bettor []byte, id *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "claim", bettor, id)
}

// ClaimUnsigned creates a transaction invoking `claim` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) ClaimUnsigned(bettor []byte, id *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "claim", nil, bettor, id)
}

// CreateMarket creates a transaction invoking `createMarket` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) CreateMarket(proposal *big.Int, question []byte, closeBlock *big.Int, outcomes *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "createMarket", proposal, question, closeBlock, outcomes)
}

// CreateMarketTransaction creates a transaction invoking `createMarket` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) CreateMarketTransaction(proposal *big.Int, question []byte, closeBlock *big.Int, outcomes *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "createMarket", proposal, question, closeBlock, outcomes)
}

// CreateMarketUnsigned creates a transaction invoking `createMarket` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) CreateMarketUnsigned(proposal *big.Int, question []byte, closeBlock *big.Int, outcomes *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "createMarket", nil, proposal, question, closeBlock, outcomes)
}

// Resolve creates a transaction invoking `resolve` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Resolve(id *big.Int, winner *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "resolve", id, winner)
}

// ResolveTransaction creates a transaction invoking `resolve` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) ResolveTransaction(id *big.Int, winner *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "resolve", id, winner)
}

// ResolveUnsigned creates a transaction invoking `resolve` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) ResolveUnsigned(id *big.Int, winner *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "resolve", nil, id, winner)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(nefFile []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", nefFile, manifest, data)
}

// UpdateTransaction creates a transaction invoking `update` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateTransaction(nefFile []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "update", nefFile, manifest, data)
}

// UpdateUnsigned creates a transaction invoking `update` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateUnsigned(nefFile []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "update", nil, nefFile, manifest, data)
}

// itemToMarketMarket converts stack item into *MarketMarket.
func itemToMarketMarket(item stackitem.Item, err error) (*MarketMarket, error) {
	if err != nil {
		return nil, err
	}
	var res = new(MarketMarket)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of MarketMarket from the given
// [stackitem.Item] or returns an error if it's not possible to do to so.
func (res *MarketMarket) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 8 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err   error
	)
	index++
	res.ID, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field ID: %w", err)
	}

	index++
	res.Proposal, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Proposal: %w", err)
	}

	index++
	res.Question, err = arr[index].TryBytes()
	if err != nil {
		return fmt.Errorf("field Question: %w", err)
	}

	index++
	res.Outcomes, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Outcomes: %w", err)
	}

	index++
	res.CloseBlock, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field CloseBlock: %w", err)
	}

	index++
	res.Resolved, err = arr[index].TryBool()
	if err != nil {
		return fmt.Errorf("field Resolved: %w", err)
	}

	index++
	res.Winner, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Winner: %w", err)
	}

	index++
	res.Pool, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Pool: %w", err)
	}

	return nil
}
