// Package dao contains RPC wrappers for ZeitDAO DAO contract.
package dao

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

// DaoProposal is a contract-specific dao.Proposal type used by its methods.
type DaoProposal struct {
	ID         *big.Int
	Proposer   []byte
	Kind       *big.Int
	Payload    []byte
	EndBlock   *big.Int
	Executed   bool
	Approvals  *big.Int
	Rejections *big.Int
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

// GetProposal invokes `getProposal` method of contract.
func (c *ContractReader) GetProposal(id *big.Int) (*DaoProposal, error) {
	return itemToDaoProposal(unwrap.Item(c.invoker.Call(c.hash, "getProposal", id)))
}

// IsMember invokes `isMember` method of contract.
func (c *ContractReader) IsMember(member []byte) (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "isMember", member))
}

// IterateProposals invokes `iterateProposals` method of contract.
func (c *ContractReader) IterateProposals() (uuid.UUID, result.Iterator, error) {
	return unwrap.SessionIterator(c.invoker.Call(c.hash, "iterateProposals"))
}

// IterateProposalsExpanded is similar to IterateProposals (uses the same contract
// method), but can be useful if the server used doesn't support sessions and
// doesn't expand iterators. It creates a script that will get the specified
// number of result items from the iterator right in the VM and return them to
// you. It's only limited by VM stack and GAS available for RPC invocations.
func (c *ContractReader) IterateProposalsExpanded(_numOfIteratorItems int) ([]stackitem.Item, error) {
	return unwrap.Array(c.invoker.CallAndExpandIterator(c.hash, "iterateProposals", _numOfIteratorItems))
}

// MarketContract invokes `marketContract` method of contract.
func (c *ContractReader) MarketContract() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "marketContract"))
}

// Members invokes `members` method of contract.
func (c *ContractReader) Members() ([][]byte, error) {
	return unwrap.ArrayOfBytes(c.invoker.Call(c.hash, "members"))
}

// ProposalCount invokes `proposalCount` method of contract.
func (c *ContractReader) ProposalCount() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "proposalCount"))
}

// TradingEnabled invokes `tradingEnabled` method of contract.
func (c *ContractReader) TradingEnabled() (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "tradingEnabled"))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// VoteOf invokes `voteOf` method of contract.
func (c *ContractReader) VoteOf(member []byte, id *big.Int) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "voteOf", member, id))
}

// Execute creates a transaction invoking `execute` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Execute(id *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "execute", id)
}

// ExecuteTransaction creates a transaction invoking `execute` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) ExecuteTransaction(id *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "execute", id)
}

// ExecuteUnsigned creates a transaction invoking `execute` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) ExecuteUnsigned(id *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "execute", nil, id)
}

// NewProposal creates a transaction invoking `newProposal` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) NewProposal(proposer []byte, kind *big.Int, payload []byte, votingPeriod *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "newProposal", proposer, kind, payload, votingPeriod)
}

// NewProposalTransaction creates a transaction invoking `newProposal` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) NewProposalTransaction(proposer []byte, kind *big.Int, payload []byte, votingPeriod *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "newProposal", proposer, kind, payload, votingPeriod)
}

// NewProposalUnsigned creates a transaction invoking `newProposal` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) NewProposalUnsigned(proposer []byte, kind *big.Int, payload []byte, votingPeriod *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "newProposal", nil, proposer, kind, payload, votingPeriod)
}

// SetMarketContract creates a transaction invoking `setMarketContract` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) SetMarketContract(addr util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "setMarketContract", addr)
}

// SetMarketContractTransaction creates a transaction invoking `setMarketContract` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) SetMarketContractTransaction(addr util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "setMarketContract", addr)
}

// SetMarketContractUnsigned creates a transaction invoking `setMarketContract` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) SetMarketContractUnsigned(addr util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "setMarketContract", nil, addr)
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

// Vote creates a transaction invoking `vote` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Vote(member []byte, id *big.Int, inFavor bool) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "vote", member, id, inFavor)
}

// VoteTransaction creates a transaction invoking `vote` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) VoteTransaction(member []byte, id *big.Int, inFavor bool) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "vote", member, id, inFavor)
}

// VoteUnsigned creates a transaction invoking `vote` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) VoteUnsigned(member []byte, id *big.Int, inFavor bool) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "vote", nil, member, id, inFavor)
}

// itemToDaoProposal converts stack item into *DaoProposal.
func itemToDaoProposal(item stackitem.Item, err error) (*DaoProposal, error) {
	if err != nil {
		return nil, err
	}
	var res = new(DaoProposal)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of DaoProposal from the given
// [stackitem.Item] or returns an error if it's not possible to do to so.
func (res *DaoProposal) FromStackItem(item stackitem.Item) error {
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
	res.Proposer, err = arr[index].TryBytes()
	if err != nil {
		return fmt.Errorf("field Proposer: %w", err)
	}

	index++
	res.Kind, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Kind: %w", err)
	}

	index++
	res.Payload, err = arr[index].TryBytes()
	if err != nil {
		return fmt.Errorf("field Payload: %w", err)
	}

	index++
	res.EndBlock, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field EndBlock: %w", err)
	}

	index++
	res.Executed, err = arr[index].TryBool()
	if err != nil {
		return fmt.Errorf("field Executed: %w", err)
	}

	index++
	res.Approvals, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Approvals: %w", err)
	}

	index++
	res.Rejections, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Rejections: %w", err)
	}

	return nil
}
