package market

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/ledger"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/zeitdao/zeitdao-contract/common"
)

// Market groups data related to a single prediction market stored in the
// current contract.
type Market struct {
	// Sequential market number, starts at 1.
	ID int

	// Number of the DAO proposal the market was opened by.
	Proposal int

	// Arbitrary question bytes, interpretation is up to the DAO.
	Question []byte

	// Number of outcomes, numbered from 0.
	Outcomes int

	// Index of the block the market stops accepting stakes at.
	CloseBlock int

	// Whether the market has been resolved.
	Resolved bool

	// Winning outcome, meaningful only after resolution.
	Winner int

	// Total amount of GAS staked on all outcomes.
	Pool int
}

const (
	daoContractKey = "d"
	marketPrefix   = "m"
	outcomePrefix  = "o"
	stakePrefix    = "s"

	// Counter key must not share its first byte with the record prefixes
	// above, it would get into iteration results.
	marketCounterKey = "lastMarketID"

	// maxMarketID keeps market numbers within two bytes so that stake and
	// pool keys have a fixed layout.
	maxMarketID = 0xFFFF

	maxOutcomes = 32
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	ctx := storage.GetContext()
	if isUpdate {
		args := data.([]any)
		version := args[len(args)-1].(int)

		common.CheckVersion(version)
		return
	}

	var args = data.(struct {
		dao     interop.Hash160
		version int
	})

	if len(args.dao) != interop.Hash160Len {
		panic("invalid DAO contract address")
	}

	storage.Put(ctx, daoContractKey, args.dao)
	storage.Put(ctx, marketCounterKey, 0)

	runtime.Log("market contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by committee.
func Update(nefFile, manifest []byte, data any) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("market contract updated")
}

// DAOContract returns script hash of the DAO contract ruling the markets.
func DAOContract() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, daoContractKey).(interop.Hash160)
}

// CreateMarket opens a new prediction market. It can be invoked only by the
// DAO contract executing an approved market proposal.
//
// Returns the number of the new market and produces NewMarket notification.
func CreateMarket(proposal int, question []byte, closeBlock, outcomes int) int {
	ctx := storage.GetContext()

	caller := runtime.GetCallingScriptHash()
	if !caller.Equals(storage.Get(ctx, daoContractKey).(interop.Hash160)) {
		panic("only DAO can open markets")
	}

	if len(question) == 0 {
		panic("empty question")
	}
	if outcomes < 2 || outcomes > maxOutcomes {
		panic("invalid outcome number")
	}
	if closeBlock <= ledger.CurrentIndex() {
		panic("close block is in the past")
	}

	id := storage.Get(ctx, marketCounterKey).(int) + 1
	if id > maxMarketID {
		panic("out of market numbers")
	}
	storage.Put(ctx, marketCounterKey, id)

	m := Market{
		ID:         id,
		Proposal:   proposal,
		Question:   question,
		Outcomes:   outcomes,
		CloseBlock: closeBlock,
	}
	putMarket(ctx, m)

	runtime.Notify("NewMarket", id, proposal, closeBlock)

	return id
}

// OnNEP17Payment is a callback for NEP-17 compatible native GAS contract.
// It is the staking entry of the contract: attached data must be a two-item
// array of the market number and the outcome the sender stakes the
// transferred GAS on. Any other NEP-17 transfer is aborted.
//
// It produces Stake notification.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	caller := runtime.GetCallingScriptHash()
	if !caller.Equals(gas.Hash) {
		common.AbortWithMessage("market contract accepts GAS only")
	}

	args := data.([]any)
	if len(args) != 2 {
		common.AbortWithMessage("stake requires market and outcome")
	}

	id := args[0].(int)
	outcome := args[1].(int)

	ctx := storage.GetContext()

	// Lookup failures must abort here, the callback cannot throw.
	if id < 1 || id > maxMarketID {
		common.AbortWithMessage("market not found")
	}
	raw := storage.Get(ctx, marketKey(id))
	if raw == nil {
		common.AbortWithMessage("market not found")
	}
	m := std.Deserialize(raw.([]byte)).(Market)

	if m.Resolved {
		common.AbortWithMessage("market already resolved")
	}
	if ledger.CurrentIndex() >= m.CloseBlock {
		common.AbortWithMessage("market is closed")
	}
	if outcome < 0 || outcome >= m.Outcomes {
		common.AbortWithMessage("invalid outcome")
	}
	if amount <= 0 {
		common.AbortWithMessage("zero stake")
	}

	daoH := storage.Get(ctx, daoContractKey).(interop.Hash160)
	if !contract.Call(daoH, "tradingEnabled", contract.ReadOnly).(bool) {
		common.AbortWithMessage("trading is disabled")
	}

	sKey := stakeKey(id, outcome, from)
	addToIntKey(ctx, sKey, amount)
	addToIntKey(ctx, outcomePoolKey(id, outcome), amount)

	m.Pool = m.Pool + amount
	putMarket(ctx, m)

	runtime.Notify("Stake", id, from, outcome, amount)
}

// Resolve records the winning outcome of the given market. It can be invoked
// only by committee acting as the oracle, once per market and only past the
// market close block.
//
// It produces Resolve notification.
func Resolve(id, winner int) {
	common.CheckWitness(common.CommitteeAddress())

	ctx := storage.GetContext()

	m := getMarket(ctx, id)
	if m.Resolved {
		panic("market already resolved")
	}
	if ledger.CurrentIndex() < m.CloseBlock {
		panic("market is still open")
	}
	if winner < 0 || winner >= m.Outcomes {
		panic("invalid outcome")
	}

	m.Resolved = true
	m.Winner = winner
	putMarket(ctx, m)

	runtime.Notify("Resolve", id, winner)
}

// Claim pays the bettor's share of the market pool out in GAS. Bettor is the
// account in V2 wallet format and the call transaction must be witnessed by
// it. The payout of a winning stake is proportional to its share in the
// winning outcome pool. If nothing was staked on the winning outcome,
// bettors get their original stakes back. Stakes are burned on claim, so
// each stake is paid at most once.
//
// It produces Payout notification.
func Claim(bettor []byte, id int) {
	if !common.IsValidWallet(bettor) {
		panic("invalid bettor account")
	}

	acc := interop.Hash160(common.WalletToScriptHash(bettor))
	common.CheckOwnerWitness(acc)

	ctx := storage.GetContext()

	m := getMarket(ctx, id)
	if !m.Resolved {
		panic("market is not resolved")
	}

	winnerPool := getIntKey(ctx, outcomePoolKey(id, m.Winner))

	var payout int
	if winnerPool > 0 {
		sKey := stakeKey(id, m.Winner, acc)
		stake := getIntKey(ctx, sKey)
		if stake == 0 {
			panic("nothing to claim")
		}
		storage.Delete(ctx, sKey)

		payout = stake * m.Pool / winnerPool
	} else {
		// Void market: nobody backed the winner, stakes are returned.
		for i := 0; i < m.Outcomes; i++ {
			sKey := stakeKey(id, i, acc)
			stake := getIntKey(ctx, sKey)
			if stake != 0 {
				storage.Delete(ctx, sKey)
				payout += stake
			}
		}
		if payout == 0 {
			panic("nothing to claim")
		}
	}

	ok := contract.Call(interop.Hash160(gas.Hash), "transfer", contract.All,
		runtime.GetExecutingScriptHash(), acc, payout, nil).(bool)
	if !ok {
		panic("payout transfer failed")
	}

	runtime.Notify("Payout", id, bettor, payout)
}

// GetMarket returns the stored market by its number. It panics if the market
// is missing.
func GetMarket(id int) Market {
	ctx := storage.GetReadOnlyContext()
	return getMarket(ctx, id)
}

// MarketCount returns the number of markets ever opened. Market numbers are
// sequential and start at 1.
func MarketCount() int {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, marketCounterKey).(int)
}

// IterateMarkets returns an iterator over all stored markets.
func IterateMarkets() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, marketPrefix, storage.ValuesOnly|storage.DeserializeValues)
}

// StakeOf returns the unclaimed amount the given account staked on the given
// outcome of the given market.
func StakeOf(id, outcome int, account interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()
	return getIntKey(ctx, stakeKey(id, outcome, account))
}

// OutcomePool returns the total amount staked on the given outcome of the
// given market.
func OutcomePool(id, outcome int) int {
	ctx := storage.GetReadOnlyContext()
	return getIntKey(ctx, outcomePoolKey(id, outcome))
}

// Verify checks whether carrier transaction is signed by the committee. It
// allows committee to manage GAS of the contract account.
func Verify() bool {
	return runtime.CheckWitness(common.CommitteeAddress())
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func getMarket(ctx storage.Context, id int) Market {
	data := storage.Get(ctx, marketKey(id))
	if data == nil {
		panic("market not found")
	}

	return std.Deserialize(data.([]byte)).(Market)
}

func putMarket(ctx storage.Context, m Market) {
	common.SetSerialized(ctx, marketKey(m.ID), m)
}

func getIntKey(ctx storage.Context, key []byte) int {
	raw := storage.Get(ctx, key)
	if raw == nil {
		return 0
	}

	return raw.(int)
}

func addToIntKey(ctx storage.Context, key []byte, amount int) {
	storage.Put(ctx, key, getIntKey(ctx, key)+amount)
}

func marketKey(id int) []byte {
	return append([]byte(marketPrefix), marketIDBytes(id)...)
}

func outcomePoolKey(id, outcome int) []byte {
	key := append([]byte(outcomePrefix), marketIDBytes(id)...)
	return append(key, byte(outcome&0xFF))
}

func stakeKey(id, outcome int, account interop.Hash160) []byte {
	key := append([]byte(stakePrefix), marketIDBytes(id)...)
	key = append(key, byte(outcome&0xFF))
	return append(key, account...)
}

// marketIDBytes encodes market number as two little-endian bytes to keep
// storage keys fixed-size.
func marketIDBytes(id int) []byte {
	if id <= 0 || id > maxMarketID {
		panic("invalid market id")
	}

	return []byte{byte(id & 0xFF), byte((id >> 8) & 0xFF)}
}
