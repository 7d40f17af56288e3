package dao

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/ledger"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/zeitdao/zeitdao-contract/common"
	"github.com/zeitdao/zeitdao-contract/contracts/dao/proposalkind"
	"github.com/zeitdao/zeitdao-contract/internal/proto"
)

// Proposal groups data related to a single DAO decision stored in the
// current contract.
type Proposal struct {
	// Sequential proposal number, starts at 1.
	ID int

	// Account that submitted the proposal, in V2 wallet format.
	Proposer []byte

	// Proposal kind, see [proposalkind.Type].
	Kind proposalkind.Type

	// Kind-specific binary payload.
	Payload []byte

	// Index of the last block votes are accepted in.
	EndBlock int

	// Whether proposal effect has already been applied.
	Executed bool

	// Vote counters.
	Approvals  int
	Rejections int
}

const (
	tradingFlagKey = "tradingEnabled"
	memberListKey  = "members"

	// Counter key must not share its first byte with the record prefixes
	// below, it would get into iteration results.
	proposalCounterKey = "lastProposalID"

	marketContractKey = "m"
	proposalPrefix    = "p"
	votePrefix        = "v"

	// maxProposalID keeps proposal numbers within two bytes so that vote
	// keys have a fixed layout.
	maxProposalID = 0xFFFF

	// Bounds for the voting period measured in blocks.
	minVotingPeriod = 10
	maxVotingPeriod = 1_000_000
)

// Market definition payload field numbers.
const (
	marketFieldQuestion   = 1
	marketFieldCloseBlock = 2
	marketFieldOutcomes   = 3
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
		tradingEnabled bool
		members        [][]byte
		version        int
	})

	if len(args.members) == 0 {
		panic("at least one member required")
	}

	for i := range args.members {
		if !common.IsValidWallet(args.members[i]) {
			panic("invalid member account")
		}

		for j := 0; j < i; j++ {
			if common.BytesEqual(args.members[i], args.members[j]) {
				panic("duplicate member account")
			}
		}
	}

	storage.Put(ctx, tradingFlagKey, args.tradingEnabled)
	common.SetSerialized(ctx, memberListKey, args.members)
	storage.Put(ctx, proposalCounterKey, 0)

	runtime.Log("dao contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by committee.
func Update(nefFile, manifest []byte, data any) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("dao contract updated")
}

// TradingEnabled returns the DAO-wide trading flag. While the flag is off,
// market proposals cannot be executed and markets accept no stakes.
func TradingEnabled() bool {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, tradingFlagKey).(bool)
}

// Members returns all accounts that have a vote within the DAO. Accounts are
// returned in V2 wallet format in the order they joined.
func Members() [][]byte {
	ctx := storage.GetReadOnlyContext()
	return common.GetList(ctx, memberListKey)
}

// IsMember returns true if the given account belongs to the DAO member set.
// Account must be in V2 wallet format.
func IsMember(member []byte) bool {
	ctx := storage.GetReadOnlyContext()
	return isMember(ctx, member)
}

// MarketContract returns script hash of the market contract ruled by the
// DAO. It panics until the hash is set with SetMarketContract.
func MarketContract() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	h := storage.Get(ctx, marketContractKey)
	if h == nil {
		panic("market contract is not set")
	}

	return h.(interop.Hash160)
}

// SetMarketContract stores script hash of the market contract. It can be
// invoked only by committee and is expected to be called once right after
// both contracts are deployed.
//
// It produces MarketContractSet notification.
func SetMarketContract(addr interop.Hash160) {
	if len(addr) != interop.Hash160Len {
		panic("invalid market contract address")
	}

	common.CheckWitness(common.CommitteeAddress())

	ctx := storage.GetContext()
	storage.Put(ctx, marketContractKey, addr)

	runtime.Notify("MarketContractSet", addr)
}

// NewProposal submits a new proposal for DAO members to vote on. Proposer
// must be a DAO member in V2 wallet format and the call transaction must be
// witnessed by it. Voting period is measured in blocks and bounded by the
// contract. Payload is validated against the proposal kind, market
// definitions are checked field by field, see package documentation for the
// format.
//
// Returns the number of the new proposal and produces NewProposal
// notification.
func NewProposal(proposer []byte, kind proposalkind.Type, payload []byte, votingPeriod int) int {
	ctx := storage.GetContext()

	if !isMember(ctx, proposer) {
		panic("proposer is not a member")
	}

	common.CheckMemberWitness(common.WalletToScriptHash(proposer))

	if votingPeriod < minVotingPeriod || votingPeriod > maxVotingPeriod {
		panic("voting period out of bounds")
	}

	validatePayload(ctx, kind, payload)

	id := storage.Get(ctx, proposalCounterKey).(int) + 1
	if id > maxProposalID {
		panic("out of proposal numbers")
	}
	storage.Put(ctx, proposalCounterKey, id)

	p := Proposal{
		ID:       id,
		Proposer: proposer,
		Kind:     kind,
		Payload:  payload,
		EndBlock: ledger.CurrentIndex() + votingPeriod,
	}
	putProposal(ctx, p)

	runtime.Notify("NewProposal", id, proposer, int(kind))

	return id
}

// Vote records a vote of the given DAO member for or against the given
// proposal. The call transaction must be witnessed by the member. Each
// member votes at most once per proposal and only while the voting period
// lasts.
//
// It produces Vote notification.
func Vote(member []byte, id int, inFavor bool) {
	ctx := storage.GetContext()

	if !isMember(ctx, member) {
		panic("voter is not a member")
	}

	common.CheckMemberWitness(common.WalletToScriptHash(member))

	p := getProposal(ctx, id)
	if p.Executed {
		panic("proposal already executed")
	}
	if ledger.CurrentIndex() > p.EndBlock {
		panic("voting period is over")
	}

	key := voteKey(id, common.WalletToScriptHash(member))
	if storage.Get(ctx, key) != nil {
		panic("already voted")
	}

	storage.Put(ctx, key, inFavor)

	if inFavor {
		p.Approvals = p.Approvals + 1
	} else {
		p.Rejections = p.Rejections + 1
	}
	putProposal(ctx, p)

	runtime.Notify("Vote", id, member, inFavor)
}

// VoteOf returns the recorded vote of the given member for the given
// proposal: 1 for approval, 0 for rejection, -1 if the member has not voted.
func VoteOf(member []byte, id int) int {
	ctx := storage.GetReadOnlyContext()

	raw := storage.Get(ctx, voteKey(id, common.WalletToScriptHash(member)))
	if raw == nil {
		return -1
	}

	if raw.(bool) {
		return 1
	}

	return 0
}

// GetProposal returns the stored proposal by its number. It panics if the
// proposal is missing.
func GetProposal(id int) Proposal {
	ctx := storage.GetReadOnlyContext()
	return getProposal(ctx, id)
}

// ProposalCount returns the number of proposals ever submitted. Proposal
// numbers are sequential and start at 1.
func ProposalCount() int {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, proposalCounterKey).(int)
}

// IterateProposals returns an iterator over all stored proposals.
func IterateProposals() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, proposalPrefix, storage.ValuesOnly|storage.DeserializeValues)
}

// Execute applies the effect of the given proposal. It can be invoked by
// anyone once the proposal has been approved by a strict majority of the
// current member set, and at most once per proposal.
//
// It produces Execution notification, plus MemberAdded, MemberRemoved or
// TradingFlagUpdated depending on the proposal kind. Market proposals
// produce notifications of the market contract.
func Execute(id int) {
	ctx := storage.GetContext()

	p := getProposal(ctx, id)
	if p.Executed {
		panic("proposal already executed")
	}

	members := common.GetList(ctx, memberListKey)
	if p.Approvals*2 <= len(members) {
		panic("no majority")
	}

	switch p.Kind {
	case proposalkind.Generic:
		// Decision is the effect.
	case proposalkind.AddMember:
		addMember(ctx, members, p.Payload)
	case proposalkind.RemoveMember:
		removeMember(ctx, members, p.Payload)
	case proposalkind.SetTradingFlag:
		flag := p.Payload[0] != 0
		storage.Put(ctx, tradingFlagKey, flag)
		runtime.Notify("TradingFlagUpdated", flag)
	case proposalkind.NewMarket:
		openMarket(ctx, id, p.Payload)
	default:
		panic("unsupported proposal kind")
	}

	p.Executed = true
	putProposal(ctx, p)

	runtime.Notify("Execution", id, int(p.Kind))
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func addMember(ctx storage.Context, members [][]byte, candidate []byte) {
	for i := range members {
		if common.BytesEqual(members[i], candidate) {
			panic("already a member")
		}
	}

	members = append(members, candidate)
	common.SetSerialized(ctx, memberListKey, members)

	runtime.Notify("MemberAdded", candidate)
}

func removeMember(ctx storage.Context, members [][]byte, candidate []byte) {
	if len(members) == 1 {
		panic("cannot remove the last member")
	}

	var updated [][]byte
	for i := range members {
		if !common.BytesEqual(members[i], candidate) {
			updated = append(updated, members[i])
		}
	}

	if len(updated) == len(members) {
		panic("not a member")
	}

	common.SetSerialized(ctx, memberListKey, updated)

	runtime.Notify("MemberRemoved", candidate)
}

func openMarket(ctx storage.Context, id int, payload []byte) {
	if !storage.Get(ctx, tradingFlagKey).(bool) {
		panic("trading is disabled")
	}

	marketH := storage.Get(ctx, marketContractKey)
	if marketH == nil {
		panic("market contract is not set")
	}

	question, closeBlock, outcomes := decodeMarketPayload(payload)
	if closeBlock <= ledger.CurrentIndex() {
		panic("market close block is in the past")
	}

	contract.Call(marketH.(interop.Hash160), "createMarket", contract.All,
		id, question, closeBlock, outcomes)
}

func validatePayload(ctx storage.Context, kind proposalkind.Type, payload []byte) {
	switch kind {
	case proposalkind.Generic:
	case proposalkind.AddMember:
		if !common.IsValidWallet(payload) {
			panic("invalid member account")
		}
		if isMember(ctx, payload) {
			panic("already a member")
		}
	case proposalkind.RemoveMember:
		if !common.IsValidWallet(payload) {
			panic("invalid member account")
		}
		if !isMember(ctx, payload) {
			panic("not a member")
		}
	case proposalkind.SetTradingFlag:
		if len(payload) != 1 || payload[0] > 1 {
			panic("invalid flag payload")
		}
	case proposalkind.NewMarket:
		decodeMarketPayload(payload)
	default:
		panic("unsupported proposal kind")
	}
}

// decodeMarketPayload parses protobuf-encoded market definition. See package
// documentation for the format.
func decodeMarketPayload(payload []byte) ([]byte, int, int) {
	var (
		question   []byte
		closeBlock int
		outcomes   int
		off        int
	)

	for off < len(payload) {
		num, typ, n, e := proto.ReadTag(payload[off:])
		if e != "" {
			panic("invalid market payload: " + e)
		}
		off += n

		switch num {
		case marketFieldQuestion:
			proto.AssertFieldType(num, typ, proto.FieldTypeLEN)

			ln, n, e := proto.ReadSizeLEN(payload[off:])
			if e != "" {
				panic("invalid market payload: " + e)
			}
			off += n

			question = payload[off : off+ln]
			off += ln
		case marketFieldCloseBlock:
			proto.AssertFieldType(num, typ, proto.FieldTypeVARINT)

			v, n, e := proto.ReadUint32(payload[off:])
			if e != "" {
				panic("invalid market payload: " + e)
			}
			off += n

			closeBlock = int(v)
		case marketFieldOutcomes:
			proto.AssertFieldType(num, typ, proto.FieldTypeVARINT)

			v, n, e := proto.ReadUint32(payload[off:])
			if e != "" {
				panic("invalid market payload: " + e)
			}
			off += n

			outcomes = int(v)
		default:
			panic("invalid market payload: unexpected field #" + std.Itoa10(num))
		}
	}

	if len(question) == 0 {
		panic("invalid market payload: empty question")
	}
	if closeBlock == 0 {
		panic("invalid market payload: missing close block")
	}
	if outcomes < 2 {
		panic("invalid market payload: at least two outcomes required")
	}

	return question, closeBlock, outcomes
}

func isMember(ctx storage.Context, member []byte) bool {
	members := common.GetList(ctx, memberListKey)
	for i := range members {
		if common.BytesEqual(members[i], member) {
			return true
		}
	}

	return false
}

func getProposal(ctx storage.Context, id int) Proposal {
	data := storage.Get(ctx, proposalKey(id))
	if data == nil {
		panic("proposal not found")
	}

	return std.Deserialize(data.([]byte)).(Proposal)
}

func putProposal(ctx storage.Context, p Proposal) {
	common.SetSerialized(ctx, proposalKey(p.ID), p)
}

func proposalKey(id int) []byte {
	return append([]byte(proposalPrefix), proposalIDBytes(id)...)
}

func voteKey(id int, member interop.Hash160) []byte {
	key := append([]byte(votePrefix), proposalIDBytes(id)...)
	return append(key, member...)
}

// proposalIDBytes encodes proposal number as two little-endian bytes to keep
// storage keys fixed-size.
func proposalIDBytes(id int) []byte {
	if id <= 0 || id > maxProposalID {
		panic("invalid proposal id")
	}

	return []byte{byte(id & 0xFF), byte((id >> 8) & 0xFF)}
}
