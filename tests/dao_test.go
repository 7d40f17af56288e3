package tests

import (
	"encoding/json"
	"path"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
	"github.com/zeitdao/zeitdao-contract/common"
	"github.com/zeitdao/zeitdao-contract/contracts/dao/proposalkind"
	daorpc "github.com/zeitdao/zeitdao-contract/rpc/dao"
)

const daoPath = "../contracts/dao"

// Shortest voting period the DAO accepts, keeps tests fast.
const votingPeriod = 10

func compileDAOContract(t *testing.T, e *neotest.Executor) *neotest.Contract {
	return neotest.CompileFile(t, e.CommitteeHash, daoPath, path.Join(daoPath, "config.yml"))
}

func deployDAOContract(t *testing.T, e *neotest.Executor, trading bool, members ...neotest.Signer) util.Uint160 {
	c := compileDAOContract(t, e)

	ms := make([]any, len(members))
	for i := range members {
		ms[i] = walletBytes(t, members[i].ScriptHash())
	}

	e.DeployContract(t, c, []any{trading, ms, common.Version})
	return c.Hash
}

type daoEnv struct {
	e       *neotest.Executor
	hash    util.Uint160
	members []neotest.Signer
	wallets [][]byte
}

// newDAO deploys the DAO contract with two fresh member accounts.
func newDAO(t *testing.T, trading bool) daoEnv {
	e := newExecutor(t)

	members := []neotest.Signer{e.NewAccount(t), e.NewAccount(t)}
	h := deployDAOContract(t, e, trading, members...)

	wallets := make([][]byte, len(members))
	for i := range members {
		wallets[i] = walletBytes(t, members[i].ScriptHash())
	}

	return daoEnv{e: e, hash: h, members: members, wallets: wallets}
}

func (d daoEnv) memberInvoker(t *testing.T, i int) *neotest.ContractInvoker {
	return d.e.NewInvoker(d.hash, d.members[i])
}

func (d daoEnv) committeeInvoker() *neotest.ContractInvoker {
	return d.e.CommitteeInvoker(d.hash)
}

// newProposal submits a proposal by the first DAO member and returns its
// number.
func (d daoEnv) newProposal(t *testing.T, kind proposalkind.Type, payload []byte) int {
	inv := d.memberInvoker(t, 0)

	stack, err := inv.TestInvoke(t, "proposalCount")
	require.NoError(t, err)
	id := int(stack.Pop().BigInt().Int64()) + 1

	inv.Invoke(t, id, "newProposal", d.wallets[0], int(kind), payload, votingPeriod)
	return id
}

// approve makes every DAO member vote for the given proposal.
func (d daoEnv) approve(t *testing.T, id int) {
	for i := range d.members {
		d.memberInvoker(t, i).Invoke(t, stackitem.Null{}, "vote", d.wallets[i], id, true)
	}
}

func (d daoEnv) getProposal(t *testing.T, id int) daorpc.DaoProposal {
	stack, err := d.committeeInvoker().TestInvoke(t, "getProposal", id)
	require.NoError(t, err)

	var p daorpc.DaoProposal
	require.NoError(t, p.FromStackItem(stack.Pop().Item()))
	return p
}

func TestDAO_Deploy(t *testing.T) {
	e := newExecutor(t)
	c := compileDAOContract(t, e)

	acc := e.NewAccount(t)
	w := walletBytes(t, acc.ScriptHash())

	t.Run("no members", func(t *testing.T) {
		e.DeployContractCheckFAULT(t, c, []any{true, []any{}, common.Version},
			"at least one member required")
	})

	t.Run("invalid member", func(t *testing.T) {
		e.DeployContractCheckFAULT(t, c, []any{true, []any{randomBytes(10)}, common.Version},
			"invalid member account")
	})

	t.Run("duplicate member", func(t *testing.T) {
		e.DeployContractCheckFAULT(t, c, []any{true, []any{w, w}, common.Version},
			"duplicate member account")
	})

	e.DeployContract(t, c, []any{true, []any{w}, common.Version})

	inv := e.CommitteeInvoker(c.Hash)
	inv.Invoke(t, stackitem.NewArray([]stackitem.Item{stackitem.NewByteArray(w)}), "members")
	inv.Invoke(t, true, "tradingEnabled")
}

func TestDAO_Version(t *testing.T) {
	d := newDAO(t, true)
	d.committeeInvoker().Invoke(t, common.Version, "version")
}

func TestDAO_Update(t *testing.T) {
	d := newDAO(t, true)
	c := compileDAOContract(t, d.e)

	nefBytes, err := c.NEF.Bytes()
	require.NoError(t, err)
	manifestBytes, err := json.Marshal(c.Manifest)
	require.NoError(t, err)

	d.memberInvoker(t, 0).InvokeFail(t, "only committee can update contract",
		"update", nefBytes, manifestBytes, nil)
	d.committeeInvoker().InvokeFail(t, common.ErrAlreadyUpdated,
		"update", nefBytes, manifestBytes, nil)
}

func TestDAO_IsMember(t *testing.T) {
	d := newDAO(t, true)
	inv := d.committeeInvoker()

	inv.Invoke(t, true, "isMember", d.wallets[0])
	inv.Invoke(t, true, "isMember", d.wallets[1])

	stranger := walletBytes(t, d.e.NewAccount(t).ScriptHash())
	inv.Invoke(t, false, "isMember", stranger)
}

func TestDAO_SetMarketContract(t *testing.T) {
	d := newDAO(t, true)

	inv := d.committeeInvoker()
	inv.InvokeFail(t, "market contract is not set", "marketContract")

	var marketHash util.Uint160
	copy(marketHash[:], randomBytes(util.Uint160Size))

	d.memberInvoker(t, 0).InvokeFail(t, common.ErrWitnessFailed,
		"setMarketContract", marketHash)
	inv.InvokeFail(t, "invalid market contract address",
		"setMarketContract", randomBytes(10))

	inv.Invoke(t, stackitem.Null{}, "setMarketContract", marketHash)
	inv.Invoke(t, stackitem.NewBuffer(marketHash.BytesBE()), "marketContract")
}

func TestDAO_NewProposal(t *testing.T) {
	d := newDAO(t, true)

	stranger := d.e.NewAccount(t)
	strangerWallet := walletBytes(t, stranger.ScriptHash())

	d.e.NewInvoker(d.hash, stranger).InvokeFail(t, "proposer is not a member",
		"newProposal", strangerWallet, int(proposalkind.Generic), []byte{}, votingPeriod)

	// Transaction signed by another member does not carry the proposer witness.
	d.memberInvoker(t, 1).InvokeFail(t, common.ErrMemberWitnessFailed,
		"newProposal", d.wallets[0], int(proposalkind.Generic), []byte{}, votingPeriod)

	inv := d.memberInvoker(t, 0)
	inv.InvokeFail(t, "voting period out of bounds",
		"newProposal", d.wallets[0], int(proposalkind.Generic), []byte{}, 1)
	inv.InvokeFail(t, "voting period out of bounds",
		"newProposal", d.wallets[0], int(proposalkind.Generic), []byte{}, 10_000_000)

	id := d.newProposal(t, proposalkind.Generic, []byte{})
	require.Equal(t, 1, id)

	d.committeeInvoker().Invoke(t, 1, "proposalCount")

	p := d.getProposal(t, id)
	require.EqualValues(t, 1, p.ID.Int64())
	require.Equal(t, d.wallets[0], p.Proposer)
	require.EqualValues(t, int(proposalkind.Generic), p.Kind.Int64())
	require.False(t, p.Executed)
	require.EqualValues(t, 0, p.Approvals.Int64())

	t.Run("payload validation", func(t *testing.T) {
		inv.InvokeFail(t, "invalid member account",
			"newProposal", d.wallets[0], int(proposalkind.AddMember), randomBytes(10), votingPeriod)
		inv.InvokeFail(t, "already a member",
			"newProposal", d.wallets[0], int(proposalkind.AddMember), d.wallets[1], votingPeriod)
		inv.InvokeFail(t, "not a member",
			"newProposal", d.wallets[0], int(proposalkind.RemoveMember), strangerWallet, votingPeriod)
		inv.InvokeFail(t, "invalid flag payload",
			"newProposal", d.wallets[0], int(proposalkind.SetTradingFlag), []byte{0xFF}, votingPeriod)
		inv.InvokeFail(t, "invalid market payload",
			"newProposal", d.wallets[0], int(proposalkind.NewMarket), randomBytes(3), votingPeriod)
	})
}

func TestDAO_Vote(t *testing.T) {
	d := newDAO(t, true)
	id := d.newProposal(t, proposalkind.Generic, []byte{})

	inv := d.memberInvoker(t, 0)

	stranger := d.e.NewAccount(t)
	d.e.NewInvoker(d.hash, stranger).InvokeFail(t, "voter is not a member",
		"vote", walletBytes(t, stranger.ScriptHash()), id, true)

	d.memberInvoker(t, 1).InvokeFail(t, common.ErrMemberWitnessFailed,
		"vote", d.wallets[0], id, true)

	inv.InvokeFail(t, "proposal not found", "vote", d.wallets[0], id+1, true)

	inv.Invoke(t, stackitem.Null{}, "vote", d.wallets[0], id, true)
	inv.InvokeFail(t, "already voted", "vote", d.wallets[0], id, true)

	d.committeeInvoker().Invoke(t, 1, "voteOf", d.wallets[0], id)
	d.committeeInvoker().Invoke(t, -1, "voteOf", d.wallets[1], id)

	d.memberInvoker(t, 1).Invoke(t, stackitem.Null{}, "vote", d.wallets[1], id, false)
	d.committeeInvoker().Invoke(t, 0, "voteOf", d.wallets[1], id)

	p := d.getProposal(t, id)
	require.EqualValues(t, 1, p.Approvals.Int64())
	require.EqualValues(t, 1, p.Rejections.Int64())

	t.Run("voting period is over", func(t *testing.T) {
		id := d.newProposal(t, proposalkind.Generic, []byte{})
		advanceChain(t, d.e, uint32(d.getProposal(t, id).EndBlock.Int64()))

		inv.InvokeFail(t, "voting period is over", "vote", d.wallets[0], id, true)
	})
}

func TestDAO_Execute(t *testing.T) {
	d := newDAO(t, false)
	anyone := d.e.NewInvoker(d.hash, d.e.NewAccount(t))

	t.Run("no majority", func(t *testing.T) {
		id := d.newProposal(t, proposalkind.Generic, []byte{})
		anyone.InvokeFail(t, "no majority", "execute", id)

		// 1 of 2 approvals is not a strict majority.
		d.memberInvoker(t, 0).Invoke(t, stackitem.Null{}, "vote", d.wallets[0], id, true)
		anyone.InvokeFail(t, "no majority", "execute", id)
	})

	t.Run("generic", func(t *testing.T) {
		id := d.newProposal(t, proposalkind.Generic, []byte{})
		d.approve(t, id)

		anyone.Invoke(t, stackitem.Null{}, "execute", id)
		require.True(t, d.getProposal(t, id).Executed)

		anyone.InvokeFail(t, "proposal already executed", "execute", id)
		d.memberInvoker(t, 0).InvokeFail(t, "proposal already executed",
			"vote", d.wallets[0], id, true)
	})

	t.Run("trading flag", func(t *testing.T) {
		d.committeeInvoker().Invoke(t, false, "tradingEnabled")

		id := d.newProposal(t, proposalkind.SetTradingFlag, []byte{1})
		d.approve(t, id)
		anyone.Invoke(t, stackitem.Null{}, "execute", id)

		d.committeeInvoker().Invoke(t, true, "tradingEnabled")
	})

	t.Run("membership", func(t *testing.T) {
		newcomer := walletBytes(t, d.e.NewAccount(t).ScriptHash())

		id := d.newProposal(t, proposalkind.AddMember, newcomer)
		d.approve(t, id)
		anyone.Invoke(t, stackitem.Null{}, "execute", id)

		d.committeeInvoker().Invoke(t, true, "isMember", newcomer)

		id = d.newProposal(t, proposalkind.RemoveMember, newcomer)
		d.approve(t, id)
		anyone.Invoke(t, stackitem.Null{}, "execute", id)

		d.committeeInvoker().Invoke(t, false, "isMember", newcomer)
	})
}

func TestDAO_IterateProposals(t *testing.T) {
	d := newDAO(t, true)

	const n = 3
	for i := 0; i < n; i++ {
		d.newProposal(t, proposalkind.Generic, []byte{})
	}

	stack, err := d.committeeInvoker().TestInvoke(t, "iterateProposals")
	require.NoError(t, err)

	iter, ok := stack.Pop().Value().(*storage.Iterator)
	require.True(t, ok)

	items := iteratorToArray(iter)
	require.Len(t, items, n)

	for i := range items {
		var p daorpc.DaoProposal
		require.NoError(t, p.FromStackItem(items[i]))
		require.EqualValues(t, i+1, p.ID.Int64())
	}
}
