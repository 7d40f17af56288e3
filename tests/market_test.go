package tests

import (
	"encoding/json"
	"path"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/core/native/nativenames"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
	"github.com/zeitdao/zeitdao-contract/common"
	"github.com/zeitdao/zeitdao-contract/contracts/dao/proposalkind"
	daorpc "github.com/zeitdao/zeitdao-contract/rpc/dao"
	marketrpc "github.com/zeitdao/zeitdao-contract/rpc/market"
)

const marketPath = "../contracts/market"

func compileMarketContract(t *testing.T, e *neotest.Executor) *neotest.Contract {
	return neotest.CompileFile(t, e.CommitteeHash, marketPath, path.Join(marketPath, "config.yml"))
}

func deployMarketContract(t *testing.T, e *neotest.Executor, daoHash util.Uint160) util.Uint160 {
	c := compileMarketContract(t, e)
	e.DeployContract(t, c, []any{daoHash, common.Version})
	return c.Hash
}

type marketEnv struct {
	daoEnv
	market util.Uint160
}

// newMarketEnv deploys both contracts and binds them together.
func newMarketEnv(t *testing.T, trading bool) marketEnv {
	d := newDAO(t, trading)

	h := deployMarketContract(t, d.e, d.hash)
	d.committeeInvoker().Invoke(t, stackitem.Null{}, "setMarketContract", h)

	return marketEnv{daoEnv: d, market: h}
}

func (m marketEnv) marketInvoker() *neotest.ContractInvoker {
	return m.e.CommitteeInvoker(m.market)
}

// openMarket runs the whole proposal pipeline for the given market
// definition and returns the number of the opened market.
func (m marketEnv) openMarket(t *testing.T, def daorpc.MarketDefinition) int {
	payload, err := def.MarshalPayload()
	require.NoError(t, err)

	id := m.newProposal(t, proposalkind.NewMarket, payload)
	m.approve(t, id)
	m.memberInvoker(t, 0).Invoke(t, stackitem.Null{}, "execute", id)

	stack, err := m.marketInvoker().TestInvoke(t, "marketCount")
	require.NoError(t, err)
	return int(stack.Pop().BigInt().Int64())
}

// stake transfers GAS of the given account to the market contract staking it
// on the given outcome.
func (m marketEnv) stake(t *testing.T, acc neotest.Signer, id, outcome int, amount int64) {
	gasInv := m.e.NewInvoker(m.e.NativeHash(t, nativenames.Gas), acc)
	gasInv.Invoke(t, true, "transfer", acc.ScriptHash(), m.market, amount, []any{id, outcome})
}

func (m marketEnv) stakeFault(t *testing.T, acc neotest.Signer, id, outcome int, amount int64) {
	gasInv := m.e.NewInvoker(m.e.NativeHash(t, nativenames.Gas), acc)
	gasInv.InvokeFail(t, "ABORT", "transfer", acc.ScriptHash(), m.market, amount, []any{id, outcome})
}

func (m marketEnv) getMarket(t *testing.T, id int) marketrpc.MarketMarket {
	stack, err := m.marketInvoker().TestInvoke(t, "getMarket", id)
	require.NoError(t, err)

	var res marketrpc.MarketMarket
	require.NoError(t, res.FromStackItem(stack.Pop().Item()))
	return res
}

func TestMarket_Version(t *testing.T) {
	m := newMarketEnv(t, true)
	m.marketInvoker().Invoke(t, common.Version, "version")
}

func TestMarket_Update(t *testing.T) {
	m := newMarketEnv(t, true)
	c := compileMarketContract(t, m.e)

	nefBytes, err := c.NEF.Bytes()
	require.NoError(t, err)
	manifestBytes, err := json.Marshal(c.Manifest)
	require.NoError(t, err)

	m.e.NewInvoker(m.market, m.members[0]).InvokeFail(t, "only committee can update contract",
		"update", nefBytes, manifestBytes, nil)
	m.marketInvoker().InvokeFail(t, common.ErrAlreadyUpdated,
		"update", nefBytes, manifestBytes, nil)
}

func TestMarket_DAOContract(t *testing.T) {
	m := newMarketEnv(t, true)
	m.marketInvoker().Invoke(t, stackitem.NewBuffer(m.hash.BytesBE()), "dAOContract")
}

func TestMarket_CreateMarket(t *testing.T) {
	m := newMarketEnv(t, true)

	m.marketInvoker().InvokeFail(t, "only DAO can open markets",
		"createMarket", 1, []byte("will it rain tomorrow?"), int(m.e.Chain.BlockHeight()+100), 2)

	def := daorpc.MarketDefinition{
		Question:   []byte("will it rain tomorrow?"),
		CloseBlock: m.e.Chain.BlockHeight() + 50,
		Outcomes:   2,
	}
	id := m.openMarket(t, def)
	require.Equal(t, 1, id)

	market := m.getMarket(t, id)
	require.EqualValues(t, 1, market.ID.Int64())
	require.Equal(t, def.Question, market.Question)
	require.EqualValues(t, def.Outcomes, market.Outcomes.Int64())
	require.EqualValues(t, def.CloseBlock, market.CloseBlock.Int64())
	require.False(t, market.Resolved)
	require.EqualValues(t, 0, market.Pool.Int64())

	t.Run("close block in the past", func(t *testing.T) {
		payload, err := daorpc.MarketDefinition{
			Question:   []byte("was it raining yesterday?"),
			CloseBlock: 1,
			Outcomes:   2,
		}.MarshalPayload()
		require.NoError(t, err)

		id := m.newProposal(t, proposalkind.NewMarket, payload)
		m.approve(t, id)
		m.memberInvoker(t, 0).InvokeFail(t, "market close block is in the past", "execute", id)
	})
}

func TestMarket_Lifecycle(t *testing.T) {
	m := newMarketEnv(t, true)

	closeBlock := m.e.Chain.BlockHeight() + 30
	id := m.openMarket(t, daorpc.MarketDefinition{
		Question:   []byte("will the protocol upgrade land this year?"),
		CloseBlock: closeBlock,
		Outcomes:   2,
	})

	const (
		stake0 = 10_0000_0000
		stake1 = 30_0000_0000
	)

	m.stake(t, m.members[0], id, 0, stake0)
	m.stake(t, m.members[1], id, 1, stake1)

	inv := m.marketInvoker()
	inv.Invoke(t, stake0, "stakeOf", id, 0, m.members[0].ScriptHash())
	inv.Invoke(t, stake1, "stakeOf", id, 1, m.members[1].ScriptHash())
	inv.Invoke(t, stake0, "outcomePool", id, 0)
	inv.Invoke(t, stake1, "outcomePool", id, 1)
	require.EqualValues(t, stake0+stake1, m.getMarket(t, id).Pool.Int64())

	t.Run("invalid stakes", func(t *testing.T) {
		m.stakeFault(t, m.members[0], id+1, 0, stake0)
		m.stakeFault(t, m.members[0], id, 2, stake0)
	})

	inv.InvokeFail(t, "market is still open", "resolve", id, 0)

	advanceChain(t, m.e, closeBlock)

	t.Run("stake after close", func(t *testing.T) {
		m.stakeFault(t, m.members[0], id, 0, stake0)
	})

	t.Run("claim before resolution", func(t *testing.T) {
		m.e.NewInvoker(m.market, m.members[0]).InvokeFail(t, "market is not resolved",
			"claim", m.wallets[0], id)
	})

	m.e.NewInvoker(m.market, m.members[0]).InvokeFail(t, common.ErrWitnessFailed,
		"resolve", id, 0)
	inv.InvokeFail(t, "invalid outcome", "resolve", id, 2)

	inv.Invoke(t, stackitem.Null{}, "resolve", id, 0)
	inv.InvokeFail(t, "market already resolved", "resolve", id, 1)

	market := m.getMarket(t, id)
	require.True(t, market.Resolved)
	require.EqualValues(t, 0, market.Winner.Int64())

	t.Run("loser has nothing to claim", func(t *testing.T) {
		m.e.NewInvoker(m.market, m.members[1]).InvokeFail(t, "nothing to claim",
			"claim", m.wallets[1], id)
	})

	winner := m.members[0].ScriptHash()
	before := m.e.Chain.GetUtilityTokenBalance(winner)

	// The only winning stake takes the whole pool.
	m.e.NewInvoker(m.market, m.members[0]).Invoke(t, stackitem.Null{},
		"claim", m.wallets[0], id)

	after := m.e.Chain.GetUtilityTokenBalance(winner)
	require.Positive(t, after.Cmp(before))

	inv.Invoke(t, 0, "stakeOf", id, 0, winner)
	m.e.NewInvoker(m.market, m.members[0]).InvokeFail(t, "nothing to claim",
		"claim", m.wallets[0], id)
}

func TestMarket_VoidMarket(t *testing.T) {
	m := newMarketEnv(t, true)

	closeBlock := m.e.Chain.BlockHeight() + 30
	id := m.openMarket(t, daorpc.MarketDefinition{
		Question:   []byte("will anyone bet on the right outcome?"),
		CloseBlock: closeBlock,
		Outcomes:   3,
	})

	const stake = 5_0000_0000
	m.stake(t, m.members[1], id, 1, stake)
	m.stake(t, m.members[1], id, 2, stake)

	advanceChain(t, m.e, closeBlock)
	m.marketInvoker().Invoke(t, stackitem.Null{}, "resolve", id, 0)

	// Nobody backed the winner, stakes are returned.
	bettor := m.members[1].ScriptHash()
	before := m.e.Chain.GetUtilityTokenBalance(bettor)

	m.e.NewInvoker(m.market, m.members[1]).Invoke(t, stackitem.Null{},
		"claim", m.wallets[1], id)

	after := m.e.Chain.GetUtilityTokenBalance(bettor)
	require.Positive(t, after.Cmp(before))

	m.marketInvoker().Invoke(t, 0, "stakeOf", id, 1, bettor)
	m.marketInvoker().Invoke(t, 0, "stakeOf", id, 2, bettor)
}

func TestMarket_TradingDisabled(t *testing.T) {
	m := newMarketEnv(t, false)

	payload, err := daorpc.MarketDefinition{
		Question:   []byte("is trading allowed yet?"),
		CloseBlock: m.e.Chain.BlockHeight() + 100,
		Outcomes:   2,
	}.MarshalPayload()
	require.NoError(t, err)

	id := m.newProposal(t, proposalkind.NewMarket, payload)
	m.approve(t, id)
	m.memberInvoker(t, 0).InvokeFail(t, "trading is disabled", "execute", id)

	// Enable trading through the governance pipeline and retry.
	flagID := m.newProposal(t, proposalkind.SetTradingFlag, []byte{1})
	m.approve(t, flagID)
	m.memberInvoker(t, 0).Invoke(t, stackitem.Null{}, "execute", flagID)

	m.memberInvoker(t, 0).Invoke(t, stackitem.Null{}, "execute", id)
	marketID := 1

	// Disabling trading stops staking on open markets as well.
	flagID = m.newProposal(t, proposalkind.SetTradingFlag, []byte{0})
	m.approve(t, flagID)
	m.memberInvoker(t, 0).Invoke(t, stackitem.Null{}, "execute", flagID)

	m.stakeFault(t, m.members[0], marketID, 0, 1_0000_0000)
}

func TestMarket_Verify(t *testing.T) {
	m := newMarketEnv(t, true)

	const method = "verify"
	m.marketInvoker().Invoke(t, stackitem.NewBool(true), method)
	m.e.NewInvoker(m.market, m.e.NewAccount(t)).Invoke(t, stackitem.NewBool(false), method)
}

func TestMarket_IterateMarkets(t *testing.T) {
	m := newMarketEnv(t, true)

	const n = 2
	for i := 0; i < n; i++ {
		m.openMarket(t, daorpc.MarketDefinition{
			Question:   randomBytes(32),
			CloseBlock: m.e.Chain.BlockHeight() + 100,
			Outcomes:   2,
		})
	}

	stack, err := m.marketInvoker().TestInvoke(t, "iterateMarkets")
	require.NoError(t, err)

	iter, ok := stack.Pop().Value().(*storage.Iterator)
	require.True(t, ok)

	items := iteratorToArray(iter)
	require.Len(t, items, n)

	for i := range items {
		var market marketrpc.MarketMarket
		require.NoError(t, market.FromStackItem(items[i]))
		require.EqualValues(t, i+1, market.ID.Int64())
	}
}
