/*
Package deploy provides ZeitDAO deployment over Neo blockchain RPC.

The package takes a connection to a running node and compiled contract
artifacts, and turns the network into a ZeitDAO one: the DAO contract is
deployed with the configured member set, the market contract is deployed
with the DAO address sewn into it, and the DAO is bound to the market
contract. Every step is idempotent, so the procedure can be safely re-run
against a partially initialized network.
*/
package deploy

import (
	"context"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/zeitdao/zeitdao-contract/common"
	daorpc "github.com/zeitdao/zeitdao-contract/rpc/dao"
	"go.uber.org/zap"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for ZeitDAO deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions to
	// the blockchain.
	actor.RPCActor

	// GetCommittee returns list of public keys owned by Neo blockchain
	// committee members. Resulting list is non-empty, unique and unsorted.
	GetCommittee() (keys.PublicKeys, error)

	// GetContractStateByHash returns network state of the smart contract
	// by its address. GetContractStateByHash returns an error with
	// 'Unknown contract' substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// CommonDeployPrm groups common deployment parameters of the smart contract.
type CommonDeployPrm struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

// DAOContractPrm groups deployment parameters of the DAO contract.
type DAOContractPrm struct {
	Common CommonDeployPrm
	Config DAOConfiguration
}

// MarketContractPrm groups deployment parameters of the market contract.
type MarketContractPrm struct {
	Common CommonDeployPrm
}

// Prm groups all parameters of the ZeitDAO deployment procedure.
type Prm struct {
	// Writes progress into the log. Optional.
	Logger *zap.Logger

	// Particular Neo blockchain instance to deploy to.
	Blockchain Blockchain

	// Local process account used for transaction signing (must be
	// unlocked). Binding the market contract to the DAO requires committee
	// witness, so in networks with more than one committee member the
	// account must be the one completing the committee multi-signature.
	LocalAccount *wallet.Account

	DAOContract    DAOContractPrm
	MarketContract MarketContractPrm

	// DryRun composes and prices deployment transactions without sending
	// anything to the network.
	DryRun bool
}

// Result groups addresses of the ZeitDAO contracts.
type Result struct {
	DAO    util.Uint160
	Market util.Uint160
}

// Deploy initializes Neo network represented by given Prm.Blockchain as a
// ZeitDAO one. Contract addresses are deterministic in the deployer account
// and contract artifacts, and are returned even in dry run mode.
//
// Deploy detects already deployed contracts and does not redeploy them, so
// it aborts only by context or when a fatal error occurs.
func Deploy(ctx context.Context, prm Prm) (Result, error) {
	var res Result

	l := prm.Logger
	if l == nil {
		l = zap.NewNop()
	}

	if err := prm.DAOContract.Config.Validate(); err != nil {
		return res, fmt.Errorf("invalid DAO configuration: %w", err)
	}

	localActor, err := actor.NewSimple(prm.Blockchain, prm.LocalAccount)
	if err != nil {
		return res, fmt.Errorf("init transaction sender from local account: %w", err)
	}

	mgmt := management.New(localActor)
	sender := prm.LocalAccount.ScriptHash()

	res.DAO = state.CreateContractHash(sender, prm.DAOContract.Common.NEF.Checksum, prm.DAOContract.Common.Manifest.Name)
	res.Market = state.CreateContractHash(sender, prm.MarketContract.Common.NEF.Checksum, prm.MarketContract.Common.Manifest.Name)

	members := make([]any, len(prm.DAOContract.Config.Members))
	for i := range prm.DAOContract.Config.Members {
		members[i] = prm.DAOContract.Config.Members[i]
	}

	err = deployContract(ctx, l, prm.Blockchain, localActor, mgmt, singleDeployPrm{
		name:   "DAO",
		hash:   res.DAO,
		common: prm.DAOContract.Common,
		data:   []any{prm.DAOContract.Config.TradingEnabled, members, common.Version},
		dryRun: prm.DryRun,
	})
	if err != nil {
		return res, fmt.Errorf("deploy DAO contract: %w", err)
	}

	err = deployContract(ctx, l, prm.Blockchain, localActor, mgmt, singleDeployPrm{
		name:   "market",
		hash:   res.Market,
		common: prm.MarketContract.Common,
		data:   []any{res.DAO, common.Version},
		dryRun: prm.DryRun,
	})
	if err != nil {
		return res, fmt.Errorf("deploy market contract: %w", err)
	}

	err = bindMarketContract(ctx, l, prm, res)
	if err != nil {
		return res, fmt.Errorf("bind market contract to the DAO: %w", err)
	}

	return res, nil
}

type singleDeployPrm struct {
	name   string
	hash   util.Uint160
	common CommonDeployPrm
	data   []any
	dryRun bool
}

func deployContract(ctx context.Context, l *zap.Logger, b Blockchain, act *actor.Actor, mgmt *management.Contract, prm singleDeployPrm) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l = l.With(zap.String("contract", prm.name), zap.Stringer("address", prm.hash))

	if _, err := b.GetContractStateByHash(prm.hash); err == nil {
		l.Info("contract is already deployed, skip")
		return nil
	}

	if prm.dryRun {
		tx, err := mgmt.DeployTransaction(&prm.common.NEF, &prm.common.Manifest, prm.data)
		if err != nil {
			return fmt.Errorf("compose contract deployment transaction: %w", err)
		}

		l.Info("dry run: contract deployment transaction is ready, not sending",
			zap.Int64("system fee", tx.SystemFee), zap.Int64("network fee", tx.NetworkFee))
		return nil
	}

	l.Info("sending contract deployment transaction...")

	txID, vub, err := mgmt.Deploy(&prm.common.NEF, &prm.common.Manifest, prm.data)
	if err != nil {
		return fmt.Errorf("send contract deployment transaction: %w", err)
	}

	aer, err := act.Wait(txID, vub, nil)
	if err != nil {
		return fmt.Errorf("wait for contract deployment transaction: %w", err)
	}
	if aer.VMState != vmstate.Halt {
		return fmt.Errorf("contract deployment transaction failed: %s", aer.FaultException)
	}

	l.Info("contract deployed successfully", zap.Stringer("tx", txID))

	return nil
}

func bindMarketContract(ctx context.Context, l *zap.Logger, prm Prm, res Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	daoReader := daorpc.NewReader(invoker.New(prm.Blockchain, nil), res.DAO)

	cur, err := daoReader.MarketContract()
	if err == nil {
		if cur.Equals(res.Market) {
			l.Info("market contract is already bound to the DAO, skip")
			return nil
		}
		return fmt.Errorf("DAO is bound to unexpected market contract %s", cur.StringLE())
	}

	if prm.DryRun {
		l.Info("dry run: market contract binding is needed, not sending")
		return nil
	}

	committeeActor, err := newCommitteeActor(prm.Blockchain, prm.LocalAccount)
	if err != nil {
		return fmt.Errorf("create transaction sender signing on behalf of the committee: %w", err)
	}

	l.Info("sending market contract binding transaction...")

	txID, vub, err := daorpc.New(committeeActor, res.DAO).SetMarketContract(res.Market)
	if err != nil {
		return fmt.Errorf("send market contract binding transaction: %w", err)
	}

	aer, err := committeeActor.Wait(txID, vub, nil)
	if err != nil {
		return fmt.Errorf("wait for market contract binding transaction: %w", err)
	}
	if aer.VMState != vmstate.Halt {
		return fmt.Errorf("market contract binding transaction failed: %s", aer.FaultException)
	}

	l.Info("market contract bound to the DAO successfully", zap.Stringer("tx", txID))

	return nil
}

// newCommitteeActor creates transaction sender signing with both the local
// account and the committee majority multi-signature account built from it.
func newCommitteeActor(b Blockchain, localAcc *wallet.Account) (*actor.Actor, error) {
	committee, err := b.GetCommittee()
	if err != nil {
		return nil, fmt.Errorf("get Neo committee of the network: %w", err)
	}

	multiAcc := wallet.NewAccountFromPrivateKey(localAcc.PrivateKey())
	err = multiAcc.ConvertMultisig(smartcontract.GetMajorityHonestNodeCount(len(committee)), committee)
	if err != nil {
		return nil, fmt.Errorf("compose committee multi-signature account: %w", err)
	}

	return actor.New(b, []actor.SignerAccount{
		{
			Signer: transaction.Signer{
				Account: localAcc.ScriptHash(),
				Scopes:  transaction.CalledByEntry,
			},
			Account: localAcc,
		},
		{
			Signer: transaction.Signer{
				Account: multiAcc.ScriptHash(),
				Scopes:  transaction.CalledByEntry,
			},
			Account: multiAcc,
		},
	})
}
