package dao

import (
	"math/big"

	"github.com/zeitdao/zeitdao-contract/contracts/dao/proposalkind"
)

// Possible proposal kinds in [DaoProposal].
var (
	// KindGeneric is used by signal proposals without on-chain effect.
	KindGeneric = big.NewInt(int64(proposalkind.Generic))

	// KindAddMember is used by proposals including a new DAO member.
	KindAddMember = big.NewInt(int64(proposalkind.AddMember))

	// KindRemoveMember is used by proposals excluding a DAO member.
	KindRemoveMember = big.NewInt(int64(proposalkind.RemoveMember))

	// KindSetTradingFlag is used by proposals switching the trading flag.
	KindSetTradingFlag = big.NewInt(int64(proposalkind.SetTradingFlag))

	// KindNewMarket is used by proposals opening a prediction market.
	KindNewMarket = big.NewInt(int64(proposalkind.NewMarket))
)
