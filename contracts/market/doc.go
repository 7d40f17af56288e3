/*
Package market implements the prediction market contract ruled by the DAO
contract.

Markets are opened only by the DAO contract executing approved market
proposals. While a market is open, anyone stakes GAS on an outcome by
transferring it to the contract with the market number and the outcome
attached as transfer data. Once the market close block is reached, committee
acting as the oracle records the winning outcome, and winners claim their
proportional share of the whole market pool. If nobody backed the winning
outcome, the market is void and every staked amount can be reclaimed by its
owner.

# Contract notifications

NewMarket notification. Thrown when the DAO opens a market.

	NewMarket:
	  - name: id
	    type: Integer
	  - name: proposal
	    type: Integer
	  - name: closeBlock
	    type: Integer

Stake notification. Thrown on every accepted stake.

	Stake:
	  - name: id
	    type: Integer
	  - name: from
	    type: Hash160
	  - name: outcome
	    type: Integer
	  - name: amount
	    type: Integer

Resolve notification. Thrown when the oracle records the winning outcome.

	Resolve:
	  - name: id
	    type: Integer
	  - name: winner
	    type: Integer

Payout notification. Thrown on every claim.

	Payout:
	  - name: id
	    type: Integer
	  - name: bettor
	    type: ByteArray
	  - name: amount
	    type: Integer
*/
package market

/*
Contract storage model.

# Summary
Key-value storage format:
 - 'd' -> interop.Hash160
   script hash of the DAO contract
 - 'lastMarketID' -> int
   number of the latest market, starts at 0
 - m<2-byte market number> -> std.Serialize(Market)
   all opened markets (here Market is a structure defined in current package)
 - o<2-byte market number><1-byte outcome> -> int
   total amount staked on the outcome
 - s<2-byte market number><1-byte outcome><20-byte account script hash> -> int
   unclaimed stake of the account

# Accounting
Stake and outcome pool records only grow while the market is open. After
resolution stake records are deleted as they are claimed; market total pool
and outcome pools are kept for payout math and history.
*/
