/*
Package dao implements DAO contract which is deployed to the chain.

DAO contract stores the member set of the organization and lets members come
together to run a permissionless prediction market. Any member can submit a
proposal, members vote for or against it during the voting period, and once a
strict majority of the current member set approves, anyone can execute it.
Membership changes, the DAO-wide trading flag and market openings all go
through proposals; the only administrative entry points left to the committee
are contract updates and the one-time market contract address setup.

Market definition payload is a protobuf message:

	question    LEN    #1, non-empty byte string
	closeBlock  VARINT #2, index of the block the market closes at
	outcomes    VARINT #3, number of outcomes, at least 2

# Contract notifications

NewProposal notification. Thrown when a member submits a proposal.

	NewProposal:
	  - name: id
	    type: Integer
	  - name: proposer
	    type: ByteArray
	  - name: kind
	    type: Integer

Vote notification. Thrown on every recorded vote.

	Vote:
	  - name: id
	    type: Integer
	  - name: member
	    type: ByteArray
	  - name: inFavor
	    type: Boolean

Execution notification. Thrown when a proposal effect is applied.

	Execution:
	  - name: id
	    type: Integer
	  - name: kind
	    type: Integer

MemberAdded/MemberRemoved notifications. Thrown on executed membership
proposals.

	MemberAdded:
	  - name: member
	    type: ByteArray

	MemberRemoved:
	  - name: member
	    type: ByteArray

TradingFlagUpdated notification. Thrown on executed trading flag proposals.

	TradingFlagUpdated:
	  - name: enabled
	    type: Boolean

MarketContractSet notification. Thrown when committee binds the market
contract.

	MarketContractSet:
	  - name: contract
	    type: Hash160
*/
package dao

/*
Contract storage model.

# Summary
Key-value storage format:
 - 'tradingEnabled' -> bool
   DAO-wide trading flag
 - 'members' -> std.Serialize([][]byte)
   member accounts in V2 wallet format, in join order
 - 'lastProposalID' -> int
   number of the latest proposal, starts at 0
 - 'm' -> interop.Hash160
   script hash of the market contract
 - p<2-byte proposal number> -> std.Serialize(Proposal)
   all submitted proposals (here Proposal is a structure defined in current package)
 - v<2-byte proposal number><20-byte member script hash> -> bool
   recorded votes

# Voting
Contract stores one vote per member per proposal. Vote counters are
duplicated inside stored proposals to keep Execute from scanning the vote
space.
*/
