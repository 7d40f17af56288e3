package proposalkind

// Type is an enumeration for proposal kinds.
type Type int

// Various proposal kinds.
const (
	// Generic stands for signal proposals that carry an arbitrary payload
	// and have no on-chain effect besides the recorded decision.
	Generic Type = iota

	// AddMember stands for proposals to include a new account into the DAO
	// member set. Payload is the account in V2 wallet format.
	AddMember

	// RemoveMember stands for proposals to exclude an account from the DAO
	// member set. Payload is the account in V2 wallet format.
	RemoveMember

	// SetTradingFlag stands for proposals to switch the DAO-wide trading
	// flag. Payload is a single 0/1 byte.
	SetTradingFlag

	// NewMarket stands for proposals to open a prediction market. Payload
	// is a protobuf-encoded market definition.
	NewMarket
)
