package deploy

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/zeitdao/zeitdao-contract/common"
)

// DAOConfiguration represents initial DAO settings passed to the contract
// constructor.
type DAOConfiguration struct {
	// Initial value of the DAO-wide trading flag.
	TradingEnabled bool

	// Initial member set, accounts in V2 wallet format. Must be non-empty
	// and duplicate-free.
	Members [][]byte
}

// Validate checks the configuration to be a valid constructor input.
func (x DAOConfiguration) Validate() error {
	if len(x.Members) == 0 {
		return errors.New("at least one member required")
	}

	seen := make(map[string]struct{}, len(x.Members))
	for i := range x.Members {
		if len(x.Members[i]) != common.WalletBytesLen {
			return fmt.Errorf("invalid member #%d: wrong length %d", i, len(x.Members[i]))
		}
		if _, ok := seen[string(x.Members[i])]; ok {
			return fmt.Errorf("duplicate member #%d", i)
		}
		seen[string(x.Members[i])] = struct{}{}
	}

	return nil
}

// MemberFromAddress converts Neo address into an account in V2 wallet format
// accepted by the DAO contract.
func MemberFromAddress(s string) ([]byte, error) {
	// Checksum and version are verified by the address decoder, raw base58
	// payload is exactly the wallet bytes.
	if _, err := address.StringToUint160(s); err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	return base58.Decode(s)
}

// MemberToAddress converts an account in V2 wallet format into Neo address.
func MemberToAddress(member []byte) (string, error) {
	if len(member) != common.WalletBytesLen {
		return "", fmt.Errorf("wrong length %d", len(member))
	}

	u, err := util.Uint160DecodeBytesBE(member[1 : len(member)-4])
	if err != nil {
		return "", err
	}

	return address.Uint160ToString(u), nil
}
