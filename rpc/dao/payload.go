package dao

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Market definition payload field numbers and wire types. They must stay in
// sync with the on-chain payload reader of the DAO contract.
const (
	fieldQuestion   = 1
	fieldCloseBlock = 2
	fieldOutcomes   = 3

	wireVarint = 0
	wireLEN    = 2
)

// MarketDefinition is a client-side representation of the NewMarket proposal
// payload.
type MarketDefinition struct {
	// Arbitrary question bytes, interpretation is up to the DAO.
	Question []byte

	// Index of the block the market closes at.
	CloseBlock uint32

	// Number of outcomes, at least 2.
	Outcomes uint32
}

// MarshalPayload encodes market definition into the binary payload accepted
// by `newProposal` method of the DAO contract for market proposals.
func (d MarketDefinition) MarshalPayload() ([]byte, error) {
	if len(d.Question) == 0 {
		return nil, errors.New("empty question")
	}
	if d.Outcomes < 2 {
		return nil, errors.New("at least two outcomes required")
	}
	if d.CloseBlock == 0 {
		return nil, errors.New("missing close block")
	}

	b := make([]byte, 0, 2+len(d.Question)+12)
	b = append(b, fieldQuestion<<3|wireLEN)
	b = binary.AppendUvarint(b, uint64(len(d.Question)))
	b = append(b, d.Question...)
	b = append(b, fieldCloseBlock<<3|wireVarint)
	b = binary.AppendUvarint(b, uint64(d.CloseBlock))
	b = append(b, fieldOutcomes<<3|wireVarint)
	b = binary.AppendUvarint(b, uint64(d.Outcomes))

	return b, nil
}

// UnmarshalPayload decodes market definition from the binary payload stored
// in a market proposal.
func (d *MarketDefinition) UnmarshalPayload(b []byte) error {
	*d = MarketDefinition{}

	for len(b) > 0 {
		tag, n := binary.Uvarint(b)
		if n <= 0 {
			return errors.New("invalid field tag")
		}
		b = b[n:]

		num, typ := tag>>3, tag&7
		switch num {
		case fieldQuestion:
			if typ != wireLEN {
				return fmt.Errorf("wrong type of field #%d", num)
			}
			ln, n := binary.Uvarint(b)
			if n <= 0 || ln > uint64(len(b)-n) {
				return errors.New("invalid question length")
			}
			b = b[n:]
			d.Question = b[:ln]
			b = b[ln:]
		case fieldCloseBlock, fieldOutcomes:
			if typ != wireVarint {
				return fmt.Errorf("wrong type of field #%d", num)
			}
			v, n := binary.Uvarint(b)
			if n <= 0 {
				return errors.New("invalid varint field")
			}
			b = b[n:]
			if num == fieldCloseBlock {
				d.CloseBlock = uint32(v)
			} else {
				d.Outcomes = uint32(v)
			}
		default:
			return fmt.Errorf("unexpected field #%d", num)
		}
	}

	if len(d.Question) == 0 {
		return errors.New("empty question")
	}
	if d.Outcomes < 2 {
		return errors.New("at least two outcomes required")
	}
	if d.CloseBlock == 0 {
		return errors.New("missing close block")
	}

	return nil
}
