/*
Package proto implements a protobuf wire format reader executable by the
NeoVM. It is used by the DAO contract to validate binary proposal payloads
(market definitions) without deserializing them into contract structures.
*/
package proto

import (
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
)

// MaxFieldNumber is a maximum field number according to
// https://protobuf.dev/programming-guides/proto3/#assigning.
const MaxFieldNumber = 1<<29 - 1

// All possible field types declared in https://protobuf.dev/programming-guides/encoding/#structure.
const (
	FieldTypeVARINT = iota
	FieldTypeI64
	FieldTypeLEN
	FieldTypeSGROUP
	FieldTypeEGROUP
	FieldTypeI32
	firstUnknownFieldType
)

// inlined math.MaxUint32 to avoid package import.
const maxUint32 = 1<<32 - 1

const errVarintOverflow = "varint overflow"

// StringifyFieldType stringifies given field type.
func StringifyFieldType(typ int) string {
	switch typ {
	case FieldTypeVARINT:
		return "VARINT"
	case FieldTypeI64:
		return "I64"
	case FieldTypeLEN:
		return "LEN"
	case FieldTypeSGROUP:
		return "SGROUP"
	case FieldTypeEGROUP:
		return "EGROUP"
	case FieldTypeI32:
		return "I32"
	default:
		return "UNKNOWN#" + std.Itoa10(typ)
	}
}

// AssertFieldType checks whether field with given number has expected type. If
// not, AssertFieldType panics.
func AssertFieldType(num, got, exp int) {
	if got != exp {
		panic("wrong type of field #" + std.Itoa10(num) + ": expected " +
			StringifyFieldType(exp) + ", got " + StringifyFieldType(got))
	}
}

// ReadTag reads tag of protobuf field from b. Returns field number, type,
// number of bytes read and exception.
func ReadTag(b []byte) (int, int, int, string) {
	n, r, e := uvarint(b)
	if e != "" {
		return 0, 0, 0, e
	}

	num := n >> 3
	if num == 0 || num > MaxFieldNumber {
		return 0, 0, 0, "invalid/unsupported protobuf field num " + std.Itoa10(int(n))
	}

	typ := n & 7
	if typ >= firstUnknownFieldType {
		return 0, 0, 0, "invalid/unsupported protobuf field type " + std.Itoa10(int(typ))
	}

	return int(num), int(typ), r, ""
}

// ReadSizeLEN reads length of nested [FieldTypeLEN] field from b. Returns
// resulting length, number of bytes read and exception.
func ReadSizeLEN(b []byte) (int, int, string) {
	n, r, e := uvarint(b)
	if e != "" {
		return 0, 0, e
	}

	if full := uint64(len(b)); n > full || n > full-uint64(r) {
		return 0, 0, "too big field len " + std.Itoa10(int(n)) + ", full " + std.Itoa10(len(b))
	}

	return int(n), r, ""
}

// ReadUint32 reads protobuf field of uint32 type. Returns field value, number
// of bytes read and exception.
func ReadUint32(b []byte) (uint32, int, string) {
	n, r, e := uvarint(b)
	if e != "" {
		return 0, 0, e
	}

	if n > maxUint32 {
		return 0, 0, std.Itoa10(int(n)) + " overflows uint32"
	}

	return uint32(n), r, ""
}

func uvarint(buf []byte) (uint64, int, string) {
	const maxVarintLen = 10
	var x uint64
	var s uint
	for i, b := range buf {
		if i == maxVarintLen {
			// Catch byte reads past maxVarintLen.
			// See issue https://golang.org/issues/41185
			return 0, 0, errVarintOverflow
		}
		if b < 0x80 {
			if i == maxVarintLen-1 && b > 1 {
				return 0, 0, errVarintOverflow
			}
			return x | uint64(b)<<s, i + 1, ""
		}
		x = x | uint64(b&0x7f)<<s
		s += 7
	}
	return 0, 0, "truncated varint"
}
