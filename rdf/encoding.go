package rdf

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Type tags shared by the binary codec and the sort-key encoding. Their
// numeric order is the order of the type classes in CompareValues.
const (
	tagNil     byte = 0x01
	tagBNode   byte = 0x02
	tagIRI     byte = 0x03
	tagNumeric byte = 0x04
	tagLiteral byte = 0x05
	tagUnknown byte = 0x06
)

// ErrMalformedValue is returned when decoding truncated or corrupt bytes.
var ErrMalformedValue = errors.New("malformed value encoding")

// EncodeValue appends a self-describing binary encoding of v to dst.
// A nil value is encoded as a single tag byte. Encodings are prefix-free,
// so several can be concatenated and decoded in sequence.
func EncodeValue(dst []byte, v Value) []byte {
	switch val := v.(type) {
	case nil:
		return append(dst, tagNil)
	case BNode:
		dst = append(dst, tagBNode)
		return appendString(dst, string(val))
	case IRI:
		dst = append(dst, tagIRI)
		return appendString(dst, string(val))
	case Literal:
		dst = append(dst, tagLiteral)
		dst = appendString(dst, val.Label)
		dst = appendString(dst, string(val.Datatype))
		dst = appendString(dst, val.Language)
	}
	return dst
}

// DecodeValue decodes one value from the front of b and returns it together
// with the number of bytes consumed.
func DecodeValue(b []byte) (Value, int, error) {
	if len(b) == 0 {
		return nil, 0, ErrMalformedValue
	}
	tag, rest := b[0], b[1:]
	n := 1
	switch tag {
	case tagNil:
		return nil, n, nil
	case tagBNode, tagIRI:
		s, m, err := readString(rest)
		if err != nil {
			return nil, 0, err
		}
		if tag == tagBNode {
			return BNode(s), n + m, nil
		}
		return IRI(s), n + m, nil
	case tagLiteral:
		var parts [3]string
		for i := range parts {
			s, m, err := readString(rest)
			if err != nil {
				return nil, 0, err
			}
			parts[i] = s
			rest = rest[m:]
			n += m
		}
		return Literal{Label: parts[0], Datatype: IRI(parts[1]), Language: parts[2]}, n, nil
	default:
		return nil, 0, fmt.Errorf("%w: unknown tag 0x%02x", ErrMalformedValue, tag)
	}
}

func appendString(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

func readString(b []byte) (string, int, error) {
	length, n := binary.Uvarint(b)
	if n <= 0 || uint64(len(b)-n) < length {
		return "", 0, ErrMalformedValue
	}
	end := n + int(length)
	return string(b[n:end]), end, nil
}

// AppendSortKey appends an order-preserving encoding of v to dst: for any
// a and b, bytes.Compare of their keys has the sign of CompareValues(a, b),
// or its negation when descending is set. Keys are prefix-free, so keys for
// several values can be concatenated to order tuples lexicographically.
func AppendSortKey(dst []byte, v Value, descending bool) []byte {
	start := len(dst)
	switch val := v.(type) {
	case nil:
		dst = append(dst, tagNil)
	case BNode:
		dst = append(dst, tagBNode)
		dst = AppendEscaped(dst, string(val))
	case IRI:
		dst = append(dst, tagIRI)
		dst = AppendEscaped(dst, string(val))
	case Literal:
		if f, ok := val.numeric(); ok {
			dst = append(dst, tagNumeric)
			dst = binary.BigEndian.AppendUint64(dst, orderedFloatBits(f))
			dst = AppendEscaped(dst, string(val.Datatype))
			dst = AppendEscaped(dst, val.Label)
			break
		}
		dst = append(dst, tagLiteral)
		dst = AppendEscaped(dst, val.Label)
		dst = AppendEscaped(dst, string(val.Datatype))
		dst = AppendEscaped(dst, val.Language)
	}
	if descending {
		for i := start; i < len(dst); i++ {
			dst[i] = ^dst[i]
		}
	}
	return dst
}

// AppendEscaped appends s so that the result is prefix-free and sorts like
// s: 0x00 bytes become 0x00 0xFF and the string ends with 0x00 0x01.
func AppendEscaped(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		if s[i] == 0x00 {
			dst = append(dst, 0x00, 0xFF)
			continue
		}
		dst = append(dst, s[i])
	}
	return append(dst, 0x00, 0x01)
}
