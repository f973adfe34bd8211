package rdf

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// HashValue returns an xxhash of v's type and components. Equal terms hash
// equally; a nil value hashes to a fixed constant.
func HashValue(v Value) uint64 {
	d := xxhash.New()
	switch val := v.(type) {
	case nil:
		d.Write([]byte{tagNil})
	case BNode:
		d.Write([]byte{tagBNode})
		d.WriteString(string(val))
	case IRI:
		d.Write([]byte{tagIRI})
		d.WriteString(string(val))
	case Literal:
		// Components are zero-separated so that ("ab", "c") and ("a", "bc")
		// differ.
		d.Write([]byte{tagLiteral})
		d.WriteString(val.Label)
		d.Write([]byte{0})
		d.WriteString(string(val.Datatype))
		d.Write([]byte{0})
		d.WriteString(val.Language)
	}
	return d.Sum64()
}

// HashCombine folds another hash into h. The result depends on the order
// in which hashes are folded.
func HashCombine(h, next uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], h)
	binary.LittleEndian.PutUint64(buf[8:], next)
	return xxhash.Sum64(buf[:])
}

// HashSeed is the value to start a combined hash from.
func HashSeed() uint64 { return xxhash.Sum64(nil) }
