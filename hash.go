package pest

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"unicode/utf16"

	"github.com/zeebo/blake3"
)

// arrayDomainKey separates array id derivation from any other keyed hash.
var arrayDomainKey = [32]byte{
	'p', 'e', 's', 't', '.', 'a', 'r', 'r', 'a', 'y', 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// stringHash is the 31-polynomial rolling hash over the UTF-16 code units of s,
// wrapping at 32 bits.
func stringHash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return h
}

func structID(fields []Field) int32 {
	var h int32
	for _, f := range fields {
		h = h*31 + (stringHash(f.Name) ^ f.Type.id)
	}
	return h
}

func unionID(members []*Descriptor) int32 {
	var h int32
	for _, m := range members {
		h = h*31 + m.id
	}
	return h
}

// arrayID derives the id of an array from the id of its element. Nested arrays
// apply it once per level, so depth is part of the result without the
// collisions that adding the depth to the element id would produce.
func arrayID(elem int32) int32 {
	hasher, err := blake3.NewKeyed(arrayDomainKey[:])
	if err != nil {
		panic("pest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	var in [4]byte
	binary.LittleEndian.PutUint32(in[:], uint32(elem))
	hasher.Write(in[:])
	sum := hasher.Sum(nil)
	return int32(binary.LittleEndian.Uint32(sum))
}

func literalID(v any) (int32, error) {
	text, err := jsonText(v)
	if err != nil {
		return 0, err
	}
	return stringHash(text), nil
}

// jsonText renders v as compact JSON without HTML escaping.
func jsonText(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
