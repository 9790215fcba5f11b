package pest

import (
	"reflect"
	"regexp"
	"time"
)

// allOptionalWeight is the score of a struct whose fields are all nullable: any
// record fits it, but only as a last resort.
const allOptionalWeight = 0.01

// Weight scores how well v fits d, in [0, 1]. The encoder uses it to pick a
// union member; 0 means v cannot be encoded as d.
//
// Arrays are probed by their first element only, and struct scores are
// diluted by keys the struct does not declare.
func Weight(d *Descriptor, v any) float64 {
	if d.nullable && v == nil {
		return 1
	}
	switch d.kind {
	case KindPrimitive:
		return primitiveWeight(d.primID(), v)
	case KindStruct:
		return structWeight(d, v)
	case KindArray:
		s, ok := asSequence(v)
		if !ok {
			return 0
		}
		if s.Len() == 0 {
			return 1
		}
		first, err := s.At(0)
		if err != nil {
			return 0
		}
		return Weight(d.element, first)
	case KindUnion:
		var best float64
		for _, m := range d.members {
			best = max(best, Weight(m, v))
		}
		return best
	case KindLiteral:
		if literalEqual(d.literal, v) {
			return 1
		}
	}
	return 0
}

func primitiveWeight(id int32, v any) float64 {
	var ok bool
	switch id {
	case IDBool:
		_, ok = v.(bool)
	case IDDate:
		_, ok = v.(time.Time)
	case IDString:
		_, ok = v.(string)
	case IDRegExp:
		re, isRe := v.(*regexp.Regexp)
		ok = isRe && re != nil
	default:
		ok = fitsNumber(id, v)
	}
	if ok {
		return 1
	}
	return 0
}

// fitsNumber reports whether v is a Go number the numeric primitive id can
// hold exactly. Floats take any number.
func fitsNumber(id int32, v any) bool {
	var err error
	switch id {
	case IDInt8:
		_, err = signedOf[int8](v)
	case IDInt16:
		_, err = signedOf[int16](v)
	case IDInt32:
		_, err = signedOf[int32](v)
	case IDInt64:
		_, err = signedOf[int64](v)
	case IDUint8:
		_, err = unsignedOf[uint8](v)
	case IDUint16:
		_, err = unsignedOf[uint16](v)
	case IDUint32:
		_, err = unsignedOf[uint32](v)
	case IDUint64:
		_, err = unsignedOf[uint64](v)
	default:
		return isNumber(v)
	}
	return err == nil
}

func structWeight(d *Descriptor, v any) float64 {
	r, ok := asRecord(v)
	if !ok {
		return 0
	}
	if allNullable(d.declared) {
		return allOptionalWeight
	}
	var score float64
	for _, f := range d.declared {
		fv, present, err := r.lookup(f.Name)
		if err != nil {
			return 0
		}
		w := Weight(f.Type, fv)
		if w == 0 {
			return 0
		}
		// absent nullable fields fit but do not count toward the score
		if present {
			score += w
		}
	}
	keys := r.numKeys()
	if keys == 0 {
		return 1
	}
	return score / float64(keys)
}

func allNullable(fields []Field) bool {
	for _, f := range fields {
		if !f.Type.nullable {
			return false
		}
	}
	return true
}

// literalEqual compares numbers by value and everything else structurally.
func literalEqual(lit, v any) bool {
	if a, ok := float64Of(lit); ok {
		b, ok := float64Of(v)
		return ok && a == b
	}
	return reflect.DeepEqual(lit, v)
}
