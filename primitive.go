package pest

import (
	"encoding/binary"
	"math"
	"regexp"
	"strings"
	"time"
	"unsafe"
)

// segment is the input of a decode: the message bytes plus view options.
type segment struct {
	b             []byte
	unsafeStrings bool
}

func (s *segment) span(at, n int) ([]byte, error) {
	if at < 0 || n < 0 || at > len(s.b) || n > len(s.b)-at {
		return nil, corrupt("%d bytes at offset %d overrun %d byte buffer", n, at, len(s.b))
	}
	return s.b[at : at+n], nil
}

func (s *segment) u8(at int) (byte, error) {
	p, err := s.span(at, 1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (s *segment) u32(at int) (uint32, error) {
	p, err := s.span(at, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

func (s *segment) u64(at int) (uint64, error) {
	p, err := s.span(at, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

// bit reports whether bit i of the bitmap starting at at is set.
func (s *segment) bit(at, i int) (bool, error) {
	b, err := s.u8(at + i>>3)
	if err != nil {
		return false, err
	}
	return b&(1<<(i&7)) != 0, nil
}

func (s *segment) str(at int, alias bool) (string, error) {
	n, err := s.u32(at)
	if err != nil {
		return "", err
	}
	p, err := s.span(at+4, int(n))
	if err != nil {
		return "", err
	}
	if alias && n > 0 {
		return unsafe.String(&p[0], len(p)), nil
	}
	return string(p), nil
}

func fixedEncoder(size int, put func(p []byte, v any) error) encodeFunc {
	return func(w *buffer, ptr int, v any) (int, error) {
		w.reserve(ptr, size)
		if err := put(w.b[ptr:ptr+size], v); err != nil {
			return ptr, err
		}
		return ptr + size, nil
	}
}

func primitiveEncoder(id int32) encodeFunc {
	le := binary.LittleEndian
	switch id {
	case IDInt8:
		return fixedEncoder(1, func(p []byte, v any) error {
			x, err := signedOf[int8](v)
			p[0] = byte(x)
			return err
		})
	case IDInt16:
		return fixedEncoder(2, func(p []byte, v any) error {
			x, err := signedOf[int16](v)
			le.PutUint16(p, uint16(x))
			return err
		})
	case IDInt32:
		return fixedEncoder(4, func(p []byte, v any) error {
			x, err := signedOf[int32](v)
			le.PutUint32(p, uint32(x))
			return err
		})
	case IDInt64:
		return fixedEncoder(8, func(p []byte, v any) error {
			x, err := signedOf[int64](v)
			le.PutUint64(p, uint64(x))
			return err
		})
	case IDUint8:
		return fixedEncoder(1, func(p []byte, v any) error {
			x, err := unsignedOf[uint8](v)
			p[0] = x
			return err
		})
	case IDUint16:
		return fixedEncoder(2, func(p []byte, v any) error {
			x, err := unsignedOf[uint16](v)
			le.PutUint16(p, x)
			return err
		})
	case IDUint32:
		return fixedEncoder(4, func(p []byte, v any) error {
			x, err := unsignedOf[uint32](v)
			le.PutUint32(p, x)
			return err
		})
	case IDUint64:
		return fixedEncoder(8, func(p []byte, v any) error {
			x, err := unsignedOf[uint64](v)
			le.PutUint64(p, x)
			return err
		})
	case IDFloat32:
		return fixedEncoder(4, func(p []byte, v any) error {
			x, err := floatOf[float32](v)
			le.PutUint32(p, math.Float32bits(x))
			return err
		})
	case IDFloat64:
		return fixedEncoder(8, func(p []byte, v any) error {
			x, err := floatOf[float64](v)
			le.PutUint64(p, math.Float64bits(x))
			return err
		})
	case IDBool:
		return fixedEncoder(1, func(p []byte, v any) error {
			b, ok := v.(bool)
			if !ok {
				return invalid(v, "bool")
			}
			if b {
				p[0] = 1
			}
			return nil
		})
	case IDDate:
		return fixedEncoder(8, func(p []byte, v any) error {
			t, ok := v.(time.Time)
			if !ok {
				return invalid(v, "time.Time")
			}
			le.PutUint64(p, math.Float64bits(float64(t.UnixMilli())))
			return nil
		})
	case IDString:
		return func(w *buffer, ptr int, v any) (int, error) {
			s, ok := v.(string)
			if !ok {
				return ptr, invalid(v, "string")
			}
			return putString(w, ptr, s)
		}
	case IDRegExp:
		return func(w *buffer, ptr int, v any) (int, error) {
			re, ok := v.(*regexp.Regexp)
			if !ok || re == nil {
				return ptr, invalid(v, "*regexp.Regexp")
			}
			return putString(w, ptr, regexpText(re))
		}
	}
	panic("pest: unknown primitive id")
}

func putString(w *buffer, ptr int, s string) (int, error) {
	if uint64(len(s)) > math.MaxUint32 {
		return ptr, overflow(len(s), "u32 string length")
	}
	w.reserve(ptr, 4+len(s))
	w.putUint32(ptr, uint32(len(s)))
	return ptr + 4 + copy(w.b[ptr+4:], s), nil
}

// primitiveDecoder reads one primitive. Strings alias the input when the
// segment asks for it and view is set.
func primitiveDecoder(id int32, view bool) decodeFunc {
	switch id {
	case IDInt8:
		return func(s *segment, ptr int) (any, error) {
			b, err := s.u8(ptr)
			return int8(b), err
		}
	case IDUint8:
		return func(s *segment, ptr int) (any, error) {
			return s.u8(ptr)
		}
	case IDInt16, IDUint16:
		return func(s *segment, ptr int) (any, error) {
			p, err := s.span(ptr, 2)
			if err != nil {
				return nil, err
			}
			x := binary.LittleEndian.Uint16(p)
			if id == IDInt16 {
				return int16(x), nil
			}
			return x, nil
		}
	case IDInt32, IDUint32, IDFloat32:
		return func(s *segment, ptr int) (any, error) {
			x, err := s.u32(ptr)
			if err != nil {
				return nil, err
			}
			switch id {
			case IDInt32:
				return int32(x), nil
			case IDFloat32:
				return math.Float32frombits(x), nil
			}
			return x, nil
		}
	case IDInt64, IDUint64, IDFloat64:
		return func(s *segment, ptr int) (any, error) {
			x, err := s.u64(ptr)
			if err != nil {
				return nil, err
			}
			switch id {
			case IDInt64:
				return int64(x), nil
			case IDFloat64:
				return math.Float64frombits(x), nil
			}
			return x, nil
		}
	case IDBool:
		return func(s *segment, ptr int) (any, error) {
			b, err := s.u8(ptr)
			return b != 0, err
		}
	case IDDate:
		return func(s *segment, ptr int) (any, error) {
			x, err := s.u64(ptr)
			if err != nil {
				return nil, err
			}
			ms := math.Float64frombits(x)
			if math.IsNaN(ms) || math.IsInf(ms, 0) {
				return time.Time{}, nil
			}
			return time.UnixMilli(int64(ms)), nil
		}
	case IDString:
		return func(s *segment, ptr int) (any, error) {
			return s.str(ptr, view && s.unsafeStrings)
		}
	case IDRegExp:
		return func(s *segment, ptr int) (any, error) {
			text, err := s.str(ptr, false)
			if err != nil {
				return nil, err
			}
			return parseRegexp(text)
		}
	}
	panic("pest: unknown primitive id")
}

// wireFlags are the flags shared by the wire convention and Go inline flag
// groups, in canonical order.
const wireFlags = "ims"

// regexpText renders re as "<flags>\x00<source>". A leading inline flag
// group made only of i, m and s becomes the flags.
func regexpText(re *regexp.Regexp) string {
	src := re.String()
	flags := ""
	if rest, ok := strings.CutPrefix(src, "(?"); ok {
		if end := strings.IndexByte(rest, ')'); end > 0 {
			group := rest[:end]
			if strings.Trim(group, wireFlags) == "" {
				for _, f := range wireFlags {
					if strings.ContainsRune(group, f) {
						flags += string(f)
					}
				}
				src = rest[end+1:]
			}
		}
	}
	return flags + "\x00" + src
}

// parseRegexp is the inverse of regexpText. Flags without a Go equivalent
// (g, y, u, d, v) do not change matching and are dropped.
func parseRegexp(text string) (*regexp.Regexp, error) {
	flags, src, ok := strings.Cut(text, "\x00")
	if !ok {
		return nil, corrupt("regexp without flag separator")
	}
	var inline strings.Builder
	for _, f := range wireFlags {
		if strings.ContainsRune(flags, f) {
			inline.WriteRune(f)
		}
	}
	if inline.Len() > 0 {
		src = "(?" + inline.String() + ")" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, corrupt("regexp: %v", err)
	}
	return re, nil
}
