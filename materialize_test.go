package pest

import (
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		typ   *Descriptor
		value any
	}{
		{"Int8Min", Int8, int8(math.MinInt8)},
		{"Int16Min", Int16, int16(math.MinInt16)},
		{"Int32Max", Int32, int32(math.MaxInt32)},
		{"Int64Min", Int64, int64(math.MinInt64)},
		{"Uint8Max", Uint8, uint8(math.MaxUint8)},
		{"Uint16Max", Uint16, uint16(math.MaxUint16)},
		{"Uint32Max", Uint32, uint32(math.MaxUint32)},
		{"Uint64Max", Uint64, uint64(math.MaxUint64)},
		{"Float32", Float32, float32(-0.25)},
		{"Float64Inf", Float64, math.Inf(-1)},
		{"True", Bool, true},
		{"False", Bool, false},
		{"Date", Date, time.UnixMilli(1_234_567_890_123)},
		{"EmptyString", String, ""},
		{"Unicode", String, "héllo, 世界 😀"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mirror(t, tc.value, tc.typ)
		})
	}
}

func TestDateTruncatesToMillis(t *testing.T) {
	at := time.Date(2024, 2, 29, 12, 30, 45, 123_456_789, time.UTC)
	v, err := MaterializeAs[time.Time](mustEncode(t, at, Date), Date)
	require.NoError(t, err)
	assert.True(t, at.Truncate(time.Millisecond).Equal(v), "got %v", v)
}

func TestRegExp(t *testing.T) {
	t.Run("FlagsRoundTrip", func(t *testing.T) {
		for _, src := range []string{`a+b`, `(?i)abc`, `(?ms)^x.y$`, `(?U)a+`, `(?i:x)y`} {
			re := regexp.MustCompile(src)
			got, err := MaterializeAs[*regexp.Regexp](mustEncode(t, re, RegExp), RegExp)
			require.NoError(t, err, src)
			assert.Equal(t, re.String(), got.String())
		}
	})

	t.Run("WireText", func(t *testing.T) {
		b := mustEncode(t, regexp.MustCompile(`(?si)a.b`), RegExp)
		assert.Equal(t, "is\x00a.b", string(b[12:]))
	})

	t.Run("UnknownFlagsDropped", func(t *testing.T) {
		b := mustEncode(t, "gim\x00.", String)
		b[0] = byte(IDRegExp)
		re, err := MaterializeAs[*regexp.Regexp](b, RegExp)
		require.NoError(t, err)
		assert.Equal(t, "(?im).", re.String())
	})

	t.Run("Invalid", func(t *testing.T) {
		b := mustEncode(t, "\x00(", String)
		b[0] = byte(IDRegExp)
		_, err := Materialize(b, RegExp)
		assert.ErrorIs(t, err, ErrCorrupt)

		b = mustEncode(t, "no separator", String)
		b[0] = byte(IDRegExp)
		_, err = Materialize(b, RegExp)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("NilRegexp", func(t *testing.T) {
		_, err := Encode((*regexp.Regexp)(nil), RegExp)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})
}

func TestStructRoundTrip(t *testing.T) {
	mirror(t, coord(1.5, -2), Coordinate)
	mirror(t, map[string]any{"home": coord(1, 2), "work": coord(3, 4)}, Locations)
	mirror(t, map[string]any{
		"home": map[string]any{"x": nil, "y": float32(2)},
		"work": map[string]any{"x": float32(5), "y": nil},
	}, LocationsMaybeNoWork)
	mirror(t, map[string]any{
		"home": map[string]any{"x": nil, "y": nil},
		"work": nil,
	}, LocationsMaybeNoWork)
	mirror(t, savedLocation("office", 3, false), SavedLocation)
	mirror(t, map[string]any{"name": "n", "age": int32(40)}, Person)
	mirror(t, map[string]any{"name": "", "age": nil}, Person)
}

func TestArrayRoundTrip(t *testing.T) {
	mirror(t, []any{coord(1, 2), nil, coord(3, 4)}, NullableCoordArray)
	mirror(t, []any{[]any{coord(1, 2)}, nil, []any{}}, NullableCoordArrayArray)
	mirror(t, []any{
		[]any{map[string]any{"home": coord(1, 2), "work": coord(3, 4)}, nil},
		[]any{},
	}, NullableLocations)
	mirror(t, []any{"", "x", "yy"}, Array(String))
	mirror(t, []any{true, false, true}, Array(Bool))

	t.Run("RegExpElements", func(t *testing.T) {
		v, err := MaterializeAs[[]any](mustEncode(t, []any{regexp.MustCompile("(?i)a")}, Array(RegExp)), Array(RegExp))
		require.NoError(t, err)
		require.Len(t, v, 1)
		assert.Equal(t, "(?i)a", v[0].(*regexp.Regexp).String())
	})

	t.Run("TypedSlices", func(t *testing.T) {
		mirror(t, []int8{-1, 0, 1}, Array(Int8))
		mirror(t, []uint16{1, math.MaxUint16}, Array(Uint16))
		mirror(t, []int64{math.MinInt64, 0}, Array(Int64))
		mirror(t, []float64{1.5, 2.5}, Array(Float64))
	})

	t.Run("Nested", func(t *testing.T) {
		v, err := Materialize(mustEncode(t, [][]int32{{1, 2}, {}, {3}}, ArrayN(Int32, 2)), ArrayN(Int32, 2))
		require.NoError(t, err)
		assert.Equal(t, []any{[]int32{1, 2}, []int32{}, []int32{3}}, v)

		deep := ArrayN(String, 3)
		mirror(t, []any{[]any{[]any{"a"}, []any{}}, []any{}}, deep)
	})

	t.Run("Empty", func(t *testing.T) {
		mirror(t, []any{}, Array(String))
		mirror(t, []any{}, Array(Nullable(Coordinate)))
		mirror(t, []int32{}, Array(Int32))
	})
}

func TestFixtureRoundTrip(t *testing.T) {
	t.Run("Map", func(t *testing.T) {
		mirror(t, map[string]any{
			"locations": []any{savedLocation("a", 1, true), savedLocation("b", 2, false)},
			"user":      "someone",
			"default":   savedLocation("c", 3, true),
			"current":   savedLocation("d", 4, false),
		}, Map)
	})

	t.Run("MapSketchyLocations", func(t *testing.T) {
		mirror(t, map[string]any{
			"locations": []any{savedLocation("a", 1, true), nil},
			"user":      "someone",
			"default":   savedLocation("c", 3, true),
			"current":   nil,
		}, MapSketchyLocations)
		mirror(t, map[string]any{
			"locations": nil,
			"user":      "",
			"default":   savedLocation("c", 3, true),
			"current":   savedLocation("d", 4, false),
		}, MapSketchyLocations)
	})

	t.Run("HorseRace", func(t *testing.T) {
		mirror(t, map[string]any{
			"horses": []any{"Seabiscuit", "Secretariat"},
			"times":  []float64{121.4, 119.8},
		}, HorseRace)
	})

	t.Run("HorseRaceSomeHorsesDied", func(t *testing.T) {
		mirror(t, map[string]any{
			"horses": []any{"Seabiscuit", "Secretariat", "Phar Lap"},
			"times":  []any{121.4, nil, 120.0},
		}, HorseRaceSomeHorsesDied)
	})
}

func TestDetach(t *testing.T) {
	for _, v := range []any{nil, 5, "s", true, time.UnixMilli(9)} {
		got, err := Detach(v)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	b := mustEncode(t, savedLocation("x", 1, true), SavedLocation)
	view, err := View(b, SavedLocation)
	require.NoError(t, err)
	detached, err := Detach(view)
	require.NoError(t, err)
	b[len(b)-1] = 'y'
	assert.Equal(t, "x", detached.(map[string]any)["name"])
}

func TestMaterializeAsWrongType(t *testing.T) {
	_, err := MaterializeAs[[]any](mustEncode(t, coord(1, 2), Coordinate), Coordinate)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}
