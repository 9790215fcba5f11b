package pest

import (
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeight(t *testing.T) {
	tests := []struct {
		name  string
		typ   *Descriptor
		value any
		want  float64
	}{
		{"IntegralFloat", Int8, 3.0, 1},
		{"FractionNotInteger", Int8, 3.5, 0},
		{"OutOfRange", Int8, 300, 0},
		{"NegativeNotUnsigned", Uint32, -1, 0},
		{"FloatTakesAnyNumber", Float32, int64(1 << 40), 1},
		{"NullableNumber", Nullable(Int16), int16(-2), 1},
		{"NumberFromUint", Float64, uint16(2), 1},
		{"StringIsNotNumber", Int32, "1", 0},
		{"Bool", Bool, false, 1},
		{"Date", Date, time.UnixMilli(0), 1},
		{"RegExp", RegExp, regexp.MustCompile("a"), 1},
		{"NilNotString", String, nil, 0},
		{"NullableNil", Nullable(String), nil, 1},
		{"NullableValue", Nullable(String), "s", 1},
		{"NullableWrong", Nullable(String), 1, 0},
		{"StructExact", Coordinate, coord(1, 2), 1},
		{"StructExtraKeys", Coordinate, map[string]any{"x": 1, "y": 2, "z": 3}, 2.0 / 3.0},
		{"StructMissingRequired", Coordinate, map[string]any{"x": 1}, 0},
		{"StructWrongField", Coordinate, map[string]any{"x": 1, "y": "2"}, 0},
		{"StructNotRecord", Coordinate, []any{1, 2}, 0},
		{"StructAbsentNullableNotCounted", Person, map[string]any{"name": "a"}, 1},
		{"AllNullableFallback", NullableCoordinate, map[string]any{"x": 1, "y": 2}, allOptionalWeight},
		{"AllNullableEmpty", NullableCoordinate, map[string]any{}, allOptionalWeight},
		{"EmptyArray", Array(Int32), []any{}, 1},
		{"ArrayProbesFirst", Array(Int32), []any{1, "not checked"}, 1},
		{"ArrayFirstWrong", Array(Int32), []any{"a", 1}, 0},
		{"ArrayNotSequence", Array(Int32), "abc", 0},
		{"TypedSlice", Array(Float32), []float32{1}, 1},
		{"UnionMax", PrimitiveUnion, true, 1},
		{"LiteralEqual", Literal("GET"), "GET", 1},
		{"LiteralNumeric", Literal(1), int8(1), 1},
		{"LiteralDiffers", Literal(1), 2, 0},
		{"LiteralNull", Literal(nil), nil, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Weight(tc.typ, tc.value), 1e-9)
		})
	}
}

// tagOf encodes v as the union u and returns the selected member index.
func tagOf(t *testing.T, v any, u *Descriptor) int {
	t.Helper()
	b := mustEncode(t, v, u)
	require.Greater(t, len(b), headerSize)
	return int(b[headerSize])
}

func TestUnionBestMatch(t *testing.T) {
	t.Run("MoreSpecificStructWins", func(t *testing.T) {
		u := Union(Coordinate, Coordinate3D)
		xyz := map[string]any{"x": float32(1), "y": float32(2), "z": float32(3)}
		assert.Equal(t, 1, tagOf(t, xyz, u))
		assert.Equal(t, 0, tagOf(t, coord(1, 2), u))
	})

	t.Run("TiesGoToFirstDeclared", func(t *testing.T) {
		u := Union(Coordinate, NullableCoordinate3D)
		assert.Equal(t, 0, tagOf(t, coord(1, 2), u))
		xyz := map[string]any{"x": float32(1), "y": float32(2), "z": float32(3)}
		assert.Equal(t, 1, tagOf(t, xyz, u))

		swapped := Union(NullableCoordinate3D, Coordinate)
		assert.Equal(t, 0, tagOf(t, coord(1, 2), swapped))
	})

	t.Run("Primitives", func(t *testing.T) {
		assert.Equal(t, 0, tagOf(t, int32(5), PrimitiveUnion))
		assert.Equal(t, 1, tagOf(t, "hi", PrimitiveUnion))
		assert.Equal(t, 2, tagOf(t, true, PrimitiveUnion))
		assert.Equal(t, 3, tagOf(t, coord(1, 2), MixedUnion))
	})

	t.Run("NullLiteralMember", func(t *testing.T) {
		u := Union(Literal(nil), String)
		b := mustEncode(t, nil, u)
		assert.Len(t, b, headerSize+1)
		v, err := Materialize(b, u)
		require.NoError(t, err)
		assert.Nil(t, v)
		assert.Equal(t, 1, tagOf(t, "s", u))
	})

	t.Run("NumericRange", func(t *testing.T) {
		u := Union(Int32, Int64)
		assert.Equal(t, 0, tagOf(t, int64(7), u))
		assert.Equal(t, 1, tagOf(t, int64(1<<40), u))
		v, err := Materialize(mustEncode(t, int64(1<<40), u), u)
		require.NoError(t, err)
		assert.Equal(t, int64(1<<40), v)

		_, err = Encode(uint64(math.MaxUint64), u)
		assert.ErrorIs(t, err, ErrNoUnionMatch)
	})

	t.Run("FractionSelectsFloat", func(t *testing.T) {
		u := Union(Int32, Float64)
		assert.Equal(t, 0, tagOf(t, 2, u))
		assert.Equal(t, 1, tagOf(t, 2.5, u))
		v, err := Materialize(mustEncode(t, 2.5, u), u)
		require.NoError(t, err)
		assert.Equal(t, 2.5, v)
	})

	t.Run("FixedSizeMembers", func(t *testing.T) {
		u := Union(Int32, Float32)
		b := mustEncode(t, int32(7), u)
		assert.Len(t, b, headerSize+int(u.Size()))
	})
}

func TestUnionDecode(t *testing.T) {
	mirror(t, "POST", Method)
	mirror(t, "hi", PrimitiveUnion)
	mirror(t, coord(1, 2), MixedUnion)
	mirror(t, []any{int32(1), "s", nil, true, coord(3, 4)}, NullableUnionArray)

	t.Run("InvalidTag", func(t *testing.T) {
		b := mustEncode(t, "GET", Method)
		b[headerSize] = 9
		_, err := Materialize(b, Method)
		assert.ErrorIs(t, err, ErrCorrupt)
		_, err = View(b, Method)
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}
