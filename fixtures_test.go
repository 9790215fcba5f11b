package pest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Shared descriptors ---

var (
	Coordinate = Struct(
		F("x", Float32),
		F("y", Float32),
	)

	Coordinate3D = Struct(
		F("x", Float32),
		F("y", Float32),
		F("z", Float32),
	)

	NullableCoordinate3D = Struct(
		F("x", Float32),
		F("y", Float32),
		F("z", Nullable(Float32)),
	)

	Locations = Struct(
		F("home", Coordinate),
		F("work", Coordinate),
	)

	NullableCoordinate = Struct(
		F("x", Nullable(Float32)),
		F("y", Nullable(Float32)),
	)

	LocationsMaybeNoWork = Struct(
		F("home", NullableCoordinate),
		F("work", Nullable(NullableCoordinate)),
	)

	NullableCoordArrayArray = Array(Nullable(Array(Coordinate)))
	NullableCoordArray      = Array(Nullable(Coordinate))
	NullableLocations       = ArrayN(Nullable(Locations), 2)

	SavedLocation = Struct(
		F("name", String),
		F("importance", Int32),
		F("coord", Coordinate),
		F("starred", Bool),
		F("saved_at", Date),
	)

	Map = Struct(
		F("locations", Array(SavedLocation)),
		F("user", String),
		F("default", SavedLocation),
		F("current", SavedLocation),
	)

	MapSketchyLocations = Struct(
		F("locations", Nullable(Array(Nullable(SavedLocation)))),
		F("user", String),
		F("default", SavedLocation),
		F("current", Nullable(SavedLocation)),
	)

	HorseRace = Struct(
		F("horses", Array(String)),
		F("times", Array(Float64)),
	)

	HorseRaceSomeHorsesDied = Struct(
		F("horses", Array(String)),
		F("times", Array(Nullable(Float64))),
	)

	Person = Struct(
		F("name", String),
		F("age", Nullable(Int32)),
	)

	Method = Enum("GET", "POST", "PUT")

	PrimitiveUnion     = Union(Int32, String, Bool)
	MixedUnion         = Union(Int32, String, Bool, Coordinate)
	NullableUnionArray = Array(Nullable(MixedUnion))
)

// --- Helpers ---

func coord(x, y float32) map[string]any { return map[string]any{"x": x, "y": y} }

func savedLocation(name string, importance int32, starred bool) map[string]any {
	return map[string]any{
		"name":       name,
		"importance": importance,
		"coord":      coord(float32(importance), -1),
		"starred":    starred,
		"saved_at":   time.UnixMilli(1_700_000_000_000 + int64(importance)),
	}
}

func mustEncode(t testing.TB, v any, d *Descriptor) []byte {
	t.Helper()
	b, err := Encode(v, d)
	require.NoError(t, err)
	return b
}

// mirror checks that v survives Encode followed by Materialize, by View plus
// Detach, and a second encode of the materialized value.
func mirror(t *testing.T, v any, d *Descriptor) {
	t.Helper()
	b := mustEncode(t, v, d)

	m, err := Materialize(b, d)
	require.NoError(t, err)
	assert.Equal(t, v, m, "materialize")

	view, err := View(b, d)
	require.NoError(t, err)
	detached, err := Detach(view)
	require.NoError(t, err)
	assert.Equal(t, v, detached, "view")

	again, err := Materialize(mustEncode(t, m, d), d)
	require.NoError(t, err)
	assert.Equal(t, v, again, "re-encode")
}
