package fleetcfg

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealrounds/cartsync/internal/cart"
)

func compileFleet(t *testing.T, src string) ([]cart.Cart, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return Compile(v)
}

func TestCompile_ValidFleet(t *testing.T) {
	fleet, err := compileFleet(t, `
fleet: carts: [
	{id: 1, name: "chir A", floor: 1, state: "kitchen", active: true},
	{id: 2, name: "Urgence", floor: 0, state: "service", active: false},
]
`)
	require.NoError(t, err)
	require.Len(t, fleet, 2)

	assert.Equal(t, cart.Cart{ID: 1, Name: "chir A", Floor: 1, State: cart.StateKitchen, Active: true}, fleet[0])
	assert.Equal(t, cart.Cart{ID: 2, Name: "Urgence", Floor: 0, State: cart.StateService, Active: false}, fleet[1])
}

func TestCompile_MissingFleet(t *testing.T) {
	_, err := compileFleet(t, `other: 1`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fleet.carts not found")
}

func TestCompile_EmptyFleet(t *testing.T) {
	_, err := compileFleet(t, `fleet: carts: []`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestCompile_RejectsBadCarts(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			"non-positive id",
			`fleet: carts: [{id: 0, name: "A", floor: 1, state: "kitchen", active: true}]`,
			"id must be positive",
		},
		{
			"blank name",
			`fleet: carts: [{id: 1, name: "  ", floor: 1, state: "kitchen", active: true}]`,
			"name is required",
		},
		{
			"negative floor",
			`fleet: carts: [{id: 1, name: "A", floor: -1, state: "kitchen", active: true}]`,
			"floor must be >= 0",
		},
		{
			"unknown state",
			`fleet: carts: [{id: 1, name: "A", floor: 1, state: "garage", active: true}]`,
			"state must be",
		},
		{
			"duplicate id",
			`fleet: carts: [
				{id: 1, name: "A", floor: 1, state: "kitchen", active: true},
				{id: 1, name: "B", floor: 2, state: "service", active: true},
			]`,
			"duplicate cart id 1",
		},
		{
			"duplicate name",
			`fleet: carts: [
				{id: 1, name: "Mat", floor: 1, state: "kitchen", active: true},
				{id: 2, name: "Mat", floor: 2, state: "service", active: true},
			]`,
			"duplicate cart name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileFleet(t, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCompile_DuplicateNameAcrossCompositionForms(t *testing.T) {
	// "Privé" with a precomposed é versus e plus combining acute. Editors
	// disagree on which form they write; both must count as the same name.
	_, err := compileFleet(t, `
fleet: carts: [
	{id: 1, name: "Privé", floor: 3, state: "kitchen", active: true},
	{id: 2, name: "Privé", floor: 3, state: "kitchen", active: true},
]
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate cart name")
}

func TestLoad_FromDirectory(t *testing.T) {
	dir := t.TempDir()
	src := `fleet: carts: [
	{id: 1, name: "chir A", floor: 1, state: "kitchen", active: true},
	{id: 2, name: "Med A", floor: 1, state: "service", active: true},
]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fleet.cue"), []byte(src), 0o644))

	fleet, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, fleet, 2)
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoad_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "fleet.cue")
	require.NoError(t, os.WriteFile(file, []byte("fleet: carts: []"), 0o644))

	_, err := Load(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}
