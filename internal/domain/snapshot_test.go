package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCart_RoundTrip(t *testing.T) {
	cart := Cart{
		{ID: "2", Title: "Mug", ImageURL: "https://img/mug.png", Price: 7.5, Quantity: 3},
		{ID: "1", Title: "Shirt", ImageURL: "u", Price: 10, Quantity: 1},
	}

	data, err := MarshalCart(cart)
	require.NoError(t, err)

	decoded, err := UnmarshalCart(data)
	require.NoError(t, err)
	if diff := cmp.Diff(cart, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalCart_EmptyIsArray(t *testing.T) {
	data, err := MarshalCart(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", data)

	decoded, err := UnmarshalCart(data)
	require.NoError(t, err)
	assert.NotNil(t, decoded)
	assert.Len(t, decoded, 0)
}

func TestUnmarshalCart_ReadsLegacyFieldNames(t *testing.T) {
	data := `[{"id":"1","title":"Shirt","image_url":"u","price":10,"quantity":2}]`

	cart, err := UnmarshalCart(data)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, Product{ID: "1", Title: "Shirt", ImageURL: "u", Price: 10, Quantity: 2}, cart[0])
}

func TestUnmarshalCart_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{oops"},
		{"object instead of array", `{"id":"1"}`},
		{"empty id", `[{"id":"","quantity":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalCart(tt.data)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestUnmarshalCart_MergesDuplicateRows(t *testing.T) {
	data := `[
		{"id":"1","title":"Shirt","image_url":"u","price":10,"quantity":1},
		{"id":"2","title":"Mug","image_url":"m","price":4,"quantity":2},
		{"id":"1","title":"Shirt","image_url":"u","price":10,"quantity":3}
	]`

	cart, err := UnmarshalCart(data)
	require.NoError(t, err)
	require.NoError(t, cart.Validate())
	assert.Equal(t, Cart{
		{ID: "1", Title: "Shirt", ImageURL: "u", Price: 10, Quantity: 4},
		{ID: "2", Title: "Mug", ImageURL: "m", Price: 4, Quantity: 2},
	}, cart)
}

func TestUnmarshalCart_DropsEmptyQuantities(t *testing.T) {
	cart, err := UnmarshalCart(`[{"id":"1","quantity":0},{"id":"2","quantity":1}]`)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, "2", cart[0].ID)
}

func TestCart_Validate(t *testing.T) {
	assert.NoError(t, Cart{{ID: "1", Quantity: 1}}.Validate())
	assert.ErrorIs(t, Cart{{ID: "1", Quantity: 0}}.Validate(), ErrInvalidSnapshot)
	assert.ErrorIs(t, Cart{{ID: "", Quantity: 1}}.Validate(), ErrInvalidSnapshot)
	assert.ErrorIs(t, Cart{{ID: "1", Quantity: 1}, {ID: "1", Quantity: 1}}.Validate(), ErrInvalidSnapshot)
}

func TestCart_IndexAndClone(t *testing.T) {
	cart := Cart{{ID: "a", Quantity: 1}, {ID: "b", Quantity: 2}}

	assert.Equal(t, 1, cart.Index("b"))
	assert.Equal(t, -1, cart.Index("z"))

	clone := cart.Clone()
	clone[0].Quantity = 99
	assert.Equal(t, 1, cart[0].Quantity)
}
