package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	pen := product("Pen", 2)
	book := product("Book", 10)
	s := New()
	s.AddItem(pen)
	s.AddItem(pen)
	s.AddItem(book)

	data, err := s.Snapshot()
	require.NoError(t, err)

	restored := New()
	require.NoError(t, restored.Restore(data))
	got := restored.Items()
	require.Len(t, got, 2)
	assert.Equal(t, pen.ID, got[0].ID)
	assert.Equal(t, int32(2), got[0].Quantity)
	assert.Equal(t, book.ID, got[1].ID)
	assert.True(t, OrderTotal(s.Items()).Equal(OrderTotal(got)))
}

func TestRestoreRejectsBrokenSnapshot(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name string
		data string
	}{
		{name: "given malformed json should fail", data: `{"version":1,"items":[`},
		{name: "given unknown version should fail", data: `{"version":2,"items":[]}`},
		{
			name: "given duplicate ids should fail",
			data: `{"version":1,"items":[{"id":"` + id.String() + `","price":"1","quantity":1},{"id":"` + id.String() + `","price":"1","quantity":2}]}`,
		},
		{
			name: "given zero quantity should fail",
			data: `{"version":1,"items":[{"id":"` + id.String() + `","price":"1","quantity":0}]}`,
		},
		{
			name: "given negative price should fail",
			data: `{"version":1,"items":[{"id":"` + id.String() + `","price":"-1","quantity":1}]}`,
		},
		{
			name: "given nil id should fail",
			data: `{"version":1,"items":[{"id":"` + uuid.Nil.String() + `","price":"1","quantity":1}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			pen := product("Pen", 2)
			s.AddItem(pen)

			err := s.Restore([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidSnapshot)

			got := s.Items()
			require.Len(t, got, 1)
			assert.Equal(t, pen.ID, got[0].ID)
		})
	}
}

func TestRestoreEmptySnapshot(t *testing.T) {
	s := New()
	s.AddItem(product("Pen", 2))
	require.NoError(t, s.Restore([]byte(`{"version":1,"items":null}`)))
	assert.Empty(t, s.Items())
	assert.True(t, decimal.Zero.Equal(OrderTotal(s.Items())))
}
