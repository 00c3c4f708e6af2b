package imitator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectPowMint_EmptyPool(t *testing.T) {
	f := newFixture(t, NewRandom())

	_, err := f.im.SelectPowMint()
	require.ErrorIs(t, err, ErrEmptyPool)
}

func TestSelectPowMint_SingleSlot(t *testing.T) {
	for _, draw := range []int{0, 1} {
		f := newFixture(t, scriptedRandom{{0, 1}: draw})
		f.addPowMint(t, "1spent", "2pow")

		powMint, err := f.im.SelectPowMint()
		require.NoError(t, err)
		assert.Equal(t, "2pow", powMint.PowAddress)
	}
}

func TestSelectPowMint_InclusiveDrawLandsOnLastSlot(t *testing.T) {
	tests := []struct {
		draw int
		want string
	}{
		{draw: 0, want: "2pow-a"},
		{draw: 1, want: "2pow-b"},
		{draw: 2, want: "2pow-c"},
		{draw: 3, want: "2pow-c"},
	}

	for _, tt := range tests {
		f := newFixture(t, scriptedRandom{{0, 3}: tt.draw})
		f.addPowMint(t, "1spent-a", "2pow-a")
		f.addPowMint(t, "1spent-b", "2pow-b")
		f.addPowMint(t, "1spent-c", "2pow-c")

		powMint, err := f.im.SelectPowMint()
		require.NoError(t, err)
		assert.Equal(t, tt.want, powMint.PowAddress, "draw %d", tt.draw)
	}
}

func TestSelectPowMint_RandomDrawAlwaysInPool(t *testing.T) {
	f := newFixture(t, NewRandom())
	f.addPowMint(t, "1spent-a", "2pow-a")
	f.addPowMint(t, "1spent-b", "2pow-b")

	for i := 0; i < 50; i++ {
		powMint, err := f.im.SelectPowMint()
		require.NoError(t, err)
		assert.Contains(t, []string{"2pow-a", "2pow-b"}, powMint.PowAddress)
	}
}
