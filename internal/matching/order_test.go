package matching

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustOrder(t testing.TB, qty string, side Side) *Order {
	t.Helper()
	o, err := NewOrder(d(qty), side)
	require.NoError(t, err)
	return o
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, got.Equal(d(want)), "want %s, got %s %v", want, got, msgAndArgs)
}

func TestNewOrder_RejectsNonPositiveQty(t *testing.T) {
	for _, q := range []string{"0", "-1", "-0.0001"} {
		_, err := NewOrder(d(q), Bid)
		assert.Truef(t, errors.Is(err, ErrInvalidQuantity), "qty %s: %v", q, err)
	}
}

func TestNewOrder_RejectsUnknownSide(t *testing.T) {
	_, err := NewOrder(d("1"), Side(9))
	assert.True(t, errors.Is(err, ErrInvalidSide))
}

func TestNewOrder_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		o := mustOrder(t, "1", Ask)
		require.False(t, seen[o.ID()], "duplicate id %s", o.ID())
		seen[o.ID()] = true
	}
}

func TestFillAgainst_Conservation(t *testing.T) {
	cases := []struct {
		x, y         string
		wantX, wantY string
		exec         string
	}{
		{"5", "3", "2", "0", "3"},
		{"3", "5", "0", "2", "3"},
		{"4", "4", "0", "0", "4"},
		{"0.1", "0.3", "0", "0.2", "0.1"},
	}
	for _, c := range cases {
		x := mustOrder(t, c.x, Bid)
		y := mustOrder(t, c.y, Ask)

		exec := x.FillAgainst(y)

		assertDec(t, c.exec, exec)
		assertDec(t, c.wantX, x.Remaining())
		assertDec(t, c.wantY, y.Remaining())
		// min(preX, preY) 从两边各减一次，至少一边归零
		assert.True(t, x.IsFilled() || y.IsFilled())
		pre := d(c.x).Add(d(c.y))
		assert.True(t, x.Remaining().Add(y.Remaining()).Equal(pre.Sub(exec.Mul(decimal.NewFromInt(2)))))
	}
}

func TestFillAgainst_SelfIsNoop(t *testing.T) {
	o := mustOrder(t, "3", Bid)
	assert.True(t, o.FillAgainst(o).IsZero())
	assert.True(t, o.FillAgainst(nil).IsZero())
	assertDec(t, "3", o.Remaining())
}

func TestParseSide(t *testing.T) {
	for in, want := range map[string]Side{"bid": Bid, "BUY": Bid, " ask ": Ask, "sell": Ask} {
		got, err := ParseSide(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSide("hold")
	assert.True(t, errors.Is(err, ErrInvalidSide))

	assert.Equal(t, Ask, Bid.Opposite())
	assert.Equal(t, Bid, Ask.Opposite())
	assert.Equal(t, "bid", Bid.String())
}
