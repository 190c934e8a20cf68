package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceLevel_FIFOFill(t *testing.T) {
	lv := newPriceLevel(d("11"))
	a := mustOrder(t, "1", Ask)
	b := mustOrder(t, "3", Ask)
	c := mustOrder(t, "20", Ask)
	lv.add(a)
	lv.add(b)
	lv.add(c)
	assertDec(t, "24", lv.TotalVolume())

	taker := mustOrder(t, "24", Bid)
	var filled []string
	trades := lv.fill(taker, func(m *Order) { filled = append(filled, m.ID()) })

	require.Len(t, trades, 3)
	assert.Equal(t, []string{a.ID(), b.ID(), c.ID()}, []string{trades[0].MakerID, trades[1].MakerID, trades[2].MakerID})
	assert.Equal(t, []string{a.ID(), b.ID(), c.ID()}, filled)
	assert.True(t, taker.IsFilled())
	assert.True(t, a.IsFilled() && b.IsFilled() && c.IsFilled())
	assert.True(t, lv.Empty())
	assert.Nil(t, lv.head)
	assert.Nil(t, lv.tail)
}

func TestPriceLevel_StopsWhenTakerFilled(t *testing.T) {
	lv := newPriceLevel(d("100"))
	first := mustOrder(t, "2", Ask)
	second := mustOrder(t, "2", Ask)
	lv.add(first)
	lv.add(second)

	taker := mustOrder(t, "3", Bid)
	trades := lv.fill(taker, nil)

	require.Len(t, trades, 2)
	assertDec(t, "2", trades[0].Qty)
	assertDec(t, "1", trades[1].Qty)
	assert.Equal(t, 1, lv.Len())
	assert.Equal(t, []*Order{second}, lv.Orders())
	assertDec(t, "1", lv.TotalVolume())
}

func TestPriceLevel_AddIncreasesVolume(t *testing.T) {
	lv := newPriceLevel(d("5"))
	before := lv.TotalVolume()
	o := mustOrder(t, "2.5", Bid)
	lv.add(o)
	assert.True(t, lv.TotalVolume().Equal(before.Add(o.Remaining())))
}

func TestLevelLess_ByPriceOnly(t *testing.T) {
	assert.True(t, levelLess(newPriceLevel(d("10.322")), newPriceLevel(d("11"))))
	assert.False(t, levelLess(newPriceLevel(d("11")), newPriceLevel(d("11.000"))))
	assert.False(t, levelLess(newPriceLevel(d("11.000")), newPriceLevel(d("11"))))
}
