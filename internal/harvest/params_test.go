package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombinations_NoLists(t *testing.T) {
	combos := Combinations([]Param{{Key: "index", Values: []string{"equities"}}})
	assert.Equal(t, []map[string]string{{}}, combos)
}

func TestCombinations_CartesianProduct(t *testing.T) {
	combos := Combinations([]Param{
		{Key: "symbol", Values: []string{"TCS", "INFY"}, List: true},
		{Key: "index", Values: []string{"equities"}},
		{Key: "type", Values: []string{"buy", "sell", "pledge"}, List: true},
	})
	assert.Len(t, combos, 6)
	assert.Equal(t, map[string]string{"symbol": "TCS", "type": "buy"}, combos[0])
	assert.Equal(t, map[string]string{"symbol": "TCS", "type": "sell"}, combos[1])
	assert.Equal(t, map[string]string{"symbol": "INFY", "type": "pledge"}, combos[5])
}

func TestCombinations_EmptyList(t *testing.T) {
	combos := Combinations([]Param{{Key: "symbol", List: true}})
	assert.Empty(t, combos)
}
