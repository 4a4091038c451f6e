package refdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMatrix = `TBG SKU#, WALMART ITEM#, Item Description, check
205641, 30081705, 1.36L PL 1/6 NJ STRW BAN, OK

100200, 40099999, SOME OTHER ITEM, OK
`

func TestParseSkuMatrixSkipsHeaderAndBlankLines(t *testing.T) {
	m, err := ParseSkuMatrix(strings.NewReader(sampleMatrix), nil)
	require.NoError(t, err)

	mapping, ok := m.FindByTBGSKU("205641")
	require.True(t, ok)
	assert.Equal(t, "30081705", mapping.WalmartItemNum)
}

func TestFindByPrtnumDirectMatch(t *testing.T) {
	m, err := ParseSkuMatrix(strings.NewReader(sampleMatrix), nil)
	require.NoError(t, err)

	mapping, ok := m.FindByPrtnum("205641")
	require.True(t, ok)
	assert.Equal(t, "30081705", mapping.WalmartItemNum)
}

// Internal SKU 10048500205641000 resolves to Walmart
// item 30081705 via window search over the embedded TBG SKU 205641.
func TestFindByPrtnumSlidingWindowS1(t *testing.T) {
	m, err := ParseSkuMatrix(strings.NewReader(sampleMatrix), nil)
	require.NoError(t, err)

	mapping, ok := m.FindByPrtnum("10048500205641000")
	require.True(t, ok)
	assert.Equal(t, "30081705", mapping.WalmartItemNum)
	assert.Equal(t, "1.36L PL 1/6 NJ STRW BAN", mapping.Description)
}

func TestFindByPrtnumNoMatch(t *testing.T) {
	m, err := ParseSkuMatrix(strings.NewReader(sampleMatrix), nil)
	require.NoError(t, err)

	_, ok := m.FindByPrtnum("999999999999")
	assert.False(t, ok)
}

func TestFindByPrtnumLongestWindowWins(t *testing.T) {
	// Both "100200" (6 digits, full TBG SKU) and any shorter substring
	// could theoretically collide; longest match must win.
	matrix := "TBG SKU#, WALMART ITEM#, Item Description, check\n" +
		"00200, 99999999, SHORTER COLLISION, OK\n" +
		"100200, 40099999, SOME OTHER ITEM, OK\n"
	m, err := ParseSkuMatrix(strings.NewReader(matrix), nil)
	require.NoError(t, err)

	mapping, ok := m.FindByPrtnum("9100200")
	require.True(t, ok)
	assert.Equal(t, "40099999", mapping.WalmartItemNum)
}
