package swapengine

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aman-zulfiqar/wmgr/internal/amm"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sellSummary() *TradeSummary {
	q := amm.SwapQuote{AmountIn: 1_000_000_000, AmountOut: 90_702_432, Fee: 2_500_000, Price: 100, PriceImpact: 9.0703}
	return newTradeSummary(SideSell, TokenSOL, TokenUSDC, 9, 6, q, 89_795_407, q.AmountIn, decimal.NewFromInt(1))
}

func TestTradeSummary_PrintSell(t *testing.T) {
	var buf bytes.Buffer
	sellSummary().Print(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Sell:            1                    SOL", lines[0])
	assert.Equal(t, "Min receive:     89.795407            USDC", lines[1])
	assert.Equal(t, "Fee:             0.0025               SOL", lines[2])
	assert.Equal(t, "Price:           100.00000000         USDC per SOL", lines[3])
	assert.Equal(t, "Impact:          9.0703%", lines[4])
	assert.Equal(t, "Slippage:        1%", lines[5])
}

func TestTradeSummary_PrintBuy(t *testing.T) {
	q := amm.SwapQuote{AmountIn: 111_389_586, AmountOut: 1_000_000_000, Fee: 278_474, Price: 0.01}
	s := newTradeSummary(SideBuy, TokenUSDC, TokenSOL, 6, 9, q, q.AmountOut, 112_503_482, decimal.RequireFromString("1"))

	var buf bytes.Buffer
	s.Print(&buf)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Buy:             1                    SOL\n"))
	assert.Contains(t, out, "Max spend:       112.503482           USDC\n")
	assert.Contains(t, out, "Fee:             0.278474             USDC\n")
}

func TestIsAffirmative(t *testing.T) {
	for _, a := range []string{"y", "Y", "yes", "YES", " yes\n"} {
		assert.True(t, IsAffirmative(a), a)
	}
	for _, a := range []string{"", "n", "no", "yep", "\n", "y es"} {
		assert.False(t, IsAffirmative(a), a)
	}
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"yes", true},
		{"\n", false},
		{"", false},
		{"nope\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out, prompt bytes.Buffer
			c := &PromptConfirmer{In: strings.NewReader(tt.input), Out: &out, Prompt: &prompt}

			ok, err := c.Confirm(context.Background(), sellSummary())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, "Continue? (y/N): ", prompt.String())
			assert.Contains(t, out.String(), "Min receive:")
		})
	}
}
