package swapengine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aman-zulfiqar/wmgr/internal/amm"
	"github.com/aman-zulfiqar/wmgr/internal/amount"
	"github.com/shopspring/decimal"
)

const (
	summaryLabelWidth = 16
	summaryValueWidth = 20
)

// TradeSummary is what the user is shown before confirming. Amounts are
// formatted in human units.
type TradeSummary struct {
	Side           Side    `json:"side"`
	InputSymbol    string  `json:"input_symbol"`
	OutputSymbol   string  `json:"output_symbol"`
	InputAmount    string  `json:"input_amount"`
	InputMax       string  `json:"input_max"`
	OutputExpected string  `json:"output_expected"`
	OutputMin      string  `json:"output_min"`
	Fee            string  `json:"fee"`
	Slippage       string  `json:"slippage"`
	Price          float64 `json:"price"`
	PriceImpact    float64 `json:"price_impact"`
}

func newTradeSummary(side Side, in, out Token, decIn, decOut uint8, q amm.SwapQuote, minOut, maxIn uint64, slippage decimal.Decimal) *TradeSummary {
	return &TradeSummary{
		Side:           side,
		InputSymbol:    in.Symbol(),
		OutputSymbol:   out.Symbol(),
		InputAmount:    amount.Format(q.AmountIn, decIn),
		InputMax:       amount.Format(maxIn, decIn),
		OutputExpected: amount.Format(q.AmountOut, decOut),
		OutputMin:      amount.Format(minOut, decOut),
		Fee:            amount.Format(q.Fee, decIn),
		Slippage:       slippage.String(),
		Price:          q.Price,
		PriceImpact:    q.PriceImpact,
	}
}

// Print writes the summary table.
func (s *TradeSummary) Print(w io.Writer) {
	amountRow := func(label, value, symbol string) {
		fmt.Fprintf(w, "%-*s %-*s %s\n", summaryLabelWidth, label+":", summaryValueWidth, value, symbol)
	}
	textRow := func(label, value string) {
		fmt.Fprintf(w, "%-*s %s\n", summaryLabelWidth, label+":", value)
	}

	if s.Side == SideBuy {
		amountRow("Buy", s.OutputExpected, s.OutputSymbol)
		amountRow("Max spend", s.InputMax, s.InputSymbol)
	} else {
		amountRow("Sell", s.InputAmount, s.InputSymbol)
		amountRow("Min receive", s.OutputMin, s.OutputSymbol)
	}
	amountRow("Fee", s.Fee, s.InputSymbol)
	amountRow("Price", fmt.Sprintf("%.8f", s.Price), s.OutputSymbol+" per "+s.InputSymbol)
	textRow("Impact", fmt.Sprintf("%.4f%%", s.PriceImpact))
	textRow("Slippage", s.Slippage+"%")
}

// Confirmer asks the user to approve a simulated trade.
type Confirmer interface {
	Confirm(ctx context.Context, summary *TradeSummary) (bool, error)
}

// PromptConfirmer prints the summary to Out and reads one line from In.
// Only "y" or "yes" approve.
type PromptConfirmer struct {
	In     io.Reader
	Out    io.Writer
	Prompt io.Writer
}

func (p *PromptConfirmer) Confirm(_ context.Context, summary *TradeSummary) (bool, error) {
	summary.Print(p.Out)
	fmt.Fprint(p.Prompt, "Continue? (y/N): ")

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return IsAffirmative(line), nil
}

// IsAffirmative reports whether answer is y or yes, ignoring case and
// surrounding space.
func IsAffirmative(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "y" || a == "yes"
}
