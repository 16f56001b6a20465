package strategy

// Well-known coin types used by the scaffold.
const (
	CoinSUI  = "0x2::sui::SUI"
	CoinUSDC = "0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC"
)

// TemplateOptions parameterises the flash-loan scaffold.
type TemplateOptions struct {
	Name     string
	Lender   string
	Exchange string
	Amount   string
	PoolAB   string
	PoolBA   string
}

// FlashLoanTemplate returns a borrow -> swap -> swap -> repay round trip
// through two pools. Both swaps spend everything they receive.
func FlashLoanTemplate(opts TemplateOptions) *Strategy {
	if opts.Amount == "" {
		opts.Amount = "1000000000"
	}
	s := New(opts.Name)
	s.Metadata.Description = "Flash-borrow SUI, round-trip it through two pools and repay."
	s.Metadata.Tags = []string{"flash-loan", "arbitrage"}
	coinSUI := "0x2::coin::Coin<" + CoinSUI + ">"
	coinUSDC := "0x2::coin::Coin<" + CoinUSDC + ">"

	s.Nodes = []Node{
		{
			ID: "borrow", Kind: KindBorrow, Protocol: opts.Lender,
			Params: map[string]any{"asset": CoinSUI, "amount": opts.Amount},
			Outputs: []Output{
				{ID: "coin", Type: coinSUI, Class: ClassValue},
				{ID: "receipt", Class: ClassReceipt},
			},
		},
		{
			ID: "swap_out", Kind: KindSwap, Protocol: opts.Exchange,
			Params: map[string]any{
				"pool": opts.PoolAB, "coin_type_in": CoinSUI, "coin_type_out": CoinUSDC, "amount": RefAll,
			},
			Outputs: []Output{{ID: "coin", Type: coinUSDC, Class: ClassValue}},
			Inputs:  map[string]string{InputCoin: "borrow.coin"},
		},
		{
			ID: "swap_back", Kind: KindSwap, Protocol: opts.Exchange,
			Params: map[string]any{
				"pool": opts.PoolBA, "coin_type_in": CoinUSDC, "coin_type_out": CoinSUI, "amount": RefAll,
			},
			Outputs: []Output{{ID: "coin", Type: coinSUI, Class: ClassValue}},
			Inputs:  map[string]string{InputCoin: "swap_out.coin"},
		},
		{
			ID: "repay", Kind: KindRepay, Protocol: opts.Lender,
			Params: map[string]any{"asset": CoinSUI},
			Inputs: map[string]string{InputCoin: "swap_back.coin", InputReceipt: "borrow.receipt"},
		},
	}
	s.Edges = []Edge{
		NewValueEdge("e1", "borrow", "coin", "swap_out", InputCoin, CoinSUI),
		NewValueEdge("e2", "swap_out", "coin", "swap_back", InputCoin, CoinUSDC),
		NewValueEdge("e3", "swap_back", "coin", "repay", InputCoin, CoinSUI),
		NewReceiptEdge("e4", "borrow", "receipt", "repay", InputReceipt),
	}
	return s
}
