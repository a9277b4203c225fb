package models

import "time"

// Swap statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// Swap is one recorded swap transaction.
type Swap struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Signature    string     `json:"signature"`
	InputMint    string     `json:"input_mint"`
	OutputMint   string     `json:"output_mint"`
	InputAmount  int64      `json:"input_amount"`
	OutputAmount int64      `json:"output_amount"`
	PriceImpact  *float64   `json:"price_impact,omitempty"`
	SlippageBps  *int64     `json:"slippage_bps,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
}

type ExecuteSwapRequest struct {
	InputMint   string `json:"inputMint" binding:"required"`
	OutputMint  string `json:"outputMint" binding:"required"`
	Amount      uint64 `json:"amount" binding:"required"`
	SlippageBps int    `json:"slippageBps"`
}

// ExecuteSwapResponse carries the wallet-ready transaction and the
// quoted amounts.
type ExecuteSwapResponse struct {
	Transaction          string  `json:"transaction"`
	LastValidBlockHeight uint64  `json:"lastValidBlockHeight"`
	InputMint            string  `json:"inputMint"`
	OutputMint           string  `json:"outputMint"`
	InAmount             string  `json:"inAmount"`
	OutAmount            string  `json:"outAmount"`
	PriceImpactPct       float64 `json:"priceImpactPct"`
}

type SubmitTransactionRequest struct {
	SignedTransaction string   `json:"signedTransaction" binding:"required"`
	InputMint         string   `json:"inputMint" binding:"required"`
	OutputMint        string   `json:"outputMint" binding:"required"`
	InputAmount       int64    `json:"inputAmount" binding:"required"`
	OutputAmount      int64    `json:"outputAmount" binding:"required"`
	PriceImpact       *float64 `json:"priceImpact"`
	SlippageBps       *int64   `json:"slippageBps"`
}

type SubmitTransactionResponse struct {
	Signature string `json:"signature"`
	Status    string `json:"status"`
}
