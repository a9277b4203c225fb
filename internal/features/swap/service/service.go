package service

import (
	"context"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/common/logger"
	authmodels "xforce-terminal-backend/internal/features/auth/models"
	"xforce-terminal-backend/internal/features/swap/models"
	"xforce-terminal-backend/internal/platform/jupiter"
	solanaplatform "xforce-terminal-backend/internal/platform/solana"
)

const defaultSlippageBps = 50

// UserLookup resolves the caller's account, for wallet checks.
type UserLookup interface {
	ByID(ctx context.Context, id int64) (*authmodels.User, error)
}

// SwapStore records submitted swaps.
type SwapStore interface {
	Create(ctx context.Context, userID int64, signature, inputMint, outputMint string, inputAmount, outputAmount int64, priceImpact *float64, slippageBps *int64) (*models.Swap, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Swap, error)
}

// SwapService runs the quote, execute and submit steps of the swap
// protocol.
type SwapService struct {
	aggregator *jupiter.Client
	chain      *solanaplatform.Client
	users      UserLookup
	swaps      SwapStore
}

func NewSwapService(aggregator *jupiter.Client, chain *solanaplatform.Client, users UserLookup, swaps SwapStore) *SwapService {
	return &SwapService{
		aggregator: aggregator,
		chain:      chain,
		users:      users,
		swaps:      swaps,
	}
}

// Quote fetches a route for the pair. slippageBps of 0 means the
// default 50.
func (s *SwapService) Quote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*jupiter.QuoteResponse, string, error) {
	if slippageBps <= 0 {
		slippageBps = defaultSlippageBps
	}
	quote, err := s.aggregator.Quote(ctx, inputMint, outputMint, amount, slippageBps)
	if err != nil {
		return nil, "", err
	}

	route := "Unknown"
	if len(quote.RoutePlan) > 0 && quote.RoutePlan[0].SwapInfo.Label != "" {
		route = quote.RoutePlan[0].SwapInfo.Label
	}
	return quote, route, nil
}

// Execute quotes the pair and asks the aggregator for a wallet-ready
// transaction bound to the caller's linked wallet.
func (s *SwapService) Execute(ctx context.Context, userID int64, req models.ExecuteSwapRequest) (*models.ExecuteSwapResponse, error) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NewUserNotFoundError(userID)
	}
	if user.WalletAddress == nil || *user.WalletAddress == "" {
		return nil, errors.NewConflictError("wallet", "Connect a wallet before executing swaps")
	}

	quote, _, err := s.Quote(ctx, req.InputMint, req.OutputMint, req.Amount, req.SlippageBps)
	if err != nil {
		return nil, err
	}

	swapTx, err := s.aggregator.SwapTransaction(ctx, quote, *user.WalletAddress)
	if err != nil {
		return nil, err
	}

	return &models.ExecuteSwapResponse{
		Transaction:          swapTx.SwapTransaction,
		LastValidBlockHeight: swapTx.LastValidBlockHeight,
		InputMint:            quote.InputMint,
		OutputMint:           quote.OutputMint,
		InAmount:             quote.InAmount,
		OutAmount:            quote.OutAmount,
		PriceImpactPct:       quote.PriceImpactPct,
	}, nil
}

// Submit broadcasts a signed transaction and records it as pending.
func (s *SwapService) Submit(ctx context.Context, userID int64, req models.SubmitTransactionRequest) (*models.SubmitTransactionResponse, error) {
	signature, err := s.chain.SendTransaction(ctx, req.SignedTransaction)
	if err != nil {
		return nil, err
	}

	if _, err := s.swaps.Create(ctx, userID, signature, req.InputMint, req.OutputMint,
		req.InputAmount, req.OutputAmount, req.PriceImpact, req.SlippageBps); err != nil {
		// The transaction is already on the wire; surface the record
		// failure but keep the signature in the log.
		logger.Error().Err(err).Str("signature", signature).Msg("Failed to record submitted swap")
		return nil, err
	}

	logger.Info().
		Int64("user_id", userID).
		Str("signature", signature).
		Msg("Swap submitted")

	return &models.SubmitTransactionResponse{
		Signature: signature,
		Status:    models.StatusPending,
	}, nil
}

// History lists the caller's recorded swaps.
func (s *SwapService) History(ctx context.Context, userID int64, limit int) ([]models.Swap, error) {
	return s.swaps.ListByUser(ctx, userID, limit)
}
