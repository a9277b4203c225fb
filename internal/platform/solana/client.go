package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"xforce-terminal-backend/internal/common/errors"
)

const (
	NetworkMainnet  = "mainnet"
	NetworkDevnet   = "devnet"
	NetworkLocalnet = "localnet"
)

// Client wraps the Solana JSON-RPC client for the terminal's needs.
type Client struct {
	rpc        *rpc.Client
	endpoint   string
	network    string
	commitment rpc.CommitmentType
}

// Builder assembles a Client. Network picks the default endpoint, a
// custom RPC URL or Helius key overrides it.
type Builder struct {
	network      string
	customRPCURL string
	heliusAPIKey string
	commitment   rpc.CommitmentType
}

func NewBuilder(network string) *Builder {
	return &Builder{
		network:    network,
		commitment: rpc.CommitmentConfirmed,
	}
}

func (b *Builder) WithCustomRPCURL(url string) *Builder {
	b.customRPCURL = url
	return b
}

func (b *Builder) WithHeliusAPIKey(key string) *Builder {
	b.heliusAPIKey = key
	return b
}

func (b *Builder) WithCommitment(commitment string) *Builder {
	switch commitment {
	case "processed":
		b.commitment = rpc.CommitmentProcessed
	case "finalized":
		b.commitment = rpc.CommitmentFinalized
	default:
		b.commitment = rpc.CommitmentConfirmed
	}
	return b
}

func (b *Builder) Build() (*Client, error) {
	endpoint, err := b.resolveEndpoint()
	if err != nil {
		return nil, err
	}
	return &Client{
		rpc:        rpc.New(endpoint),
		endpoint:   endpoint,
		network:    b.network,
		commitment: b.commitment,
	}, nil
}

func (b *Builder) resolveEndpoint() (string, error) {
	if b.customRPCURL != "" {
		return b.customRPCURL, nil
	}
	switch b.network {
	case NetworkMainnet:
		if b.heliusAPIKey != "" {
			return fmt.Sprintf("https://mainnet.helius-rpc.com/?api-key=%s", b.heliusAPIKey), nil
		}
		return rpc.MainNetBeta_RPC, nil
	case NetworkDevnet:
		return rpc.DevNet_RPC, nil
	case NetworkLocalnet:
		return rpc.LocalNet_RPC, nil
	default:
		return "", fmt.Errorf("unknown network %q", b.network)
	}
}

func (c *Client) Network() string {
	return c.network
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Health checks the node by asking for its version.
func (c *Client) Health(ctx context.Context) (string, error) {
	out, err := c.rpc.GetVersion(ctx)
	if err != nil {
		return "", errors.NewChainError("getVersion", err)
	}
	return out.SolanaCore, nil
}

// LatestBlockhash returns the most recent blockhash and its expiry height.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, 0, errors.NewChainError("getLatestBlockhash", err)
	}
	return out.Value.Blockhash, out.Value.LastValidBlockHeight, nil
}

// AccountInfo describes an on-chain account.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Executable bool   `json:"executable"`
	DataLen    int    `json:"dataLen"`
}

func (c *Client) Account(ctx context.Context, address string) (*AccountInfo, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, errors.NewValidationError("address", "invalid public key")
	}
	out, err := c.rpc.GetAccountInfo(ctx, pubkey)
	if err != nil {
		return nil, errors.NewChainError("getAccountInfo", err)
	}
	if out.Value == nil {
		return nil, errors.NewNotFoundError("account", address)
	}
	info := &AccountInfo{
		Lamports:   out.Value.Lamports,
		Owner:      out.Value.Owner.String(),
		Executable: out.Value.Executable,
	}
	if data := out.Value.Data; data != nil {
		info.DataLen = len(data.GetBinary())
	}
	return info, nil
}

// SignatureInfo is one confirmed signature touching an address.
type SignatureInfo struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
	Err       bool   `json:"err"`
	BlockTime *int64 `json:"blockTime,omitempty"`
}

func (c *Client) SignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, errors.NewValidationError("address", "invalid public key")
	}
	opts := &rpc.GetSignaturesForAddressOpts{}
	if limit > 0 {
		opts.Limit = &limit
	}
	out, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, pubkey, opts)
	if err != nil {
		return nil, errors.NewChainError("getSignaturesForAddress", err)
	}
	infos := make([]SignatureInfo, 0, len(out))
	for _, sig := range out {
		info := SignatureInfo{
			Signature: sig.Signature.String(),
			Slot:      sig.Slot,
			Err:       sig.Err != nil,
		}
		if sig.BlockTime != nil {
			t := sig.BlockTime.Time().Unix()
			info.BlockTime = &t
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// EpochInfo is the current epoch progress.
type EpochInfo struct {
	Epoch        uint64 `json:"epoch"`
	SlotIndex    uint64 `json:"slotIndex"`
	SlotsInEpoch uint64 `json:"slotsInEpoch"`
	AbsoluteSlot uint64 `json:"absoluteSlot"`
	BlockHeight  uint64 `json:"blockHeight"`
}

func (c *Client) EpochInfo(ctx context.Context) (*EpochInfo, error) {
	out, err := c.rpc.GetEpochInfo(ctx, c.commitment)
	if err != nil {
		return nil, errors.NewChainError("getEpochInfo", err)
	}
	return &EpochInfo{
		Epoch:        out.Epoch,
		SlotIndex:    out.SlotIndex,
		SlotsInEpoch: out.SlotsInEpoch,
		AbsoluteSlot: out.AbsoluteSlot,
		BlockHeight:  out.BlockHeight,
	}, nil
}

// SendTransaction broadcasts a base64-encoded signed transaction and
// returns its signature.
func (c *Client) SendTransaction(ctx context.Context, signedTxBase64 string) (string, error) {
	tx, err := decodeBase64Transaction(signedTxBase64)
	if err != nil {
		return "", errors.NewValidationError("signedTransaction", "invalid transaction encoding")
	}
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return "", errors.NewChainError("sendTransaction", err)
	}
	return sig.String(), nil
}
