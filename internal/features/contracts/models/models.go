package models

import "context"

// Cluster names accepted by plugin configuration.
const (
	ClusterLocalnet = "localnet"
	ClusterDevnet   = "devnet"
	ClusterMainnet  = "mainnet"
)

// PluginConfig is passed to a plugin on registration.
type PluginConfig struct {
	ProgramID  string `json:"program_id"`
	Cluster    string `json:"cluster"`
	RPCURL     string `json:"rpc_url"`
	Commitment string `json:"commitment"`
	Enabled    bool   `json:"enabled"`
}

// ContractMetadata describes a registered on-chain program integration.
type ContractMetadata struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	ProgramID    string   `json:"program_id"`
	Description  string   `json:"description"`
	Instructions []string `json:"instructions"`
	Events       []string `json:"events"`
}

// Plugin is one contract integration the terminal can compose
// transactions for.
type Plugin interface {
	Name() string
	ProgramID() string
	Version() string
	Initialize(cfg PluginConfig) error
	Metadata() ContractMetadata
	HealthCheck(ctx context.Context) error
}

// SwapSpec is one leg of a batch swap. Amounts are in base units.
type SwapSpec struct {
	InputMint       string `json:"inputMint" binding:"required"`
	OutputMint      string `json:"outputMint" binding:"required"`
	Amount          uint64 `json:"amount" binding:"required"`
	MinOutputAmount uint64 `json:"minOutputAmount"`
}
