package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xforce-terminal-backend/internal/common/middleware"
	"xforce-terminal-backend/internal/features/contracts/batchswap"
	"xforce-terminal-backend/internal/features/contracts/models"
	"xforce-terminal-backend/internal/features/contracts/registry"
	solanaplatform "xforce-terminal-backend/internal/platform/solana"
)

type stubPlugin struct {
	name string
}

func (p *stubPlugin) Name() string      { return p.name }
func (p *stubPlugin) ProgramID() string { return "program-" + p.name }
func (p *stubPlugin) Version() string   { return "1.0.0" }

func (p *stubPlugin) Initialize(cfg models.PluginConfig) error { return nil }

func (p *stubPlugin) Metadata() models.ContractMetadata {
	return models.ContractMetadata{
		Name:        p.name,
		Version:     p.Version(),
		ProgramID:   p.ProgramID(),
		Description: "test contract",
	}
}

func (p *stubPlugin) HealthCheck(ctx context.Context) error { return nil }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.New()
	require.NoError(t, reg.Register(&stubPlugin{name: "batch-swap"}, models.PluginConfig{}))

	router := gin.New()
	router.Use(middleware.ErrorHandler())

	handler := NewContractsHandler(reg, nil, nil, "")
	handler.RegisterRoutes(router.Group("/api"), func(c *gin.Context) { c.Next() })
	return router
}

func TestGetContract(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/contracts/batch-swap", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"batch-swap"`)
	assert.Contains(t, w.Body.String(), `"programId":"program-batch-swap"`)
}

func TestGetContractMetadata(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/contracts/batch-swap/metadata", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"description":"test contract"`)
}

func TestGetContractUnknownName(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/contracts/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

const composeProgramID = "ComputeBudget111111111111111111111111111111"

type stubChain struct{}

func (stubChain) LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	return solana.Hash{}, 99, nil
}

func randomKey(t *testing.T) solana.PublicKey {
	t.Helper()
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return priv.PublicKey()
}

func sourceTransaction(t *testing.T, user solana.PublicKey) string {
	t.Helper()
	ix := solana.NewInstruction(
		randomKey(t),
		solana.AccountMetaSlice{solana.NewAccountMeta(user, true, true)},
		[]byte{1, 2, 3, 4},
	)
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{}, solana.TransactionPayer(user))
	require.NoError(t, err)
	encoded, err := solanaplatform.EncodeTransaction(tx)
	require.NoError(t, err)
	return encoded
}

func composeRouter(t *testing.T, feeRecipient string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	plugin := batchswap.NewPlugin(nil)
	require.NoError(t, plugin.Initialize(models.PluginConfig{ProgramID: composeProgramID, Enabled: true}))

	router := gin.New()
	handler := NewContractsHandler(registry.New(), plugin, stubChain{}, feeRecipient)
	handler.RegisterRoutes(router.Group("/api"), func(c *gin.Context) { c.Next() })
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestBatchSwapUsesConfiguredFeeRecipient(t *testing.T) {
	recipient := randomKey(t)
	router := composeRouter(t, recipient.String())

	user := randomKey(t)
	w := postJSON(t, router, "/api/contracts/batch-swap", map[string]interface{}{
		"transaction":   sourceTransaction(t, user),
		"userPublicKey": user.String(),
		"swaps": []map[string]interface{}{
			{
				"inputMint":       "So11111111111111111111111111111111111111112",
				"outputMint":      "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
				"amount":          1000000,
				"minOutputAmount": 900000,
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Transaction string `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	tx, err := solanaplatform.DecodeTransaction(body.Transaction)
	require.NoError(t, err)
	assert.Contains(t, tx.Message.AccountKeys, recipient)
}

func TestExecuteSwapComposesTransaction(t *testing.T) {
	router := composeRouter(t, "")

	user := randomKey(t)
	w := postJSON(t, router, "/api/contracts/execute-swap", map[string]interface{}{
		"userPublicKey":           user.String(),
		"sourceTokenAccount":      randomKey(t).String(),
		"destinationTokenAccount": randomKey(t).String(),
		"inputMint":               "So11111111111111111111111111111111111111112",
		"outputMint":              "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		"amount":                  1000000,
		"minOutputAmount":         900000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Transaction          string `json:"transaction"`
		LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint64(99), body.LastValidBlockHeight)

	tx, err := solanaplatform.DecodeTransaction(body.Transaction)
	require.NoError(t, err)
	require.Len(t, tx.Message.Instructions, 1)
	program, err := tx.Message.Program(tx.Message.Instructions[0].ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, composeProgramID, program.String())
}
