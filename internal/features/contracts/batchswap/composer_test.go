package batchswap

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xforce-terminal-backend/internal/features/contracts/models"
	solanaplatform "xforce-terminal-backend/internal/platform/solana"
)

const testProgramID = "ComputeBudget111111111111111111111111111111"

func randomKey(t *testing.T) solana.PublicKey {
	t.Helper()
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return priv.PublicKey()
}

// sourceTransaction builds an encoded single-instruction transaction
// standing in for an aggregator swap route.
func sourceTransaction(t *testing.T, user solana.PublicKey) string {
	t.Helper()

	ix := solana.NewInstruction(
		randomKey(t),
		solana.AccountMetaSlice{
			solana.NewAccountMeta(user, true, true),
			solana.NewAccountMeta(randomKey(t), true, false),
			solana.NewAccountMeta(randomKey(t), false, false),
		},
		[]byte{1, 2, 3, 4},
	)

	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{}, solana.TransactionPayer(user))
	require.NoError(t, err)

	encoded, err := solanaplatform.EncodeTransaction(tx)
	require.NoError(t, err)
	return encoded
}

func testSwaps() []models.SwapSpec {
	return []models.SwapSpec{
		{
			InputMint:       "So11111111111111111111111111111111111111112",
			OutputMint:      "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			Amount:          1_000_000,
			MinOutputAmount: 900_000,
		},
		{
			InputMint:       "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			OutputMint:      "So11111111111111111111111111111111111111112",
			Amount:          500_000,
			MinOutputAmount: 400_000,
		},
	}
}

func TestComposeBatchPrependsProgramInstruction(t *testing.T) {
	composer, err := NewComposer(testProgramID)
	require.NoError(t, err)

	user := randomKey(t)
	encoded, err := composer.ComposeBatch(sourceTransaction(t, user), user, testSwaps(), nil, solana.Hash{})
	require.NoError(t, err)

	tx, err := solanaplatform.DecodeTransaction(encoded)
	require.NoError(t, err)

	// User pays fees and the wallet gets empty slots to sign.
	assert.Equal(t, user, tx.Message.AccountKeys[0])
	assert.Len(t, tx.Signatures, int(tx.Message.Header.NumRequiredSignatures))

	require.Len(t, tx.Message.Instructions, 2)
	first := tx.Message.Instructions[0]
	assert.Equal(t, testProgramID, tx.Message.AccountKeys[first.ProgramIDIndex].String())

	data := []byte(first.Data)
	require.GreaterOrEqual(t, len(data), 12)
	assert.Equal(t, batchSwapDiscriminator[:], data[:8])
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[8:12]))
	assert.Len(t, data, 8+4+2*(32+32+8+8))

	// The aggregator instruction survives untouched.
	second := tx.Message.Instructions[1]
	assert.Equal(t, []byte{1, 2, 3, 4}, []byte(second.Data))
}

func TestComposeBatchFeeRecipientAccount(t *testing.T) {
	composer, err := NewComposer(testProgramID)
	require.NoError(t, err)

	user := randomKey(t)
	recipient := randomKey(t)

	encoded, err := composer.ComposeBatch(sourceTransaction(t, user), user, testSwaps(), &recipient, solana.Hash{})
	require.NoError(t, err)

	tx, err := solanaplatform.DecodeTransaction(encoded)
	require.NoError(t, err)

	first := tx.Message.Instructions[0]
	require.Len(t, first.Accounts, 4)
	assert.Equal(t, user, tx.Message.AccountKeys[first.Accounts[0]])
	assert.Equal(t, recipient, tx.Message.AccountKeys[first.Accounts[1]])
	assert.Equal(t, solana.TokenProgramID, tx.Message.AccountKeys[first.Accounts[2]])
	assert.Equal(t, solana.SystemProgramID, tx.Message.AccountKeys[first.Accounts[3]])
}

func TestComposeBatchRejectsEmptySwaps(t *testing.T) {
	composer, err := NewComposer(testProgramID)
	require.NoError(t, err)

	user := randomKey(t)
	_, err = composer.ComposeBatch(sourceTransaction(t, user), user, nil, nil, solana.Hash{})
	assert.Error(t, err)
}

func TestComposeBatchRejectsBadMint(t *testing.T) {
	composer, err := NewComposer(testProgramID)
	require.NoError(t, err)

	user := randomKey(t)
	swaps := []models.SwapSpec{{InputMint: "garbage", OutputMint: "garbage", Amount: 1}}
	_, err = composer.ComposeBatch(sourceTransaction(t, user), user, swaps, nil, solana.Hash{})
	assert.Error(t, err)
}

func TestComposeBatchRejectsZeroAmount(t *testing.T) {
	composer, err := NewComposer(testProgramID)
	require.NoError(t, err)

	user := randomKey(t)
	swaps := testSwaps()
	swaps[0].Amount = 0
	_, err = composer.ComposeBatch(sourceTransaction(t, user), user, swaps, nil, solana.Hash{})
	assert.Error(t, err)
}

func TestComposeExecuteDataLayout(t *testing.T) {
	composer, err := NewComposer(testProgramID)
	require.NoError(t, err)

	user := randomKey(t)
	encoded, err := composer.ComposeExecute(
		user, randomKey(t), randomKey(t), randomKey(t), randomKey(t),
		1_000_000, 900_000, 950_000, solana.Hash{},
	)
	require.NoError(t, err)

	tx, err := solanaplatform.DecodeTransaction(encoded)
	require.NoError(t, err)

	require.Len(t, tx.Message.Instructions, 1)
	data := []byte(tx.Message.Instructions[0].Data)
	require.Len(t, data, 8+3*8)
	assert.Equal(t, executeSwapDiscriminator[:], data[:8])
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(900_000), binary.LittleEndian.Uint64(data[16:24]))
	assert.Equal(t, uint64(950_000), binary.LittleEndian.Uint64(data[24:32]))
}

func TestAnchorDiscriminatorStable(t *testing.T) {
	// sha256("global:batch_swap")[:8]
	assert.Equal(t, anchorDiscriminator("batch_swap"), batchSwapDiscriminator)
	assert.NotEqual(t, batchSwapDiscriminator, executeSwapDiscriminator)
}
