package batchswap

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/features/contracts/models"
	solanaplatform "xforce-terminal-backend/internal/platform/solana"
)

// Anchor-style instruction discriminators.
var (
	batchSwapDiscriminator   = anchorDiscriminator("batch_swap")
	executeSwapDiscriminator = anchorDiscriminator("execute_swap")
)

func anchorDiscriminator(name string) [8]byte {
	var out [8]byte
	sum := sha256.Sum256([]byte("global:" + name))
	copy(out[:], sum[:8])
	return out
}

// Composer rewrites aggregator-built transactions to route through the
// batch swap program.
type Composer struct {
	programID solana.PublicKey
}

func NewComposer(programID string) (*Composer, error) {
	pk, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id %q: %w", programID, err)
	}
	return &Composer{programID: pk}, nil
}

func (c *Composer) ProgramID() string {
	return c.programID.String()
}

// ComposeBatch decodes the aggregator transaction, prepends the batch
// swap instruction and recompiles the message with the user as fee
// payer. Signature slots are reset so the wallet signs the new message.
func (c *Composer) ComposeBatch(txBase64 string, user solana.PublicKey, swaps []models.SwapSpec, feeRecipient *solana.PublicKey, recentBlockhash solana.Hash) (string, error) {
	if len(swaps) == 0 {
		return "", errors.NewValidationError("swaps", "at least one swap required")
	}

	original, err := solanaplatform.DecodeTransaction(txBase64)
	if err != nil {
		return "", errors.NewTxComposeError("decode", err)
	}

	lifted, err := liftInstructions(original)
	if err != nil {
		return "", errors.NewTxComposeError("instructions", err)
	}

	data, err := encodeBatchData(swaps)
	if err != nil {
		return "", errors.NewTxComposeError("instruction data", err)
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(user, true, true),
	}
	if feeRecipient != nil {
		accounts = append(accounts, solana.NewAccountMeta(*feeRecipient, true, false))
	}
	accounts = append(accounts,
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	)

	batchIx := solana.NewInstruction(c.programID, accounts, data)

	instructions := append([]solana.Instruction{batchIx}, lifted...)
	return buildTransaction(instructions, user, recentBlockhash)
}

// ComposeExecute builds a single-swap program transaction from scratch.
func (c *Composer) ComposeExecute(user, sourceTokenAccount, destTokenAccount, inputMint, outputMint solana.PublicKey, amount, minOutputAmount, expectedOutputAmount uint64, recentBlockhash solana.Hash) (string, error) {
	data := make([]byte, 0, 8+3*8)
	data = append(data, executeSwapDiscriminator[:]...)
	data = binary.LittleEndian.AppendUint64(data, amount)
	data = binary.LittleEndian.AppendUint64(data, minOutputAmount)
	data = binary.LittleEndian.AppendUint64(data, expectedOutputAmount)

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(user, true, true),
		solana.NewAccountMeta(sourceTokenAccount, true, false),
		solana.NewAccountMeta(destTokenAccount, true, false),
		solana.NewAccountMeta(inputMint, false, false),
		solana.NewAccountMeta(outputMint, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}

	ix := solana.NewInstruction(c.programID, accounts, data)
	return buildTransaction([]solana.Instruction{ix}, user, recentBlockhash)
}

// encodeBatchData lays out the batch_swap instruction payload:
// discriminator, little-endian u32 count, then per swap the input mint,
// output mint, amount and minimum output amount.
func encodeBatchData(swaps []models.SwapSpec) ([]byte, error) {
	data := make([]byte, 0, 8+4+len(swaps)*(32+32+8+8))
	data = append(data, batchSwapDiscriminator[:]...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(swaps)))

	for i, swap := range swaps {
		inputMint, err := solana.PublicKeyFromBase58(swap.InputMint)
		if err != nil {
			return nil, fmt.Errorf("swap %d: invalid input mint", i)
		}
		outputMint, err := solana.PublicKeyFromBase58(swap.OutputMint)
		if err != nil {
			return nil, fmt.Errorf("swap %d: invalid output mint", i)
		}
		if swap.Amount == 0 {
			return nil, fmt.Errorf("swap %d: amount must be positive", i)
		}

		data = append(data, inputMint.Bytes()...)
		data = append(data, outputMint.Bytes()...)
		data = binary.LittleEndian.AppendUint64(data, swap.Amount)
		data = binary.LittleEndian.AppendUint64(data, swap.MinOutputAmount)
	}
	return data, nil
}

// liftInstructions converts the compiled instructions of a decoded
// transaction back into full instructions, resolving signer and
// writable flags from the message header.
func liftInstructions(tx *solana.Transaction) ([]solana.Instruction, error) {
	msg := &tx.Message
	keys := msg.AccountKeys
	header := msg.Header

	numRequired := int(header.NumRequiredSignatures)
	numReadonlySigned := int(header.NumReadonlySignedAccounts)
	numReadonlyUnsigned := int(header.NumReadonlyUnsignedAccounts)

	isSigner := func(idx int) bool {
		return idx < numRequired
	}
	isWritable := func(idx int) bool {
		if idx < numRequired {
			return idx < numRequired-numReadonlySigned
		}
		return idx < len(keys)-numReadonlyUnsigned
	}

	out := make([]solana.Instruction, 0, len(msg.Instructions))
	for _, compiled := range msg.Instructions {
		if int(compiled.ProgramIDIndex) >= len(keys) {
			return nil, fmt.Errorf("program id index %d out of range", compiled.ProgramIDIndex)
		}
		programID := keys[compiled.ProgramIDIndex]

		metas := make(solana.AccountMetaSlice, 0, len(compiled.Accounts))
		for _, accIdx := range compiled.Accounts {
			idx := int(accIdx)
			if idx >= len(keys) {
				return nil, fmt.Errorf("account index %d out of range", idx)
			}
			metas = append(metas, solana.NewAccountMeta(keys[idx], isWritable(idx), isSigner(idx)))
		}

		out = append(out, solana.NewInstruction(programID, metas, compiled.Data))
	}
	return out, nil
}

func buildTransaction(instructions []solana.Instruction, payer solana.PublicKey, recentBlockhash solana.Hash) (string, error) {
	tx, err := solana.NewTransaction(instructions, recentBlockhash, solana.TransactionPayer(payer))
	if err != nil {
		return "", errors.NewTxComposeError("compile", err)
	}

	// Empty slots per required signer so the wallet can sign in place.
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)

	encoded, err := solanaplatform.EncodeTransaction(tx)
	if err != nil {
		return "", errors.NewTxComposeError("serialize", err)
	}
	return encoded, nil
}
