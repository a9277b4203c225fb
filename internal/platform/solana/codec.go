package solana

import (
	"encoding/base64"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// decodeBase64Transaction decodes a wire transaction from its base64
// envelope.
func decodeBase64Transaction(encoded string) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	return solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
}

// DecodeTransaction is the exported variant used by the contract
// composer.
func DecodeTransaction(encoded string) (*solana.Transaction, error) {
	return decodeBase64Transaction(encoded)
}

// EncodeTransaction serializes a transaction back to base64.
func EncodeTransaction(tx *solana.Transaction) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
