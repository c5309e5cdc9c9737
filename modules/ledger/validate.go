package ledger

import (
	"fmt"

	"ledgerd/crypto"
	"ledgerd/modules"
	"ledgerd/types"
)

// IsChainValid implements spec §4.8: for every adjacent pair of blocks,
// checks the hash chain, the difficulty proof, and that every non-system
// transaction carries a signature that both verifies and derives to its
// claimed sender.
func (e *Engine) IsChainValid() error {
	chain := e.currentSnapshot().chain
	if len(chain) == 0 {
		return modules.ErrGenesisMissing
	}

	for i, block := range chain {
		if err := block.VerifyHash(); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		if i > 0 && block.PreviousHash != chain[i-1].Hash {
			return fmt.Errorf("block %d: previousHash %s does not match block %d's hash %s",
				i, block.PreviousHash, i-1, chain[i-1].Hash)
		}
		for j, tx := range block.Transactions {
			if err := verifyCommittedTransaction(tx); err != nil {
				return fmt.Errorf("block %d transaction %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// verifyCommittedTransaction checks that tx is either a recognized system
// transaction or a validly signed, correctly owned transfer.
func verifyCommittedTransaction(tx types.Transaction) error {
	if tx.Data.IsSystem() {
		if tx.From != "" || tx.Signature != nil {
			return fmt.Errorf("system transaction of type %q carries a from/signature", tx.Data.Type)
		}
		return nil
	}
	if tx.Signature == nil {
		return fmt.Errorf("non-system transaction from %s has no signature", tx.From)
	}

	hash, err := tx.Hash()
	if err != nil {
		return fmt.Errorf("could not rebuild signing payload: %w", err)
	}
	der, err := tx.Signature.DER()
	if err != nil {
		return fmt.Errorf("malformed signature: %w", err)
	}
	pubKey, err := crypto.PublicKeyFromHex(tx.Signature.PublicKey)
	if err != nil {
		return fmt.Errorf("malformed public key: %w", err)
	}
	if err := crypto.VerifyHash(hash, pubKey, der); err != nil {
		return fmt.Errorf("signature does not verify: %w", err)
	}
	if !addressOwnsKey(tx.From, pubKey) {
		return fmt.Errorf("public key does not derive to claimed sender %s", tx.From)
	}
	return nil
}
