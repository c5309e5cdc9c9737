package ledger

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"ledgerd/crypto"
	"ledgerd/modules"
	"ledgerd/types"
)

// Submit runs the transaction pipeline described by spec §4.4: shape,
// canonical hash, signature, ownership, balance, advisory, admit, optional
// auto-mine. Every step that fails returns a *modules.LedgerError carrying
// the Kind the HTTP adapter maps to a status code.
func (e *Engine) Submit(ctx context.Context, req modules.SubmitRequest) (types.Transaction, error) {
	if err := validateShape(req); err != nil {
		return types.Transaction{}, err
	}

	timestamp := req.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	hash, err := types.HashForSigning(req.From, req.To, req.Amount, timestamp, req.Data)
	if err != nil {
		return types.Transaction{}, modules.WrapError(modules.KindBadRequest, "could not build signing payload", err)
	}

	der, err := req.Signature.DER()
	if err != nil {
		return types.Transaction{}, modules.WrapError(modules.KindInvalidSignature, "malformed signature components", err)
	}
	pubKey, err := crypto.PublicKeyFromHex(req.Signature.PublicKey)
	if err != nil {
		return types.Transaction{}, modules.WrapError(modules.KindInvalidSignature, "malformed public key", err)
	}
	if err := crypto.VerifyHash(hash, pubKey, der); err != nil {
		return types.Transaction{}, modules.WrapError(modules.KindInvalidSignature, "signature does not verify", err)
	}

	if !addressOwnsKey(req.From, pubKey) {
		return types.Transaction{}, modules.NewError(modules.KindAddressMismatch,
			"public key does not derive to the claimed sender address under any recognized scheme")
	}

	tx := types.Transaction{
		From:      req.From,
		To:        req.To,
		Amount:    req.Amount,
		Timestamp: timestamp,
		Data:      req.Data,
		Signature: &req.Signature,
	}

	result, err := e.exec(ctx, func(s *engineState) (interface{}, error) {
		balance := scanBalance(s.chain, s.mempool, req.From)
		if balance.LessThan(req.Amount) {
			return nil, modules.NewError(modules.KindInsufficientBalance,
				"balance "+balance.String()+" is less than required "+req.Amount.String())
		}

		advisory := e.cfg.advisor().Advise(tx, historyFor(s, req.From))
		e.log.Info("advisory computed for submitted transaction",
			zap.Int("score", advisory.Score), zap.String("notes", advisory.Notes))

		stored, err := e.store.SaveTransaction(tx, nil)
		if err != nil {
			return nil, modules.WrapError(modules.KindStorageUnavailable, "could not persist pending transaction", err)
		}
		s.mempool = append(s.mempool, stored)

		if stored.Data.Type == types.TxContractExecution {
			scanContractBlob(e, stored)
		}

		return stored, nil
	})
	if err != nil {
		return types.Transaction{}, err
	}
	admitted := result.(types.Transaction)

	e.log.Info("transaction admitted to mempool",
		zap.String("from", admitted.From), zap.String("to", admitted.To), zap.String("amount", admitted.Amount.String()))

	if e.cfg.AutoMine {
		go e.autoMine(admitted.To)
	}

	return admitted, nil
}

// autoMine fires a best-effort Mine after a successful Submit when
// configured. Its failure is logged and never surfaced to the original
// caller, per spec §4.4 step 8 and §7's propagation policy.
func (e *Engine) autoMine(recipient string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := e.Mine(ctx, recipient); err != nil && modules.KindOf(err) != modules.KindNoPendingTransactions {
		e.log.Warn("auto-mine attempt failed", zap.Error(err))
	}
}

// validateShape implements spec §4.4 step 1.
func validateShape(req modules.SubmitRequest) error {
	if strings.TrimSpace(req.From) == "" {
		return modules.NewError(modules.KindBadRequest, "missing field: from")
	}
	if strings.TrimSpace(req.To) == "" {
		return modules.NewError(modules.KindBadRequest, "missing field: to")
	}
	if req.Amount <= 0 {
		return modules.NewError(modules.KindBadRequest, "amount must be a positive number")
	}
	if req.Signature.R == "" || req.Signature.S == "" || req.Signature.PublicKey == "" {
		return modules.NewError(modules.KindBadRequest, "missing field: signature.{r,s,publicKey}")
	}
	return nil
}

// addressOwnsKey tries the three recognized derivation schemes (spec §4.2)
// in order, plus the compile-time legacy allowlist.
func addressOwnsKey(from string, pubKey crypto.PublicKey) bool {
	claimed, err := crypto.AddressFromHex(from)
	if err != nil {
		return false
	}
	if crypto.LegacyAllowlist[claimed] {
		return true
	}
	for _, scheme := range []crypto.AddressScheme{crypto.SchemeStandard, crypto.SchemeLegacy, crypto.SchemeWallet} {
		derived, err := crypto.DeriveAddress(pubKey, scheme)
		if err != nil {
			continue
		}
		if derived == claimed {
			return true
		}
	}
	return false
}

// historyFor gathers address's prior transactions for the risk advisor,
// reading the writer-owned state directly since historyFor is only ever
// called from inside a command closure.
func historyFor(s *engineState, address string) []types.Transaction {
	var out []types.Transaction
	for _, block := range s.chain {
		for _, tx := range block.Transactions {
			if equalAddress(tx.From, address) || equalAddress(tx.To, address) {
				out = append(out, tx)
			}
		}
	}
	return out
}
