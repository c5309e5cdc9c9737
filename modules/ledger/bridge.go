package ledger

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"ledgerd/modules"
	"ledgerd/types"
)

// AdmitSystemTransaction issues a bridge-in system transaction directly
// into the mempool (spec §6, "Cross-chain helper"). Unlike Submit, it skips
// signature and ownership verification entirely: the caller authenticated
// out-of-band with the operator's bridge credential rather than an account
// key, which is why the HTTP adapter gates this entrypoint behind a
// separate x-bridge-key header distinct from the regular x-api-key.
func (e *Engine) AdmitSystemTransaction(ctx context.Context, req modules.BridgeInRequest) (types.Transaction, error) {
	if strings.TrimSpace(req.To) == "" {
		return types.Transaction{}, modules.NewError(modules.KindBadRequest, "missing field: to")
	}
	if req.Amount <= 0 {
		return types.Transaction{}, modules.NewError(modules.KindBadRequest, "amount must be a positive number")
	}

	tx := types.Transaction{
		To:        req.To,
		Amount:    req.Amount,
		Timestamp: time.Now().UnixMilli(),
		Data: types.TxData{
			Type:        types.TxBridgeIn,
			Chain:       req.Chain,
			TokenSymbol: req.TokenSymbol,
		},
	}

	result, err := e.exec(ctx, func(s *engineState) (interface{}, error) {
		stored, err := e.store.SaveTransaction(tx, nil)
		if err != nil {
			return nil, modules.WrapError(modules.KindStorageUnavailable, "could not persist bridge-in transaction", err)
		}
		s.mempool = append(s.mempool, stored)
		return stored, nil
	})
	if err != nil {
		return types.Transaction{}, err
	}

	admitted := result.(types.Transaction)
	e.log.Info("bridge-in system transaction admitted",
		zap.String("to", admitted.To), zap.String("amount", admitted.Amount.String()), zap.String("chain", req.Chain))
	return admitted, nil
}
