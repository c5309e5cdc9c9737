package ledger

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"ledgerd/modules"
	"ledgerd/types"
)

// suspiciousOpcodes is a small heuristic keyword set the scanner flags.
// None of these change admission: spec's non-goal "no smart-contract VM"
// means the contract surface is stored-and-annotated only, never executed.
var suspiciousOpcodes = []string{"selfdestruct", "delegatecall", "suicide"}

// scanContractBlob stores tx's contract payload and runs the heuristic
// scanner over it, logging a warning if the payload looks risky. It never
// rejects the transaction: by the time this runs, Submit has already
// decided to admit it.
func scanContractBlob(e *Engine, tx types.Transaction) {
	blob := modules.ContractBlob{
		Address:   tx.Data.ContractAddress,
		Code:      tx.Data.Payload,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := e.store.SaveSmartContract(blob); err != nil {
		e.log.Warn("failed to persist contract blob", zap.Error(err))
		return
	}

	if findings := scanHeuristics(blob.Code); len(findings) > 0 {
		e.log.Warn("contract blob flagged by heuristic scanner",
			zap.String("address", blob.Address), zap.Strings("findings", findings))
	}
}

// scanHeuristics performs a pure, dependency-free keyword scan over a
// contract payload, returning the matched keywords. It never executes the
// payload — it is a lexical scan, nothing more.
func scanHeuristics(code string) []string {
	lower := strings.ToLower(code)
	var findings []string
	for _, kw := range suspiciousOpcodes {
		if strings.Contains(lower, kw) {
			findings = append(findings, kw)
		}
	}
	return findings
}

// GetSmartContract exposes the stored blob for the contract address, if
// any, along with its latest heuristic findings. Not part of the
// modules.Ledger interface, and the HTTP adapter has no contract-read
// route; kept here next to the scanner since it shares its heuristics.
func (e *Engine) GetSmartContract(address string) (modules.ContractBlob, []string, bool, error) {
	blob, ok, err := e.store.GetSmartContract(address)
	if err != nil || !ok {
		return blob, nil, ok, err
	}
	return blob, scanHeuristics(blob.Code), true, nil
}
