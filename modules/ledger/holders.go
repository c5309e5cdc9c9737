package ledger

import "ledgerd/modules"

// GetHolders returns every address with a nonzero balance, scanning the
// same committed-chain-plus-mempool view scanBalance uses elsewhere, so a
// holder listed here always agrees with what GetBalance would report for
// that address.
func (e *Engine) GetHolders() ([]modules.Holder, error) {
	snap := e.currentSnapshot()

	seen := make(map[string]bool)
	var addresses []string
	record := func(addr string) {
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		addresses = append(addresses, addr)
	}

	for _, block := range snap.chain {
		for _, tx := range block.Transactions {
			record(tx.From)
			record(tx.To)
		}
	}
	for _, tx := range snap.mempool {
		record(tx.From)
		record(tx.To)
	}

	var holders []modules.Holder
	for _, addr := range addresses {
		bal := scanBalance(snap.chain, snap.mempool, addr)
		if bal.IsZero() {
			continue
		}
		holders = append(holders, modules.Holder{Address: addr, Balance: bal})
	}
	return holders, nil
}
