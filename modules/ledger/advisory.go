package ledger

import (
	"fmt"

	"ledgerd/modules"
	"ledgerd/types"
)

// VelocityAdvisor is a RiskAdvisor that flags a transaction whose amount is
// large relative to the sender's recent transfer history. It stands in for
// the "Guardian" ML fraud-scoring collaborator spec.md places out of scope:
// a real deployment would swap this for a network call to that service.
// Like every RiskAdvisor, its verdict is informational only — Submit never
// consults Score to decide admission.
type VelocityAdvisor struct {
	// Threshold is the multiple of the sender's average prior transfer
	// amount above which a transaction is flagged.
	Threshold float64
}

// NewVelocityAdvisor returns a VelocityAdvisor with a sensible default
// threshold of 5x the sender's historical average transfer.
func NewVelocityAdvisor() VelocityAdvisor {
	return VelocityAdvisor{Threshold: 5}
}

func (v VelocityAdvisor) Advise(tx types.Transaction, history []types.Transaction) modules.Advisory {
	if len(history) == 0 {
		return modules.Advisory{Score: 0, Notes: "no prior history for sender"}
	}

	var total types.Amount
	var count int
	for _, prior := range history {
		if prior.From == tx.From {
			total = total.Add(prior.Amount)
			count++
		}
	}
	if count == 0 {
		return modules.Advisory{Score: 0, Notes: "no prior outgoing transfers for sender"}
	}

	average := total.Float64() / float64(count)
	threshold := v.Threshold
	if threshold <= 0 {
		threshold = 5
	}
	if average > 0 && tx.Amount.Float64() > average*threshold {
		return modules.Advisory{
			Score: 2,
			Notes: fmt.Sprintf("amount %s exceeds %.1fx sender's average transfer %.8f", tx.Amount.String(), threshold, average),
		}
	}
	return modules.Advisory{Score: 0, Notes: "within normal transfer velocity"}
}
