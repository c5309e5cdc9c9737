package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"ledgerd/modules"
	"ledgerd/types"
)

// requireBridgeKey is middleware requiring the x-bridge-key credential,
// distinct from and in addition to the regular x-api-key. An empty key
// disables the route entirely rather than allowing it unauthenticated,
// since an unset bridge credential means the operator never configured the
// cross-chain helper.
func requireBridgeKey(h httprouter.Handle, key string) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		if key == "" {
			writeError(w, Error{Message: "bridge-in is not configured on this node"}, http.StatusNotFound)
			return
		}
		supplied := req.Header.Get(modules.BridgeKeyHeader)
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(key)) != 1 {
			writeError(w, Error{Message: "bridge authentication failed"}, http.StatusUnauthorized)
			return
		}
		h(w, req, ps)
	}
}

// bridgeInRequest is the JSON body accepted by POST /api/bridge.
type bridgeInRequest struct {
	To          string `json:"to"`
	Amount      string `json:"amount"`
	Chain       string `json:"chain"`
	TokenSymbol string `json:"tokenSymbol"`
}

func (a *API) bridgeInHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var body bridgeInRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, Error{Message: "malformed request body: " + err.Error()}, http.StatusBadRequest)
		return
	}
	amount, err := types.NewAmount(body.Amount)
	if err != nil {
		writeError(w, Error{Message: "malformed amount: " + err.Error()}, http.StatusBadRequest)
		return
	}

	tx, err := a.ledger.AdmitSystemTransaction(req.Context(), modules.BridgeInRequest{
		To:          body.To,
		Amount:      amount,
		Chain:       body.Chain,
		TokenSymbol: body.TokenSymbol,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, tx)
}
