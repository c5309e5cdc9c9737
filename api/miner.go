package api

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// mineRequest is the JSON body accepted by POST /api/mine.
type mineRequest struct {
	MinerAddress string `json:"minerAddress"`
}

// mineHandler handles the API call that mines a block, crediting the
// reward (and any clamp/halving adjustment) to the supplied miner address.
func (a *API) mineHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var body mineRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, Error{Message: "malformed request body: " + err.Error()}, http.StatusBadRequest)
		return
	}
	if body.MinerAddress == "" {
		writeError(w, Error{Message: "minerAddress is required"}, http.StatusBadRequest)
		return
	}

	block, err := a.ledger.Mine(req.Context(), body.MinerAddress)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, block)
}
