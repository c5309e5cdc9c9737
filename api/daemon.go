package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"ledgerd/build"
)

// daemonVersionResponse is the body returned by /api/version.
type daemonVersionResponse struct {
	Version string `json:"version"`
}

// daemonVersionHandler handles the API call that requests the daemon's
// version. ledgerd has no auto-update mechanism: unlike the teacher daemon,
// which phones home to a release server and applies signed binary patches,
// a single-node ledger has no equivalent distribution channel in scope
// here, so this package carries only version reporting.
func (a *API) daemonVersionHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	writeJSON(w, daemonVersionResponse{Version: build.Version})
}
