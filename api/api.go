// Package api implements the HTTP adapter described by the external
// interfaces design: a thin translation layer over modules.Ledger, with its
// own concerns (auth, rate limiting, JSON encoding) kept out of the engine.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	"ledgerd/modules"
	"ledgerd/types"
)

// API encapsulates a modules.Ledger and exposes a http.Handler to reach it.
type API struct {
	ledger modules.Ledger

	apiKey    string
	bridgeKey string
	limiter   *rateLimiter

	Handler http.Handler
}

// NewAPI builds the route table over ledger. apiKey, if non-empty, is
// required (via the x-api-key header or an apiKey query parameter) on every
// route except /api/health, which is never authenticated. bridgeKey, if non-empty, is additionally required (via
// x-bridge-key) on the bridge-in endpoint; an empty bridgeKey disables that
// endpoint entirely.
func NewAPI(ledger modules.Ledger, apiKey, bridgeKey string) *API {
	a := &API{
		ledger:    ledger,
		apiKey:    apiKey,
		bridgeKey: bridgeKey,
		limiter:   newRateLimiter(modules.RateLimitMaxRequests, modules.RateLimitWindow),
	}
	a.Handler = a.initAPI()
	return a
}

// Close releases the underlying ledger's resources.
func (a *API) Close() error {
	return a.ledger.Close()
}

// requireAPIKey is middleware that requires a request to authenticate with
// the configured API key, via header or query parameter, compared in
// constant time. An empty configured key disables the check (useful for
// local development).
func requireAPIKey(h httprouter.Handle, key string) httprouter.Handle {
	if key == "" {
		return h
	}
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		supplied := req.Header.Get(modules.APIKeyHeader)
		if supplied == "" {
			supplied = req.URL.Query().Get("apiKey")
		}
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(key)) != 1 {
			writeError(w, Error{Message: "API authentication failed"}, http.StatusUnauthorized)
			return
		}
		h(w, req, ps)
	}
}

// rateLimit is middleware enforcing a.limiter ahead of h.
func (a *API) rateLimit(h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		if !a.limiter.allow(clientIP(req)) {
			writeError(w, Error{Message: "rate limit exceeded"}, http.StatusTooManyRequests)
			return
		}
		h(w, req, ps)
	}
}

func clientIP(req *http.Request) string {
	if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		return host
	}
	return req.RemoteAddr
}

// initAPI builds the route table.
func (a *API) initAPI() http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(a.unrecognizedCallHandler)

	router.GET("/api/health", a.healthHandler)
	router.GET("/api/version", a.rateLimit(requireAPIKey(a.daemonVersionHandler, a.apiKey)))
	router.GET("/api/blockchain", a.rateLimit(requireAPIKey(a.blockchainHandler, a.apiKey)))
	router.GET("/api/chain", a.rateLimit(requireAPIKey(a.chainHandler, a.apiKey)))
	router.GET("/api/balance/:address", a.rateLimit(requireAPIKey(a.balanceHandler, a.apiKey)))
	router.GET("/api/transactions/pending", a.rateLimit(requireAPIKey(a.pendingTransactionsHandler, a.apiKey)))
	router.GET("/api/transactions/:address", a.rateLimit(requireAPIKey(a.transactionsHandler, a.apiKey)))
	router.POST("/api/transaction", a.rateLimit(requireAPIKey(a.submitTransactionHandler, a.apiKey)))
	router.POST("/api/mine", a.rateLimit(requireAPIKey(a.mineHandler, a.apiKey)))
	router.GET("/api/supply", a.rateLimit(requireAPIKey(a.supplyHandler, a.apiKey)))
	router.GET("/api/total-supply", a.rateLimit(requireAPIKey(a.totalSupplyHandler, a.apiKey)))
	router.GET("/api/circulating-supply", a.rateLimit(requireAPIKey(a.circulatingSupplyHandler, a.apiKey)))
	router.GET("/api/max-supply", a.rateLimit(requireAPIKey(a.maxSupplyHandler, a.apiKey)))
	router.GET("/api/holders", a.rateLimit(requireAPIKey(a.holdersHandler, a.apiKey)))
	router.POST("/api/bridge", a.rateLimit(requireAPIKey(requireBridgeKey(a.bridgeInHandler, a.bridgeKey), a.apiKey)))

	return cleanCloseHandler(router)
}

// unrecognizedCallHandler handles calls to unknown routes (404).
func (a *API) unrecognizedCallHandler(w http.ResponseWriter, req *http.Request) {
	writeError(w, Error{Message: "404 - route not recognized"}, http.StatusNotFound)
}

func (a *API) healthHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	writeJSON(w, a.ledger.Health())
}

func (a *API) blockchainHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	chain, err := a.ledger.GetChain()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, chain)
}

func (a *API) chainHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	limit := queryInt(req, "limit", 0)
	offset := queryInt(req, "offset", 0)
	page, err := a.ledger.GetChainPage(limit, offset)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, page)
}

func (a *API) balanceHandler(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	balance, err := a.ledger.GetBalance(ps.ByName("address"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, struct {
		Address string       `json:"address"`
		Balance types.Amount `json:"balance"`
	}{ps.ByName("address"), balance})
}

func (a *API) transactionsHandler(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	history, err := a.ledger.GetTransactionHistory(ps.ByName("address"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, history)
}

func (a *API) pendingTransactionsHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	mempool, err := a.ledger.GetMempool()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, mempool)
}

// submitTransactionRequest is the JSON body accepted by POST /api/transaction.
type submitTransactionRequest struct {
	From      string         `json:"from"`
	To        string         `json:"to"`
	Amount    string         `json:"amount"`
	Data      types.TxData   `json:"data,omitempty"`
	Signature types.Signature `json:"signature"`
	Timestamp int64          `json:"timestamp,omitempty"`
}

func (a *API) submitTransactionHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var body submitTransactionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, Error{Message: "malformed request body: " + err.Error()}, http.StatusBadRequest)
		return
	}
	amount, err := types.NewAmount(body.Amount)
	if err != nil {
		writeError(w, Error{Message: "malformed amount: " + err.Error()}, http.StatusBadRequest)
		return
	}

	tx, err := a.ledger.Submit(req.Context(), modules.SubmitRequest{
		From:      body.From,
		To:        body.To,
		Amount:    amount,
		Data:      body.Data,
		Signature: body.Signature,
		Timestamp: body.Timestamp,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, tx)
}

func (a *API) supplyHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	writeJSON(w, a.ledger.Supply())
}

func (a *API) totalSupplyHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	writeJSON(w, a.ledger.Supply().TotalMined)
}

func (a *API) circulatingSupplyHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	writeJSON(w, a.ledger.Supply().CirculatingSupply)
}

func (a *API) maxSupplyHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	writeJSON(w, a.ledger.Supply().MaxSupply)
}

func (a *API) holdersHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	holders, err := a.ledger.GetHolders()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, holders)
}

func queryInt(req *http.Request, key string, def int) int {
	raw := req.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// writeError writes an error to the API caller.
func writeError(w http.ResponseWriter, err Error, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if json.NewEncoder(w).Encode(err) != nil {
		http.Error(w, "failed to encode error response", http.StatusInternalServerError)
	}
}

// writeJSON writes the object to the ResponseWriter. If the encoding fails,
// an error is written instead. The Content-Type of the response header is
// set accordingly.
func writeJSON(w http.ResponseWriter, obj interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if json.NewEncoder(w).Encode(obj) != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// writeSuccess writes the HTTP header with status 204 No Content to the
// ResponseWriter.
func writeSuccess(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// cleanCloseHandler wraps h so that if the client's request context is
// cancelled mid-response (a timeout, a dropped connection), the handler's
// goroutine is not leaked waiting on further writes the client will never
// read: the ResponseWriter is swapped for one whose Write returns as soon
// as the context is done.
func cleanCloseHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithCancel(req.Context())
		defer cancel()
		cw := &cancelableWriter{ResponseWriter: w, ctx: ctx}
		h.ServeHTTP(cw, req.WithContext(ctx))
	})
}

// cancelableWriter makes Write return early once its context is done,
// rather than blocking on a client that stopped reading.
type cancelableWriter struct {
	http.ResponseWriter
	ctx context.Context
}

func (cw *cancelableWriter) Write(b []byte) (int, error) {
	select {
	case <-cw.ctx.Done():
		return 0, cw.ctx.Err()
	default:
	}
	return cw.ResponseWriter.Write(b)
}

// rateLimiter is a fixed-window per-IP request counter.
type rateLimiter struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	counters map[string]*windowCounter
}

type windowCounter struct {
	count     int
	windowEnd time.Time
}

func newRateLimiter(max int, window time.Duration) *rateLimiter {
	return &rateLimiter{max: max, window: window, counters: make(map[string]*windowCounter)}
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.counters[key]
	if !ok || now.After(c.windowEnd) {
		c = &windowCounter{count: 0, windowEnd: now.Add(rl.window)}
		rl.counters[key] = c
	}
	c.count++
	return c.count <= rl.max
}
