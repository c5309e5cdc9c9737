package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ledgerd/build"
	"ledgerd/crypto"
	"ledgerd/types"
)

var (
	// Flags.
	addr   string // override default API address
	apiKey string // x-api-key credential
)

// Exit codes, inspired by sysexits.h.
const (
	exitCodeGeneral = 1
	exitCodeUsage   = 64
)

type apiError struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func (e apiError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Reason)
	}
	return e.Message
}

func non2xx(code int) bool {
	return code < 200 || code > 299
}

func decodeError(resp *http.Response) error {
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		return err
	}
	return apiErr
}

func resolveAddr() {
	if host, port, _ := net.SplitHostPort(addr); host == "" {
		addr = net.JoinHostPort("localhost", port)
	}
}

func newRequest(method, call string, body []byte) (*http.Request, error) {
	resolveAddr()
	var bodyReader *strings.Reader
	if body != nil {
		bodyReader = strings.NewReader(string(body))
	} else {
		bodyReader = strings.NewReader("")
	}
	req, err := http.NewRequest(method, "http://"+addr+call, bodyReader)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// apiGet wraps a GET request with a status code check: if the response is
// not 2xx, the error is decoded and returned. The response body is not
// closed.
func apiGet(call string) (*http.Response, error) {
	req, err := newRequest(http.MethodGet, call, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.New("no response from daemon")
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, errors.New("API call not recognized: " + call)
	}
	if non2xx(resp.StatusCode) {
		err := decodeError(resp)
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// getAPI makes a GET API call and decodes the response into obj.
func getAPI(call string, obj interface{}) error {
	resp, err := apiGet(call)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(obj)
}

// apiPost wraps a POST request carrying a JSON body.
func apiPost(call string, body []byte) (*http.Response, error) {
	req, err := newRequest(http.MethodPost, call, body)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.New("no response from daemon")
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, errors.New("API call not recognized: " + call)
	}
	if non2xx(resp.StatusCode) {
		err := decodeError(resp)
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// postAPI makes a POST API call with a JSON-encoded body and decodes the
// response into obj.
func postAPI(call string, in, out interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := apiPost(call, raw)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

// die prints its arguments to stderr, then exits the program.
func die(args ...interface{}) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(exitCodeGeneral)
}

// submitTransactionRequest mirrors api.submitTransactionRequest; ledgerc
// builds one client-side by signing with a local private key.
type submitTransactionRequest struct {
	From      string         `json:"from"`
	To        string         `json:"to"`
	Amount    string         `json:"amount"`
	Data      types.TxData   `json:"data,omitempty"`
	Signature types.Signature `json:"signature"`
	Timestamp int64          `json:"timestamp"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Print the balance of an address",
	Long:  "Print the balance of the given address, counting both confirmed and pending (mempool) transactions.",
	Run:   wrapBalance,
}

func wrapBalance(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		cmd.UsageFunc()(cmd)
		os.Exit(exitCodeUsage)
	}
	var balance struct {
		Address string       `json:"address"`
		Balance types.Amount `json:"balance"`
	}
	if err := getAPI("/api/balance/"+args[0], &balance); err != nil {
		die("Could not get balance:", err)
	}
	fmt.Printf("%s: %s\n", balance.Address, balance.Balance.String())
}

var submitCmd = &cobra.Command{
	Use:   "submit [privkey-hex] [to] [amount]",
	Short: "Sign and submit a transfer transaction",
	Long:  "Sign a transfer of amount to the recipient address using the given hex-encoded secp256k1 private key, and submit it to the node's mempool.",
	Run:   wrapSubmit,
}

func wrapSubmit(cmd *cobra.Command, args []string) {
	if len(args) != 3 {
		cmd.UsageFunc()(cmd)
		os.Exit(exitCodeUsage)
	}
	skHex, to, amountStr := args[0], args[1], args[2]

	skBytes, err := hex.DecodeString(strings.TrimPrefix(skHex, "0x"))
	if err != nil || len(skBytes) != crypto.SecretKeySize {
		die("Invalid private key:", err)
	}
	var sk crypto.SecretKey
	copy(sk[:], skBytes)

	pk, err := sk.PublicKey()
	if err != nil {
		die("Could not derive public key:", err)
	}
	from, err := crypto.DeriveAddress(pk, crypto.SchemeStandard)
	if err != nil {
		die("Could not derive address:", err)
	}

	amount, err := types.NewAmount(amountStr)
	if err != nil {
		die("Invalid amount:", err)
	}

	timestamp := time.Now().UnixMilli()
	hash, err := types.HashForSigning(from.String(), to, amount, timestamp, types.TxData{})
	if err != nil {
		die("Could not build signing hash:", err)
	}
	sig, err := crypto.SignHash(hash, sk)
	if err != nil {
		die("Could not sign transaction:", err)
	}
	r, s, err := sig.SplitDER()
	if err != nil {
		die("Could not encode signature:", err)
	}

	req := submitTransactionRequest{
		From:      from.String(),
		To:        to,
		Amount:    amountStr,
		Timestamp: timestamp,
		Signature: types.Signature{R: r, S: s, PublicKey: hex.EncodeToString(pk[:])},
	}
	var tx types.Transaction
	if err := postAPI("/api/transaction", req, &tx); err != nil {
		die("Could not submit transaction:", err)
	}
	txHash, err := tx.Hash()
	if err != nil {
		die("Submitted, but could not compute transaction hash:", err)
	}
	fmt.Printf("Submitted transaction %s\n", txHash)
}

var mineCmd = &cobra.Command{
	Use:   "mine [miner-address]",
	Short: "Mine a block, crediting the given address",
	Long:  "Mine one block over the current mempool, crediting the coinbase reward to miner-address.",
	Run:   wrapMine,
}

func wrapMine(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		cmd.UsageFunc()(cmd)
		os.Exit(exitCodeUsage)
	}
	req := struct {
		MinerAddress string `json:"minerAddress"`
	}{MinerAddress: args[0]}
	var block types.Block
	if err := postAPI("/api/mine", req, &block); err != nil {
		die("Could not mine block:", err)
	}
	fmt.Printf("Mined block %d (hash %s, %d transactions)\n", block.Index, block.Hash, len(block.Transactions))
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Print the node's health status",
	Run:   wrapHealth,
}

func wrapHealth(cmd *cobra.Command, args []string) {
	var health struct {
		Status string `json:"status"`
		Ready  bool   `json:"ready"`
	}
	if err := getAPI("/api/health", &health); err != nil {
		die("Could not get health:", err)
	}
	fmt.Printf("status: %s, ready: %v\n", health.Status, health.Ready)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print ledgerc's version and compare it against the node's",
	Run:   wrapVersion,
}

func wrapVersion(cmd *cobra.Command, args []string) {
	fmt.Println("ledgerc v" + build.Version)

	var remote struct {
		Version string `json:"version"`
	}
	if err := getAPI("/api/version", &remote); err != nil {
		fmt.Println("node version unavailable:", err)
		return
	}
	fmt.Println("ledgerd v" + remote.Version)

	switch build.VersionCmp(build.Version, remote.Version) {
	case 0:
	default:
		if !build.IsVersion(remote.Version) {
			return
		}
		fmt.Println("warning: ledgerc and ledgerd are running different versions")
	}
}

func main() {
	root := &cobra.Command{
		Use:   os.Args[0],
		Short: "ledgerd client v" + build.Version,
		Long:  "ledgerd client v" + build.Version,
	}

	root.AddCommand(versionCmd, balanceCmd, submitCmd, mineCmd, healthCmd)

	root.PersistentFlags().StringVarP(&addr, "addr", "a", "localhost:8080", "which host/port ledgerd is listening on")
	root.PersistentFlags().StringVarP(&apiKey, "api-key", "k", os.Getenv("LEDGERD_API_KEY"), "the node's x-api-key credential")

	if err := root.Execute(); err != nil {
		os.Exit(exitCodeUsage)
	}
}
