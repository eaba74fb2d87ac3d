package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/steemit/steemgosdk"
)

// QueryError wraps a failed chain read. Callers may retry; the engine never
// retries on its own.
type QueryError struct {
	Method string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("chain query %s: %v", e.Method, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Client is a condenser-API JSON-RPC client. Typed read methods cover the
// surface this engine consumes; block and irreversibility lookups go through
// the steemgosdk handle.
type Client struct {
	apiURL     string
	httpClient *http.Client
	sdk        *steemgosdk.API
}

// NewClient creates a client for the given condenser API endpoint.
func NewClient(apiURL string) *Client {
	sdkClient := steemgosdk.GetClient(apiURL)
	return &Client{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		sdk: sdkClient.GetAPI(),
	}
}

// JSONRPCRequest represents a JSON-RPC request
type JSONRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *JSONRPCError   `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// JSONRPCError represents a JSON-RPC error
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call makes a JSON-RPC call against the condenser API.
func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	req := JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, &QueryError{Method: method, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, &QueryError{Method: method, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &QueryError{Method: method, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &QueryError{Method: method, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var jsonResp JSONRPCResponse
	if err := json.Unmarshal(body, &jsonResp); err != nil {
		return nil, &QueryError{Method: method, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	if jsonResp.Error != nil {
		return nil, &QueryError{
			Method: method,
			Err:    fmt.Errorf("JSON-RPC error: %s (code: %d)", jsonResp.Error.Message, jsonResp.Error.Code),
		}
	}

	return jsonResp.Result, nil
}

// GetDynamicGlobalProperties retrieves the chain-wide snapshot.
func (c *Client) GetDynamicGlobalProperties(ctx context.Context) (*DynamicGlobalProperties, error) {
	result, err := c.call(ctx, "condenser_api.get_dynamic_global_properties", []interface{}{})
	if err != nil {
		return nil, err
	}

	var props DynamicGlobalProperties
	if err := json.Unmarshal(result, &props); err != nil {
		return nil, &QueryError{
			Method: "condenser_api.get_dynamic_global_properties",
			Err:    fmt.Errorf("failed to unmarshal properties: %w", err),
		}
	}

	return &props, nil
}

// GetRewardFund retrieves the named reward fund, "post" in practice.
func (c *Client) GetRewardFund(ctx context.Context, name string) (*RewardFund, error) {
	result, err := c.call(ctx, "condenser_api.get_reward_fund", []interface{}{name})
	if err != nil {
		return nil, err
	}

	var fund RewardFund
	if err := json.Unmarshal(result, &fund); err != nil {
		return nil, &QueryError{
			Method: "condenser_api.get_reward_fund",
			Err:    fmt.Errorf("failed to unmarshal reward fund: %w", err),
		}
	}

	return &fund, nil
}

// GetCurrentMedianHistoryPrice retrieves the median STEEM/SBD feed price.
func (c *Client) GetCurrentMedianHistoryPrice(ctx context.Context) (*Price, error) {
	result, err := c.call(ctx, "condenser_api.get_current_median_history_price", []interface{}{})
	if err != nil {
		return nil, err
	}

	var price Price
	if err := json.Unmarshal(result, &price); err != nil {
		return nil, &QueryError{
			Method: "condenser_api.get_current_median_history_price",
			Err:    fmt.Errorf("failed to unmarshal price: %w", err),
		}
	}

	return &price, nil
}

// GetAccounts looks up accounts by name.
func (c *Client) GetAccounts(ctx context.Context, names ...string) ([]Account, error) {
	result, err := c.call(ctx, "condenser_api.get_accounts", []interface{}{names})
	if err != nil {
		return nil, err
	}

	var accounts []Account
	if err := json.Unmarshal(result, &accounts); err != nil {
		return nil, &QueryError{
			Method: "condenser_api.get_accounts",
			Err:    fmt.Errorf("failed to unmarshal accounts: %w", err),
		}
	}

	return accounts, nil
}

// GetAccount looks up a single account; a missing account is an error.
func (c *Client) GetAccount(ctx context.Context, name string) (*Account, error) {
	accounts, err := c.GetAccounts(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, &QueryError{
			Method: "condenser_api.get_accounts",
			Err:    fmt.Errorf("account %q not found", name),
		}
	}
	return &accounts[0], nil
}

// GetAccountHistory fetches one page of an account's operation log. from is
// the highest sequence id to include (-1 for the newest); limit is the page
// size. Entries come back in ascending sequence order.
func (c *Client) GetAccountHistory(ctx context.Context, account string, from int64, limit uint32) ([]HistoryEntry, error) {
	result, err := c.call(ctx, "condenser_api.get_account_history", []interface{}{account, from, limit})
	if err != nil {
		return nil, err
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(result, &entries); err != nil {
		return nil, &QueryError{
			Method: "condenser_api.get_account_history",
			Err:    fmt.Errorf("failed to unmarshal history: %w", err),
		}
	}

	return entries, nil
}

// GetContent fetches a post by author and permlink.
func (c *Client) GetContent(ctx context.Context, author, permlink string) (*Content, error) {
	result, err := c.call(ctx, "condenser_api.get_content", []interface{}{author, permlink})
	if err != nil {
		return nil, err
	}

	var content Content
	if err := json.Unmarshal(result, &content); err != nil {
		return nil, &QueryError{
			Method: "condenser_api.get_content",
			Err:    fmt.Errorf("failed to unmarshal content: %w", err),
		}
	}

	return &content, nil
}

// GetActiveVotes fetches a post's active vote list.
func (c *Client) GetActiveVotes(ctx context.Context, author, permlink string) ([]ActiveVote, error) {
	result, err := c.call(ctx, "condenser_api.get_active_votes", []interface{}{author, permlink})
	if err != nil {
		return nil, err
	}

	var votes []ActiveVote
	if err := json.Unmarshal(result, &votes); err != nil {
		return nil, &QueryError{
			Method: "condenser_api.get_active_votes",
			Err:    fmt.Errorf("failed to unmarshal active votes: %w", err),
		}
	}

	return votes, nil
}

// BroadcastTransactionSynchronous submits a signed transaction and waits for
// the chain to assign it a transaction id.
func (c *Client) BroadcastTransactionSynchronous(ctx context.Context, tx interface{}) (*BroadcastResult, error) {
	result, err := c.call(ctx, "condenser_api.broadcast_transaction_synchronous", []interface{}{tx})
	if err != nil {
		return nil, err
	}

	var br BroadcastResult
	if err := json.Unmarshal(result, &br); err != nil {
		return nil, &QueryError{
			Method: "condenser_api.broadcast_transaction_synchronous",
			Err:    fmt.Errorf("failed to unmarshal broadcast result: %w", err),
		}
	}

	return &br, nil
}

// GetLatestIrreversibleBlockNum returns the newest block that can no longer
// be reverted, via the steemgosdk handle.
func (c *Client) GetLatestIrreversibleBlockNum() (int64, error) {
	dgp, err := c.sdk.GetDynamicGlobalProperties()
	if err != nil {
		return 0, &QueryError{
			Method: "condenser_api.get_dynamic_global_properties",
			Err:    fmt.Errorf("failed to get dynamic global properties: %w", err),
		}
	}
	return int64(dgp.LastIrreversibleBlockNum), nil
}
