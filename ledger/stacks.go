package ledger

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ziflex/lecho/v3"
)

// StacksClient talks to a Stacks API node. All invoice reads go through the
// contract's read-only endpoint, the tip height comes from /v2/info.
type StacksClient struct {
	config     *Config
	httpClient *http.Client
	logger     *lecho.Logger
}

var _ Client = (*StacksClient)(nil)

func NewStacksClient(config *Config, logger *lecho.Logger) *StacksClient {
	return &StacksClient{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.RequestTimeout) * time.Second,
		},
		logger: logger,
	}
}

type callReadRequest struct {
	Sender    string   `json:"sender"`
	Arguments []string `json:"arguments"`
}

type callReadResponse struct {
	Okay   bool   `json:"okay"`
	Result string `json:"result"`
	Cause  string `json:"cause"`
}

func (c *StacksClient) GetInvoiceCount(ctx context.Context) (uint64, error) {
	rec, err := c.callReadOnly(ctx, "get-invoice-count", nil)
	if err != nil {
		return 0, err
	}
	if ok := rec.UnwrapOk(); ok != nil {
		rec = ok
	}
	count, valid := rec.UintValue()
	if !valid {
		return 0, fmt.Errorf("get-invoice-count returned a non-uint value")
	}
	return count, nil
}

func (c *StacksClient) GetInvoiceID(ctx context.Context, index uint64) (string, error) {
	rec, err := c.callReadOnly(ctx, "get-invoice-id", [][]byte{EncodeUint(index)})
	if err != nil {
		return "", err
	}
	if ok := rec.UnwrapOk(); ok != nil {
		rec = ok
	}
	id, valid := rec.UnwrapOptional().Field("invoice-id").UnwrapOptional().StringValue()
	if !valid {
		return "", fmt.Errorf("get-invoice-id %d returned no invoice-id field", index)
	}
	return id, nil
}

func (c *StacksClient) GetInvoiceRecord(ctx context.Context, id string) (*RawRecord, error) {
	rec, err := c.callReadOnly(ctx, "get-invoice", [][]byte{EncodeStringASCII(id)})
	if err != nil {
		return nil, err
	}
	if ok := rec.UnwrapOk(); ok != nil {
		rec = ok
	}
	return rec, nil
}

func (c *StacksClient) GetTipHeight(ctx context.Context) (uint64, error) {
	var info struct {
		StacksTipHeight uint64 `json:"stacks_tip_height"`
	}
	err := c.request(ctx, http.MethodGet, "/v2/info", nil, "", &info)
	if err != nil {
		return 0, err
	}
	return info.StacksTipHeight, nil
}

// SubmitPayment broadcasts the caller-signed payment transaction. The proof
// buffer is opaque to us, settlement happens inside the contract.
func (c *StacksClient) SubmitPayment(ctx context.Context, req *SubmitPaymentRequest) (*SubmitPaymentResponse, error) {
	var txid string
	err := c.request(ctx, http.MethodPost, "/v2/transactions", bytes.NewReader(req.Proof), "application/octet-stream", &txid)
	if err != nil {
		return nil, err
	}
	c.logger.Infof("Broadcast payment for invoice %s amount %d: %s", req.InvoiceID, req.Amount, txid)
	return &SubmitPaymentResponse{TransactionID: txid}, nil
}

func (c *StacksClient) callReadOnly(ctx context.Context, function string, args [][]byte) (*RawRecord, error) {
	hexArgs := make([]string, len(args))
	for i, arg := range args {
		hexArgs[i] = "0x" + hex.EncodeToString(arg)
	}
	body, err := json.Marshal(callReadRequest{
		Sender:    c.config.SenderAddress,
		Arguments: hexArgs,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/v2/contracts/call-read/%s/%s/%s",
		c.config.ContractAddress, c.config.ContractName, function)
	callResp := callReadResponse{}
	err = c.request(ctx, http.MethodPost, endpoint, bytes.NewReader(body), "application/json", &callResp)
	if err != nil {
		return nil, err
	}
	if !callResp.Okay {
		return nil, fmt.Errorf("%w: %s rejected: %s", ErrLedgerUnavailable, function, callResp.Cause)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(callResp.Result, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%s returned invalid hex: %v", function, err)
	}
	return ParseClarityValue(raw)
}

func (c *StacksClient) request(ctx context.Context, method, endpoint string, body *bytes.Reader, contentType string, response interface{}) error {
	operation := func() error {
		var reqBody *bytes.Reader
		if body != nil {
			if _, err := body.Seek(0, 0); err != nil {
				return backoff.Permanent(err)
			}
			reqBody = body
		}
		var httpReq *http.Request
		var err error
		if reqBody != nil {
			httpReq, err = http.NewRequestWithContext(ctx, method, c.config.StacksAPIUrl+endpoint, reqBody)
		} else {
			httpReq, err = http.NewRequestWithContext(ctx, method, c.config.StacksAPIUrl+endpoint, nil)
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		if contentType != "" {
			httpReq.Header.Set("Content-Type", contentType)
		}
		if c.config.APIKey != "" {
			httpReq.Header.Set("x-api-key", c.config.APIKey)
		}
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("got status code %d from %s", resp.StatusCode, httpReq.URL)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("got status code %d from %s", resp.StatusCode, httpReq.URL))
		}
		return json.NewDecoder(resp.Body).Decode(response)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.config.MaxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return nil
}
