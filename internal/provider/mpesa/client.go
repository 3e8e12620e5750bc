// internal/provider/mpesa/client.go
package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"mpesa-gateway/config"
	"mpesa-gateway/pkg/security"

	"go.uber.org/zap"
)

const stkPushPath = "/mpesa/stkpush/v1/processrequest"

// STKPushRequest is the Lipa Na M-Pesa Online request body. Field names
// are part of the wire contract; everything is a string on the wire,
// including Amount.
type STKPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is the provider's synchronous acknowledgment. The two
// request IDs are the correlation key the later callback will echo; the
// acknowledgment itself says nothing about the payment outcome.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
}

// Client submits push-payment requests over a mutually-authenticated
// HTTPS channel. One call makes one attempt; retries belong to callers.
type Client struct {
	cfg        config.MpesaConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// New loads the client key pair from cfg.CertificatePath and builds the
// mutual-TLS transport. Unusable key material is a *security.CertificateError.
func New(cfg config.MpesaConfig, logger *zap.Logger) (*Client, error) {
	cert, err := security.LoadKeyPair(cfg.CertificatePath)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:        cfg,
		httpClient: NewTransport(cert, cfg.HTTPTimeout),
		logger:     logger,
	}, nil
}

// NewWithHTTPClient bypasses key-pair loading; used by tests that talk
// to a stub provider over plain HTTP.
func NewWithHTTPClient(cfg config.MpesaConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger}
}

// STKPush asks the network to prompt phoneNumber for approval of amount.
// The returned acknowledgment carries the correlation IDs a later
// stk_callback delivery will reference.
func (c *Client) STKPush(ctx context.Context, phoneNumber string, amount float64, accountReference, transactionDesc string) (*STKPushResponse, error) {
	token, err := c.accessTokenCached(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := Credentials(c.cfg.BusinessShortCode, c.cfg.Passkey)
	request := STKPushRequest{
		BusinessShortCode: c.cfg.BusinessShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            strconv.FormatFloat(amount, 'f', -1, 64),
		PartyA:            phoneNumber,
		PartyB:            c.cfg.PartyB,
		PhoneNumber:       phoneNumber,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountReference,
		TransactionDesc:   transactionDesc,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+stkPushPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	c.logger.Info("initiating STK push",
		zap.String("phone_number", phoneNumber),
		zap.String("account_reference", accountReference),
		zap.Float64("amount", amount))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("STK push rejected by provider",
			zap.Int("status", resp.StatusCode))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var response STKPushResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		// a 2xx with an undocumented body shape is a protocol
		// violation, not a success to default over
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	c.logger.Info("STK push acknowledged",
		zap.String("merchant_request_id", response.MerchantRequestID),
		zap.String("checkout_request_id", response.CheckoutRequestID),
		zap.String("response_code", response.ResponseCode))

	return &response, nil
}

// accessTokenCached returns the cached OAuth token, refreshing it when
// within a minute of expiry.
func (c *Client) accessTokenCached(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.accessToken, nil
	}

	token, expiresIn, err := c.fetchAccessToken(ctx)
	if err != nil {
		return "", err
	}
	c.accessToken = token
	c.tokenExpiry = time.Now().Add(expiresIn)
	return token, nil
}

func (c *Client) fetchAccessToken(ctx context.Context) (string, time.Duration, error) {
	url := c.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to build token request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &RequestError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", 0, &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if result.AccessToken == "" {
		return "", 0, &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	expiresIn := time.Hour
	if secs, err := strconv.Atoi(result.ExpiresIn); err == nil && secs > 0 {
		expiresIn = time.Duration(secs) * time.Second
	}

	return result.AccessToken, expiresIn, nil
}
