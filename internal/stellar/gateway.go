package stellar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// GatewayClient talks to the HTTP signing gateway that fronts the ledger
// network. The gateway holds the issuer credential, signs transactions and
// submits them to the network; this client only shapes requests and maps
// failures onto the gateway's error taxonomy.
type GatewayClient struct {
	baseURL    string
	assetCode  string
	issuer     string
	network    string
	httpClient *http.Client
}

// NewGatewayClient configures a ledger client against the signing gateway.
func NewGatewayClient(baseURL, assetCode, issuer, network string) *GatewayClient {
	return &GatewayClient{
		baseURL:    baseURL,
		assetCode:  assetCode,
		issuer:     issuer,
		network:    network,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type createAccountRequest struct {
	Network string `json:"network"`
	Fund    bool   `json:"fund"`
}

type createAccountResponse struct {
	Address string `json:"address"`
	Secret  string `json:"secret"`
}

type trustlineRequest struct {
	Secret    string `json:"secret"`
	AssetCode string `json:"asset_code"`
	Issuer    string `json:"issuer"`
}

type paymentRequest struct {
	SourceSecret string `json:"source_secret"`
	Destination  string `json:"destination"`
	AssetCode    string `json:"asset_code"`
	Issuer       string `json:"issuer"`
	Amount       string `json:"amount"`
}

type mintRequest struct {
	Destination string `json:"destination"`
	AssetCode   string `json:"asset_code"`
	Amount      string `json:"amount"`
}

type submitResponse struct {
	Hash string `json:"hash"`
}

type balanceResponse struct {
	Balance string `json:"balance"`
}

// CreateAccount asks the gateway for a fresh keypair, funded on test
// networks so the account exists before the trustline is attempted.
func (c *GatewayClient) CreateAccount(ctx context.Context) (Keypair, error) {
	var resp createAccountResponse
	err := c.post(ctx, "/accounts", createAccountRequest{Network: c.network, Fund: c.network != "mainnet"}, &resp)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{Address: resp.Address, Secret: resp.Secret}, nil
}

// EstablishTrustline opens a trustline from the account to the gateway asset.
func (c *GatewayClient) EstablishTrustline(ctx context.Context, secret string) (string, error) {
	var resp submitResponse
	err := c.post(ctx, "/trustlines", trustlineRequest{Secret: secret, AssetCode: c.assetCode, Issuer: c.issuer}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Hash, nil
}

// Mint issues tokens to the destination. The issuer credential never leaves
// the gateway, so the request carries no secret.
func (c *GatewayClient) Mint(ctx context.Context, destination string, amount decimal.Decimal) (string, error) {
	var resp submitResponse
	err := c.post(ctx, "/mint", mintRequest{
		Destination: destination,
		AssetCode:   c.assetCode,
		Amount:      amount.Round(Precision).String(),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Hash, nil
}

// SendPayment submits a signed asset payment between two accounts.
func (c *GatewayClient) SendPayment(ctx context.Context, sourceSecret, destination string, amount decimal.Decimal) (string, error) {
	var resp submitResponse
	err := c.post(ctx, "/payments", paymentRequest{
		SourceSecret: sourceSecret,
		Destination:  destination,
		AssetCode:    c.assetCode,
		Issuer:       c.issuer,
		Amount:       amount.Round(Precision).String(),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Hash, nil
}

// Burn pays tokens back to the issuer, which removes them from supply.
func (c *GatewayClient) Burn(ctx context.Context, sourceSecret string, amount decimal.Decimal) (string, error) {
	return c.SendPayment(ctx, sourceSecret, c.issuer, amount)
}

// Balance fetches the live asset balance for an address. Accounts unknown to
// the network report zero.
func (c *GatewayClient) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/accounts/%s/balance?asset=%s", c.baseURL, address, c.assetCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger balance lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, nil
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRejected, string(body))
	}

	var payload balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decode balance response: %w", err)
	}

	return decimal.NewFromString(payload.Balance)
}

func (c *GatewayClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s", ErrRejected, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}
