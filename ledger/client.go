package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cpacia/proxyclient"
	"github.com/quillpay/quill/models"
	"github.com/quillpay/quill/version"
)

// requestTimeout bounds every remote ledger call so a dead endpoint
// degrades into the fallback path instead of hanging the caller.
const requestTimeout = time.Second * 5

// TransferRequest is the wire request for the remote transfer primitive.
// Amounts are minor units with 8 fractional digits.
type TransferRequest struct {
	SenderAccountID    string        `json:"sender"`
	RecipientAccountID string        `json:"recipient"`
	Amount             models.Amount `json:"amount"`
	Fee                models.Amount `json:"fee"`
	Memo               string        `json:"memo,omitempty"`
}

// TransferResponse is the remote ledger's answer to a transfer. On
// success BlockHeight carries the external confirmation id.
type TransferResponse struct {
	Success     bool   `json:"success"`
	BlockHeight uint64 `json:"blockHeight,omitempty"`
	Error       string `json:"error,omitempty"`
}

// TransactionRecord is a confirmed history entry as reported by the
// remote ledger.
type TransactionRecord struct {
	ID          string        `json:"id"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	Amount      models.Amount `json:"amount"`
	Fee         models.Amount `json:"fee"`
	BlockHeight uint64        `json:"blockHeight"`
	Timestamp   time.Time     `json:"timestamp"`
}

// Client is the interface to a remote ledger endpoint for a single
// network profile.
type Client interface {
	// Query returns the minor-unit balance of the given account.
	Query(ctx context.Context, accountID string) (models.Amount, error)

	// Transfer submits a transfer to the ledger. A non-nil error means
	// the call itself failed; an explicit rejection comes back in the
	// response with Success false.
	Transfer(ctx context.Context, req TransferRequest) (TransferResponse, error)

	// History returns the confirmed transaction records for an account.
	History(ctx context.Context, accountID string) ([]TransactionRecord, error)
}

// httpClient is the production Client implementation speaking JSON to
// the network profile's ledger service address.
type httpClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient returns a Client bound to the given ledger base URL.
// The underlying connection respects proxy environment settings.
func NewHTTPClient(baseURL string) Client {
	client := proxyclient.NewHttpClient()
	client.Timeout = requestTimeout
	return &httpClient{baseURL: baseURL, client: client}
}

func (c *httpClient) Query(ctx context.Context, accountID string) (models.Amount, error) {
	body, err := json.Marshal(map[string]string{"account": accountID})
	if err != nil {
		return models.Amount{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return models.Amount{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Amount{}, models.RemoteUnavailableError{Endpoint: c.baseURL + "/query", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Amount{}, models.RemoteUnavailableError{
			Endpoint: c.baseURL + "/query",
			Cause:    fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	var ret struct {
		Balance models.Amount `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ret); err != nil {
		return models.Amount{}, models.RemoteUnavailableError{Endpoint: c.baseURL + "/query", Cause: err}
	}
	return ret.Balance, nil
}

func (c *httpClient) Transfer(ctx context.Context, treq TransferRequest) (TransferResponse, error) {
	body, err := json.Marshal(&treq)
	if err != nil {
		return TransferResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transfer", bytes.NewReader(body))
	if err != nil {
		return TransferResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return TransferResponse{}, models.RemoteUnavailableError{Endpoint: c.baseURL + "/transfer", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TransferResponse{}, models.RemoteUnavailableError{
			Endpoint: c.baseURL + "/transfer",
			Cause:    fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	var ret TransferResponse
	if err := json.NewDecoder(resp.Body).Decode(&ret); err != nil {
		return TransferResponse{}, models.RemoteUnavailableError{Endpoint: c.baseURL + "/transfer", Cause: err}
	}
	return ret, nil
}

func (c *httpClient) History(ctx context.Context, accountID string) ([]TransactionRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history/"+accountID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, models.RemoteUnavailableError{Endpoint: c.baseURL + "/history", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.RemoteUnavailableError{
			Endpoint: c.baseURL + "/history",
			Cause:    fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	var ret struct {
		Transactions []TransactionRecord `json:"transactions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ret); err != nil {
		return nil, models.RemoteUnavailableError{Endpoint: c.baseURL + "/history", Cause: err}
	}
	return ret.Transactions, nil
}
