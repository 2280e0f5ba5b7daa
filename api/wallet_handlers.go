package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/quillpay/quill/models"
)

type walletBalanceResponse struct {
	Amount     string            `json:"amount"`
	Decimal    string            `json:"decimal"`
	Provenance models.Provenance `json:"provenance"`
	ObservedAt time.Time         `json:"observedAt"`
	Error      string            `json:"error,omitempty"`
}

func (g *Gateway) handleGETBalance(w http.ResponseWriter, r *http.Request) {
	balance := g.node.Balance(r.Context())

	sanitizedJSONResponse(w, walletBalanceResponse{
		Amount:     balance.Amount.String(),
		Decimal:    balance.Amount.Decimal(),
		Provenance: balance.Provenance,
		ObservedAt: balance.ObservedAt,
		Error:      balance.Err,
	})
}

func (g *Gateway) handlePOSTRefreshBalance(w http.ResponseWriter, r *http.Request) {
	g.node.RefreshBalance(r.Context())
	g.handleGETBalance(w, r)
}

type walletAddressResponse struct {
	Principal string `json:"principal"`
	AccountID string `json:"accountID"`
}

func (g *Gateway) handleGETAddress(w http.ResponseWriter, r *http.Request) {
	accountID, err := g.node.AccountID()
	if err != nil {
		http.Error(w, wrapError(err), http.StatusBadRequest)
		return
	}

	sanitizedJSONResponse(w, walletAddressResponse{
		Principal: g.node.Principal(),
		AccountID: accountID,
	})
}

func (g *Gateway) handleGETTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		direction = r.URL.Query().Get("direction")
		search    = r.URL.Query().Get("search")
	)

	// A filtered read is served from the session. An unfiltered read
	// loads from the remote ledger and merges first.
	if direction != "" || search != "" {
		var d models.TransactionDirection
		switch direction {
		case "":
		case "incoming", "INCOMING":
			d = models.DirectionIncoming
		case "outgoing", "OUTGOING":
			d = models.DirectionOutgoing
		default:
			http.Error(w, wrapError(models.ValidationError{Reason: "unknown direction"}), http.StatusBadRequest)
			return
		}
		sanitizedJSONResponse(w, g.node.FilterTransactions(d, search))
		return
	}

	transactions, err := g.node.LoadTransactions(r.Context())
	if err != nil {
		if err == models.ErrSessionInvalid {
			http.Error(w, wrapError(err), http.StatusUnauthorized)
			return
		}
		http.Error(w, wrapError(err), http.StatusInternalServerError)
		return
	}
	sanitizedJSONResponse(w, transactions)
}

type walletFeeResponse struct {
	Fee     string `json:"fee"`
	Decimal string `json:"decimal"`
}

func (g *Gateway) handleGETFee(w http.ResponseWriter, r *http.Request) {
	fee := g.node.TransactionFee(r.Context())

	sanitizedJSONResponse(w, walletFeeResponse{
		Fee:     fee.String(),
		Decimal: fee.Decimal(),
	})
}

type walletPriceResponse struct {
	PriceUSD string `json:"priceUSD"`
}

func (g *Gateway) handleGETPrice(w http.ResponseWriter, r *http.Request) {
	price := g.node.AssetPriceUSD(r.Context())

	sanitizedJSONResponse(w, walletPriceResponse{
		PriceUSD: price.Decimal(),
	})
}

func (g *Gateway) handleGETSession(w http.ResponseWriter, r *http.Request) {
	sanitizedJSONResponse(w, g.node.SessionSnapshot())
}

func (g *Gateway) handlePOSTSpend(w http.ResponseWriter, r *http.Request) {
	type Spend struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
		Fee    string `json:"fee"`
	}

	var spendData Spend
	if err := json.NewDecoder(r.Body).Decode(&spendData); err != nil {
		http.Error(w, wrapError(err), http.StatusBadRequest)
		return
	}

	amount, err := models.AmountFromDecimal(spendData.Amount)
	if err != nil {
		http.Error(w, wrapError(err), http.StatusBadRequest)
		return
	}

	fee := g.node.TransactionFee(r.Context())
	if spendData.Fee != "" {
		fee, err = models.AmountFromDecimal(spendData.Fee)
		if err != nil {
			http.Error(w, wrapError(err), http.StatusBadRequest)
			return
		}
	}

	result, err := g.node.Transfer(r.Context(), amount, spendData.To, fee)
	if models.IsValidationError(err) {
		http.Error(w, wrapError(err), http.StatusBadRequest)
		return
	} else if models.IsTransferRejected(err) {
		http.Error(w, wrapError(err), http.StatusConflict)
		return
	} else if err != nil {
		http.Error(w, wrapError(err), http.StatusInternalServerError)
		return
	}

	sanitizedJSONResponse(w, result)
}

// handlePOSTLogin accepts the login and returns 200 once the principal
// has been validated and handed to the session. Activation is
// asynchronous: the session becomes valid shortly after, and clients
// that need it immediately should wait for the SessionStarted
// notification on the websocket before issuing session-bound requests.
func (g *Gateway) handlePOSTLogin(w http.ResponseWriter, r *http.Request) {
	type Login struct {
		Principal string `json:"principal"`
	}

	var loginData Login
	if err := json.NewDecoder(r.Body).Decode(&loginData); err != nil {
		http.Error(w, wrapError(err), http.StatusBadRequest)
		return
	}

	if err := g.node.Login(loginData.Principal); err != nil {
		http.Error(w, wrapError(err), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (g *Gateway) handlePOSTLogout(w http.ResponseWriter, r *http.Request) {
	g.node.Logout()
	w.WriteHeader(http.StatusOK)
}
