package api

import (
	"context"

	"github.com/quillpay/quill/events"
	"github.com/quillpay/quill/models"
	"github.com/quillpay/quill/transfer"
)

// CoreIface is used to get around a circular import of the Core package.
type CoreIface interface {
	AccountID() (string, error)
	Principal() string
	Balance(ctx context.Context) models.Balance
	RefreshBalance(ctx context.Context)
	Transfer(ctx context.Context, amount models.Amount, to string, fee models.Amount) (transfer.Result, error)
	LoadTransactions(ctx context.Context) ([]models.Transaction, error)
	FilterTransactions(direction models.TransactionDirection, search string) []models.Transaction
	TransactionFee(ctx context.Context) models.Amount
	AssetPriceUSD(ctx context.Context) models.Amount
	Login(principal string) error
	Logout()
	SessionSnapshot() *models.WalletSession
	UsingTestnet() bool
	SubscribeEvent(event interface{}) (events.Subscription, error)
}
