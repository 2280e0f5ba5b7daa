package api

import (
	"context"

	"github.com/quillpay/quill/events"
	"github.com/quillpay/quill/models"
	"github.com/quillpay/quill/transfer"
)

type mockNode struct {
	accountIDFunc          func() (string, error)
	principalFunc          func() string
	balanceFunc            func(ctx context.Context) models.Balance
	refreshBalanceFunc     func(ctx context.Context)
	transferFunc           func(ctx context.Context, amount models.Amount, to string, fee models.Amount) (transfer.Result, error)
	loadTransactionsFunc   func(ctx context.Context) ([]models.Transaction, error)
	filterTransactionsFunc func(direction models.TransactionDirection, search string) []models.Transaction
	transactionFeeFunc     func(ctx context.Context) models.Amount
	assetPriceUSDFunc      func(ctx context.Context) models.Amount
	loginFunc              func(principal string) error
	logoutFunc             func()
	sessionSnapshotFunc    func() *models.WalletSession
	usingTestnetFunc       func() bool
	subscribeEventFunc     func(event interface{}) (events.Subscription, error)
}

func (m *mockNode) AccountID() (string, error) {
	return m.accountIDFunc()
}

func (m *mockNode) Principal() string {
	return m.principalFunc()
}

func (m *mockNode) Balance(ctx context.Context) models.Balance {
	return m.balanceFunc(ctx)
}

func (m *mockNode) RefreshBalance(ctx context.Context) {
	m.refreshBalanceFunc(ctx)
}

func (m *mockNode) Transfer(ctx context.Context, amount models.Amount, to string, fee models.Amount) (transfer.Result, error) {
	return m.transferFunc(ctx, amount, to, fee)
}

func (m *mockNode) LoadTransactions(ctx context.Context) ([]models.Transaction, error) {
	return m.loadTransactionsFunc(ctx)
}

func (m *mockNode) FilterTransactions(direction models.TransactionDirection, search string) []models.Transaction {
	return m.filterTransactionsFunc(direction, search)
}

func (m *mockNode) TransactionFee(ctx context.Context) models.Amount {
	return m.transactionFeeFunc(ctx)
}

func (m *mockNode) AssetPriceUSD(ctx context.Context) models.Amount {
	return m.assetPriceUSDFunc(ctx)
}

func (m *mockNode) Login(principal string) error {
	return m.loginFunc(principal)
}

func (m *mockNode) Logout() {
	m.logoutFunc()
}

func (m *mockNode) SessionSnapshot() *models.WalletSession {
	return m.sessionSnapshotFunc()
}

func (m *mockNode) UsingTestnet() bool {
	return m.usingTestnetFunc()
}

func (m *mockNode) SubscribeEvent(event interface{}) (events.Subscription, error) {
	return m.subscribeEventFunc(event)
}
