package models

// WalletSession is the mutable aggregate owned by the session state.
// History is ordered most-recent-first.
type WalletSession struct {
	Principal    string        `json:"principal"`
	Balance      Balance       `json:"balance"`
	Transactions []Transaction `json:"transactions"`
	LoggedIn     bool          `json:"loggedIn"`
}

// Clone returns a deep copy of the session. All reads out of the
// session state return clones so callers can never mutate the
// aggregate directly.
func (s *WalletSession) Clone() *WalletSession {
	cpy := *s
	cpy.Transactions = make([]Transaction, len(s.Transactions))
	copy(cpy.Transactions, s.Transactions)
	return &cpy
}

// IsValid returns true if the session is logged in with a principal.
func (s *WalletSession) IsValid() bool {
	return s.LoggedIn && s.Principal != ""
}

// NameValue holds a named binary blob stored in the database. The name
// field identifies the record and is used as the primary key. The
// persisted wallet session snapshot is stored this way.
type NameValue struct {
	Name  string `gorm:"primaryKey"`
	Value []byte
}
