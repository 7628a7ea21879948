package models

import "time"

// User is a registered account. Users are keyed by username; the password hash
// is never serialized.
type User struct {
	Username           string `json:"username"`
	PasswordHash       string `json:"-"`
	Email              string `json:"email"`
	NativeFiatCurrency string `json:"nativeFiatCurrency"`
}

// Wallet is one holding of a currency asset for a user.
type Wallet struct {
	ID             int     `json:"id"`
	UserID         string  `json:"userId"`
	CurrencyName   string  `json:"currencyName"`
	CurrencyAmount float64 `json:"currencyAmount"`
	CurrencyType   string  `json:"currencyType"` // "fiat" or "crypto"
}

// WatchlistEntry is a crypto asset a user is watching.
type WatchlistEntry struct {
	ID         int    `json:"id"`
	UserID     string `json:"userId"`
	CryptoName string `json:"cryptoName"`
}

// Transaction is one entry of the permanent ledger: a buy, sell, deposit, or
// withdraw event. Entries are never updated or deleted once written.
type Transaction struct {
	ID                  int       `json:"id"`
	UserID              string    `json:"userId"`
	TransactionType     string    `json:"transactionType"`
	StartCurrencyName   string    `json:"startCurrencyName"`
	StartCurrencyAmount float64   `json:"startCurrencyAmount"`
	StartCurrencyType   string    `json:"startCurrencyType"`
	EndCurrencyName     string    `json:"endCurrencyName"`
	EndCurrencyAmount   float64   `json:"endCurrencyAmount"`
	EndCurrencyType     string    `json:"endCurrencyType"`
	TimestampUTC        time.Time `json:"timestampUtc"`
}
