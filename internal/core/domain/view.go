package domain

// BankView is the response shape of a single bank.
// Accounts is always present; it is empty when the bank is
// deleted or when FetchError is set.
type BankView struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Accounts   []Account   `json:"accounts"`
	Deleted    bool        `json:"deleted,omitempty"`
	FetchError *FetchError `json:"fetchError,omitempty"`
}

// PlaidVars is the Link configuration the client needs to (re)link banks.
type PlaidVars struct {
	Env        string   `json:"env"`
	Key        string   `json:"key"`
	ClientName string   `json:"clientName"`
	Product    []string `json:"product"`
}

// Overview is the body of every GET and PUT /accounts response.
type Overview struct {
	Banks     []BankView `json:"banks"`
	PlaidVars PlaidVars  `json:"plaidVars"`
}
