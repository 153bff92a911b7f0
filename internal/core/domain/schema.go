package domain

// AccountInput is the client-supplied form of an Account.
// Only the fields listed here survive into persistence.
type AccountInput struct {
	ID           string      `json:"id"`
	Enabled      bool        `json:"enabled"`
	Name         string      `json:"name"`
	OfficialName string      `json:"officialName"`
	Type         AccountType `json:"type"`
	PayFrom      bool        `json:"payFrom"`
}

// BankInput is the client-supplied form of a Bank.
type BankInput struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Accounts []AccountInput `json:"accounts"`
	Deleted  bool           `json:"deleted"`
}

// ProjectAccount restricts an account to {id, enabled, name, officialName, type, payFrom}.
func ProjectAccount(in AccountInput) Account {
	return Account{
		ID:           in.ID,
		Enabled:      in.Enabled,
		Name:         in.Name,
		OfficialName: in.OfficialName,
		Type:         in.Type,
		PayFrom:      in.PayFrom,
	}
}

// ProjectBank restricts a bank to {id, name, accounts, deleted}.
// Server-side fields (index, access token) are left zero; callers
// that know the persisted bank copy them over explicitly.
func ProjectBank(in BankInput) Bank {
	bank := Bank{
		ID:      in.ID,
		Name:    in.Name,
		Deleted: in.Deleted,
	}
	if in.Accounts != nil {
		bank.Accounts = make([]Account, len(in.Accounts))
		for i, a := range in.Accounts {
			bank.Accounts[i] = ProjectAccount(a)
		}
	}
	return bank
}

// ProjectBanks applies ProjectBank to every input, preserving order.
func ProjectBanks(in []BankInput) []Bank {
	banks := make([]Bank, len(in))
	for i, b := range in {
		banks[i] = ProjectBank(b)
	}
	return banks
}
