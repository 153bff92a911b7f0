package plaid

type credentials struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
}

type accessTokenRequest struct {
	credentials
	AccessToken string `json:"access_token"`
}

type publicTokenExchangeRequest struct {
	credentials
	PublicToken string `json:"public_token"`
}

type institutionGetRequest struct {
	credentials
	InstitutionID string   `json:"institution_id"`
	CountryCodes  []string `json:"country_codes"`
}

type account struct {
	AccountID    string  `json:"account_id"`
	Name         string  `json:"name"`
	OfficialName *string `json:"official_name"`
	Subtype      *string `json:"subtype"`
	Type         string  `json:"type"`
}

type accountsGetResponse struct {
	Accounts  []account `json:"accounts"`
	RequestID string    `json:"request_id"`
}

type item struct {
	ItemID        string  `json:"item_id"`
	InstitutionID *string `json:"institution_id"`
}

type itemGetResponse struct {
	Item      item   `json:"item"`
	RequestID string `json:"request_id"`
}

type institution struct {
	InstitutionID string `json:"institution_id"`
	Name          string `json:"name"`
}

type institutionGetResponse struct {
	Institution institution `json:"institution"`
	RequestID   string      `json:"request_id"`
}

type publicTokenCreateResponse struct {
	PublicToken string `json:"public_token"`
	RequestID   string `json:"request_id"`
}

type publicTokenExchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}

type errorResponse struct {
	ErrorType      string  `json:"error_type"`
	ErrorCode      string  `json:"error_code"`
	ErrorMessage   string  `json:"error_message"`
	DisplayMessage *string `json:"display_message"`
	RequestID      string  `json:"request_id"`
}
