package domain

// TopicBanksReplaced is published after the bank collection is overwritten.
const TopicBanksReplaced = "banks:replaced"

// BanksReplacedEvent is the payload of TopicBanksReplaced.
type BanksReplacedEvent struct {
	Total   int
	Deleted []string // IDs of banks flagged deleted but still stored
}

// TopicReloginRequired is published when a bank's credentials have expired
// and the owner must go through Link again.
const TopicReloginRequired = "bank:relogin_required"

// ReloginRequiredEvent is the payload of TopicReloginRequired.
type ReloginRequiredEvent struct {
	BankID   string
	BankName string
	Code     string
}
