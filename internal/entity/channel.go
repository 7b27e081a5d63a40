package entity

type Channel string

const (
	ChannelCard          Channel = "card"
	ChannelWalletBalance Channel = "wallet_balance"
	ChannelBankTransfer  Channel = "bank_transfer"
	ChannelApplePay      Channel = "apple_pay"
	ChannelGooglePay     Channel = "google_pay"
)

type PaymentOption struct {
	ID    Channel `json:"id"`
	Label string  `json:"label"`
}

var walletOptions = []PaymentOption{
	{ID: ChannelWalletBalance, Label: "Wallet balance"},
	{ID: ChannelBankTransfer, Label: "Bank transfer"},
	{ID: ChannelApplePay, Label: "Apple Pay"},
	{ID: ChannelGooglePay, Label: "Google Pay"},
}

// WalletOptions lists the simulated settlement options offered to payers.
func WalletOptions() []PaymentOption {
	out := make([]PaymentOption, len(walletOptions))
	copy(out, walletOptions)
	return out
}

func (c Channel) IsWallet() bool {
	for _, o := range walletOptions {
		if o.ID == c {
			return true
		}
	}
	return false
}
