package enums

import "fmt"

// TransactionType classifies what a transaction paid for.
type TransactionType string

const (
	TransactionTypeDataBundle      TransactionType = "data_bundle"
	TransactionTypeResultChecker   TransactionType = "result_checker"
	TransactionTypeWalletTopup     TransactionType = "wallet_topup"
	TransactionTypeAgentActivation TransactionType = "agent_activation"
	TransactionTypeAdminRevenue    TransactionType = "admin_revenue"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeDataBundle,
	TransactionTypeResultChecker,
	TransactionTypeWalletTopup,
	TransactionTypeAgentActivation,
	TransactionTypeAdminRevenue,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransactionType.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
