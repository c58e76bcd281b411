package enums

import "fmt"

// ProductType separates the two sellable catalogues.
type ProductType string

const (
	ProductTypeDataBundle    ProductType = "data_bundle"
	ProductTypeResultChecker ProductType = "result_checker"
)

var validProductTypes = []ProductType{
	ProductTypeDataBundle,
	ProductTypeResultChecker,
}

// String implements fmt.Stringer.
func (p ProductType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductType.
func (p ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// TransactionType maps the product to the transaction type it produces.
func (p ProductType) TransactionType() TransactionType {
	if p == ProductTypeResultChecker {
		return TransactionTypeResultChecker
	}
	return TransactionTypeDataBundle
}

// ParseProductType converts raw input into a ProductType.
func ParseProductType(value string) (ProductType, error) {
	for _, candidate := range validProductTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}
