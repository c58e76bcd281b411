package orders

import (
	"strings"

	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
)

// NormalizePhone reduces the accepted Ghanaian forms (+233XXXXXXXXX,
// 233XXXXXXXXX, 0XXXXXXXXX) to the canonical local form 0XXXXXXXXX.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	switch {
	case strings.HasPrefix(cleaned, "+233"):
		cleaned = "0" + cleaned[4:]
	case strings.HasPrefix(cleaned, "233") && len(cleaned) == 12:
		cleaned = "0" + cleaned[3:]
	}

	if len(cleaned) != 10 || cleaned[0] != '0' {
		return "", pkgerrors.New(pkgerrors.CodeInvalidPhone, "phone number must be a valid Ghanaian number")
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", pkgerrors.New(pkgerrors.CodeInvalidPhone, "phone number must be a valid Ghanaian number")
		}
	}
	return cleaned, nil
}

// MatchesNetwork reports whether a normalized phone belongs to the carrier.
func MatchesNetwork(phone string, network enums.Network) bool {
	if len(phone) < 3 {
		return false
	}
	prefix := phone[:3]
	for _, p := range network.Prefixes() {
		if p == prefix {
			return true
		}
	}
	return false
}
