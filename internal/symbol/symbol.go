package symbol

import (
	"fmt"
	"strings"
	"unicode"
)

// CodeOnly drops an exchange suffix: "rb2405.SHFE" => "rb2405".
func CodeOnly(sym string) (string, error) {
	sym = strings.TrimSpace(sym)
	if sym == "" {
		return "", fmt.Errorf("empty symbol")
	}
	parts := strings.Split(sym, ".")
	if len(parts) == 1 {
		return parts[0], nil
	}
	if len(parts) == 2 && parts[0] != "" {
		return parts[0], nil
	}
	return "", fmt.Errorf("invalid symbol: %q", sym)
}

// ProductOf maps a futures contract to its product code, keeping case:
// - "rb2405" => "rb"
// - "rb2405.SHFE" => "rb"
// - "IF2406" => "IF"
// - "SR409" => "SR" (CZCE uses 3 digits)
// - "ag" => "ag"
// Options such as "m2409-C-3000" map to their underlying product.
func ProductOf(sym string) (string, error) {
	code, err := CodeOnly(sym)
	if err != nil {
		return "", err
	}
	end := strings.IndexFunc(code, func(r rune) bool { return !unicode.IsLetter(r) })
	if end == 0 {
		return "", fmt.Errorf("symbol must start with a product code: %q", sym)
	}
	if end < 0 {
		return code, nil
	}
	return code[:end], nil
}

// ExchangeOf returns the upper-cased suffix of "rb2405.SHFE", or "" without one.
func ExchangeOf(sym string) string {
	sym = strings.TrimSpace(sym)
	i := strings.LastIndex(sym, ".")
	if i < 0 {
		return ""
	}
	return strings.ToUpper(sym[i+1:])
}
