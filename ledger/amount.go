package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MutezPerTez is the number of atomic units in one XTZ.
	MutezPerTez = 1_000_000

	currencySymbol = "XTZ"
	maxDecimals    = 6
)

// Amount is an amount of tez, counted in mutez.
type Amount int64

// ParseAmount parses a decimal XTZ amount like "10", "0.25" or
// "1.5 XTZ".
func ParseAmount(s string) (Amount, error) {
	str := strings.TrimSpace(s)
	if strings.HasSuffix(strings.ToUpper(str), currencySymbol) {
		str = strings.TrimSpace(str[:len(str)-len(currencySymbol)])
	}
	if str == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(str, "-") {
		return 0, fmt.Errorf("negative amount %q", s)
	}

	whole, frac, _ := strings.Cut(str, ".")
	if (whole == "" && frac == "") || !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > maxDecimals {
		return 0, fmt.Errorf("amount %q has more than %d decimals", s, maxDecimals)
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	var f int64
	if frac != "" {
		f, err = strconv.ParseInt(frac+strings.Repeat("0", maxDecimals-len(frac)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
	}
	if w > (1<<63-1-f)/MutezPerTez {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return Amount(w*MutezPerTez + f), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Tez formats the amount as a decimal number of tez without trailing
// zeros, e.g. "2.5".
func (a Amount) Tez() string {
	sign := ""
	if a < 0 {
		sign = "-"
		a = -a
	}
	whole := int64(a) / MutezPerTez
	frac := int64(a) % MutezPerTez
	if frac == 0 {
		return sign + strconv.FormatInt(whole, 10)
	}
	fs := fmt.Sprintf("%06d", frac)
	return fmt.Sprintf("%s%d.%s", sign, whole, strings.TrimRight(fs, "0"))
}

// String returns the amount in the format the zkchannel client expects,
// e.g. "2.5 XTZ".
func (a Amount) String() string {
	return a.Tez() + " " + currencySymbol
}
