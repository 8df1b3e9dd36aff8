package common

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
)

// TokenDecimals is the decimal convention of the reward token (same as ether).
const TokenDecimals = 18

var (
	ErrParseBigInt      = fmt.Errorf("failed to parse big integer")
	ErrParseTokenAmount = fmt.Errorf("failed to parse token amount")
)

func ParseBigInt(num string) (*big.Int, error) {
	bigNum := new(big.Int)
	_, ok := bigNum.SetString(num, 10)

	if !ok {
		return nil, ErrParseBigInt
	}
	return bigNum, nil
}

// ParseTokenAmount converts a human readable amount ("1", "0.25") into base units
// scaled by 10^decimals. Amounts with more fractional digits than decimals are rejected.
func ParseTokenAmount(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return nil, ErrParseTokenAmount
	}
	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, ErrParseTokenAmount
	}
	whole, frac := parts[0], ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("%w: too many decimal places in %q", ErrParseTokenAmount, amount)
	}
	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("%w: %q", ErrParseTokenAmount, amount)
		}
	}
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, ErrParseTokenAmount
	}
	return v, nil
}

// FormatTokenAmount renders base units as a decimal string, keeping at least one
// fractional digit ("1.0", "0.5", "12.0625").
func FormatTokenAmount(amount *big.Int, decimals int) string {
	if amount == nil {
		amount = big.NewInt(0)
	}
	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, rem := new(big.Int).QuoRem(abs, unit, new(big.Int))

	frac := ""
	if decimals > 0 {
		r := rem.String()
		frac = strings.Repeat("0", decimals-len(r)) + r
		frac = strings.TrimRight(frac, "0")
	}
	if frac == "" {
		frac = "0"
	}
	s := whole.String() + "." + frac
	if neg {
		s = "-" + s
	}
	return s
}

// HumanizeTokenAmount is FormatTokenAmount with thousands separators on the whole part.
func HumanizeTokenAmount(amount *big.Int, decimals int) string {
	s := FormatTokenAmount(amount, decimals)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	parts := strings.SplitN(s, ".", 2)
	whole, _ := new(big.Int).SetString(parts[0], 10)
	out := humanize.BigComma(whole) + "." + parts[1]
	if neg {
		out = "-" + out
	}
	return out
}

// ShortenAccount abbreviates an address for display, e.g. 0x2Fc...f44B
func ShortenAccount(account string) string {
	if len(account) <= 9 {
		return account
	}
	return fmt.Sprintf("%s...%s", account[:5], account[len(account)-4:])
}

// ReadFromFile attempts to read a file at the supplied location.
// If it fails, then the original supplied string will be returned to the caller.
func ReadFromFile(s string) (string, error) {
	info, err := os.Stat(s)
	if err != nil {
		return s, err
	}
	if info.IsDir() {
		return s, fmt.Errorf("supplied path is a directory")
	}
	bytes, err := os.ReadFile(s)
	if err != nil {
		return s, err
	}
	txt := strings.TrimSpace(string(bytes))

	if len(txt) <= 0 {
		return s, fmt.Errorf("supplied file is empty")
	}

	return txt, nil
}
