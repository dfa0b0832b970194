package sheetmap

import (
	"strconv"
	"strings"

	"github.com/xuri/nfp"
)

// FormatKind classifies a column number format.
type FormatKind int

const (
	FormatNone FormatKind = iota
	FormatDate
	FormatDateTime
	FormatCurrency
	FormatFixed
	FormatCustom
)

const (
	currencyMask = `"$"#,##0.00`
	dateMask     = "mm/dd/yyyy"
	dateTimeMask = "mm/dd/yyyy hh:mm:ss"

	maxFixedDecimals = 30
)

// FormatCode is the resolved number format of a column. Mask is only set for
// FormatCustom and holds the caller's text verbatim.
type FormatCode struct {
	Kind     FormatKind
	Decimals int
	Mask     string
}

var (
	NoFormat       = FormatCode{}
	DateFormat     = FormatCode{Kind: FormatDate}
	DateTimeFormat = FormatCode{Kind: FormatDateTime}
	CurrencyFormat = FormatCode{Kind: FormatCurrency}
)

// FixedFormat returns a fixed-point format with n decimals.
func FixedFormat(n int) FormatCode {
	return FormatCode{Kind: FormatFixed, Decimals: n}
}

// ParseFormatCode resolves a short format code. Matching ignores case and
// surrounding space: "d" date, "dt" date and time, "c" currency, "f<N>" fixed
// with N decimals. Any other text is returned as a custom mask unchanged.
func ParseFormatCode(s string) FormatCode {
	code := strings.ToLower(strings.TrimSpace(s))
	switch code {
	case "":
		return NoFormat
	case "d":
		return DateFormat
	case "dt":
		return DateTimeFormat
	case "c":
		return CurrencyFormat
	}
	if len(code) > 1 && code[0] == 'f' {
		if n, err := strconv.Atoi(code[1:]); err == nil && n >= 0 && n <= maxFixedDecimals {
			return FixedFormat(n)
		}
	}
	return FormatCode{Kind: FormatCustom, Mask: s}
}

// NumberFormat returns the spreadsheet mask, or "" for the general format.
func (c FormatCode) NumberFormat() string {
	switch c.Kind {
	case FormatDate:
		return dateMask
	case FormatDateTime:
		return dateTimeMask
	case FormatCurrency:
		return currencyMask
	case FormatFixed:
		if c.Decimals == 0 {
			return "0"
		}
		return "0." + strings.Repeat("0", c.Decimals)
	case FormatCustom:
		return c.Mask
	}
	return ""
}

// IsZero reports whether no format was declared.
func (c FormatCode) IsZero() bool { return c.Kind == FormatNone }

// IsDate reports whether the format renders a date serial.
func (c FormatCode) IsDate() bool {
	switch c.Kind {
	case FormatDate, FormatDateTime:
		return true
	case FormatCustom:
		return maskHasDateTokens(c.Mask)
	}
	return false
}

// IsNumeric reports whether the format renders plain numbers (currency,
// fixed, or a custom mask made of digit placeholders).
func (c FormatCode) IsNumeric() bool {
	switch c.Kind {
	case FormatCurrency, FormatFixed:
		return true
	case FormatCustom:
		return maskHasDigitTokens(c.Mask) && !maskHasDateTokens(c.Mask)
	}
	return false
}

func (c FormatCode) String() string {
	switch c.Kind {
	case FormatNone:
		return "general"
	case FormatDate:
		return "date"
	case FormatDateTime:
		return "datetime"
	case FormatCurrency:
		return "currency"
	case FormatFixed:
		return "f" + strconv.Itoa(c.Decimals)
	}
	return c.Mask
}

func maskHasDateTokens(mask string) bool {
	ps := nfp.NumberFormatParser()
	for _, sec := range ps.Parse(mask) {
		for _, tok := range sec.Items {
			if tok.TType == nfp.TokenTypeDateTimes || tok.TType == nfp.TokenTypeElapsedDateTimes {
				return true
			}
		}
	}
	return false
}

func maskHasDigitTokens(mask string) bool {
	ps := nfp.NumberFormatParser()
	for _, sec := range ps.Parse(mask) {
		for _, tok := range sec.Items {
			switch tok.TType {
			case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder, nfp.TokenTypeDecimalPoint:
				return true
			}
		}
	}
	return false
}
