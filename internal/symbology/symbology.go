package symbology

import "unicode/utf8"

type Format string

const (
	EAN13      Format = "EAN-13"
	EAN8       Format = "EAN-8"
	UPCA       Format = "UPC-A"
	ITF        Format = "ITF"
	Code39     Format = "Code 39"
	Code128    Format = "Code 128"
	DataMatrix Format = "Data Matrix"
	QR         Format = "QR Code"
)

const (
	qrMaxBytes         = 2953
	dataMatrixMaxBytes = 1556
	code128MaxLen      = 80
	code39MaxLen       = 43
	itfMaxLen          = 80
)

const code39Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ -.$/+%"

type rule struct {
	format Format
	match  func(string) bool
}

// rules are ordered from the most to the least specific symbology.
var rules = []rule{
	{EAN13, func(s string) bool { return gtin(s, 12, 13) }},
	{EAN8, func(s string) bool { return gtin(s, 7, 8) }},
	{UPCA, func(s string) bool { return gtin(s, 11, 12) }},
	{ITF, func(s string) bool { return len(s) >= 2 && len(s) <= itfMaxLen && len(s)%2 == 0 && digits(s) }},
	{Code39, func(s string) bool { return len(s) <= code39MaxLen && within(s, code39Alphabet) }},
	{Code128, func(s string) bool { return len(s) <= code128MaxLen && ascii(s) }},
	{DataMatrix, func(s string) bool { return len(s) <= dataMatrixMaxBytes && utf8.ValidString(s) }},
	{QR, func(s string) bool { return len(s) <= qrMaxBytes }},
}

// Classify lists every symbology able to encode text, most specific first.
func Classify(text string) []Format {
	if text == "" {
		return nil
	}
	var out []Format
	for _, r := range rules {
		if r.match(text) {
			out = append(out, r.format)
		}
	}
	return out
}

// Preferred is the most specific symbology for text, or "" when none fits.
func Preferred(text string) Format {
	if formats := Classify(text); len(formats) > 0 {
		return formats[0]
	}
	return ""
}

// gtin accepts the payload without its check digit, or with a valid one.
func gtin(s string, payload, full int) bool {
	if !digits(s) {
		return false
	}
	switch len(s) {
	case payload:
		return true
	case full:
		return CheckDigit(s[:payload]) == s[payload]
	default:
		return false
	}
}

// CheckDigit computes the GS1 mod-10 check digit for a digit string.
func CheckDigit(payload string) byte {
	sum := 0
	for i := len(payload) - 1; i >= 0; i-- {
		d := int(payload[i] - '0')
		if (len(payload)-1-i)%2 == 0 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func ascii(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

func within(s, alphabet string) bool {
	for i := 0; i < len(s); i++ {
		found := false
		for j := 0; j < len(alphabet); j++ {
			if s[i] == alphabet[j] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
