package whatsapp

import (
	"strings"
	"unicode"
)

// localNumberLength is the length of a national mobile number without its
// trunk prefix; numbers of this length get the default country code.
const localNumberLength = 10

// NormalizePhoneNumber reduces a phone number to the digits-only
// international form WhatsApp uses as the user id. Numbers written in
// national form (a leading trunk 0, or a bare 10-digit number) get
// countryCode prepended when it is set.
func NormalizePhoneNumber(phoneNumber, countryCode string) string {
	international := strings.HasPrefix(strings.TrimSpace(phoneNumber), "+")

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, phoneNumber)

	// 00 is the international dialling prefix
	if !international && strings.HasPrefix(digits, "00") {
		return strings.TrimPrefix(digits, "00")
	}
	if international || countryCode == "" {
		return digits
	}

	switch {
	case strings.HasPrefix(digits, "0") && len(digits) == localNumberLength+1:
		return countryCode + digits[1:]
	case len(digits) == localNumberLength:
		return countryCode + digits
	case strings.HasPrefix(digits, countryCode+"0") && len(digits) == len(countryCode)+localNumberLength+1:
		// country code followed by the trunk prefix
		return countryCode + digits[len(countryCode)+1:]
	}
	return digits
}
