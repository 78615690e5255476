// Package phone converts owner contact numbers between their stored and dispatch forms.
//
// Numbers are stored as bare digits. The country code heuristic and the channel
// scheme are applied only when a message is addressed, never persisted.
package phone

import "strings"

const (
	// DefaultCountryCode is prepended to 10-digit national numbers at dispatch time.
	DefaultCountryCode = "91"
	// nationalNumberLength is the length of a number missing its country code.
	nationalNumberLength = 10
	// ChannelScheme prefixes the digits in the gateway's addressing format.
	ChannelScheme = "whatsapp:+"
)

// Digits strips every non-digit character from raw. The result is the stored form.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// DispatchDigits applies the default country code to a stored number. Only numbers of
// exactly ten digits that do not already start with the country code are changed.
func DispatchDigits(stored string) string {
	if len(stored) == nationalNumberLength && !strings.HasPrefix(stored, DefaultCountryCode) {
		return DefaultCountryCode + stored
	}
	return stored
}

// Address returns the gateway destination for a stored number.
func Address(stored string) string {
	return ChannelScheme + DispatchDigits(stored)
}
