package phone

import (
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// DefaultRegion is used for numbers written without a country prefix.
const DefaultRegion = "GN"

// Normalize parses s and returns the number in E.164 without the leading "+",
// the form the SMS gateway expects (e.g. 224620000000).
func Normalize(s, region string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("phone number is empty")
	}
	if region == "" {
		region = DefaultRegion
	}
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	p, err := libphonenumber.Parse(s, region)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number is not valid")
	}
	return strings.TrimPrefix(libphonenumber.Format(p, libphonenumber.E164), "+"), nil
}
