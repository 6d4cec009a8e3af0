package service

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"
)

const defaultPhoneRegion = "ES"

var idnaProfile = idna.Lookup

// ContactNormalizer canonicalises contact details before they are matched or stored.
type ContactNormalizer struct {
	DefaultRegion string
}

// NewContactNormalizer builds a normalizer parsing national phone numbers in region.
func NewContactNormalizer(region string) *ContactNormalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultPhoneRegion
	}
	return &ContactNormalizer{DefaultRegion: region}
}

// Email trims and lowercases the address and converts an internationalised
// domain to its ASCII form. Values that do not look like an address are only
// trimmed and lowercased.
func (n *ContactNormalizer) Email(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return email
	}
	local, domain := email[:at], strings.Trim(email[at+1:], ".")
	if !isDomainValid(domain) {
		return email
	}
	ascii, err := idnaProfile.ToASCII(domain)
	if err != nil || ascii == "" {
		return email
	}
	return local + "@" + ascii
}

// Phone returns the E.164 form of raw, or the trimmed input when it cannot be parsed.
func (n *ContactNormalizer) Phone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if normalized := normalizePhone(raw, n.DefaultRegion); normalized != "" {
		return normalized
	}
	return raw
}

func normalizePhone(raw, region string) string {
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	for _, part := range strings.Split(domain, ".") {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}
