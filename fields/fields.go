package fields

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Patterns are compiled once at load time. Email and the phone candidate
// pattern are tolerant of the line noise Tesseract leaves in its output.
var (
	emailPattern = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,7}\b`)

	// websitePattern requires a scheme or a www. prefix so that the domain
	// half of an e-mail address never matches. Bare dotted tokens such as
	// "acme.io" are therefore missed; see the tests for the asserted
	// tradeoff.
	websitePattern = regexp.MustCompile(`(?i)\b(?:https?://(?:www\.)?|www\.)[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)+(?:/[^\s]*)?`)

	phoneCandidatePattern = regexp.MustCompile(`\+?\d{1,3}?[-.\s]?\(?\d{1,3}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,4}[-.\s]?\d{1,9}`)

	digitPattern = regexp.MustCompile(`\d`)
)

// Email returns the first e-mail address in text, or "" when none matches.
func Email(text string) string {
	return emailPattern.FindString(text)
}

// Website returns the first URL-shaped token in text, or "" when none
// matches.
func Website(text string) string {
	return websitePattern.FindString(text)
}

// Phones scans text for phone numbers plausible in the given default region
// (ISO 3166-1 alpha-2, e.g. "US") and returns them normalized to E.164.
// Candidates are located with a tolerant digit-run pattern and then checked
// against libphonenumber length metadata; duplicates collapse to one entry.
// The result is empty, never nil, when nothing plausible is found.
func Phones(text, region string) []string {
	phones := []string{}
	seen := make(map[string]bool)

	for _, candidate := range phoneCandidatePattern.FindAllString(text, -1) {
		if len(digitPattern.FindAllString(candidate, -1)) < 7 {
			continue
		}
		num, err := phonenumbers.Parse(strings.TrimSpace(candidate), region)
		if err != nil || !phonenumbers.IsPossibleNumber(num) {
			continue
		}
		formatted := phonenumbers.Format(num, phonenumbers.E164)
		if seen[formatted] {
			continue
		}
		seen[formatted] = true
		phones = append(phones, formatted)
	}

	return phones
}
