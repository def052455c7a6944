package fields

import (
	"reflect"
	"testing"
)

func TestEmail(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want string
	}{
		{
			name: "first match wins",
			text: "Contact: John Doe, john.doe@example.com",
			want: "john.doe@example.com",
		},
		{
			name: "case insensitive",
			text: "Mail: John.Doe@Example.COM today",
			want: "John.Doe@Example.COM",
		},
		{
			name: "multiple addresses",
			text: "sales@acme.com or support@acme.com",
			want: "sales@acme.com",
		},
		{
			name: "no match",
			text: "no contact details here",
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Email(tc.text); got != tc.want {
				t.Errorf("Email(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestWebsite(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want string
	}{
		{
			name: "www prefix",
			text: "Visit www.example.com today",
			want: "www.example.com",
		},
		{
			name: "scheme prefix with path",
			text: "Docs at https://acme.io/team",
			want: "https://acme.io/team",
		},
		{
			name: "scheme and www",
			text: "see http://www.acme.co.uk",
			want: "http://www.acme.co.uk",
		},
		{
			// The pattern requires a scheme or www. prefix, so an e-mail
			// domain on its own never counts as a website.
			name: "email only is not a website",
			text: "reach me at john@example.com",
			want: "",
		},
		{
			// Known limitation of the prefix requirement: bare domains are
			// missed rather than risking e-mail false positives.
			name: "bare domain is missed",
			text: "acme.io",
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Website(tc.text); got != tc.want {
				t.Errorf("Website(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestPhones(t *testing.T) {
	testCases := []struct {
		name   string
		text   string
		region string
		want   []string
	}{
		{
			name:   "dashed us number",
			text:   "Call us at 415-555-2671",
			region: "US",
			want:   []string{"+14155552671"},
		},
		{
			name:   "parenthesized area code",
			text:   "Office: (415) 555-2671",
			region: "US",
			want:   []string{"+14155552671"},
		},
		{
			name:   "international prefix overrides region",
			text:   "Mobile +44 20 7946 0958",
			region: "US",
			want:   []string{"+442079460958"},
		},
		{
			name:   "duplicates collapse",
			text:   "Tel 415-555-2671 / Fax 415-555-2671",
			region: "US",
			want:   []string{"+14155552671"},
		},
		{
			name:   "short digit runs ignored",
			text:   "Suite 4021, Floor 12",
			region: "US",
			want:   []string{},
		},
		{
			name:   "no digits at all",
			text:   "no numbers here",
			region: "US",
			want:   []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Phones(tc.text, tc.region)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Phones(%q, %q) = %v, want %v", tc.text, tc.region, got, tc.want)
			}
		})
	}
}
