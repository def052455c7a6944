// Package extract runs the full image-to-record pipeline: preprocessing,
// text recognition, entity recognition and field parsing.
package extract

// Placeholder values returned when a field cannot be located in the
// recognized text. Clients rely on these exact strings.
const (
	NameNotFound    = "Name not found"
	CompanyNotFound = "Company not found"
	AddressNotFound = "Address not found"
	NotFound        = "Not found"
)

// ContactRecord is the JSON payload returned for a successfully processed
// card image. Scalar fields carry a placeholder when missing; Phones is
// always a non-nil list.
type ContactRecord struct {
	Name    string   `json:"name"`
	Company string   `json:"company"`
	Address string   `json:"address"`
	Phones  []string `json:"phones"`
	Email   string   `json:"email"`
	Website string   `json:"website"`
}

// AssembleRecord fills placeholders for missing fields and guarantees a
// non-nil phone list.
func AssembleRecord(name, company, address string, phones []string, email, website string) ContactRecord {
	if name == "" {
		name = NameNotFound
	}
	if company == "" {
		company = CompanyNotFound
	}
	if address == "" {
		address = AddressNotFound
	}
	if email == "" {
		email = NotFound
	}
	if website == "" {
		website = NotFound
	}
	if phones == nil {
		phones = []string{}
	}
	return ContactRecord{
		Name:    name,
		Company: company,
		Address: address,
		Phones:  phones,
		Email:   email,
		Website: website,
	}
}
