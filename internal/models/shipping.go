package models

const DefaultCountry = "India"

type ShippingInfo struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	PhoneNo    string `json:"phoneNo"`
	Country    string `json:"country"`
}

// MissingFields lists the required address fields that are blank.
func (s ShippingInfo) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"address", s.Address},
		{"city", s.City},
		{"postalCode", s.PostalCode},
		{"phoneNo", s.PhoneNo},
		{"country", s.Country},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
