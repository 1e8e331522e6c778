package storefront

import (
	"strings"

	"nexusmart/internal/models"
)

// ShippingDraft is the address entered at the shipping step. It survives
// restarts so the confirm and payment steps can read it back.
type ShippingDraft struct {
	store Storage
}

func NewShippingDraft(store Storage) *ShippingDraft {
	return &ShippingDraft{store: store}
}

// Load returns the saved address, with the country defaulted to India.
func (d *ShippingDraft) Load() (models.ShippingInfo, error) {
	var info models.ShippingInfo
	if _, err := d.store.Load(KeyShipping, &info); err != nil {
		return models.ShippingInfo{}, err
	}
	if info.Country == "" {
		info.Country = models.DefaultCountry
	}
	return info, nil
}

// Save stores info after trimming it. Missing fields are reported but the
// draft is still kept so nothing typed is lost.
func (d *ShippingDraft) Save(info models.ShippingInfo) ([]string, error) {
	info.Address = strings.TrimSpace(info.Address)
	info.City = strings.TrimSpace(info.City)
	info.PostalCode = strings.TrimSpace(info.PostalCode)
	info.PhoneNo = strings.TrimSpace(info.PhoneNo)
	info.Country = strings.TrimSpace(info.Country)
	if info.Country == "" {
		info.Country = models.DefaultCountry
	}
	if err := d.store.Save(KeyShipping, info); err != nil {
		return nil, err
	}
	return info.MissingFields(), nil
}
