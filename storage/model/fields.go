package model

import (
	"strconv"
)

// AssetField pairs a column name with an accessor that returns the column
// value of an asset in its logged string form. A nil result stands for NULL.
type AssetField struct {
	Name  string
	Value func(a *Asset) *string
}

// AssetFields lists every loggable asset column in a stable order
var AssetFields = []AssetField{
	{"inventory_number", func(a *Asset) *string { return stringValue(a.InventoryNumber) }},
	{"serial_number", func(a *Asset) *string { return copyString(a.SerialNumber) }},
	{"model", func(a *Asset) *string { return copyString(a.Model) }},
	{"purchase_price", func(a *Asset) *string { return floatString(a.PurchasePrice) }},
	{"department", func(a *Asset) *string { return copyString(a.Department) }},
	{"os_version", func(a *Asset) *string { return copyString(a.OSVersion) }},
	{"installation_date", func(a *Asset) *string { return dateString(a.InstallationDate) }},
	{"warranty_expiry", func(a *Asset) *string { return dateString(a.WarrantyExpiry) }},
	{"purchase_date", func(a *Asset) *string { return dateString(a.PurchaseDate) }},
	{"notes", func(a *Asset) *string { return copyString(a.Notes) }},
	{"ip_address", func(a *Asset) *string { return copyString(a.IPAddress) }},
	{"hostname", func(a *Asset) *string { return copyString(a.Hostname) }},
	{"mac_address", func(a *Asset) *string { return copyString(a.MACAddress) }},
	{"room", func(a *Asset) *string { return copyString(a.Room) }},
	{"asset_type_id", func(a *Asset) *string { return uintString(&a.AssetTypeID) }},
	{"manufacturer_id", func(a *Asset) *string { return uintString(&a.ManufacturerID) }},
	{"status_id", func(a *Asset) *string { return uintString(&a.StatusID) }},
	{"location_id", func(a *Asset) *string { return uintString(&a.LocationID) }},
	{"supplier_id", func(a *Asset) *string { return uintString(a.SupplierID) }},
	{"user_id", func(a *Asset) *string { return uintString(a.UserID) }},
}

// FieldChange is a single differing column between two asset snapshots
type FieldChange struct {
	Field    string
	OldValue *string
	NewValue *string
}

// DiffAssets compares the columns named in fields between before and after
// and returns the ones whose logged values differ, in AssetFields order.
func DiffAssets(before, after *Asset, fields map[string]any) []FieldChange {
	var changes []FieldChange
	for _, f := range AssetFields {
		if _, ok := fields[f.Name]; !ok {
			continue
		}
		o, n := f.Value(before), f.Value(after)
		if equalValues(o, n) {
			continue
		}
		changes = append(
			changes, FieldChange{
				Field:    f.Name,
				OldValue: o,
				NewValue: n,
			},
		)
	}
	return changes
}

func equalValues(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringValue(s string) *string {
	return &s
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func floatString(f *float64) *string {
	if f == nil {
		return nil
	}
	s := strconv.FormatFloat(*f, 'f', -1, 64)
	return &s
}

func uintString(u *uint) *string {
	if u == nil {
		return nil
	}
	s := strconv.FormatUint(uint64(*u), 10)
	return &s
}

func dateString(d *Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
