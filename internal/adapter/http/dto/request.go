package dto

// EditEntryRequest patches a single field of an entry. Value is always a
// string; the domain layer coerces it to the field's type.
type EditEntryRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// RoleRequest switches the device between writer and observer role.
type RoleRequest struct {
	Writer bool `json:"writer"`
}
