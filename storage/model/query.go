package model

import (
	"sort"
	"strings"
)

// Pagination defaults
const (
	DefaultLimit = 100
	DefaultSort  = "id"
)

// SortDirection is the direction of an asset sort
type SortDirection string

// Constants for SortDirection
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// assetSortColumns maps the accepted sort keys to qualified columns of the
// asset search query
var assetSortColumns = map[string]string{
	"id":                "assets.id",
	"inventory_number":  "assets.inventory_number",
	"model":             "assets.model",
	"hostname":          "assets.hostname",
	"serial_number":     "assets.serial_number",
	"asset_type.name":   "asset_types.name",
	"manufacturer.name": "manufacturers.name",
	"location.name":     "locations.name",
	"status.name":       "statuses.name",
	"user.display_name": "users.display_name",
}

// AssetSortKeys returns the accepted sort keys, sorted
func AssetSortKeys() []string {
	keys := make([]string, 0, len(assetSortColumns))
	for k := range assetSortColumns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AssetQuery describes one page of an asset search
type AssetQuery struct {
	Offset  int
	Limit   int
	Search  string
	SortBy  string
	SortDir SortDirection
}

// Normalize applies defaults and validates the sort parameters. It returns
// the qualified sort column.
func (q *AssetQuery) Normalize(maxLimit int) (string, error) {
	if q.Offset < 0 {
		return "", ValidationErrorFmt("offset must not be negative")
	}
	if q.Limit < 0 {
		return "", ValidationErrorFmt("limit must not be negative")
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	if q.SortBy == "" {
		q.SortBy = DefaultSort
	}
	column, ok := assetSortColumns[q.SortBy]
	if !ok {
		return "", ValidationError{
			Message: "invalid sort key '" + q.SortBy + "', allowed values",
			Details: AssetSortKeys(),
		}
	}
	switch strings.ToLower(string(q.SortDir)) {
	case "":
		q.SortDir = SortDesc
	case string(SortAsc):
		q.SortDir = SortAsc
	case string(SortDesc):
		q.SortDir = SortDesc
	default:
		return "", ValidationError{
			Message: "invalid sort direction '" + string(q.SortDir) + "', allowed values",
			Details: []string{string(SortAsc), string(SortDesc)},
		}
	}
	return column, nil
}
