package persistence

import "strings"

// validateSortOrder normalizes the sort direction, defaulting to DESC.
func validateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// validateSortField checks the field against a whitelist so user input
// never reaches an ORDER BY clause unescaped.
func validateSortField(field string, allowed map[string]bool, fallback string) string {
	trimmed := strings.TrimSpace(field)
	if trimmed != "" && allowed[trimmed] {
		return trimmed
	}
	return fallback
}

// ledgerRecordSortFields lists the columns list endpoints may sort by.
var ledgerRecordSortFields = map[string]bool{
	"created_at":      true,
	"updated_at":      true,
	"document_number": true,
	"amount":          true,
	"due_date":        true,
	"status":          true,
	"category":        true,
}

// storeSortFields lists the columns store listings may sort by.
var storeSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"slug":       true,
}
