package models

// DesignationHistory backs the autocomplete index. Lists are most recent
// first, deduplicated by normalized key, and capacity bounded (100 global,
// 50 per area). It is ranking data only, never authoritative.
type DesignationHistory struct {
	Global []string            `json:"global"`
	ByArea map[string][]string `json:"byArea"`
}

// NewDesignationHistory returns an empty history document.
func NewDesignationHistory() *DesignationHistory {
	return &DesignationHistory{
		Global: make([]string, 0),
		ByArea: make(map[string][]string),
	}
}
