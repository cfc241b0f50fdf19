// internal/models/project.go
package models

// ProjectRecord is a stored project looked up by identifier. Caller-supplied
// request fields always take precedence over these values.
type ProjectRecord struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Scope         string   `json:"scope_of_works"`
	Location      string   `json:"location"`
	Categories    []string `json:"categories"`
	ValueEstimate float64  `json:"value_estimate"`
}
