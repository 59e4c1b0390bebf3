package employee

import (
	"strings"

	"github.com/frahmantamala/hr-registry/internal"
)

// Selector picks the rows a single-record operation applies to. An ID
// matches at most one row; a name key matches every row whose
// last_name + " " + first_name equals it.
type Selector struct {
	ID   string
	Name string
}

func ByID(id string) Selector {
	return Selector{ID: strings.TrimSpace(id)}
}

func ByName(key string) Selector {
	return Selector{Name: strings.TrimSpace(key)}
}

func (s Selector) Validate() error {
	if s.ID == "" && s.Name == "" {
		return internal.NewValidationFieldError("ref", "an employee id or name is required", internal.ErrCodeMissingRequiredField)
	}
	return nil
}

func (s Selector) Match(e Employee) bool {
	if s.ID != "" {
		return e.ID == s.ID
	}
	return e.Key() == s.Name
}

func (s Selector) String() string {
	if s.ID != "" {
		return "id:" + s.ID
	}
	return "name:" + s.Name
}
