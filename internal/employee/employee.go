package employee

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/frahmantamala/hr-registry/internal"
	"github.com/frahmantamala/hr-registry/internal/sheet"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Worksheet headers, in canonical order.
const (
	ColLastName      = "Nom"
	ColFirstName     = "Prénom"
	ColPosition      = "Poste"
	ColBirthDate     = "Naissance"
	ColPhone         = "Téléphone"
	ColHireDate      = "Date Embauche"
	ColCategory      = "Statut"
	ColSalary        = "Salaire"
	ColContract      = "Contrat"
	ColStatus        = "Etat"
	ColDepartureDate = "Date Sortie"
	ColID            = "ID"
)

// Columns is the canonical employee schema.
var Columns = []string{
	ColLastName, ColFirstName, ColPosition, ColBirthDate, ColPhone, ColHireDate,
	ColCategory, ColSalary, ColContract, ColStatus, ColDepartureDate, ColID,
}

const (
	StatusActive   = "Actif"
	StatusDeparted = "Parti"

	CategoryNonCadre = "Non-cadre"
	CategoryCadre    = "Cadre"

	ContractOnFile  = "Oui"
	ContractMissing = "Non"
)

type Employee struct {
	ID                 string `json:"id"`
	LastName           string `json:"last_name"`
	FirstName          string `json:"first_name"`
	Position           string `json:"position"`
	BirthDate          string `json:"birth_date"`
	Phone              string `json:"phone"`
	HireDate           string `json:"hire_date"`
	EmploymentCategory string `json:"employment_category"`
	Salary             string `json:"salary"`
	ContractOnFile     string `json:"contract_on_file"`
	Status             string `json:"status"`
	DepartureDate      string `json:"departure_date"`
}

// Key is the name pair used to look a record up by name.
func (e Employee) Key() string {
	return e.LastName + " " + e.FirstName
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// IsDeparted reports whether e sits in the departed partition. Anything not
// explicitly Parti, blank legacy statuses included, counts as active.
func (e Employee) IsDeparted() bool {
	return e.Status == StatusDeparted
}

func (e Employee) CanDepart() bool {
	return !e.IsDeparted()
}

func (e Employee) CanReintegrate() bool {
	return e.IsDeparted()
}

func (e *Employee) Depart(date string) {
	e.Status = StatusDeparted
	e.DepartureDate = date
}

func (e *Employee) Reintegrate() {
	e.Status = StatusActive
	e.DepartureDate = ""
}

// CheckStatus enforces Parti <=> departure date set, Actif <=> no date.
func (e Employee) CheckStatus() error {
	switch e.Status {
	case StatusDeparted:
		if strings.TrimSpace(e.DepartureDate) == "" {
			return internal.NewValidationFieldError("departure_date",
				fmt.Sprintf("departure_date is required when status is %s", StatusDeparted), internal.ErrCodeInvalidField)
		}
	case StatusActive:
		if e.DepartureDate != "" {
			return internal.NewValidationFieldError("departure_date",
				fmt.Sprintf("departure_date must be empty when status is %s", StatusActive), internal.ErrCodeInvalidField)
		}
	}
	return nil
}

func (e *Employee) normalize() {
	e.LastName = NormalizeLastName(e.LastName)
	e.FirstName = Capitalize(e.FirstName)
	e.Position = Capitalize(e.Position)
}

// Row renders e in canonical column order.
func (e Employee) Row() []string {
	return []string{
		e.LastName, e.FirstName, e.Position, e.BirthDate, e.Phone, e.HireDate,
		e.EmploymentCategory, e.Salary, e.ContractOnFile, e.Status, e.DepartureDate, e.ID,
	}
}

// FromRow reads a row laid out in canonical column order.
func FromRow(row []string) Employee {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Employee{
		LastName:           cell(0),
		FirstName:          cell(1),
		Position:           cell(2),
		BirthDate:          cell(3),
		Phone:              cell(4),
		HireDate:           cell(5),
		EmploymentCategory: cell(6),
		Salary:             cell(7),
		ContractOnFile:     cell(8),
		Status:             cell(9),
		DepartureDate:      cell(10),
		ID:                 cell(11),
	}
}

// FromTable decodes every row of t, whatever its column layout.
func FromTable(t sheet.Table) []Employee {
	t = t.Conform(Columns)
	out := make([]Employee, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, FromRow(row))
	}
	return out
}

func ToTable(employees []Employee) sheet.Table {
	t := sheet.NewTable(Columns)
	for _, e := range employees {
		t.Rows = append(t.Rows, e.Row())
	}
	return t
}

// NormalizeLastName upper-cases a last name, French casing rules.
func NormalizeLastName(s string) string {
	return cases.Upper(language.French).String(strings.TrimSpace(s))
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.French).String(string(r)) + cases.Lower(language.French).String(s[size:])
}

func FormatSalary(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
