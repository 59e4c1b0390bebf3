package employee

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/frahmantamala/hr-registry/internal"
	"github.com/frahmantamala/hr-registry/internal/core/common/validation"
)

// HireDTO represents the request payload for recruiting an employee
type HireDTO struct {
	LastName           string  `json:"last_name"`
	FirstName          string  `json:"first_name"`
	Position           string  `json:"position"`
	BirthDate          string  `json:"birth_date"`
	Phone              string  `json:"phone"`
	HireDate           string  `json:"hire_date"`
	EmploymentCategory string  `json:"employment_category"`
	Salary             float64 `json:"salary"`
	ContractOnFile     bool    `json:"contract_on_file"`
}

func (dto HireDTO) category() string {
	if dto.EmploymentCategory == "" {
		return CategoryNonCadre
	}
	return dto.EmploymentCategory
}

func (dto HireDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("last_name", dto.LastName).Required().MaxLength(100)
	v.Field("first_name", dto.FirstName).Required().MaxLength(100)
	v.Field("position", dto.Position).MaxLength(100)
	v.Field("birth_date", dto.BirthDate).Date()
	v.Field("hire_date", dto.HireDate).Date()
	v.Field("employment_category", dto.category()).OneOf(CategoryNonCadre, CategoryCadre)
	v.Field("salary", dto.Salary).NonNegative()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Employee builds the Actif record the DTO describes, names normalized.
func (dto HireDTO) Employee(id string) Employee {
	contract := ContractMissing
	if dto.ContractOnFile {
		contract = ContractOnFile
	}
	e := Employee{
		ID:                 id,
		LastName:           dto.LastName,
		FirstName:          dto.FirstName,
		Position:           dto.Position,
		BirthDate:          dto.BirthDate,
		Phone:              strings.TrimSpace(dto.Phone),
		HireDate:           dto.HireDate,
		EmploymentCategory: dto.category(),
		Salary:             FormatSalary(dto.Salary),
		ContractOnFile:     contract,
		Status:             StatusActive,
		DepartureDate:      "",
	}
	e.normalize()
	return e
}

// UpdateEmployeeDTO is a partial edit; nil fields are left untouched.
type UpdateEmployeeDTO struct {
	LastName           *string  `json:"last_name,omitempty"`
	FirstName          *string  `json:"first_name,omitempty"`
	Position           *string  `json:"position,omitempty"`
	BirthDate          *string  `json:"birth_date,omitempty"`
	Phone              *string  `json:"phone,omitempty"`
	HireDate           *string  `json:"hire_date,omitempty"`
	EmploymentCategory *string  `json:"employment_category,omitempty"`
	Salary             *float64 `json:"salary,omitempty"`
	ContractOnFile     *bool    `json:"contract_on_file,omitempty"`
	Status             *string  `json:"status,omitempty"`
	DepartureDate      *string  `json:"departure_date,omitempty"`
}

func (dto UpdateEmployeeDTO) IsEmpty() bool {
	return dto.LastName == nil && dto.FirstName == nil && dto.Position == nil &&
		dto.BirthDate == nil && dto.Phone == nil && dto.HireDate == nil &&
		dto.EmploymentCategory == nil && dto.Salary == nil && dto.ContractOnFile == nil &&
		dto.Status == nil && dto.DepartureDate == nil
}

func (dto UpdateEmployeeDTO) Validate() error {
	if dto.IsEmpty() {
		return internal.NewValidationFieldError("body", "at least one field must be provided", internal.ErrCodeMissingRequiredField)
	}
	v := validation.NewValidator()
	v.Field("birth_date", dto.BirthDate).Date()
	v.Field("hire_date", dto.HireDate).Date()
	v.Field("departure_date", dto.DepartureDate).Date()
	if dto.EmploymentCategory != nil {
		v.Field("employment_category", dto.EmploymentCategory).OneOf(CategoryNonCadre, CategoryCadre)
	}
	if dto.Status != nil {
		v.Field("status", dto.Status).OneOf(StatusActive, StatusDeparted)
	}
	v.Field("salary", dto.Salary).NonNegative()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Apply overwrites the provided fields of e. Only names it sets are
// normalized; every other cell keeps the exact value supplied or stored.
func (dto UpdateEmployeeDTO) Apply(e *Employee) {
	if dto.LastName != nil {
		e.LastName = NormalizeLastName(*dto.LastName)
	}
	if dto.FirstName != nil {
		e.FirstName = Capitalize(*dto.FirstName)
	}
	if dto.Position != nil {
		e.Position = *dto.Position
	}
	if dto.BirthDate != nil {
		e.BirthDate = *dto.BirthDate
	}
	if dto.Phone != nil {
		e.Phone = strings.TrimSpace(*dto.Phone)
	}
	if dto.HireDate != nil {
		e.HireDate = *dto.HireDate
	}
	if dto.EmploymentCategory != nil {
		e.EmploymentCategory = *dto.EmploymentCategory
	}
	if dto.Salary != nil {
		e.Salary = FormatSalary(*dto.Salary)
	}
	if dto.ContractOnFile != nil {
		if *dto.ContractOnFile {
			e.ContractOnFile = ContractOnFile
		} else {
			e.ContractOnFile = ContractMissing
		}
	}
	if dto.Status != nil {
		e.Status = *dto.Status
	}
	if dto.DepartureDate != nil {
		e.DepartureDate = *dto.DepartureDate
	}
}

// BulkEditDTO carries edited rows of the active partition, matched by ID.
// Rows left out of Employees are not touched.
type BulkEditDTO struct {
	Employees []Employee `json:"employees"`
}

func (dto BulkEditDTO) Validate() error {
	if len(dto.Employees) == 0 {
		return internal.NewValidationFieldError("employees", "employees is required", internal.ErrCodeMissingRequiredField)
	}

	seen := make(map[string]struct{}, len(dto.Employees))
	v := validation.NewValidator()
	for i, e := range dto.Employees {
		prefix := fmt.Sprintf("employees[%d].", i)
		v.Field(prefix+"id", e.ID).Required()
		if _, dup := seen[e.ID]; dup && e.ID != "" {
			v.Field(prefix+"id", e.ID).Custom(func(interface{}) *internal.AppError {
				return internal.NewValidationFieldError(prefix+"id", "employee listed twice", internal.ErrCodeInvalidField)
			})
		}
		seen[e.ID] = struct{}{}
		v.Field(prefix+"birth_date", e.BirthDate).Date()
		v.Field(prefix+"hire_date", e.HireDate).Date()
		v.Field(prefix+"departure_date", e.DepartureDate).Date()
		v.Field(prefix+"status", e.Status).OneOf(StatusActive, StatusDeparted)
		if e.EmploymentCategory != "" {
			v.Field(prefix+"employment_category", e.EmploymentCategory).OneOf(CategoryNonCadre, CategoryCadre)
		}
		if e.ContractOnFile != "" {
			v.Field(prefix+"contract_on_file", e.ContractOnFile).OneOf(ContractOnFile, ContractMissing)
		}
		if e.Salary != "" {
			salary, err := strconv.ParseFloat(e.Salary, 64)
			if err != nil {
				v.Field(prefix+"salary", e.Salary).Custom(func(interface{}) *internal.AppError {
					return internal.NewValidationFieldError(prefix+"salary", "salary must be a number", internal.ErrCodeInvalidField)
				})
			} else {
				v.Field(prefix+"salary", salary).NonNegative()
			}
		}
	}
	if err := v.Validate(); err != nil {
		return err
	}
	for _, e := range dto.Employees {
		if err := e.CheckStatus(); err != nil {
			return err
		}
	}
	return nil
}

// DepartDTO represents the request payload for marking an employee as departed
type DepartDTO struct {
	DepartureDate string `json:"departure_date"`
}

func (dto DepartDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("departure_date", dto.DepartureDate).Required().Date()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

var (
	ErrEmployeeNotFound     = internal.NewNotFoundError("employee not found", internal.ErrCodeEmployeeNotFound)
	ErrInvalidTransition    = internal.NewConflictError("transition not allowed in the current status", internal.ErrCodeInvalidTransition)
	ErrMissingRequiredField = internal.NewValidationError("missing required field", internal.ErrCodeMissingRequiredField)
	ErrInvalidField         = internal.NewValidationError("invalid field", internal.ErrCodeInvalidField)
	ErrInvalidDate          = internal.NewValidationError("invalid date", internal.ErrCodeInvalidDate)
)
