package employee

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/hr-registry/internal/audit"
	"github.com/frahmantamala/hr-registry/internal/auth"
	"github.com/frahmantamala/hr-registry/internal/core/events"
	"github.com/frahmantamala/hr-registry/internal/sheet"
	"github.com/google/uuid"
)

// RepositoryAPI is the whole-table data access the service runs on.
type RepositoryAPI interface {
	LoadEmployees(ctx context.Context) ([]Employee, error)
	SaveEmployees(ctx context.Context, employees []Employee) error
}

// Roster is the registry split into its active and departed partitions.
// Warning is set when the store could not be read and the roster is empty
// for that reason rather than because nobody is registered.
type Roster struct {
	Active   []Employee `json:"active"`
	Departed []Employee `json:"departed"`
	Warning  string     `json:"warning,omitempty"`
}

// Service runs the employee lifecycle: every mutation loads the full table,
// changes a copy, saves it whole and then records one audit entry.
type Service struct {
	repo   RepositoryAPI
	events events.Publisher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		events: publisher,
		logger: logger,
	}
}

// Roster fails only for an unauthenticated caller: a store error degrades to
// empty partitions plus a warning.
func (s *Service) Roster(ctx context.Context, session auth.Session) (Roster, error) {
	if !session.IsAuthenticated() {
		return Roster{}, auth.ErrInvalidSession
	}
	roster := Roster{Active: []Employee{}, Departed: []Employee{}}

	employees, err := s.repo.LoadEmployees(ctx)
	if err != nil {
		s.logger.Warn("employee table unavailable, showing an empty registry", "error", err)
		roster.Warning = "Le registre est momentanément indisponible : " + err.Error()
		return roster, nil
	}

	for _, e := range employees {
		if e.IsDeparted() {
			roster.Departed = append(roster.Departed, e)
		} else {
			roster.Active = append(roster.Active, e)
		}
	}
	return roster, nil
}

// Departed returns the departed partition as a canonical table, for export.
func (s *Service) Departed(ctx context.Context, session auth.Session) (sheet.Table, error) {
	if !session.IsAuthenticated() {
		return sheet.Table{}, auth.ErrInvalidSession
	}
	employees, err := s.repo.LoadEmployees(ctx)
	if err != nil {
		return sheet.Table{}, err
	}
	departed := make([]Employee, 0)
	for _, e := range employees {
		if e.IsDeparted() {
			departed = append(departed, e)
		}
	}
	return ToTable(departed), nil
}

func (s *Service) Hire(ctx context.Context, session auth.Session, dto HireDTO) (*Employee, error) {
	if !session.IsAuthenticated() {
		return nil, auth.ErrInvalidSession
	}
	if err := dto.Validate(); err != nil {
		s.logger.Warn("hire rejected", "error", err, "username", session.Username)
		return nil, err
	}

	employees, err := s.repo.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}

	hired := dto.Employee(uuid.NewString())
	employees = append(employees, hired)
	if err := s.save(ctx, "hire", employees); err != nil {
		return nil, err
	}

	s.record(ctx, session, audit.ActionHire, fmt.Sprintf("Ajout de %s", hired.FullName()))
	s.logger.Info("employee hired", "employee_id", hired.ID, "username", session.Username)
	return &hired, nil
}

// Edit patches every row sel matches.
func (s *Service) Edit(ctx context.Context, session auth.Session, sel Selector, dto UpdateEmployeeDTO) ([]Employee, error) {
	if !session.IsAuthenticated() {
		return nil, auth.ErrInvalidSession
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	employees, err := s.repo.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}

	var (
		updated []Employee
		who     string
	)
	for i := range employees {
		if !sel.Match(employees[i]) {
			continue
		}
		if who == "" {
			who = employees[i].Key()
		}
		e := employees[i]
		dto.Apply(&e)
		if err := e.CheckStatus(); err != nil {
			return nil, err
		}
		employees[i] = e
		updated = append(updated, e)
	}
	if len(updated) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, sel)
	}

	if err := s.save(ctx, "edit", employees); err != nil {
		return nil, err
	}

	s.record(ctx, session, audit.ActionEdit, fmt.Sprintf("Modification de %s", who))
	return updated, nil
}

// BulkEdit overwrites the listed active rows, matched by ID. Rows not listed
// are kept as they are.
func (s *Service) BulkEdit(ctx context.Context, session auth.Session, dto BulkEditDTO) ([]Employee, error) {
	if !session.IsAuthenticated() {
		return nil, auth.ErrInvalidSession
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	employees, err := s.repo.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}

	positions := make(map[string]int, len(employees))
	for i, e := range employees {
		positions[e.ID] = i
	}

	updated := make([]Employee, 0, len(dto.Employees))
	for _, edited := range dto.Employees {
		i, ok := positions[edited.ID]
		if !ok {
			return nil, fmt.Errorf("%w: id:%s", ErrEmployeeNotFound, edited.ID)
		}
		if employees[i].IsDeparted() {
			return nil, fmt.Errorf("%w: %s is not active", ErrInvalidTransition, employees[i].Key())
		}
		if edited.LastName != employees[i].LastName {
			edited.LastName = NormalizeLastName(edited.LastName)
		}
		if edited.FirstName != employees[i].FirstName {
			edited.FirstName = Capitalize(edited.FirstName)
		}
		employees[i] = edited
		updated = append(updated, edited)
	}

	if err := s.save(ctx, "bulk edit", employees); err != nil {
		return nil, err
	}

	s.record(ctx, session, audit.ActionEdit, fmt.Sprintf("Modification de %d fiche(s) active(s)", len(updated)))
	return updated, nil
}

// Depart marks the active rows sel matches as departed on date.
func (s *Service) Depart(ctx context.Context, session auth.Session, sel Selector, dto DepartDTO) ([]Employee, error) {
	if !session.IsAuthenticated() {
		return nil, auth.ErrInvalidSession
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	return s.transition(ctx, session, sel, transition{
		name:    "depart",
		allowed: Employee.CanDepart,
		apply:   func(e *Employee) { e.Depart(dto.DepartureDate) },
		action:  audit.ActionDepart,
		details: func(who string) string {
			return fmt.Sprintf("%s marqué comme parti le %s", who, dto.DepartureDate)
		},
	})
}

// Reintegrate brings the departed rows sel matches back to active.
func (s *Service) Reintegrate(ctx context.Context, session auth.Session, sel Selector) ([]Employee, error) {
	if !session.IsAuthenticated() {
		return nil, auth.ErrInvalidSession
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	return s.transition(ctx, session, sel, transition{
		name:    "reintegrate",
		allowed: Employee.CanReintegrate,
		apply:   (*Employee).Reintegrate,
		action:  audit.ActionReintegrate,
		details: func(who string) string {
			return fmt.Sprintf("%s réintégré", who)
		},
	})
}

// Delete removes every row sel matches and reports how many went.
func (s *Service) Delete(ctx context.Context, session auth.Session, sel Selector) (int, error) {
	if !session.IsAuthenticated() {
		return 0, auth.ErrInvalidSession
	}
	if err := sel.Validate(); err != nil {
		return 0, err
	}

	employees, err := s.repo.LoadEmployees(ctx)
	if err != nil {
		return 0, err
	}

	kept := make([]Employee, 0, len(employees))
	var who string
	for _, e := range employees {
		if sel.Match(e) {
			if who == "" {
				who = e.Key()
			}
			continue
		}
		kept = append(kept, e)
	}
	removed := len(employees) - len(kept)
	if removed == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmployeeNotFound, sel)
	}

	if err := s.save(ctx, "delete", kept); err != nil {
		return 0, err
	}

	s.record(ctx, session, audit.ActionDelete, fmt.Sprintf("%s supprimé", who))
	s.logger.Info("employee deleted", "selector", sel.String(), "removed", removed, "username", session.Username)
	return removed, nil
}

type transition struct {
	name    string
	allowed func(Employee) bool
	apply   func(*Employee)
	action  string
	details func(who string) string
}

// transition applies t to the matched rows it is allowed on. Matched rows in
// the wrong state are left alone; if none is eligible the call fails.
func (s *Service) transition(ctx context.Context, session auth.Session, sel Selector, t transition) ([]Employee, error) {
	employees, err := s.repo.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}

	var (
		matched int
		updated []Employee
		who     string
	)
	for i := range employees {
		if !sel.Match(employees[i]) {
			continue
		}
		matched++
		if !t.allowed(employees[i]) {
			continue
		}
		if who == "" {
			who = employees[i].Key()
		}
		t.apply(&employees[i])
		updated = append(updated, employees[i])
	}
	if matched == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, sel)
	}
	if len(updated) == 0 {
		return nil, fmt.Errorf("%w: cannot %s %s", ErrInvalidTransition, t.name, sel)
	}

	if err := s.save(ctx, t.name, employees); err != nil {
		return nil, err
	}

	s.record(ctx, session, t.action, t.details(who))
	return updated, nil
}

func (s *Service) save(ctx context.Context, op string, employees []Employee) error {
	if err := s.repo.SaveEmployees(ctx, employees); err != nil {
		s.logger.Error("employee table not saved, change not applied", "operation", op, "error", err)
		return err
	}
	return nil
}

func (s *Service) record(ctx context.Context, session auth.Session, action, details string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSync(ctx, events.NewActionRecordedEvent(session.Username, action, details)); err != nil {
		s.logger.Warn("audit entry not recorded", "action", action, "error", err)
	}
}
