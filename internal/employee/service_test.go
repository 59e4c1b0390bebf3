package employee_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/hr-registry/internal/audit"
	"github.com/frahmantamala/hr-registry/internal/auth"
	"github.com/frahmantamala/hr-registry/internal/core/events"
	"github.com/frahmantamala/hr-registry/internal/employee"
	"github.com/frahmantamala/hr-registry/internal/sheet"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var alice = auth.Session{Username: "alice", TokenID: "t-1"}

// registry wires a service the way the server does, over a memory store.
type registry struct {
	store    *sheet.MemoryStore
	repo     *employee.Repository
	service  *employee.Service
	recorder *audit.Recorder
}

func newRegistry() *registry {
	slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := sheet.NewMemoryStore()
	bus := events.NewEventBus(slogger)
	recorder := audit.NewRecorder(audit.NewLogger(store, "Logs", time.Second, slogger), 16, slogger)
	recorder.Subscribe(bus)
	repo := employee.NewRepository(store, "Sheet1", time.Second)
	return &registry{
		store:    store,
		repo:     repo,
		service:  employee.NewService(repo, bus, slogger),
		recorder: recorder,
	}
}

func (r *registry) seed(employees ...employee.Employee) {
	r.store.Put("Sheet1", employee.ToTable(employees))
}

func (r *registry) employees() []employee.Employee {
	list, err := r.repo.LoadEmployees(context.Background())
	Expect(err).NotTo(HaveOccurred())
	return list
}

// logs drains the audit writer and returns what reached the log worksheet.
func (r *registry) logs() []audit.Entry {
	r.recorder.Close()
	entries, err := audit.NewService(r.store, "Logs", time.Second).List(context.Background(), alice)
	Expect(err).NotTo(HaveOccurred())
	return entries
}

func active(id, last, first string) employee.Employee {
	return employee.Employee{ID: id, LastName: last, FirstName: first, Status: employee.StatusActive}
}

func departed(id, last, first, date string) employee.Employee {
	return employee.Employee{ID: id, LastName: last, FirstName: first, Status: employee.StatusDeparted, DepartureDate: date}
}

var _ = Describe("Service", func() {
	var (
		reg *registry
		ctx context.Context
	)

	BeforeEach(func() {
		reg = newRegistry()
		ctx = context.Background()
	})

	AfterEach(func() {
		reg.recorder.Close()
	})

	Describe("Hire", func() {
		It("should add an active record with normalized names", func() {
			hired, err := reg.service.Hire(ctx, alice, employee.HireDTO{
				LastName:           "durand",
				FirstName:          "jEAN",
				Position:           "comptable",
				BirthDate:          "1980-02-03",
				HireDate:           "2024-01-15",
				EmploymentCategory: employee.CategoryCadre,
				Salary:             3200,
				ContractOnFile:     true,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(hired.ID).NotTo(BeEmpty())
			Expect(hired.LastName).To(Equal("DURAND"))
			Expect(hired.FirstName).To(Equal("Jean"))
			Expect(hired.Position).To(Equal("Comptable"))
			Expect(hired.Status).To(Equal(employee.StatusActive))
			Expect(hired.DepartureDate).To(Equal(""))
			Expect(hired.Salary).To(Equal("3200"))
			Expect(hired.ContractOnFile).To(Equal(employee.ContractOnFile))

			Expect(reg.employees()).To(ConsistOf(*hired))
			entries := reg.logs()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Action).To(Equal(audit.ActionHire))
			Expect(entries[0].Details).To(Equal("Ajout de Jean DURAND"))
			Expect(entries[0].Username).To(Equal("alice"))
			Expect(entries[0].Date).NotTo(BeEmpty())
			Expect(entries[0].Time).To(MatchRegexp(`^\d{2}:\d{2}:\d{2}$`))
		})

		It("should default the employment category", func() {
			hired, err := reg.service.Hire(ctx, alice, employee.HireDTO{LastName: "Durand", FirstName: "Jean"})

			Expect(err).NotTo(HaveOccurred())
			Expect(hired.EmploymentCategory).To(Equal(employee.CategoryNonCadre))
			Expect(hired.ContractOnFile).To(Equal(employee.ContractMissing))
		})

		DescribeTable("should reject an incomplete record and leave the table unchanged",
			func(last, first string) {
				reg.seed(active("e-1", "MARTIN", "Paul"))

				_, err := reg.service.Hire(ctx, alice, employee.HireDTO{LastName: last, FirstName: first})

				Expect(errors.Is(err, employee.ErrMissingRequiredField)).To(BeTrue())
				Expect(reg.store.Writes("Sheet1")).To(Equal(0))
				Expect(reg.employees()).To(HaveLen(1))
				Expect(reg.logs()).To(BeEmpty())
			},
			Entry("empty last name", "", "Jean"),
			Entry("empty first name", "Durand", ""),
			Entry("blank names", "  ", " "),
		)

		It("should reject malformed dates and negative salaries", func() {
			_, err := reg.service.Hire(ctx, alice, employee.HireDTO{LastName: "Durand", FirstName: "Jean", HireDate: "15/01/2024"})
			Expect(errors.Is(err, employee.ErrInvalidDate)).To(BeTrue())

			_, err = reg.service.Hire(ctx, alice, employee.HireDTO{LastName: "Durand", FirstName: "Jean", Salary: -1})
			Expect(errors.Is(err, employee.ErrInvalidField)).To(BeTrue())
		})

		It("should not save over a table it could not read", func() {
			reg.store.FailReads("Sheet1", errors.New("quota exceeded"))

			_, err := reg.service.Hire(ctx, alice, employee.HireDTO{LastName: "Durand", FirstName: "Jean"})

			Expect(errors.Is(err, sheet.ErrReadFailed)).To(BeTrue())
			Expect(reg.store.Writes("Sheet1")).To(Equal(0))
			Expect(reg.logs()).To(BeEmpty())
		})

		It("should not log a hire whose save failed", func() {
			reg.store.FailWrites("Sheet1", errors.New("permission denied"))

			_, err := reg.service.Hire(ctx, alice, employee.HireDTO{LastName: "Durand", FirstName: "Jean"})

			Expect(errors.Is(err, sheet.ErrWriteFailed)).To(BeTrue())
			Expect(reg.logs()).To(BeEmpty())
		})

		It("should commit the hire even when the log cannot be written", func() {
			reg.store.FailWrites("Logs", errors.New("permission denied"))

			hired, err := reg.service.Hire(ctx, alice, employee.HireDTO{LastName: "Durand", FirstName: "Jean"})

			Expect(err).NotTo(HaveOccurred())
			Expect(reg.store.Writes("Sheet1")).To(Equal(1))
			Expect(reg.employees()).To(ConsistOf(*hired))
			Expect(reg.logs()).To(BeEmpty())
		})

		It("should refuse an anonymous session", func() {
			_, err := reg.service.Hire(ctx, auth.Session{}, employee.HireDTO{LastName: "Durand", FirstName: "Jean"})

			Expect(errors.Is(err, auth.ErrInvalidSession)).To(BeTrue())
			Expect(reg.store.Writes("Sheet1")).To(Equal(0))
		})
	})

	Describe("Depart and Reintegrate", func() {
		It("should mark Durand Jean as departed without changing the row count", func() {
			reg.store.Put("Sheet1", sheet.Table{
				Columns: legacyColumns,
				Rows: [][]string{
					{"Durand", "Jean", "Comptable", "1980-02-03", "0600000000", "2020-01-01", "Cadre", "3200", "Oui", "Actif", ""},
				},
			})

			updated, err := reg.service.Depart(ctx, alice, employee.ByName("Durand Jean"), employee.DepartDTO{DepartureDate: "2024-05-01"})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(HaveLen(1))
			list := reg.employees()
			Expect(list).To(HaveLen(1))
			Expect(list[0].LastName).To(Equal("Durand"))
			Expect(list[0].FirstName).To(Equal("Jean"))
			Expect(list[0].Position).To(Equal("Comptable"))
			Expect(list[0].Status).To(Equal(employee.StatusDeparted))
			Expect(list[0].DepartureDate).To(Equal("2024-05-01"))

			entries := reg.logs()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Action).To(Equal(audit.ActionDepart))
			Expect(entries[0].Details).To(Equal("Durand Jean marqué comme parti le 2024-05-01"))
		})

		It("should return to Actif with no departure date after a round trip", func() {
			reg.seed(active("e-1", "DURAND", "Jean"))

			_, err := reg.service.Depart(ctx, alice, employee.ByID("e-1"), employee.DepartDTO{DepartureDate: "2024-05-01"})
			Expect(err).NotTo(HaveOccurred())
			_, err = reg.service.Reintegrate(ctx, alice, employee.ByID("e-1"))
			Expect(err).NotTo(HaveOccurred())

			list := reg.employees()
			Expect(list[0].Status).To(Equal(employee.StatusActive))
			Expect(list[0].DepartureDate).To(Equal(""))

			entries := reg.logs()
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Action).To(Equal(audit.ActionDepart))
			Expect(entries[1].Action).To(Equal(audit.ActionReintegrate))
			Expect(entries[1].Details).To(Equal("DURAND Jean réintégré"))
		})

		It("should require a departure date", func() {
			reg.seed(active("e-1", "DURAND", "Jean"))

			_, err := reg.service.Depart(ctx, alice, employee.ByID("e-1"), employee.DepartDTO{})

			Expect(errors.Is(err, employee.ErrMissingRequiredField)).To(BeTrue())
			Expect(reg.store.Writes("Sheet1")).To(Equal(0))
		})

		It("should refuse to depart someone already gone", func() {
			reg.seed(departed("e-1", "DURAND", "Jean", "2023-01-01"))

			_, err := reg.service.Depart(ctx, alice, employee.ByID("e-1"), employee.DepartDTO{DepartureDate: "2024-05-01"})

			Expect(errors.Is(err, employee.ErrInvalidTransition)).To(BeTrue())
			Expect(reg.employees()[0].DepartureDate).To(Equal("2023-01-01"))
		})

		It("should refuse to reintegrate someone active", func() {
			reg.seed(active("e-1", "DURAND", "Jean"))

			_, err := reg.service.Reintegrate(ctx, alice, employee.ByID("e-1"))

			Expect(errors.Is(err, employee.ErrInvalidTransition)).To(BeTrue())
			Expect(reg.logs()).To(BeEmpty())
		})

		It("should report an unknown employee", func() {
			_, err := reg.service.Reintegrate(ctx, alice, employee.ByName("NOBODY Here"))

			Expect(errors.Is(err, employee.ErrEmployeeNotFound)).To(BeTrue())
		})

		It("should only move the matching rows that are active", func() {
			reg.seed(
				active("e-1", "MARTIN", "Paul"),
				departed("e-2", "MARTIN", "Paul", "2022-03-04"),
			)

			updated, err := reg.service.Depart(ctx, alice, employee.ByName("MARTIN Paul"), employee.DepartDTO{DepartureDate: "2024-05-01"})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(HaveLen(1))
			Expect(updated[0].ID).To(Equal("e-1"))
			list := reg.employees()
			Expect(list[1].DepartureDate).To(Equal("2022-03-04"))
		})
	})

	Describe("Delete", func() {
		It("should remove every row sharing the name key", func() {
			reg.seed(
				active("e-1", "MARTIN", "Paul"),
				active("e-2", "DURAND", "Jean"),
				departed("e-3", "MARTIN", "Paul", "2022-03-04"),
			)

			removed, err := reg.service.Delete(ctx, alice, employee.ByName("MARTIN Paul"))

			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(2))
			list := reg.employees()
			Expect(list).To(HaveLen(1))
			Expect(list[0].ID).To(Equal("e-2"))

			entries := reg.logs()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Action).To(Equal(audit.ActionDelete))
			Expect(entries[0].Details).To(Equal("MARTIN Paul supprimé"))
		})

		It("should remove exactly one row by id", func() {
			reg.seed(active("e-1", "MARTIN", "Paul"), active("e-2", "MARTIN", "Paul"))

			removed, err := reg.service.Delete(ctx, alice, employee.ByID("e-2"))

			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(1))
			Expect(reg.employees()).To(ConsistOf(active("e-1", "MARTIN", "Paul")))
		})

		It("should leave the table alone when nothing matches", func() {
			reg.seed(active("e-1", "MARTIN", "Paul"))

			_, err := reg.service.Delete(ctx, alice, employee.ByName("MARTIN Pierre"))

			Expect(errors.Is(err, employee.ErrEmployeeNotFound)).To(BeTrue())
			Expect(reg.store.Writes("Sheet1")).To(Equal(0))
			Expect(reg.employees()).To(HaveLen(1))
		})

		It("should require a selector", func() {
			_, err := reg.service.Delete(ctx, alice, employee.Selector{})

			Expect(errors.Is(err, employee.ErrMissingRequiredField)).To(BeTrue())
		})
	})

	Describe("Edit", func() {
		It("should overwrite only the provided fields", func() {
			reg.seed(employee.Employee{ID: "e-1", LastName: "DURAND", FirstName: "Jean", Position: "Comptable", Salary: "3200", Status: employee.StatusActive})
			salary := 3500.0

			updated, err := reg.service.Edit(ctx, alice, employee.ByID("e-1"), employee.UpdateEmployeeDTO{Salary: &salary})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(HaveLen(1))
			list := reg.employees()
			Expect(list[0].Salary).To(Equal("3500"))
			Expect(list[0].Position).To(Equal("Comptable"))

			entries := reg.logs()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Action).To(Equal(audit.ActionEdit))
			Expect(entries[0].Details).To(Equal("Modification de DURAND Jean"))
		})

		It("should leave every other cell untouched on a salary-only patch", func() {
			stored := employee.Employee{
				ID: "e-1", LastName: "de la Tour", FirstName: "jean-marc", Position: "Responsable QHSE",
				BirthDate: "1980-02-03", Phone: "06 00 00 00 00", HireDate: "2020-01-01",
				EmploymentCategory: "Cadre", Salary: "3200", ContractOnFile: employee.ContractOnFile,
				Status: employee.StatusActive,
			}
			reg.seed(stored)
			salary := 2500.0

			_, err := reg.service.Edit(ctx, alice, employee.ByID("e-1"), employee.UpdateEmployeeDTO{Salary: &salary})

			Expect(err).NotTo(HaveOccurred())
			want := stored
			want.Salary = "2500"
			Expect(reg.employees()[0].Row()).To(Equal(want.Row()))
		})

		It("should normalize names it sets and keep the position as typed", func() {
			reg.seed(active("e-1", "DURAND", "Jean"))
			last, position := "martin", "Chef de projet SI"

			_, err := reg.service.Edit(ctx, alice, employee.ByID("e-1"), employee.UpdateEmployeeDTO{LastName: &last, Position: &position})

			Expect(err).NotTo(HaveOccurred())
			list := reg.employees()
			Expect(list[0].LastName).To(Equal("MARTIN"))
			Expect(list[0].FirstName).To(Equal("Jean"))
			Expect(list[0].Position).To(Equal("Chef de projet SI"))
		})

		It("should reject an edit that breaks the status pairing", func() {
			reg.seed(active("e-1", "DURAND", "Jean"))
			status := employee.StatusDeparted

			_, err := reg.service.Edit(ctx, alice, employee.ByID("e-1"), employee.UpdateEmployeeDTO{Status: &status})

			Expect(errors.Is(err, employee.ErrInvalidField)).To(BeTrue())
			Expect(reg.store.Writes("Sheet1")).To(Equal(0))
		})

		It("should reject an empty patch", func() {
			reg.seed(active("e-1", "DURAND", "Jean"))

			_, err := reg.service.Edit(ctx, alice, employee.ByID("e-1"), employee.UpdateEmployeeDTO{})

			Expect(errors.Is(err, employee.ErrMissingRequiredField)).To(BeTrue())
		})
	})

	Describe("BulkEdit", func() {
		It("should overwrite listed rows and keep the others", func() {
			reg.seed(
				active("e-1", "DURAND", "Jean"),
				active("e-2", "MARTIN", "Paul"),
				departed("e-3", "PETIT", "Anne", "2022-03-04"),
			)
			edited := active("e-1", "DURAND", "Jean")
			edited.Position = "Directeur RH"

			updated, err := reg.service.BulkEdit(ctx, alice, employee.BulkEditDTO{Employees: []employee.Employee{edited}})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(HaveLen(1))
			list := reg.employees()
			Expect(list).To(HaveLen(3))
			Expect(list[0].Position).To(Equal("Directeur RH"))
			Expect(list[1]).To(Equal(active("e-2", "MARTIN", "Paul")))
			Expect(list[2]).To(Equal(departed("e-3", "PETIT", "Anne", "2022-03-04")))

			entries := reg.logs()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Details).To(Equal("Modification de 1 fiche(s) active(s)"))
		})

		It("should keep stored names and acronyms byte for byte", func() {
			stored := employee.Employee{ID: "e-1", LastName: "de la Tour", FirstName: "jean", Position: "Responsable QHSE", Status: employee.StatusActive}
			reg.seed(stored)
			edited := stored
			edited.Salary = "2500"

			_, err := reg.service.BulkEdit(ctx, alice, employee.BulkEditDTO{Employees: []employee.Employee{edited}})

			Expect(err).NotTo(HaveOccurred())
			Expect(reg.employees()[0].Row()).To(Equal(edited.Row()))
		})

		It("should normalize a renamed row", func() {
			reg.seed(active("e-1", "DURAND", "Jean"))
			edited := active("e-1", "durand-petit", "jean")

			_, err := reg.service.BulkEdit(ctx, alice, employee.BulkEditDTO{Employees: []employee.Employee{edited}})

			Expect(err).NotTo(HaveOccurred())
			list := reg.employees()
			Expect(list[0].LastName).To(Equal(employee.NormalizeLastName("durand-petit")))
			Expect(list[0].FirstName).To(Equal(employee.Capitalize("jean")))
		})

		It("should refuse rows outside the active partition", func() {
			reg.seed(departed("e-3", "PETIT", "Anne", "2022-03-04"))

			_, err := reg.service.BulkEdit(ctx, alice, employee.BulkEditDTO{Employees: []employee.Employee{active("e-3", "PETIT", "Anne")}})

			Expect(errors.Is(err, employee.ErrInvalidTransition)).To(BeTrue())
			Expect(reg.store.Writes("Sheet1")).To(Equal(0))
		})

		It("should refuse unknown ids", func() {
			reg.seed(active("e-1", "DURAND", "Jean"))

			_, err := reg.service.BulkEdit(ctx, alice, employee.BulkEditDTO{Employees: []employee.Employee{active("e-9", "X", "Y")}})

			Expect(errors.Is(err, employee.ErrEmployeeNotFound)).To(BeTrue())
		})

		It("should refuse an empty edit set", func() {
			_, err := reg.service.BulkEdit(ctx, alice, employee.BulkEditDTO{})

			Expect(errors.Is(err, employee.ErrMissingRequiredField)).To(BeTrue())
		})
	})

	Describe("Roster", func() {
		It("should split the table into partitions", func() {
			reg.seed(
				active("e-1", "DURAND", "Jean"),
				departed("e-2", "PETIT", "Anne", "2022-03-04"),
				employee.Employee{ID: "e-3", LastName: "LEGACY", FirstName: "Row"},
			)

			roster, err := reg.service.Roster(ctx, alice)

			Expect(err).NotTo(HaveOccurred())
			Expect(roster.Warning).To(BeEmpty())
			Expect(roster.Active).To(HaveLen(2))
			Expect(roster.Departed).To(HaveLen(1))
			Expect(roster.Departed[0].ID).To(Equal("e-2"))
		})

		It("should degrade to an empty roster with a warning when the store fails", func() {
			reg.store.FailReads("Sheet1", errors.New("quota exceeded"))

			roster, err := reg.service.Roster(ctx, alice)

			Expect(err).NotTo(HaveOccurred())
			Expect(roster.Active).To(BeEmpty())
			Expect(roster.Departed).To(BeEmpty())
			Expect(roster.Warning).NotTo(BeEmpty())
		})

		It("should export the departed partition in canonical columns", func() {
			reg.seed(active("e-1", "DURAND", "Jean"), departed("e-2", "PETIT", "Anne", "2022-03-04"))

			t, err := reg.service.Departed(ctx, alice)

			Expect(err).NotTo(HaveOccurred())
			Expect(t.Columns).To(Equal(employee.Columns))
			Expect(t.Len()).To(Equal(1))
			Expect(t.Cell(0, employee.ColLastName)).To(Equal("PETIT"))
		})

		It("should refuse readers without a session", func() {
			reg.seed(active("e-1", "DURAND", "Jean"))

			_, err := reg.service.Roster(ctx, auth.Session{})
			Expect(errors.Is(err, auth.ErrInvalidSession)).To(BeTrue())

			_, err = reg.service.Departed(ctx, auth.Session{})
			Expect(errors.Is(err, auth.ErrInvalidSession)).To(BeTrue())
		})
	})

	It("should write exactly one log record per successful mutation", func() {
		hired, err := reg.service.Hire(ctx, alice, employee.HireDTO{LastName: "Durand", FirstName: "Jean"})
		Expect(err).NotTo(HaveOccurred())
		position := "Comptable"
		_, err = reg.service.Edit(ctx, alice, employee.ByID(hired.ID), employee.UpdateEmployeeDTO{Position: &position})
		Expect(err).NotTo(HaveOccurred())
		_, err = reg.service.Depart(ctx, alice, employee.ByID(hired.ID), employee.DepartDTO{DepartureDate: "2024-05-01"})
		Expect(err).NotTo(HaveOccurred())
		_, err = reg.service.Reintegrate(ctx, alice, employee.ByID(hired.ID))
		Expect(err).NotTo(HaveOccurred())
		_, err = reg.service.Delete(ctx, alice, employee.ByID(hired.ID))
		Expect(err).NotTo(HaveOccurred())

		entries := reg.logs()
		actions := make([]string, 0, len(entries))
		for _, e := range entries {
			Expect(e.Date).NotTo(BeEmpty())
			Expect(e.Time).NotTo(BeEmpty())
			Expect(e.Username).To(Equal("alice"))
			actions = append(actions, e.Action)
		}
		Expect(actions).To(Equal([]string{
			audit.ActionHire, audit.ActionEdit, audit.ActionDepart, audit.ActionReintegrate, audit.ActionDelete,
		}))
	})
})
