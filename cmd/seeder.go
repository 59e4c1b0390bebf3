package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/hr-registry/internal/employee"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the registry with sample employees",
	Long:  `Seed the employee worksheet with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configDir)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		store, db, err := openStore(cfg)
		if err != nil {
			log.Fatalf("failed to open store: %v", err)
		}
		defer closeDB(db)

		ctx := context.Background()
		repo := employee.NewRepository(store, cfg.Store.EmployeeWorksheet, cfg.Store.Timeout)

		var existing []employee.Employee
		if !clearData {
			if existing, err = repo.LoadEmployees(ctx); err != nil {
				log.Fatalf("failed to load employees: %v", err)
			}
		}

		seeded := seedEmployees(existing)
		if err := repo.SaveEmployees(ctx, seeded); err != nil {
			log.Fatalf("failed to save employees: %v", err)
		}

		fmt.Printf("Registry holds %d employees (%d seeded)\n", len(seeded), len(seeded)-len(existing))
	},
}

type sampleEmployee struct {
	hire     employee.HireDTO
	departed string
}

var sampleEmployees = []sampleEmployee{
	{hire: employee.HireDTO{LastName: "Durand", FirstName: "jean", Position: "comptable", BirthDate: "1980-02-03", Phone: "0601020304", HireDate: "2015-09-01", EmploymentCategory: employee.CategoryCadre, Salary: 3400, ContractOnFile: true}},
	{hire: employee.HireDTO{LastName: "Martin", FirstName: "paul", Position: "magasinier", BirthDate: "1991-07-14", Phone: "0611223344", HireDate: "2019-03-18", Salary: 2100, ContractOnFile: true}},
	{hire: employee.HireDTO{LastName: "Bernard", FirstName: "claire", Position: "assistante de direction", BirthDate: "1987-11-25", HireDate: "2021-01-04", Salary: 2600}},
	{hire: employee.HireDTO{LastName: "Petit", FirstName: "anne", Position: "responsable qualité", BirthDate: "1975-05-30", HireDate: "2008-06-02", EmploymentCategory: employee.CategoryCadre, Salary: 4100, ContractOnFile: true}, departed: "2023-12-31"},
}

// seedEmployees appends the samples whose name key is not already present.
func seedEmployees(existing []employee.Employee) []employee.Employee {
	keys := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		keys[e.Key()] = struct{}{}
	}

	out := append([]employee.Employee{}, existing...)
	for _, s := range sampleEmployees {
		e := s.hire.Employee(uuid.NewString())
		if _, ok := keys[e.Key()]; ok {
			continue
		}
		if s.departed != "" {
			e.Depart(s.departed)
		}
		out = append(out, e)
		keys[e.Key()] = struct{}{}
	}
	return out
}
