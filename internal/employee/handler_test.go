package employee_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/hr-registry/internal/auth"
	"github.com/frahmantamala/hr-registry/internal/employee"
	"github.com/frahmantamala/hr-registry/internal/export"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("Handler", func() {
	var (
		reg    *registry
		router *chi.Mux
	)

	BeforeEach(func() {
		reg = newRegistry()
		handler := employee.NewHandler(reg.service)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), alice)))
			})
		})
		router.Get("/employees", handler.ListEmployees)
		router.Post("/employees", handler.HireEmployee)
		router.Put("/employees/active", handler.BulkEditActive)
		router.Get("/employees/departed/export", handler.ExportDeparted)
		router.Patch("/employees/{ref}", handler.EditEmployee)
		router.Post("/employees/{ref}/depart", handler.DepartEmployee)
		router.Post("/employees/{ref}/reintegrate", handler.ReintegrateEmployee)
		router.Delete("/employees/{ref}", handler.DeleteEmployee)
	})

	AfterEach(func() {
		reg.recorder.Close()
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("should hire through POST /employees", func() {
		rec := do(http.MethodPost, "/employees", `{"last_name":"durand","first_name":"jean","salary":2500}`)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		var hired employee.Employee
		Expect(json.Unmarshal(rec.Body.Bytes(), &hired)).To(Succeed())
		Expect(hired.LastName).To(Equal("DURAND"))
		Expect(hired.Status).To(Equal(employee.StatusActive))
	})

	It("should answer 400 with field details for an incomplete hire", func() {
		rec := do(http.MethodPost, "/employees", `{"last_name":"","first_name":"jean"}`)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("last_name is required"))
		Expect(rec.Body.String()).To(ContainSubstring("MISSING_REQUIRED_FIELD"))
	})

	It("should list the roster", func() {
		reg.seed(active("e-1", "DURAND", "Jean"), departed("e-2", "PETIT", "Anne", "2022-03-04"))

		rec := do(http.MethodGet, "/employees", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		var roster employee.Roster
		Expect(json.Unmarshal(rec.Body.Bytes(), &roster)).To(Succeed())
		Expect(roster.Active).To(HaveLen(1))
		Expect(roster.Departed).To(HaveLen(1))
	})

	It("should still answer 200 with a warning when the store is down", func() {
		reg.store.FailReads("Sheet1", errors.New("quota exceeded"))

		rec := do(http.MethodGet, "/employees", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"warning"`))
	})

	It("should depart by name key", func() {
		reg.seed(active("e-1", "DURAND", "Jean"))

		rec := do(http.MethodPost, "/employees/DURAND%20Jean/depart?by=name", `{"departure_date":"2024-05-01"}`)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(reg.employees()[0].Status).To(Equal(employee.StatusDeparted))
	})

	It("should answer 409 for a transition from the wrong state", func() {
		reg.seed(active("e-1", "DURAND", "Jean"))

		rec := do(http.MethodPost, "/employees/e-1/reintegrate", "")

		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(rec.Body.String()).To(ContainSubstring("INVALID_TRANSITION"))
	})

	It("should answer 404 for an unknown employee", func() {
		rec := do(http.MethodDelete, "/employees/missing", "")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(ContainSubstring("EMPLOYEE_NOT_FOUND"))
	})

	It("should patch an employee by id", func() {
		reg.seed(active("e-1", "DURAND", "Jean"))

		rec := do(http.MethodPatch, "/employees/e-1", `{"phone":"0600000000"}`)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(reg.employees()[0].Phone).To(Equal("0600000000"))
	})

	It("should bulk edit the active partition", func() {
		reg.seed(active("e-1", "DURAND", "Jean"), active("e-2", "MARTIN", "Paul"))

		rec := do(http.MethodPut, "/employees/active", `{"employees":[{"id":"e-2","last_name":"MARTIN","first_name":"Paul","position":"Chef QHSE","status":"Actif"}]}`)

		Expect(rec.Code).To(Equal(http.StatusOK))
		list := reg.employees()
		Expect(list).To(HaveLen(2))
		Expect(list[1].Position).To(Equal("Chef QHSE"))
	})

	It("should delete and report the removed count", func() {
		reg.seed(active("e-1", "MARTIN", "Paul"), active("e-2", "MARTIN", "Paul"))

		rec := do(http.MethodDelete, "/employees/MARTIN%20Paul?by=name", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"removed":2`))
	})

	It("should decode a name reference exactly once", func() {
		reg.seed(active("e-1", "A%41", "Zed"), active("e-2", "AA", "Zed"))

		rec := do(http.MethodDelete, "/employees/A%2541%20Zed?by=name", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"removed":1`))
		list := reg.employees()
		Expect(list).To(HaveLen(1))
		Expect(list[0].ID).To(Equal("e-2"))
	})

	It("should decode a reference chi matched on the raw path", func() {
		reg.seed(active("e-1", "DU/PONT", "Jean"))

		rec := do(http.MethodDelete, "/employees/DU%2FPONT%20Jean?by=name", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"removed":1`))
	})

	It("should export departed employees as anciens.xlsx", func() {
		reg.seed(active("e-1", "DURAND", "Jean"), departed("e-2", "PETIT", "Anne", "2022-03-04"))

		rec := do(http.MethodGet, "/employees/departed/export", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal(export.ContentType))
		Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring(employee.DepartedExportFilename))

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		rows, err := f.GetRows(employee.DepartedWorksheetName)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0]).To(Equal(employee.Columns))
		Expect(rows[1][0]).To(Equal("PETIT"))
	})

	It("should answer 502 on export when the store cannot be read", func() {
		reg.store.FailReads("Sheet1", errors.New("quota exceeded"))

		rec := do(http.MethodGet, "/employees/departed/export", "")

		Expect(rec.Code).To(Equal(http.StatusBadGateway))
	})
})
