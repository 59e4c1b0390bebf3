package audit_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/hr-registry/internal/audit"
	"github.com/frahmantamala/hr-registry/internal/auth"
	"github.com/frahmantamala/hr-registry/internal/export"
	"github.com/frahmantamala/hr-registry/internal/sheet"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

var alice = auth.Session{Username: "alice", TokenID: "t-1"}

// signedIn builds a request carrying alice's session, as the auth middleware would.
func signedIn(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(auth.ContextWithSession(req.Context(), alice))
}

var _ = Describe("Handler", func() {
	var (
		store   *sheet.MemoryStore
		handler *audit.Handler
	)

	BeforeEach(func() {
		store = sheet.NewMemoryStore()
		store.Put("Logs", sheet.Table{
			Columns: audit.Columns,
			Rows:    [][]string{{"2024-05-01", "09:30:05", "alice", "Connexion", "Ouverture de session"}},
		})
		handler = audit.NewHandler(audit.NewService(store, "Logs", time.Second))
	})

	It("should list the log entries", func() {
		rec := httptest.NewRecorder()
		handler.ListLogs(rec, signedIn(http.MethodGet, "/api/v1/logs"))

		Expect(rec.Code).To(Equal(http.StatusOK))
		var body struct {
			Logs []audit.Entry `json:"logs"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Logs).To(HaveLen(1))
		Expect(body.Logs[0].Username).To(Equal("alice"))
	})

	It("should export the log as logs.xlsx", func() {
		rec := httptest.NewRecorder()
		handler.ExportLogs(rec, signedIn(http.MethodGet, "/api/v1/logs/export"))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal(export.ContentType))
		Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring("logs.xlsx"))

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		rows, err := f.GetRows("Logs")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows[0]).To(Equal(audit.Columns))
		Expect(rows[1][2]).To(Equal("alice"))
	})

	It("should answer 502 when the store cannot be read", func() {
		store.FailReads("Logs", errors.New("quota exceeded"))

		rec := httptest.NewRecorder()
		handler.ListLogs(rec, signedIn(http.MethodGet, "/api/v1/logs"))

		Expect(rec.Code).To(Equal(http.StatusBadGateway))
		Expect(rec.Body.String()).To(ContainSubstring("STORE_READ_FAILED"))
	})

	It("should refuse a request without a session", func() {
		rec := httptest.NewRecorder()
		handler.ExportLogs(rec, httptest.NewRequest(http.MethodGet, "/api/v1/logs/export", nil))

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})
})
