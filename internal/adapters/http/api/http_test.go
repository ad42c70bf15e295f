package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/childhealth/internal/adapters/export"
	"github.com/okian/childhealth/internal/adapters/http/api"
	"github.com/okian/childhealth/internal/adapters/repository"
	"github.com/okian/childhealth/internal/domain/aggregate"
	"github.com/okian/childhealth/internal/domain/model"
	"github.com/okian/childhealth/internal/domain/scoring"
	"github.com/okian/childhealth/internal/domain/table"
	"github.com/okian/childhealth/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// Mock implementations for testing
type mockDependencies struct {
	records    []model.RiskAssessment
	evalErr    error
	lastInput  model.SurveyInput
	lastID     string
	lastState  table.State
	lastLimit  int
	exportErr  error
	exportBody string
}

func (m *mockDependencies) Evaluate(_ context.Context, in model.SurveyInput, id string) (model.RiskAssessment, error) {
	m.lastInput, m.lastID = in, id
	if m.evalErr != nil {
		return model.RiskAssessment{}, m.evalErr
	}
	if id == "" {
		id = "generated"
	}
	a := model.RiskAssessment{ID: id, Region: in.Region, RiskCategory: model.RiskLow, ProbabilityPercent: 12.3, ConfidencePercent: 88, Input: in}
	m.records = append(m.records, a)
	return a, nil
}

func (m *mockDependencies) List(_ context.Context, state table.State) ([]model.RiskAssessment, error) {
	m.lastState = state
	return table.Sort(m.records, state)
}

func (m *mockDependencies) Get(_ context.Context, id string) (model.RiskAssessment, error) {
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return model.RiskAssessment{}, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
}

func (m *mockDependencies) Analysis(_ context.Context) (aggregate.View, error) {
	return aggregate.Summarize(m.records, aggregate.WithLocation(time.UTC)), nil
}

func (m *mockDependencies) Overview(_ context.Context) (model.Overview, error) {
	return model.Overview{TotalPredictions: len(m.records), Health: []model.ComponentStatus{{Name: "API Status", Status: "Operational"}}}, nil
}

func (m *mockDependencies) Activity(_ context.Context, n int) ([]model.ActivityLog, error) {
	m.lastLimit = n
	return []model.ActivityLog{{ID: "l1", Action: "System initialized", Type: model.ActivitySystem}}, nil
}

func (m *mockDependencies) Export(_ context.Context, w io.Writer, f export.Format) (export.Result, error) {
	if m.exportErr != nil {
		return export.Result{}, m.exportErr
	}
	if f != export.FormatCSV {
		return export.Result{}, export.ErrUnsupportedFormat
	}
	_, _ = io.WriteString(w, m.exportBody)
	return export.Result{FileName: "health-predictions-1.csv", ContentType: export.ContentType(f), Records: 1}, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, api.WithActivityLimit(5))
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then health endpoint should expose metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And stats endpoint should return JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And unknown paths should 404", func() {
			So(do(mux, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And the dashboard should serve the embedded page", func() {
			w := do(mux, http.MethodGet, "/dashboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Child Health Risk Dashboard")
			So(w.Body.String(), ShouldContainSubstring, "/analysis")
		})

		Convey("And wrong methods should be refused", func() {
			w := do(mux, http.MethodDelete, "/analysis", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodGet)
		})
	})
}

func TestAssessments(t *testing.T) {
	Convey("Given the assessments endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When posting a survey with an ID", func() {
			w := do(mux, http.MethodPost, "/assessments",
				`{"id":" s-1 ","childAgeMonths":18,"householdIncomeScore":40,"foodInsecurityScore":60,`+
					`"waterAccessScore":30,"sanitationAccessScore":20,"educationLevel":"Primary","region":"East","householdSize":6}`)

			Convey("Then it should be created with the flattened input", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Header().Get("Location"), ShouldEqual, "/assessments/s-1")
				So(deps.lastID, ShouldEqual, "s-1")
				So(deps.lastInput.Region, ShouldEqual, model.RegionEast)
				So(deps.lastInput.HouseholdSize, ShouldEqual, 6)
				So(deps.lastInput.FoodInsecurityScore, ShouldEqual, 60)
			})

			Convey("And it should be retrievable by ID", func() {
				w := do(mux, http.MethodGet, "/assessments/s-1", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var a model.RiskAssessment
				So(json.Unmarshal(w.Body.Bytes(), &a), ShouldBeNil)
				So(a.ID, ShouldEqual, "s-1")
			})
		})

		Convey("When posting malformed JSON", func() {
			w := do(mux, http.MethodPost, "/assessments", `{"childAgeMonths":`)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the service rejects a duplicate", func() {
			deps.evalErr = fmt.Errorf("%w: s-1", repository.ErrDuplicateID)
			w := do(mux, http.MethodPost, "/assessments", `{"id":"s-1"}`)

			Convey("Then it should conflict", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decodeError(w)["code"], ShouldEqual, "duplicate_id")
			})
		})

		Convey("When strict validation fails", func() {
			deps.evalErr = fmt.Errorf("%w: waterAccessScore", scoring.ErrOutOfRange)
			w := do(mux, http.MethodPost, "/assessments", `{"waterAccessScore":-3}`)

			Convey("Then it should be a validation failure", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "validation_failed")
			})
		})

		Convey("When getting an unknown ID", func() {
			w := do(mux, http.MethodGet, "/assessments/missing", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "not_found")
		})

		Convey("When listing with sort parameters", func() {
			_, _ = deps.Evaluate(context.Background(), model.SurveyInput{Region: model.RegionWest}, "b")
			_, _ = deps.Evaluate(context.Background(), model.SurveyInput{Region: model.RegionCentral}, "a")
			w := do(mux, http.MethodGet, "/assessments?sort=region&order=asc", "")

			Convey("Then rows should come back sorted with the state echoed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Sort  table.State            `json:"sort"`
					Items []model.RiskAssessment `json:"items"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Sort, ShouldResemble, table.State{Field: table.FieldRegion, Order: table.Asc})
				So(body.Items[0].ID, ShouldEqual, "a")
			})
		})

		Convey("When listing by an unknown field", func() {
			w := do(mux, http.MethodGet, "/assessments?sort=shoeSize", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When toggling the active column", func() {
			w := do(mux, http.MethodGet, "/assessments?sort=region&order=asc&toggle=region", "")

			Convey("Then the order should flip", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastState, ShouldResemble, table.State{Field: table.FieldRegion, Order: table.Desc})
				So(w.Body.String(), ShouldContainSubstring, `"sort":{"field":"region","order":"desc"}`)
			})
		})

		Convey("When toggling another column", func() {
			w := do(mux, http.MethodGet, "/assessments?toggle=probabilityPercent", "")

			Convey("Then it should become active ascending", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastState, ShouldResemble, table.State{Field: table.FieldProbability, Order: table.Asc})
			})
		})

		Convey("When toggling an unknown column", func() {
			w := do(mux, http.MethodGet, "/assessments?toggle=shoeSize", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
		})
	})
}

func TestAnalysisAndActivity(t *testing.T) {
	Convey("Given an empty store", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When requesting the analysis", func() {
			w := do(mux, http.MethodGet, "/analysis", "")

			Convey("Then insights should be N/A with empty arrays", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"mostCommonCategory":"N/A"`)
				So(w.Body.String(), ShouldContainSubstring, `"timeline":[]`)
			})
		})

		Convey("When requesting the overview", func() {
			w := do(mux, http.MethodGet, "/overview", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"totalPredictions":0`)
		})

		Convey("When requesting activity without a limit", func() {
			w := do(mux, http.MethodGet, "/activity", "")

			Convey("Then the configured default should apply", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastLimit, ShouldEqual, 5)
			})
		})

		Convey("When requesting activity with a limit", func() {
			So(do(mux, http.MethodGet, "/activity?limit=3", "").Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 3)
			So(do(mux, http.MethodGet, "/activity?limit=zero", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/activity?limit=-1", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestExport(t *testing.T) {
	Convey("Given the export endpoint", t, func() {
		deps := &mockDependencies{exportBody: "ID,Child Age\nx,12\n"}
		mux := newMux(deps)

		Convey("When exporting CSV", func() {
			w := do(mux, http.MethodGet, "/export?format=csv", "")

			Convey("Then it should be an attachment", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				So(w.Header().Get("Content-Disposition"), ShouldEqual, "attachment; filename=health-predictions-1.csv")
				So(w.Body.String(), ShouldEqual, deps.exportBody)
			})
		})

		Convey("When there is nothing to export", func() {
			deps.exportErr = export.ErrNoData
			w := do(mux, http.MethodGet, "/export", "")

			Convey("Then it should warn with no_data", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decodeError(w)["code"], ShouldEqual, "no_data")
			})
		})

		Convey("When exporting PDF", func() {
			w := do(mux, http.MethodGet, "/export?format=pdf", "")
			So(w.Code, ShouldEqual, http.StatusNotImplemented)
			So(decodeError(w)["code"], ShouldEqual, "unsupported_format")
		})

		Convey("When exporting an unknown format", func() {
			w := do(mux, http.MethodGet, "/export?format=xlsx", "")

			Convey("Then it should be rejected as a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the service fails unexpectedly", func() {
			deps.exportErr = errors.New("boom")
			w := do(mux, http.MethodGet, "/export", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Header().Get("Content-Disposition"), ShouldBeEmpty)
		})
	})
}
