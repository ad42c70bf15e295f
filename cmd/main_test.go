package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	app "github.com/okian/childhealth/internal/app"
	"github.com/okian/childhealth/internal/config"
	"github.com/okian/childhealth/internal/domain/model"
	"github.com/okian/childhealth/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func newTestServer(t *testing.T) (*httptest.Server, func()) {
	t.Helper()
	ctx := context.Background()
	cfg := config.New()
	svc := app.New(app.WithInferenceLatencyRange(0, 0), app.WithLocation(time.UTC))
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	ts := httptest.NewServer(newHandler(ctx, svc, cfg))
	return ts, func() {
		ts.Close()
		svc.Stop()
	}
}

func TestOpenKV(t *testing.T) {
	convey.Convey("Given store configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()

		convey.Convey("When the driver is memory", func() {
			kv, err := openKV(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(kv.Close(), convey.ShouldBeNil)
		})

		convey.Convey("When the driver is sqlite", func() {
			cfg.StoreDriver = config.StoreSQLite
			cfg.StorePath = filepath.Join(t.TempDir(), "test.db")
			kv, err := openKV(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(kv.Put(ctx, "k", []byte("v")), convey.ShouldBeNil)
			convey.So(kv.Close(), convey.ShouldBeNil)
		})
	})
}

func TestHandlerEndToEnd(t *testing.T) {
	convey.Convey("Given the full HTTP handler", t, func() {
		ts, cleanup := newTestServer(t)
		convey.Reset(cleanup)

		convey.Convey("When exporting before any assessment", func() {
			res, err := http.Get(ts.URL + "/export")
			convey.So(err, convey.ShouldBeNil)
			defer res.Body.Close()

			convey.Convey("Then it should warn that there is no data", func() {
				convey.So(res.StatusCode, convey.ShouldEqual, http.StatusUnprocessableEntity)
			})
		})

		convey.Convey("When posting a survey", func() {
			body := `{"childAgeMonths":14,"householdIncomeScore":10,"foodInsecurityScore":90,` +
				`"waterAccessScore":15,"sanitationAccessScore":5,"educationLevel":"None","region":"South","householdSize":9}`
			res, err := http.Post(ts.URL+"/assessments", "application/json", strings.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			var a model.RiskAssessment
			convey.So(json.NewDecoder(res.Body).Decode(&a), convey.ShouldBeNil)
			_ = res.Body.Close()

			convey.Convey("Then it should be stored as High risk", func() {
				convey.So(res.StatusCode, convey.ShouldEqual, http.StatusCreated)
				convey.So(a.RiskCategory, convey.ShouldEqual, model.RiskHigh)
				convey.So(a.ProbabilityPercent, convey.ShouldBeBetweenOrEqual, 5.0, 95.0)
			})

			convey.Convey("And the CSV export should contain it", func() {
				res, err := http.Get(ts.URL + "/export?format=csv")
				convey.So(err, convey.ShouldBeNil)
				defer res.Body.Close()
				raw, _ := io.ReadAll(res.Body)

				convey.So(res.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(res.Header.Get("Content-Disposition"), convey.ShouldStartWith, "attachment; filename=health-predictions-")
				convey.So(string(raw), convey.ShouldContainSubstring, a.ID+",14,South,High,")
			})
		})

		convey.Convey("When the client accepts gzip", func() {
			req, _ := http.NewRequest(http.MethodGet, ts.URL+"/dashboard", http.NoBody)
			req.Header.Set("Accept-Encoding", "gzip")
			res, err := http.DefaultTransport.RoundTrip(req)
			convey.So(err, convey.ShouldBeNil)
			defer res.Body.Close()

			convey.Convey("Then responses should be compressed", func() {
				convey.So(res.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(res.Header.Get("Content-Encoding"), convey.ShouldEqual, "gzip")
			})
		})

		convey.Convey("When requesting the landing page and docs", func() {
			for _, path := range []string{"/", "/api-docs", "/openapi.yaml", "/healthz"} {
				res, err := http.Get(ts.URL + path)
				convey.So(err, convey.ShouldBeNil)
				_ = res.Body.Close()
				convey.So(res.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When running the system metrics updater until timeout", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When logging a recovered panic", func() {
			convey.So(func() {
				recoveryLogger{log: logger.Get()}.Println("boom", 42)
			}, convey.ShouldNotPanic)
		})
	})
}

func TestRunShutdown(t *testing.T) {
	convey.Convey("Given a configuration on a free port", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.InferenceLatencyMinMS = 0
		cfg.InferenceLatencyMaxMS = 0

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			convey.Convey("Then run should return cleanly", func() {
				convey.So(run(ctx, cfg), convey.ShouldBeNil)
			})
		})
	})
}
