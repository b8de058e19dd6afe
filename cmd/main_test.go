package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/phq9/internal/adapters/http/api"
	"github.com/okian/phq9/internal/config"
	"github.com/okian/phq9/internal/domain/types"
	"github.com/okian/phq9/pkg/logger"
	"github.com/okian/phq9/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

const sheetCSV = "Timestamp,Q1,Q2,Q3,Q4,Q5,Q6,Q7,Q8,Q9,Email,Name\n" +
	"3/1/2024 9:00,Not at all,Not at all,Several Days,Not at all,Not at all,Not at all,Not at all,Not at all,Not at all,ada@example.com,Ada Lovelace\n"

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func writeSheet(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "responses.csv")
	if err := os.WriteFile(path, []byte(sheetCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMainConfiguration(t *testing.T) {
	t.Setenv("PHQ9_ADDR", ":8181")
	t.Setenv("PHQ9_DUPLICATE_POLICY", "reject")

	convey.Convey("Given configuration from the environment", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then it should load and build a service", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8181")

			svc, err := newService(cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc, convey.ShouldNotBeNil)
			convey.So(svc.GetStats()["duplicatePolicy"], convey.ShouldEqual, "reject")
		})
	})
}

func TestNewServiceRejectsUnknownPolicy(t *testing.T) {
	convey.Convey("Given a config with an unknown duplicate policy", t, func() {
		cfg := config.New()
		cfg.DuplicatePolicy = "merge"

		convey.Convey("Then building the service should fail", func() {
			svc, err := newService(cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(svc, convey.ShouldBeNil)
		})
	})
}

func TestNewLimiter(t *testing.T) {
	convey.Convey("Given rate limiting configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()

		convey.Convey("When rate limiting is disabled", func() {
			lim, closeFn := newLimiter(ctx, cfg, logger.Get())
			defer closeFn()

			convey.Convey("Then no limiter should be built", func() {
				convey.So(lim, convey.ShouldBeNil)
			})
		})

		convey.Convey("When Redis is unreachable", func() {
			cfg.RateLimitEnabled = true
			cfg.RedisAddr = "127.0.0.1:1"
			lim, closeFn := newLimiter(ctx, cfg, logger.Get())
			defer closeFn()

			convey.Convey("Then limiting should be disabled instead of failing", func() {
				convey.So(lim, convey.ShouldBeNil)
			})
		})
	})
}

func TestHandlerRoutes(t *testing.T) {
	convey.Convey("Given a started service behind the full handler", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := config.New()
		cfg.SheetURL = writeSheet(t)
		cfg.PhrasesPath = filepath.Join("..", "phrases_phq9.json")
		cfg.CORSAllowedOrigins = "https://clinic.example"

		svc, err := newService(cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(ctx, cfg, svc, nil)

		serve := func(method, target string, header http.Header) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, target, nil)
			for k, v := range header {
				req.Header[k] = v
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec
		}

		convey.Convey("When requesting the root", func() {
			rec := serve(http.MethodGet, "/", nil)

			convey.Convey("Then the liveness message should be returned", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, api.RootMessage)
				convey.So(rec.Header().Get("X-Request-ID"), convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When analyzing a known respondent", func() {
			rec := serve(http.MethodGet, "/analyze?client_name=ada+lovelace",
				http.Header{"Origin": []string{"https://clinic.example"}})

			convey.Convey("Then the assessment should be scored", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				var a types.Assessment
				convey.So(json.Unmarshal(rec.Body.Bytes(), &a), convey.ShouldBeNil)
				convey.So(a.ClientName, convey.ShouldEqual, "ada lovelace")
				convey.So(a.TotalScore, convey.ShouldEqual, 1)
				convey.So(a.Interpretation, convey.ShouldEqual, "Minimal or none (0-4)")
				convey.So(rec.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "https://clinic.example")
			})
		})

		convey.Convey("When analyzing an unknown respondent", func() {
			rec := serve(http.MethodGet, "/analyze?client_name=nobody", nil)

			convey.Convey("Then a not found error should be returned", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusNotFound)
			})
		})

		convey.Convey("When requesting the API docs", func() {
			rec := serve(http.MethodGet, "/openapi.yaml", nil)

			convey.Convey("Then the document should be served", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(strings.Contains(rec.Body.String(), "/analyze"), convey.ShouldBeTrue)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				convey.So(metrics.NewManager(), convey.ShouldNotBeNil)
			})
		})
	})
}
