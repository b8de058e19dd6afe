package synthetic_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/phq9/internal/adapters/http/api"
	"github.com/okian/phq9/internal/adapters/sheet"
	service "github.com/okian/phq9/internal/app"
	"github.com/okian/phq9/internal/domain/model"
	"github.com/okian/phq9/internal/domain/resolver"
	"github.com/okian/phq9/internal/synthetic"
	"github.com/okian/phq9/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var layouts = []model.Layout{
	{IdentityColumns: 1, ReservedColumns: 2},
	{IdentityColumns: 2, ReservedColumns: 3},
	{IdentityColumns: 4, ReservedColumns: 4},
}

func TestGenerator(t *testing.T) {
	Convey("Given a generator for each layout", t, func() {
		ctx := context.Background()

		for _, layout := range layouts {
			gen, err := synthetic.NewGenerator(layout, 7)
			So(err, ShouldBeNil)

			respondents, err := gen.Generate(ctx, 25)
			So(err, ShouldBeNil)
			So(len(respondents), ShouldEqual, 25)

			Convey("Then rows should be shaped like the header for "+layout.String(), func() {
				header := synthetic.Header(layout)
				So(len(header), ShouldEqual, 1+synthetic.QuestionCount+layout.ReservedColumns)
				for _, r := range respondents {
					So(len(synthetic.Row(layout, r, "t")), ShouldEqual, len(header))
				}
			})

			Convey("Then names should be unique for "+layout.String(), func() {
				seen := map[string]bool{}
				for _, r := range respondents {
					key := r.Identity().Key()
					So(seen[key], ShouldBeFalse)
					seen[key] = true
				}
			})

			Convey("Then every name should carry a full UUID for "+layout.String(), func() {
				for _, r := range respondents {
					id := r.First
					if layout.IdentityColumns == 1 {
						So(r.ClientName, ShouldStartWith, synthetic.NamePrefix+" ")
						id = strings.TrimPrefix(r.ClientName, synthetic.NamePrefix+" ")
					}
					_, err := uuid.Parse(id)
					So(err, ShouldBeNil)
				}
			})

			Convey("Then the written sheet should resolve to the expected scores for "+layout.String(), func() {
				var buf bytes.Buffer
				So(synthetic.WriteSheet(&buf, layout, respondents), ShouldBeNil)

				table, err := sheet.Parse(&buf)
				So(err, ShouldBeNil)
				So(table.Len(), ShouldEqual, len(respondents))

				res, err := resolver.New(resolver.WithLayout(layout))
				So(err, ShouldBeNil)
				for _, r := range respondents {
					m, err := res.Resolve(ctx, table, r.Identity())
					So(err, ShouldBeNil)
					So(m.Score, ShouldEqual, r.TotalScore)
					So(m.Severity.Interpretation(), ShouldEqual, r.Interpretation)
				}
			})
		}
	})
}

func TestGeneratorRejectsInvalidLayout(t *testing.T) {
	Convey("Given an unsupported layout", t, func() {
		_, err := synthetic.NewGenerator(model.Layout{IdentityColumns: 3, ReservedColumns: 3}, 1)

		Convey("Then construction should fail", func() {
			So(errors.Is(err, model.ErrInvalidLayout), ShouldBeTrue)
		})
	})
}

func TestExpectationsRoundTrip(t *testing.T) {
	Convey("Given generated respondents saved to disk", t, func() {
		ctx := context.Background()
		gen, err := synthetic.NewGenerator(model.DefaultLayout(), 3)
		So(err, ShouldBeNil)
		respondents, err := gen.Generate(ctx, 5)
		So(err, ShouldBeNil)

		path := filepath.Join(t.TempDir(), "nested", "expected.json")
		So(synthetic.SaveExpectations(ctx, path, respondents), ShouldBeNil)

		Convey("Then loading should return the same respondents", func() {
			loaded, err := synthetic.LoadExpectations(path)
			So(err, ShouldBeNil)
			So(loaded, ShouldResemble, respondents)
		})
	})
}

func TestVerifyAgainstService(t *testing.T) {
	Convey("Given a service scoring a generated sheet", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		layout := model.Layout{IdentityColumns: 4, ReservedColumns: 4}
		gen, err := synthetic.NewGenerator(layout, 11)
		So(err, ShouldBeNil)
		respondents, err := gen.Generate(ctx, 40)
		So(err, ShouldBeNil)

		sheetPath := filepath.Join(t.TempDir(), "sheet.csv")
		So(synthetic.SaveSheet(ctx, sheetPath, layout, respondents), ShouldBeNil)

		svc := service.New(
			service.WithSheetURL(sheetPath),
			service.WithLayout(layout),
			service.WithPhrasesPath(""),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		srv := api.NewServer(svc, svc)
		srv.Register(ctx, mux)
		ts := httptest.NewServer(srv.Handler(mux))
		defer ts.Close()

		Convey("When verifying every respondent", func() {
			report, err := synthetic.Verify(ctx, synthetic.Config{BaseURL: ts.URL, Workers: 4, Timeout: 5 * time.Second}, respondents)

			Convey("Then all should match", func() {
				So(err, ShouldBeNil)
				So(report.Checked, ShouldEqual, 40)
				So(report.Matched, ShouldEqual, 40)
				So(report.OK(), ShouldBeTrue)
			})
		})

		Convey("When an expectation is wrong", func() {
			wrong := append([]synthetic.Respondent(nil), respondents[:3]...)
			wrong[0].TotalScore = 99
			report, err := synthetic.Verify(ctx, synthetic.Config{BaseURL: ts.URL, Workers: 2, Timeout: 5 * time.Second}, wrong)

			Convey("Then the mismatch should be reported", func() {
				So(err, ShouldBeNil)
				So(report.Mismatched, ShouldEqual, 1)
				So(report.Matched, ShouldEqual, 2)
				So(report.OK(), ShouldBeFalse)
				So(report.Mismatches[0].Reason, ShouldContainSubstring, "want 99")
			})
		})

		Convey("When a respondent is missing from the sheet", func() {
			missing := []synthetic.Respondent{{ClientName: "Nobody Here", Answers: []string{}}}
			report, err := synthetic.Verify(ctx, synthetic.Config{BaseURL: ts.URL, Workers: 1, Timeout: 5 * time.Second}, missing)

			Convey("Then it should count as a failure", func() {
				So(err, ShouldBeNil)
				So(report.Failed, ShouldEqual, 1)
				So(report.Mismatches[0].Reason, ShouldContainSubstring, "404")
			})
		})
	})
}

func TestVerifyUnhealthy(t *testing.T) {
	Convey("Given a service whose health check fails", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "down"})
		}))
		defer ts.Close()

		Convey("Then verification should stop before scoring", func() {
			_, err := synthetic.Verify(context.Background(),
				synthetic.Config{BaseURL: ts.URL, Workers: 1, Timeout: time.Second},
				[]synthetic.Respondent{{ClientName: "x"}})
			So(errors.Is(err, synthetic.ErrUnhealthy), ShouldBeTrue)
		})
	})

	Convey("Given no respondents", t, func() {
		_, err := synthetic.Verify(context.Background(), synthetic.Config{}, nil)

		Convey("Then verification should refuse to run", func() {
			So(errors.Is(err, synthetic.ErrNoRespondents), ShouldBeTrue)
		})
	})
}
