package resolver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/phq9/internal/domain/model"
	"github.com/okian/phq9/internal/domain/resolver"
	. "github.com/smartystreets/goconvey/convey"
)

func row(answers []string, trailing ...string) []string {
	r := append([]string{"2024-03-01 10:00:00"}, answers...)
	return append(r, trailing...)
}

func singleNameTable() model.Table {
	return model.Table{
		Header: []string{"Timestamp", "Q1", "Q2", "Q3", "Email", "Name"},
		Rows: [][]string{
			row([]string{"Not at all", "Several Days", "Nearly every day"}, "jane@example.com", "Jane Doe"),
			row([]string{"Nearly every day", "Nearly every day", "Nearly every day"}, "john@example.com", " John Roe "),
			row([]string{"Sometimes", "", "More than half the days"}, "max@example.com", "Max Mustermann"),
		},
	}
}

func TestResolveSingleName(t *testing.T) {
	Convey("Given a single-name table and the default resolver", t, func() {
		ctx := context.Background()
		r, err := resolver.New()
		So(err, ShouldBeNil)
		table := singleNameTable()

		Convey("When the name differs by case or whitespace", func() {
			Convey("Then each spelling should match the same row", func() {
				for _, name := range []string{"Jane Doe", "jane doe ", "JANE DOE"} {
					m, err := r.Resolve(ctx, table, model.Identity{ClientName: name})
					So(err, ShouldBeNil)
					So(m.RowNumber, ShouldEqual, 1)
				}
			})
		})

		Convey("When scoring a row with weights 0, 1 and 3", func() {
			m, err := r.Resolve(ctx, table, model.Identity{ClientName: "Jane Doe"})

			Convey("Then the total should be 4 and minimal", func() {
				So(err, ShouldBeNil)
				So(m.Score, ShouldEqual, 4)
				So(m.Severity.Interpretation(), ShouldEqual, "Minimal or none (0-4)")
				So(m.Answers, ShouldResemble, []string{"Not at all", "Several Days", "Nearly every day"})
				So(m.Unrecognized, ShouldEqual, 0)
			})
		})

		Convey("When the row's name cell has padding", func() {
			m, err := r.Resolve(ctx, table, model.Identity{ClientName: "john roe"})

			Convey("Then it should still match", func() {
				So(err, ShouldBeNil)
				So(m.Score, ShouldEqual, 9)
			})
		})

		Convey("When answers are unrecognized or blank", func() {
			m, err := r.Resolve(ctx, table, model.Identity{ClientName: "Max Mustermann"})

			Convey("Then they should weigh zero and only the unknown phrase should be flagged", func() {
				So(err, ShouldBeNil)
				So(m.Score, ShouldEqual, 2)
				So(m.Unrecognized, ShouldEqual, 1)
			})
		})

		Convey("When no row matches", func() {
			_, err := r.Resolve(ctx, table, model.Identity{ClientName: "Nobody"})

			Convey("Then ErrNotFound should be returned, not a zero score", func() {
				So(errors.Is(err, resolver.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the identity is empty", func() {
			_, err := r.Resolve(ctx, table, model.Identity{})

			Convey("Then it should not match anything", func() {
				So(errors.Is(err, resolver.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestResolveSevere(t *testing.T) {
	Convey("Given an explicit 22-point row", t, func() {
		answers := []string{
			"Nearly every day", "Nearly every day", "Nearly every day", "Nearly every day",
			"Nearly every day", "Nearly every day", "More than half the days", "More than half the days",
			"Not at all",
		}
		table := model.Table{Rows: [][]string{row(answers, "", "Pat Example")}}
		r, _ := resolver.New()
		m, err := r.Resolve(context.Background(), table, model.Identity{ClientName: "Pat Example"})

		Convey("Then the total should be 22", func() {
			So(err, ShouldBeNil)
			So(m.Score, ShouldEqual, 22)
			So(m.Severity.Interpretation(), ShouldEqual, "Severe (20-27)")
		})
	})
}

func TestResolveSplitNames(t *testing.T) {
	Convey("Given a first/last layout", t, func() {
		r, err := resolver.New(resolver.WithLayout(model.Layout{IdentityColumns: 2, ReservedColumns: 2}))
		So(err, ShouldBeNil)
		table := model.Table{Rows: [][]string{
			row([]string{"Several Days", "Several Days"}, "Jane", "Doe"),
		}}

		Convey("When the request uses split fields", func() {
			m, err := r.Resolve(context.Background(), table, model.Identity{First: "jane", Last: "DOE"})

			Convey("Then the row should match and exclude the name cells from answers", func() {
				So(err, ShouldBeNil)
				So(m.Score, ShouldEqual, 2)
				So(m.Answers, ShouldResemble, []string{"Several Days", "Several Days"})
			})
		})

		Convey("When the request uses a full client name", func() {
			m, err := r.Resolve(context.Background(), table, model.Identity{ClientName: "Jane Doe"})

			Convey("Then it should match too", func() {
				So(err, ShouldBeNil)
				So(m.RowNumber, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a four-part layout with blank middle name and suffix", t, func() {
		r, err := resolver.New(resolver.WithLayout(model.Layout{IdentityColumns: 4, ReservedColumns: 4}))
		So(err, ShouldBeNil)
		table := model.Table{Rows: [][]string{
			row([]string{"More than half the days"}, "Jane", "", "Doe", ""),
			row([]string{"Nearly every day"}, "Jane", "Q", "Doe", "Jr."),
		}}

		Convey("When only first and last are requested", func() {
			m, err := r.Resolve(context.Background(), table, model.Identity{First: "Jane", Last: "Doe"})

			Convey("Then blanks should be ignored on both sides", func() {
				So(err, ShouldBeNil)
				So(m.RowNumber, ShouldEqual, 1)
				So(m.Score, ShouldEqual, 2)
			})
		})

		Convey("When every part is requested", func() {
			m, err := r.Resolve(context.Background(), table, model.Identity{First: "Jane", Middle: "q", Last: "Doe", Suffix: "JR."})

			Convey("Then the full row should match", func() {
				So(err, ShouldBeNil)
				So(m.RowNumber, ShouldEqual, 2)
				So(m.Score, ShouldEqual, 3)
			})
		})
	})
}

func TestResolveDuplicates(t *testing.T) {
	Convey("Given two rows with the same normalized name", t, func() {
		table := model.Table{Rows: [][]string{
			row([]string{"Several Days"}, "", "Jane Doe"),
			row([]string{"Nearly every day"}, "", "JANE DOE"),
		}}

		Convey("When the first-match policy is active", func() {
			r, _ := resolver.New(resolver.WithDuplicatePolicy(model.DuplicateFirst))
			m, err := r.Resolve(context.Background(), table, model.Identity{ClientName: "Jane Doe"})

			Convey("Then the first row should win", func() {
				So(err, ShouldBeNil)
				So(m.RowNumber, ShouldEqual, 1)
				So(m.Score, ShouldEqual, 1)
			})
		})

		Convey("When the reject policy is active", func() {
			r, _ := resolver.New(resolver.WithDuplicatePolicy(model.DuplicateReject))
			_, err := r.Resolve(context.Background(), table, model.Identity{ClientName: "Jane Doe"})

			Convey("Then ErrAmbiguous should be returned", func() {
				So(errors.Is(err, resolver.ErrAmbiguous), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "rows 1 and 2")
			})
		})
	})
}

func TestResolveMalformed(t *testing.T) {
	Convey("Given a table with a row too short for the layout", t, func() {
		r, _ := resolver.New(resolver.WithLayout(model.Layout{IdentityColumns: 2, ReservedColumns: 2}))
		table := model.Table{Rows: [][]string{
			{"2024-03-01"},
			row([]string{"Several Days"}, "Jane", "Doe"),
		}}

		Convey("When the short row is reached before a match", func() {
			_, err := r.Resolve(context.Background(), table, model.Identity{First: "Jane", Last: "Doe"})

			Convey("Then ErrMalformedRow should be returned", func() {
				So(errors.Is(err, resolver.ErrMalformedRow), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "row 1")
			})
		})
	})

	Convey("Given an invalid layout", t, func() {
		_, err := resolver.New(resolver.WithLayout(model.Layout{IdentityColumns: 3, ReservedColumns: 3}))

		Convey("Then construction should fail", func() {
			So(errors.Is(err, model.ErrInvalidLayout), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		r, _ := resolver.New()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := r.Resolve(ctx, singleNameTable(), model.Identity{ClientName: "Jane Doe"})

		Convey("Then the context error should be returned", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
