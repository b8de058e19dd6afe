package config_test

import (
	"testing"
	"time"

	"github.com/okian/phq9/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.IdentityColumns, convey.ShouldEqual, 1)
			convey.So(cfg.ReservedColumns, convey.ShouldEqual, 2)
			convey.So(cfg.DuplicatePolicy, convey.ShouldEqual, "first")
			convey.So(cfg.NoRepeatPhrases, convey.ShouldBeTrue)
			convey.So(cfg.SheetTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.RateLimitEnabled, convey.ShouldBeFalse)
			convey.So(cfg.RateLimitTrustProxy, convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a comma separated origin list", t, func() {
		cfg := config.New()
		cfg.CORSAllowedOrigins = " https://a.example , ,https://b.example"

		convey.Convey("Then AllowedOrigins should trim and drop blanks", func() {
			convey.So(cfg.AllowedOrigins(), convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
		})
	})

	convey.Convey("Given millisecond fields", t, func() {
		cfg := config.New()
		cfg.RateLimitRefillIntervalMS = 250
		cfg.RateLimitTTLMS = 2000

		convey.Convey("Then the duration helpers should convert them", func() {
			convey.So(cfg.RateLimitRefillInterval(), convey.ShouldEqual, 250*time.Millisecond)
			convey.So(cfg.RateLimitTTL(), convey.ShouldEqual, 2*time.Second)
		})
	})
}
