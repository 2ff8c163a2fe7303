package config_test

import (
	"runtime"
	"testing"

	"github.com/okian/meritor/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.CooldownDays, convey.ShouldEqual, 182)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 65_536)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.NotifyBuffer, convey.ShouldEqual, 1024)
			convey.So(cfg.MaxExpertsLimit, convey.ShouldEqual, 100)
			convey.So(cfg.RecalcIntervalSeconds, convey.ShouldEqual, 60)
			convey.So(cfg.AdminAccounts, convey.ShouldBeEmpty)
		})
	})
}
