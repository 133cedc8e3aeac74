package logger_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/recuerdo-dev/recuerdo/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("NewLoggerWithWriters", func() {
		It("writes info messages with fields", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf)
			l.Info("hello")
			l.Sync()

			Expect(buf.String()).To(ContainSubstring("hello"))
		})

		It("respects debug level", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(true, &buf)
			l.Debug("debug msg")
			l.Sync()

			Expect(buf.String()).To(ContainSubstring("debug msg"))
		})

		It("filters debug when not enabled", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf)
			l.Debug("hidden")
			l.Sync()

			Expect(buf.String()).To(BeEmpty())
		})
	})

	Describe("Nop", func() {
		It("discards everything without panicking", func() {
			l := logger.Nop()
			l.Info("into the void")
			Expect(l.Sync()).To(Succeed())
		})
	})
})
