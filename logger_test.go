package jwksauth

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLoggerAdapters(t *testing.T) {
	exercise := func(l Logger) {
		l.Debugf("debug %s", "message")
		l.Infof("info %s", "message")
		l.Warnf("warn %s", "message")
		l.Errorf("error %s", "message")
	}

	t.Run("default", func(t *testing.T) {
		exercise(&DefaultLogger{})
	})

	t.Run("zap", func(t *testing.T) {
		exercise(NewZapLogger(zap.NewNop().Sugar()))
	})

	t.Run("zerolog", func(t *testing.T) {
		var buf bytes.Buffer
		exercise(NewZerologLogger(zerolog.New(&buf)))
		assert.Contains(t, buf.String(), "error message")
	})

	t.Run("logrus", func(t *testing.T) {
		var buf bytes.Buffer
		l := logrus.New()
		l.SetOutput(&buf)
		exercise(NewLogrusLogger(l))
		assert.Contains(t, buf.String(), "error message")
	})
}
