package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToInfoLevel(t *testing.T) {
	t.Setenv("TOI_LOG_LEVEL", "")
	l := New()
	require.Equal(t, logrus.InfoLevel, l.Level)
}

func TestNewHonorsEnvLevel(t *testing.T) {
	t.Setenv("TOI_LOG_LEVEL", "debug")
	l := New()
	require.Equal(t, logrus.DebugLevel, l.Level)
}

func TestNewFallsBackOnUnparsableLevel(t *testing.T) {
	t.Setenv("TOI_LOG_LEVEL", "not-a-level")
	l := New()
	require.Equal(t, logrus.InfoLevel, l.Level)
}

func TestWithPanicGuardRunsFnWhenNoPanic(t *testing.T) {
	ran := false
	WithPanicGuard(logrus.New(), func() { ran = true })
	require.True(t, ran)
}
