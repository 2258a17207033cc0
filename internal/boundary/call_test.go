package boundary

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall_ReturnsResult(t *testing.T) {
	got, err := Call("test.ok", func() int64 { return 42 })
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestCall_ContainsPanic(t *testing.T) {
	before := testutil.ToFloat64(FaultCount.WithLabelValues("test.panic"))

	got, err := Call("test.panic", func() int64 {
		var m map[string]int
		m["x"] = 1 // nil map write
		return 1
	})

	require.Error(t, err)
	assert.Equal(t, int64(0), got)

	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "test.panic", f.Op)
	assert.NotEmpty(t, f.Stack)
	assert.Contains(t, err.Error(), "native fault in test.panic")
	assert.True(t, IsFault(err))

	after := testutil.ToFloat64(FaultCount.WithLabelValues("test.panic"))
	assert.Equal(t, before+1, after)
}

func TestCall_FaultUnwrapsErrorValue(t *testing.T) {
	cause := errors.New("index corrupted")
	_, err := Call("test.errpanic", func() []byte { panic(cause) })
	assert.ErrorIs(t, err, cause)

	_, err = Call("test.strpanic", func() []byte { panic("plain string") })
	assert.Nil(t, errors.Unwrap(err))
}

func TestCall_CountsCalls(t *testing.T) {
	before := testutil.ToFloat64(CallCount.WithLabelValues("test.count"))
	for i := 0; i < 3; i++ {
		_, _ = Call("test.count", func() int { return i })
	}
	assert.Equal(t, before+3, testutil.ToFloat64(CallCount.WithLabelValues("test.count")))
}

func TestDo(t *testing.T) {
	ran := false
	require.NoError(t, Do("test.do", func() { ran = true }))
	assert.True(t, ran)

	assert.Error(t, Do("test.dopanic", func() { panic("x") }))
}

func TestTeardown_NeverPanics(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	assert.NotPanics(t, func() {
		Teardown("test.teardown", func() { panic("double free") })
	})
	assert.Contains(t, buf.String(), "teardown fault swallowed")
	assert.Contains(t, buf.String(), "op=test.teardown")
}

func TestTeardownLog_UsesGivenLogger(t *testing.T) {
	var pkg, own bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&pkg, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	TeardownLog(slog.New(slog.NewTextHandler(&own, nil)), "test.own", func() { panic("double free") })
	assert.Contains(t, own.String(), "op=test.own")
	assert.Empty(t, pkg.String())

	TeardownLog(nil, "test.fallback", func() { panic("double free") })
	assert.Contains(t, pkg.String(), "op=test.fallback")
}

func TestLogger_DefaultsToSlogDefault(t *testing.T) {
	SetLogger(nil)
	assert.Same(t, slog.Default(), Logger())
}

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}
