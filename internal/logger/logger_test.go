package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reset(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	reset(t)

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := reset(t)
	SetVerbose(true)

	Debug("test message %s", "arg")

	assert.Equal(t, "[DEBUG] test message arg\n", buf.String())
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := reset(t)
	SetVerbose(false)

	Debug("test message")
	Info("info message")

	assert.Zero(t, buf.Len(), "expected no output when verbose is disabled")
}

func TestWarn_AlwaysPrinted(t *testing.T) {
	buf := reset(t)
	SetVerbose(false)

	Warn("warning message")

	assert.Equal(t, "[WARN] warning message\n", buf.String())
}

func TestError(t *testing.T) {
	buf := reset(t)

	Error("failed: %v", "boom")

	assert.Equal(t, "[ERROR] failed: boom\n", buf.String())
}

func TestSection(t *testing.T) {
	buf := reset(t)
	SetVerbose(true)

	Section("Test Section")

	assert.Equal(t, "\n=== Test Section ===\n", buf.String())
}

func TestSection_WhenNotVerbose(t *testing.T) {
	buf := reset(t)

	Section("Hidden")

	assert.Empty(t, buf.String())
}

func TestInfo(t *testing.T) {
	buf := reset(t)
	SetVerbose(true)

	Info("info message %d", 42)

	assert.Equal(t, "[INFO] info message 42\n", buf.String())
}

func TestWithFields_SortedKeys(t *testing.T) {
	buf := reset(t)

	WithFields(Fields{"provider": "google", "attempt": 2}).Warn("retrying")

	assert.Equal(t, "[WARN] retrying attempt=2 provider=google\n", buf.String())
}

func TestFlow(t *testing.T) {
	t.Run("enabled prints without verbose", func(t *testing.T) {
		buf := reset(t)

		Flow(true, Fields{"provider": "x"}, "opening %s", "browser")

		assert.Equal(t, "[INFO] opening browser provider=x\n", buf.String())
	})

	t.Run("disabled is debug only", func(t *testing.T) {
		buf := reset(t)

		Flow(false, Fields{"provider": "x"}, "opening browser")
		assert.Empty(t, buf.String())

		SetVerbose(true)
		Flow(false, Fields{"provider": "x"}, "opening browser")
		assert.Equal(t, "[DEBUG] opening browser provider=x\n", buf.String())
	})
}

func TestConcurrentAccess(t *testing.T) {
	reset(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(true)
			Debug("concurrent %d", i)
			IsVerbose()
			SetVerbose(false)
		}()
	}
	wg.Wait()
}
