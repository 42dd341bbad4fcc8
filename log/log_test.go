package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert"
)

func TestMarshalEventLine(t *testing.T) {
	fixedTime := time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC)
	ms := "1705314645123"
	tests := []struct {
		name     string
		evName   string
		t        time.Time
		d        []byte
		expected string
	}{
		{"all fields", "append", fixedTime, []byte("a: 1"), "--- 4 " + ms + " append\na: 1\n"},
		{"no name", "", fixedTime, []byte("a: 1\n"), "--- 5 " + ms + "\na: 1\n"},
		{"zero time", "append", time.Time{}, []byte("x"), "--- 1 append\nx\n"},
		{"no data", "append", fixedTime, nil, "--- 0 " + ms + " append\n"},
	}
	for _, tc := range tests {
		got := string(marshalEventLine(tc.evName, tc.t, tc.d))
		assert.Equal(t, tc.expected, got, tc.name)
	}
}

func TestEventPayloadOddPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic for odd number of values")
		}
	}()
	eventPayload([]any{"count"})
}

func TestInitWritesDailyFiles(t *testing.T) {
	dir := t.TempDir()
	var echoed bytes.Buffer
	stdout = &echoed
	defer func() { stdout = os.Stdout }()

	var forwarded []string
	Init(&Config{
		Dir: dir,
		OnLog: func(s string) {
			forwarded = append(forwarded, s)
		},
	})
	Logf("hello %d\n", 5)
	assert.True(t, IfErrf(errors.New("boom")))
	assert.False(t, IfErrf(nil))
	Event("history_append", "count", 2)
	Close()

	assert.Contains(t, echoed.String(), "hello 5\n")
	assert.Contains(t, echoed.String(), "boom\n")
	assert.True(t, len(forwarded) >= 2)

	day := time.Now().UTC().Format("2006-01-02") + ".txt"
	d, err := os.ReadFile(filepath.Join(dir, "log", day))
	assert.NoError(t, err)
	assert.Contains(t, string(d), "hello 5")

	d, err = os.ReadFile(filepath.Join(dir, "errors", day))
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(d), "boom\n"))

	d, err = os.ReadFile(filepath.Join(dir, "events", day))
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(d), "--- "))
	assert.Contains(t, string(d), " history_append\n")
}

func TestLogWithoutInit(t *testing.T) {
	var echoed bytes.Buffer
	stdout = &echoed
	defer func() { stdout = os.Stdout }()
	// nil writers are no-ops
	Logf("no init\n")
	Event("noop")
	assert.Equal(t, "no init\n", echoed.String())
}
