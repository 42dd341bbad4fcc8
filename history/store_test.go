package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert"
	"github.com/kjk/history/backup"
)

type loadErrors struct {
	paths []string
	errs  []error
}

func (l *loadErrors) onLoadError(path string, err error) {
	l.paths = append(l.paths, path)
	l.errs = append(l.errs, err)
}

func newTestStore(t *testing.T) (*Store, *loadErrors) {
	t.Helper()
	le := &loadErrors{}
	s := NewStore(filepath.Join(t.TempDir(), "History.xml"))
	s.OnLoadError = le.onLoadError
	return s, le
}

func validItem(name string, offset time.Duration) *Item {
	return &Item{
		Filename: name,
		DateTime: testTime.Add(offset),
		URL:      "http://x/" + name,
		Host:     "Imgur",
	}
}

func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("file '%s' exist, expected to not exist", path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, le := newTestStore(t)
	items := s.Load()
	assert.Len(t, items, 0)
	assert.Len(t, le.errs, 0)

	items, err := s.ReadFile()
	assert.NoError(t, err)
	assert.Len(t, items, 0)
}

func TestEmptyPath(t *testing.T) {
	le := &loadErrors{}
	s := &Store{OnLoadError: le.onLoadError}
	assert.Len(t, s.Load(), 0)
	assert.Len(t, le.errs, 0)
	assert.False(t, s.Append(validItem("a.png", 0)))
	assert.False(t, s.AppendItem(validItem("a.png", 0)))
}

func TestAppendItemValidationGate(t *testing.T) {
	rejected := []*Item{
		nil,
		{DateTime: testTime, URL: "http://x/a.png"},
		{Filename: "a.png", URL: "http://x/a.png"},
		{Filename: "a.png", DateTime: testTime},
		{Filename: "a.png", DateTime: testTime, Host: "Imgur", Type: "Image"},
	}
	for i, it := range rejected {
		s, _ := newTestStore(t)
		assert.False(t, s.AppendItem(it), "item %d", i)
		assertFileNotExists(t, s.Path)
	}

	s, _ := newTestStore(t)
	it := &Item{Filename: "a.png", DateTime: testTime, URL: "http://x/a.png"}
	assert.True(t, s.AppendItem(it))
	assertItemsEqual(t, []*Item{it}, s.Load())

	// a local path is enough
	it2 := &Item{Filename: "b.png", DateTime: testTime, Filepath: "/tmp/b.png"}
	assert.True(t, s.AppendItem(it2))
	assertItemsEqual(t, []*Item{it, it2}, s.Load())
}

func TestAppendFileFormat(t *testing.T) {
	s, _ := newTestStore(t)
	a := &Item{Filename: "a.png", DateTime: testTime, URL: "u1"}
	b := &Item{Filename: "b.png", DateTime: testTime, URL: "u2"}
	c := &Item{Filename: "c.png", DateTime: testTime, URL: "u3"}
	assert.True(t, s.Append(a, b))
	assert.True(t, s.Append(c))

	d, err := os.ReadFile(s.Path)
	assert.NoError(t, err)
	exp := encodeToString(t, a, b) + encodeToString(t, c)
	assertTextEqual(t, exp, string(d))
	assert.True(t, strings.HasSuffix(string(d), "</HistoryItem>\n"))
}

func TestAppendDoesNotValidate(t *testing.T) {
	s, _ := newTestStore(t)
	it := &Item{Type: "Text"}
	assert.True(t, s.Append(it))
	assertItemsEqual(t, []*Item{it}, s.Load())
}

func TestAppendEmptyBatch(t *testing.T) {
	s, _ := newTestStore(t)
	assert.True(t, s.Append())
	assertFileNotExists(t, s.Path)
}

func TestAppendCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "a", "b", "History.xml"))
	assert.True(t, s.AppendItem(validItem("a.png", 0)))
	assert.Len(t, s.Load(), 1)
}

func TestAppendFails(t *testing.T) {
	dir := t.TempDir()
	notDir := filepath.Join(dir, "file")
	err := os.WriteFile(notDir, []byte("x"), 0644)
	assert.NoError(t, err)
	s := NewStore(filepath.Join(notDir, "History.xml"))
	assert.False(t, s.AppendItem(validItem("a.png", 0)))
}

func TestLoadIsIdempotent(t *testing.T) {
	s, le := newTestStore(t)
	var exp []*Item
	for i := 0; i < 20; i++ {
		it := validItem(fmt.Sprintf("%02d.png", i), time.Duration(i)*time.Minute)
		exp = append(exp, it)
		assert.True(t, s.AppendItem(it))
	}
	first := s.Load()
	second := s.Load()
	assertItemsEqual(t, exp, first)
	assertItemsEqual(t, first, second)
	assert.Len(t, le.errs, 0)
}

func TestLoadForwardCompatible(t *testing.T) {
	s, le := newTestStore(t)
	data := `<HistoryItem>
    <Filename>a.png</Filename>
    <DateTimeUtc>2020-01-01T00:00:00Z</DateTimeUtc>
    <Album>holidays</Album>
    <URL>http://x/a.png</URL>
</HistoryItem>
`
	err := os.WriteFile(s.Path, []byte(data), 0644)
	assert.NoError(t, err)
	exp := &Item{Filename: "a.png", DateTime: testTime, URL: "http://x/a.png"}
	assertItemsEqual(t, []*Item{exp}, s.Load())
	assert.Len(t, le.errs, 0)
}

func TestLoadTruncatedReportsError(t *testing.T) {
	s, le := newTestStore(t)
	assert.True(t, s.AppendItem(validItem("a.png", 0)))
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_WRONLY, 0644)
	assert.NoError(t, err)
	_, err = f.WriteString("<HistoryItem>\n    <Filename>b.p")
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	items := s.Load()
	assert.Len(t, items, 0)
	assert.Len(t, le.errs, 1)
	assert.Equal(t, []string{s.Path}, le.paths)

	_, err = s.ReadFile()
	assert.Error(t, err)
}

func TestLoadUnreadableReportsError(t *testing.T) {
	le := &loadErrors{}
	// a directory can be opened but not read
	s := &Store{Path: t.TempDir(), OnLoadError: le.onLoadError}
	items := s.Load()
	assert.Len(t, items, 0)
	assert.Len(t, le.errs, 1)
}

func TestConcurrentAppendsDontInterleave(t *testing.T) {
	s, le := newTestStore(t)
	const nWriters = 8
	const nBatches = 10
	const batchSize = 3

	var wg sync.WaitGroup
	for w := 0; w < nWriters; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for b := 0; b < nBatches; b++ {
				var batch []*Item
				for i := 0; i < batchSize; i++ {
					batch = append(batch, &Item{
						Filename: fmt.Sprintf("w%d-b%d-%d.png", w, b, i),
						DateTime: testTime,
						Host:     fmt.Sprintf("w%d-b%d", w, b),
						URL:      "http://x/",
					})
				}
				if !s.Append(batch...) {
					t.Errorf("append failed")
				}
			}
		}(w)
	}
	wg.Wait()

	items := s.Load()
	assert.Len(t, le.errs, 0)
	assert.Len(t, items, nWriters*nBatches*batchSize)
	seen := map[string]bool{}
	for i := 0; i < len(items); i += batchSize {
		batch := items[i].Host
		assert.False(t, seen[batch], "batch %s seen twice", batch)
		seen[batch] = true
		for j := 0; j < batchSize; j++ {
			it := items[i+j]
			assert.Equal(t, batch, it.Host)
			assert.Equal(t, fmt.Sprintf("%s-%d.png", batch, j), it.Filename)
		}
	}
}

func TestAppendRunsBackup(t *testing.T) {
	s, _ := newTestStore(t)
	folder := filepath.Join(t.TempDir(), "backups")
	s.Backup = backup.Policy{
		Folder: folder,
		Always: true,
		Weekly: true,
	}
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }

	assert.True(t, s.AppendItem(validItem("a.png", 0)))
	assert.True(t, s.AppendItem(validItem("b.png", time.Minute)))

	cur, err := os.ReadFile(s.Path)
	assert.NoError(t, err)
	always, err := os.ReadFile(filepath.Join(folder, "History.xml"))
	assert.NoError(t, err)
	assert.Equal(t, string(cur), string(always))

	// weekly copy was made by first append and not updated by the second
	weekly, err := DecodeItems(mustOpen(t, filepath.Join(folder, "History-2026-W42.xml")))
	assert.NoError(t, err)
	assert.Len(t, weekly, 1)
	assert.Equal(t, "a.png", weekly[0].Filename)

	now = now.Add(7 * 24 * time.Hour)
	assert.True(t, s.AppendItem(validItem("c.png", 2*time.Minute)))
	weekly, err = DecodeItems(mustOpen(t, filepath.Join(folder, "History-2026-W43.xml")))
	assert.NoError(t, err)
	assert.Len(t, weekly, 3)
}

func TestBackupFailureDoesNotFailAppend(t *testing.T) {
	s, _ := newTestStore(t)
	notDir := filepath.Join(t.TempDir(), "file")
	err := os.WriteFile(notDir, []byte("x"), 0644)
	assert.NoError(t, err)
	s.Backup = backup.Policy{Folder: notDir, Always: true, Weekly: true}

	assert.True(t, s.AppendItem(validItem("a.png", 0)))
	assert.Len(t, s.Load(), 1)
}

func mustOpen(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	assert.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}
