package history

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kjk/history/backup"
	"github.com/kjk/history/log"
)

// all stores in the process share one lock
var mu sync.Mutex

type Store struct {
	// path of history file, Load() and Append() are no-ops if empty
	Path string
	// what backups to make after a successful Append()
	Backup backup.Policy
	// called when Load() fails, with the path and the error
	// meant to tell the user that their history couldn't be read
	OnLoadError func(path string, err error)
	// used to decide week of a weekly backup, time.Now if nil
	Now func() time.Time
}

func NewStore(path string) *Store {
	return &Store{
		Path: path,
	}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func readItemsFromFile(path string) ([]*Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeItems(f)
}

// ReadFile reads all items from history file.
// A missing file or empty Path is not an error.
func (s *Store) ReadFile() ([]*Item, error) {
	if s.Path == "" {
		return nil, nil
	}
	mu.Lock()
	defer mu.Unlock()

	items, err := readItemsFromFile(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history file '%s' failed: %w", s.Path, err)
	}
	return items, nil
}

// Load returns all items from history file, in the order they were appended.
// On error it logs, calls OnLoadError and returns no items so the result
// of a failed load is the same as for an empty history.
func (s *Store) Load() []*Item {
	items, err := s.ReadFile()
	if err != nil {
		log.Errorf("Store.Load: %s\n", err)
		if s.OnLoadError != nil {
			s.OnLoadError(s.Path, err)
		}
		return nil
	}
	return items
}

// data is either fully written and synced or an error is returned.
// A failed write may leave a partial record at the end of the file.
func appendToFileRobust(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	_, err = file.Write(data)
	if err != nil {
		file.Close()
		return err
	}
	err = file.Sync()
	if err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (s *Store) appendItems(items []*Item) error {
	var buf bytes.Buffer
	if err := EncodeItems(&buf, items...); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return err
	}
	return appendToFileRobust(s.Path, buf.Bytes())
}

// Append writes items at the end of history file, without validating them.
// Returns false if Path is empty or writing failed. Errors are logged.
// After a successful write the backup policy runs, its failures are
// logged but don't change the result.
func (s *Store) Append(items ...*Item) bool {
	if s.Path == "" {
		return false
	}
	if len(items) == 0 {
		return true
	}
	mu.Lock()
	defer mu.Unlock()

	timeStart := time.Now()
	if err := s.appendItems(items); err != nil {
		log.Errorf("Store.Append: appending %d items to '%s' failed with '%s'\n", len(items), s.Path, err)
		return false
	}
	if err := s.Backup.Run(s.Path, s.now()); err != nil {
		log.Errorf("Store.Append: backup of '%s' failed with '%s'\n", s.Path, err)
	}
	log.EventWithDuration("history_append", time.Since(timeStart), "count", len(items), "path", s.Path)
	return true
}

// AppendItem appends item if it passes Validate(). Invalid items
// are dropped without logging and false is returned.
func (s *Store) AppendItem(item *Item) bool {
	if !IsValid(item) {
		return false
	}
	return s.Append(item)
}
