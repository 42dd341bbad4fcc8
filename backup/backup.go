// Package backup keeps copies of a file in a backup folder.
//
// Two independent steps are supported:
//   - always: copy the file verbatim into the folder, overwriting the previous copy
//   - weekly: keep one dated copy per week, optionally compressed and
//     uploaded to a remote destination
//
// Both steps are best-effort: a failure in one doesn't prevent the other.
package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Uploader sends a local file to a remote destination under remoteName
type Uploader interface {
	Upload(ctx context.Context, localPath string, remoteName string) error
}

const defaultRemoteTimeout = time.Minute

type Policy struct {
	// backups are disabled if Folder is empty
	Folder string
	// copy the file into Folder after every change
	Always bool
	// keep at most one copy per week in Folder
	Weekly bool
	// decides which week a time belongs to, nil means ISOWeekKey
	WeekKey WeekKeyFunc
	// compression of weekly copies
	Compression Compression
	// if set, every newly created weekly copy is also uploaded
	Remote Uploader
	// timeout for a single remote upload, 0 means 1 minute
	RemoteTimeout time.Duration
}

// Enabled returns true if Run would do anything
func (p *Policy) Enabled() bool {
	return p != nil && p.Folder != "" && (p.Always || p.Weekly)
}

// Run performs enabled backup steps for path. All failures are returned
// joined together, a failed step doesn't stop the following ones.
func (p *Policy) Run(path string, now time.Time) error {
	if !p.Enabled() || path == "" {
		return nil
	}
	var errs []error
	if p.Always {
		if _, err := CopyToFolder(path, p.Folder); err != nil {
			errs = append(errs, err)
		}
	}
	if p.Weekly {
		dst, created, err := WeeklyBackup(path, p.Folder, now, p.WeekKey, p.Compression)
		if err != nil {
			errs = append(errs, err)
		}
		if created && p.Remote != nil {
			if err = p.upload(dst); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Policy) upload(localPath string) error {
	timeout := p.RemoteTimeout
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	remoteName := filepath.Base(localPath)
	if err := p.Remote.Upload(ctx, localPath, remoteName); err != nil {
		return fmt.Errorf("upload of '%s' as '%s' failed: %w", localPath, remoteName, err)
	}
	return nil
}

// CopyToFolder copies path to ${folder}/${filepath.Base(path)}, overwriting
// existing file. Returns destination path.
func CopyToFolder(path string, folder string) (string, error) {
	if path == "" || folder == "" {
		return "", nil
	}
	if !fileExists(path) {
		return "", nil
	}
	dst := filepath.Join(folder, filepath.Base(path))
	if err := copyFileAtomically(dst, path, None); err != nil {
		return dst, fmt.Errorf("copy of '%s' to '%s' failed: %w", path, dst, err)
	}
	return dst, nil
}
