package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kjk/history/backup"
	"github.com/kjk/history/log"
	"github.com/kjk/history/remote"
)

var backupCmd = &cobra.Command{
	Use:   "backup <file>",
	Short: "Back up a history file",
	Long: `Copy a history file to a backup folder. With --weekly keeps one dated
copy per week and optionally uploads new weekly copies to S3, an sftp
server or an HTTP endpoint.`,
	Example: `  histdump backup History.xml --folder backups
  histdump backup History.xml --folder backups --weekly --compress zstd
  histdump backup History.xml --folder backups --weekly --remote-url https://example.com/backups`,
	Args: cobra.ExactArgs(1),
	RunE: runBackup,
}

var (
	flgBackupFolder   string
	flgBackupAlways   bool
	flgBackupWeekly   bool
	flgBackupMonthKey bool
	flgBackupCompress string

	flgRemoteURL    string
	flgRemoteAPIKey string

	s3Config   remote.S3Config
	sftpConfig remote.SFTPConfig
)

func init() {
	f := backupCmd.Flags()
	f.StringVar(&flgBackupFolder, "folder", "", "backup folder (required)")
	f.BoolVar(&flgBackupAlways, "always", true, "copy file into backup folder")
	f.BoolVar(&flgBackupWeekly, "weekly", false, "keep one dated copy per week")
	f.BoolVar(&flgBackupMonthKey, "month-week", false, "name weekly copies ${name}-YYYY-MM-Www instead of ${name}-YYYY-Www")
	f.StringVar(&flgBackupCompress, "compress", "", "compression of weekly copies: gz, zstd or br")

	f.StringVar(&flgRemoteURL, "remote-url", "", "upload new weekly copies with HTTP PUT to this url")
	f.StringVar(&flgRemoteAPIKey, "remote-api-key", "", "X-Api-Key for --remote-url")

	f.StringVar(&s3Config.Endpoint, "s3-endpoint", "", "upload new weekly copies to S3 compatible storage")
	f.StringVar(&s3Config.Bucket, "s3-bucket", "", "S3 bucket")
	f.StringVar(&s3Config.Access, "s3-access", "", "S3 access key")
	f.StringVar(&s3Config.Secret, "s3-secret", "", "S3 secret key")
	f.StringVar(&s3Config.Region, "s3-region", "", "S3 region")
	f.StringVar(&s3Config.Prefix, "s3-prefix", "", "prefix of uploaded objects")

	f.StringVar(&sftpConfig.Host, "sftp-host", "", "upload new weekly copies to this ssh server")
	f.UintVar(&sftpConfig.Port, "sftp-port", 22, "ssh port")
	f.StringVar(&sftpConfig.User, "sftp-user", "", "ssh user")
	f.StringVar(&sftpConfig.KeyPath, "sftp-key", "", "ssh private key")
	f.StringVar(&sftpConfig.Dir, "sftp-dir", "", "remote directory")
	_ = backupCmd.MarkFlagRequired("folder")
	rootCmd.AddCommand(backupCmd)
}

type closer interface {
	Close() error
}

// newUploader returns nil if no remote destination was configured
func newUploader(ctx context.Context) (backup.Uploader, closer, error) {
	n := 0
	for _, s := range []string{flgRemoteURL, s3Config.Endpoint, sftpConfig.Host} {
		if s != "" {
			n++
		}
	}
	if n > 1 {
		return nil, nil, errors.New("only one of --remote-url, --s3-endpoint, --sftp-host can be used")
	}
	switch {
	case flgRemoteURL != "":
		return &remote.HTTP{BaseURL: flgRemoteURL, APIKey: flgRemoteAPIKey}, nil, nil
	case s3Config.Endpoint != "":
		c, err := remote.NewS3(ctx, &s3Config)
		return c, nil, err
	case sftpConfig.Host != "":
		c, err := remote.NewSFTP(&sftpConfig)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	}
	return nil, nil, nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	path := args[0]
	compression, err := backup.ParseCompression(flgBackupCompress)
	if err != nil {
		return err
	}
	p := &backup.Policy{
		Folder:      flgBackupFolder,
		Always:      flgBackupAlways,
		Weekly:      flgBackupWeekly,
		Compression: compression,
	}
	if flgBackupMonthKey {
		p.WeekKey = backup.MonthWeekKey
	}
	if !p.Enabled() {
		return errors.New("nothing to do, use --always or --weekly")
	}
	if p.Weekly {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		up, c, err := newUploader(ctx)
		if err != nil {
			return err
		}
		if c != nil {
			defer c.Close()
		}
		p.Remote = up
	}

	timeStart := time.Now()
	now := time.Now()
	if err = p.Run(path, now); err != nil {
		return err
	}
	if p.Weekly {
		fmt.Printf("weekly backup: %s\n", backup.WeeklyBackupPath(path, p.Folder, now, p.WeekKey, p.Compression))
	}
	log.EventWithDuration("history_backup", time.Since(timeStart), "path", path, "folder", p.Folder)
	return nil
}
