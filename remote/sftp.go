package remote

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/melbahja/goph"
	"github.com/pkg/sftp"
)

const defaultSFTPTimeout = 20 * time.Second

type SFTPConfig struct {
	User string
	Host string
	// 22 if 0
	Port uint
	// private key used for auth, Password is used if empty
	KeyPath       string
	KeyPassphrase string
	Password      string
	// known_hosts file to verify the server, ~/.ssh/known_hosts if empty
	KnownHostsPath string
	// remote directory for backups, created if doesn't exist
	Dir     string
	Timeout time.Duration
}

func (c *SFTPConfig) validate() error {
	if c == nil {
		return errors.New("must provide config")
	}
	if c.User == "" || c.Host == "" || c.Dir == "" {
		return errors.New("must provide User, Host and Dir in config")
	}
	if c.KeyPath == "" && c.Password == "" {
		return errors.New("must provide KeyPath or Password in config")
	}
	return nil
}

func (c *SFTPConfig) auth() (goph.Auth, error) {
	if c.KeyPath != "" {
		return goph.Key(c.KeyPath, c.KeyPassphrase)
	}
	return goph.Password(c.Password), nil
}

// SFTP uploads backups to a directory on ssh server
type SFTP struct {
	client *goph.Client
	sftp   *sftp.Client
	dir    string
}

func NewSFTP(config *SFTPConfig) (*SFTP, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	auth, err := config.auth()
	if err != nil {
		return nil, fmt.Errorf("goph auth failed with '%w'", err)
	}
	callback, err := goph.DefaultKnownHosts()
	if config.KnownHostsPath != "" {
		callback, err = goph.KnownHosts(config.KnownHostsPath)
	}
	if err != nil {
		return nil, fmt.Errorf("loading known hosts failed with '%w'", err)
	}
	port := config.Port
	if port == 0 {
		port = 22
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultSFTPTimeout
	}
	client, err := goph.NewConn(&goph.Config{
		User:     config.User,
		Addr:     config.Host,
		Port:     port,
		Auth:     auth,
		Timeout:  timeout,
		Callback: callback,
	})
	if err != nil {
		return nil, fmt.Errorf("goph.NewConn() failed with '%w'", err)
	}
	sc, err := client.NewSftp()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("client.NewSftp() failed with '%w'", err)
	}
	if err = sc.MkdirAll(config.Dir); err != nil {
		sc.Close()
		client.Close()
		return nil, fmt.Errorf("sftp.MkdirAll('%s') failed with '%w'", config.Dir, err)
	}
	return &SFTP{
		client: client,
		sftp:   sc,
		dir:    config.Dir,
	}, nil
}

func (s *SFTP) Upload(ctx context.Context, localPath string, remoteName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	remotePath := path.Join(s.dir, remoteName)
	if err := s.client.Upload(localPath, remotePath); err != nil {
		return fmt.Errorf("client.Upload('%s', '%s') failed with '%w'", localPath, remotePath, err)
	}
	return nil
}

func (s *SFTP) Exists(remoteName string) bool {
	_, err := s.sftp.Stat(path.Join(s.dir, remoteName))
	return err == nil
}

func (s *SFTP) Close() error {
	err := s.sftp.Close()
	err2 := s.client.Close()
	return errors.Join(err, err2)
}
