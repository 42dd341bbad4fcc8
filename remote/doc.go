// Package remote implements backup.Uploader for off-site copies of
// weekly backups: S3 compatible storage, an ssh server over sftp
// and plain HTTP PUT.
package remote
