package remote

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/carlmjohnson/requests"
)

// HTTP uploads backups with PUT ${BaseURL}/${name}
type HTTP struct {
	BaseURL string
	// sent as X-Api-Key header if not empty
	APIKey string
	// http.DefaultClient if nil
	Client *http.Client
}

func (h *HTTP) urlFor(remoteName string) (string, error) {
	if h.BaseURL == "" {
		return "", errors.New("BaseURL is empty")
	}
	base := h.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(strings.TrimPrefix(remoteName, "/")), nil
}

func (h *HTTP) Upload(ctx context.Context, localPath string, remoteName string) error {
	uri, err := h.urlFor(remoteName)
	if err != nil {
		return err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	r := requests.
		URL(uri).
		Method(http.MethodPut).
		BodyReader(f).
		ContentType(contentTypeFor(remoteName))
	if h.APIKey != "" {
		r = r.Header("X-Api-Key", h.APIKey)
	}
	if h.Client != nil {
		r = r.Client(h.Client)
	}
	return r.Fetch(ctx)
}
