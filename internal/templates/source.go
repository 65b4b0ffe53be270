package templates

import (
	"context"
	"embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

//go:embed assets/*.xlsx
var embeddedAssets embed.FS

// AssetSource reads the bytes of a reference master file
type AssetSource interface {
	ReadAsset(ctx context.Context, referencePath string) ([]byte, error)
}

// EmbeddedSource master files compiled into the binary
type EmbeddedSource struct{}

// NewEmbeddedSource 创建内嵌模板源
func NewEmbeddedSource() EmbeddedSource {
	return EmbeddedSource{}
}

// ReadAsset reads assets/<base name of referencePath>.
func (EmbeddedSource) ReadAsset(ctx context.Context, referencePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := path.Join("assets", path.Base(referencePath))
	data, err := embeddedAssets.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read embedded asset %s: %w", name, err)
	}
	return data, nil
}

// DirSource master files in a directory on disk
type DirSource struct {
	Dir string
}

// NewDirSource 创建目录模板源
func NewDirSource(dir string) DirSource {
	return DirSource{Dir: dir}
}

// ReadAsset reads <Dir>/<base name of referencePath>.
func (s DirSource) ReadAsset(ctx context.Context, referencePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filepath.Join(s.Dir, path.Base(referencePath))
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", p, err)
	}
	return data, nil
}

// HTTPSource master files served as static assets
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource 创建 HTTP 模板源; timeout <= 0 leaves the client without one.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
	}
}

// ReadAsset GETs BaseURL + referencePath.
func (s *HTTPSource) ReadAsset(ctx context.Context, referencePath string) ([]byte, error) {
	url := s.BaseURL + "/" + strings.TrimLeft(referencePath, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download template: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download template: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read template body: %w", err)
	}
	return data, nil
}
