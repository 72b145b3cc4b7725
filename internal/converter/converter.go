// Package converter turns magnet links into .torrent files by joining
// the swarm just long enough to fetch metadata.
package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anacrolix/torrent"

	"kinobot/internal/metrics"
)

// DefaultTimeout bounds the metadata fetch. Dead swarms simply never
// answer, so the bound is what turns them into an error.
const DefaultTimeout = 30 * time.Second

type Converter struct {
	client  *torrent.Client
	outDir  string
	timeout time.Duration
}

type Config struct {
	// OutDir is where generated .torrent files land. Empty means a
	// fresh temp directory.
	OutDir  string
	Timeout time.Duration
}

func New(cfg Config) (*Converter, error) {
	outDir := cfg.OutDir
	if outDir == "" {
		dir, err := os.MkdirTemp("", "kinobot-torrents-")
		if err != nil {
			return nil, err
		}
		outDir = dir
	} else if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	clientCfg := torrent.NewDefaultClientConfig()
	clientCfg.DataDir = outDir
	clientCfg.NoUpload = true
	clientCfg.DisableUTP = true

	client, err := torrent.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("converter: start client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Converter{client: client, outDir: outDir, timeout: timeout}, nil
}

// Convert fetches metadata for a magnet link and writes it out as a
// .torrent file named after the release. Returns the file path; the
// caller removes it after sending with Cleanup.
func (c *Converter) Convert(ctx context.Context, magnet, name string) (string, error) {
	t, err := c.client.AddMagnet(magnet)
	if err != nil {
		metrics.ConversionsFailedTotal.Inc()
		return "", fmt.Errorf("converter: bad magnet: %w", err)
	}
	defer t.Drop()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	select {
	case <-t.GotInfo():
	case <-ctx.Done():
		metrics.ConversionsFailedTotal.Inc()
		return "", fmt.Errorf("converter: metadata fetch: %w", ctx.Err())
	}

	path := filepath.Join(c.outDir, SanitizeFilename(name)+".torrent")
	file, err := os.Create(path)
	if err != nil {
		metrics.ConversionsFailedTotal.Inc()
		return "", err
	}
	defer file.Close()

	mi := t.Metainfo()
	if err := mi.Write(file); err != nil {
		metrics.ConversionsFailedTotal.Inc()
		os.Remove(path)
		return "", fmt.Errorf("converter: write metainfo: %w", err)
	}

	metrics.ConversionsTotal.Inc()
	return path, nil
}

// Cleanup removes a generated file once it has been sent.
func (c *Converter) Cleanup(path string) {
	if path != "" && strings.HasPrefix(path, c.outDir) {
		os.Remove(path)
	}
}

func (c *Converter) Close() {
	c.client.Close()
}

// SanitizeFilename strips characters that are unsafe in filenames and
// caps the length so release titles make valid names on any OS.
func SanitizeFilename(name string) string {
	const maxLen = 120

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|' || r < 0x20:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "torrent"
	}
	runes := []rune(out)
	if len(runes) > maxLen {
		out = strings.TrimSpace(string(runes[:maxLen]))
	}
	return out
}
