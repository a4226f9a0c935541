package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kamusis/askrepo/internal/fsutil"
)

// Origin names where a set of QA pairs was loaded from.
type Origin string

const (
	OriginNone    Origin = ""
	OriginAPI     Origin = "api"
	OriginCache   Origin = "cache"
	OriginBuiltIn Origin = "builtin"
)

const (
	defaultTimeout = 5 * time.Second
	userAgent      = "askrepo/1.0"
	maxBody        = 4 << 20
	cacheLockWait  = 5 * time.Second
)

// Source fetches QA pairs from a remote endpoint, a local cache file or the
// built-in table, in that order.
type Source struct {
	APIURL    string
	CachePath string
	Timeout   time.Duration
	Client    *http.Client
	Logger    *zap.Logger
}

// Fetch returns the first non-empty set of pairs: the remote endpoint (which
// refreshes the cache on success), the cache file, then the built-in table.
func (s *Source) Fetch(ctx context.Context) (map[string]string, Origin) {
	log := s.logger()

	if s.APIURL != "" {
		pairs, err := s.fetchRemote(ctx)
		switch {
		case err != nil:
			log.Warn("qa endpoint unavailable", zap.String("url", s.APIURL), zap.Error(err))
		case len(pairs) == 0:
			log.Warn("qa endpoint returned no pairs", zap.String("url", s.APIURL))
		default:
			if err := s.saveCache(ctx, pairs); err != nil {
				log.Warn("cannot write qa cache", zap.String("path", s.CachePath), zap.Error(err))
			}
			return pairs, OriginAPI
		}
	}

	if pairs, err := s.loadCache(); err != nil {
		log.Debug("qa cache unavailable", zap.String("path", s.CachePath), zap.Error(err))
	} else if len(pairs) > 0 {
		return pairs, OriginCache
	}

	return DefaultPairs(), OriginBuiltIn
}

func (s *Source) fetchRemote(ctx context.Context) (map[string]string, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.APIURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	return decodePairs(body)
}

// decodePairs accepts either a flat {question: answer} object or one wrapped
// as {"qa_pairs": {...}}. Non-string answers are ignored.
func decodePairs(body []byte) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid QA JSON: %w", err)
	}
	if inner, ok := raw["qa_pairs"]; ok {
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(inner, &wrapped); err == nil {
			raw = wrapped
		}
	}
	out := make(map[string]string, len(raw))
	for q, v := range raw {
		var a string
		if err := json.Unmarshal(v, &a); err == nil {
			out[q] = a
		}
	}
	return out, nil
}

func (s *Source) loadCache() (map[string]string, error) {
	if s.CachePath == "" {
		return nil, fmt.Errorf("no cache path configured")
	}
	b, err := os.ReadFile(s.CachePath)
	if err != nil {
		return nil, err
	}
	var pairs map[string]string
	if err := json.Unmarshal(b, &pairs); err != nil {
		return nil, fmt.Errorf("invalid cache JSON: %w", err)
	}
	return pairs, nil
}

func (s *Source) saveCache(ctx context.Context, pairs map[string]string) error {
	if s.CachePath == "" {
		return nil
	}
	release, err := fsutil.AcquireLock(ctx, s.CachePath+".lock", cacheLockWait)
	if err != nil {
		return err
	}
	defer release()

	return fsutil.WriteFileAtomic(s.CachePath, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(pairs)
	})
}

func (s *Source) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
