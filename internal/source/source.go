// Package source fetches a deck from a local file, an http(s) URL or a git
// repository and parses it into cards.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/tango/internal/domain"
	"github.com/conorfennell/tango/internal/gitsource"
	"github.com/conorfennell/tango/internal/parser"
)

// Kind is the transport a deck location is fetched over.
type Kind string

const (
	KindLocal Kind = "local"
	KindHTTP  Kind = "http"
	KindGit   Kind = "git"
)

// DefaultEntry is the deck file read from a git repository.
const DefaultEntry = "data.csv"

// Classify decides how a deck location is fetched.
func Classify(location string) Kind {
	switch {
	case strings.HasSuffix(location, ".git") || strings.HasPrefix(location, "git@"):
		return KindGit
	case strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://"):
		return KindHTTP
	default:
		return KindLocal
	}
}

// Source describes where a deck lives.
type Source struct {
	Location string
	Entry    string // file inside a git repository
	Sheet    string // spreadsheet sheet, empty for the first
	ReposDir string // where git repositories are cloned

	Client *http.Client
	Logger *slog.Logger
}

// Fetch reads and parses the deck.
func (s Source) Fetch(ctx context.Context) ([]domain.Card, error) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	kind := Classify(s.Location)
	log.Info("Fetching deck", "location", s.Location, "kind", kind)

	var (
		cards []domain.Card
		err   error
	)
	switch kind {
	case KindGit:
		cards, err = s.fetchGit(ctx)
	case KindHTTP:
		cards, err = s.fetchHTTP(ctx)
	default:
		cards, err = s.fetchLocal(s.Location)
	}
	if err != nil {
		return nil, err
	}
	log.Info("Deck fetched", "location", s.Location, "cards", len(cards))
	return cards, nil
}

func (s Source) fetchLocal(p string) ([]domain.Card, error) {
	file, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck %s: %w", p, err)
	}
	defer file.Close()

	cards, err := s.parse(file, p)
	if err != nil {
		return nil, fmt.Errorf("failed to parse deck %s: %w", p, err)
	}
	return cards, nil
}

func (s Source) fetchHTTP(ctx context.Context) ([]domain.Card, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", s.Location, err)
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deck %s: %w", s.Location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch deck %s: unexpected status %s", s.Location, resp.Status)
	}

	name := s.Location
	if u, err := url.Parse(s.Location); err == nil {
		name = path.Base(u.Path)
	}
	cards, err := s.parse(resp.Body, name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse deck %s: %w", s.Location, err)
	}
	return cards, nil
}

func (s Source) fetchGit(ctx context.Context) ([]domain.Card, error) {
	reposDir := s.ReposDir
	if reposDir == "" {
		reposDir = "repos"
	}
	if err := os.MkdirAll(reposDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create repos directory: %w", err)
	}

	localPath, err := gitURLToLocalPath(reposDir, s.Location)
	if err != nil {
		return nil, err
	}
	if err := gitsource.Sync(ctx, s.Location, localPath); err != nil {
		return nil, err
	}

	entry := s.Entry
	if entry == "" {
		entry = DefaultEntry
	}
	return s.fetchLocal(filepath.Join(localPath, filepath.FromSlash(entry)))
}

func (s Source) parse(r io.Reader, name string) ([]domain.Card, error) {
	if strings.EqualFold(path.Ext(name), ".xlsx") {
		return parser.ParseXLSX(r, s.Sheet)
	}
	return parser.Parse(r)
}

// gitURLToLocalPath maps an https or scp-style git URL to a directory under
// baseDir, e.g. git@github.com:me/deck.git -> baseDir/github.com/me/deck.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
