package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Static errors for err113 compliance.
var (
	ErrEmptyToken        = errors.New("token is empty")
	ErrNoTokenConfigured = errors.New("no token or token file configured")
)

// TokenSource supplies the opaque API token sent with every request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a token known at construction time.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(ctx context.Context) (string, error) {
	if t == "" {
		return "", ErrEmptyToken
	}

	return string(t), nil
}

// FileTokenSource reads the token from a file on first use and caches it.
type FileTokenSource struct {
	fs    afero.Fs
	path  string
	mutex sync.Mutex
	token string
}

// NewFileTokenSource creates a token source backed by path on fs.
func NewFileTokenSource(fs afero.Fs, path string) *FileTokenSource {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &FileTokenSource{fs: fs, path: path}
}

// Token implements TokenSource.
func (s *FileTokenSource) Token(ctx context.Context) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.token != "" {
		return s.token, nil
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return "", fmt.Errorf("reading token file %s: %w", s.path, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyToken, s.path)
	}

	s.token = token

	return token, nil
}

// NewTokenSource picks the static token when set, otherwise the token file.
func NewTokenSource(fs afero.Fs, token, tokenFile string) (TokenSource, error) {
	if token != "" {
		return StaticToken(token), nil
	}

	if tokenFile != "" {
		return NewFileTokenSource(fs, tokenFile), nil
	}

	return nil, ErrNoTokenConfigured
}
