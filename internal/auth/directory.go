package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/frahmantamala/hr-registry/internal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Directory maps usernames to bcrypt password hashes. It is read once at
// startup and never mutated. A directory that failed to load keeps its error
// and denies every lookup instead of stopping the process.
type Directory struct {
	users map[string]string
	err   error
}

type usersFile struct {
	Users map[string]string `yaml:"users"`
}

// NewDirectory validates users and returns a directory over them.
func NewDirectory(users map[string]string) *Directory {
	if len(users) == 0 {
		return &Directory{err: fmt.Errorf("%w: no users configured", ErrCredentialConfig)}
	}
	out := make(map[string]string, len(users))
	for name, hash := range users {
		name = strings.TrimSpace(name)
		if name == "" {
			return &Directory{err: fmt.Errorf("%w: empty username", ErrCredentialConfig)}
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return &Directory{err: fmt.Errorf("%w: password of %q is not a bcrypt hash", ErrCredentialConfig, name)}
		}
		out[name] = hash
	}
	return &Directory{users: out}
}

// LoadDirectory builds the directory from config: the YAML users file when
// set, the inline users map otherwise.
func LoadDirectory(cfg internal.AuthConfig) *Directory {
	if cfg.UsersFile == "" {
		return NewDirectory(cfg.Users)
	}

	data, err := os.ReadFile(cfg.UsersFile)
	if err != nil {
		return &Directory{err: fmt.Errorf("%w: %w", ErrCredentialConfig, err)}
	}
	var f usersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return &Directory{err: fmt.Errorf("%w: parse %s: %w", ErrCredentialConfig, cfg.UsersFile, err)}
	}
	return NewDirectory(f.Users)
}

// Err reports why the directory could not be loaded, nil when usable.
func (d *Directory) Err() error {
	return d.err
}

func (d *Directory) Lookup(username string) (hash string, found bool, err error) {
	if d.err != nil {
		return "", false, d.err
	}
	hash, found = d.users[username]
	return hash, found, nil
}

func (d *Directory) Len() int {
	return len(d.users)
}
