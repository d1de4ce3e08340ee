// Package secretstest provides an in-memory secrets.API for tests.
package secretstest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/donaldgifford/gcp-budget-notifier/internal/secrets"
)

// Fake is an in-memory Secret Manager. Secrets are keyed by full name and
// hold every version ever added. Setting an *Err field makes the matching
// call fail.
type Fake struct {
	mu       sync.Mutex
	versions map[string][][]byte

	ListErr   error
	CreateErr error
	AccessErr error
	AddErr    error

	ListCalls   int
	CreateCalls int
	AccessCalls int
	AddCalls    int
}

var _ secrets.API = (*Fake)(nil)

// New returns an empty Fake.
func New() *Fake {
	return &Fake{versions: make(map[string][][]byte)}
}

// Seed creates name (a full secret name) with the given versions.
func (f *Fake) Seed(name string, versions ...[]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versions[name] = append(f.versions[name], versions...)
}

// Versions returns every version stored under name.
func (f *Fake) Versions(name string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.versions[name]...)
}

// Exists reports whether name has been created.
func (f *Fake) Exists(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.versions[name]
	return ok
}

// ListSecrets implements secrets.API. Names are returned sorted.
func (f *Fake) ListSecrets(_ context.Context, parent string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++

	if f.ListErr != nil {
		return nil, f.ListErr
	}

	var names []string
	for name := range f.versions {
		if strings.HasPrefix(name, parent+"/secrets/") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names, nil
}

// CreateSecret implements secrets.API.
func (f *Fake) CreateSecret(_ context.Context, parent, secretID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++

	if f.CreateErr != nil {
		return "", f.CreateErr
	}

	name := parent + "/secrets/" + secretID
	if _, ok := f.versions[name]; ok {
		return "", fmt.Errorf("%w: %s", secrets.ErrAlreadyExists, name)
	}
	f.versions[name] = nil

	return name, nil
}

// AccessLatest implements secrets.API.
func (f *Fake) AccessLatest(_ context.Context, secretName string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AccessCalls++

	if f.AccessErr != nil {
		return nil, f.AccessErr
	}

	versions := f.versions[secretName]
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s", secrets.ErrNoVersion, secretName)
	}

	return versions[len(versions)-1], nil
}

// AddVersion implements secrets.API.
func (f *Fake) AddVersion(_ context.Context, secretName string, payload []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AddCalls++

	if f.AddErr != nil {
		return "", f.AddErr
	}

	if _, ok := f.versions[secretName]; !ok {
		return "", fmt.Errorf("secret %s not found", secretName)
	}
	f.versions[secretName] = append(f.versions[secretName], payload)

	return fmt.Sprintf("%s/versions/%d", secretName, len(f.versions[secretName])), nil
}
