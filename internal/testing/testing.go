// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/desertthunder/dhunjam/internal/models"
)

// FakeAdminAPI is an in-memory test double for services.AdminAPI.
//
// It records every call so tests can assert on what was (or wasn't) sent.
type FakeAdminAPI struct {
	mu sync.Mutex

	Settings     models.AdminSettings
	Session      models.Session
	LoginErr     error
	GetErr       error
	UpdateErr    error
	Canonicalize func(models.Amounts) models.Amounts // applied to amounts on successful update

	LoginCalls  []models.Credentials
	GetCalls    []models.Session
	UpdateCalls []models.Amounts
}

func (f *FakeAdminAPI) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.LoginCalls = append(f.LoginCalls, creds)
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	s := f.Session
	s.Username = creds.Username
	return &s, nil
}

func (f *FakeAdminAPI) GetAdmin(ctx context.Context, session models.Session) (*models.AdminSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.GetCalls = append(f.GetCalls, session)
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	s := f.Settings
	return &s, nil
}

func (f *FakeAdminAPI) UpdateAmounts(ctx context.Context, session models.Session, amounts models.Amounts) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.UpdateCalls = append(f.UpdateCalls, amounts)
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if f.Canonicalize != nil {
		amounts = f.Canonicalize(amounts)
	}
	f.Settings.Amounts = amounts
	return nil
}

// Calls returns the number of login, get and update calls made so far.
func (f *FakeAdminAPI) Calls() (login, get, update int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.LoginCalls), len(f.GetCalls), len(f.UpdateCalls)
}

// CafeX returns the admin record used across tests.
func CafeX() models.AdminSettings {
	return models.AdminSettings{
		ID:              1,
		Name:            "Cafe X",
		Location:        "Downtown",
		ChargeCustomers: true,
		Amounts:         models.Amounts{100, 80, 60, 40, 20},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}
