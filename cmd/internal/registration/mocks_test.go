package registration

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"nexus/cmd/identity"
	"nexus/cmd/internal/uploads"
	"nexus/cmd/security/password"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) IsUniqueStudentID(ctx context.Context, id string) (bool, error) {
	a := m.Called(id)
	return a.Bool(0), a.Error(1)
}

func (m *mockStore) IsUniqueAdminCode(ctx context.Context, code string) (bool, error) {
	a := m.Called(code)
	return a.Bool(0), a.Error(1)
}

func (m *mockStore) IsUniqueEmail(ctx context.Context, email string, role identity.Role) (bool, error) {
	a := m.Called(email, role)
	return a.Bool(0), a.Error(1)
}

func (m *mockStore) CreateStudent(ctx context.Context, in identity.Student) (identity.Student, error) {
	a := m.Called(in)
	return a.Get(0).(identity.Student), a.Error(1)
}

func (m *mockStore) CreateAlumni(ctx context.Context, in identity.Alumni) (identity.Alumni, error) {
	a := m.Called(in)
	return a.Get(0).(identity.Alumni), a.Error(1)
}

func (m *mockStore) CreateAdmin(ctx context.Context, in identity.Admin) (identity.Admin, error) {
	a := m.Called(in)
	return a.Get(0).(identity.Admin), a.Error(1)
}

// fakeFiles records saves and removals without touching disk.
type fakeFiles struct {
	saved   []uploads.File
	removed []string
	saveErr error
}

func (f *fakeFiles) Save(prefix, name string, up uploads.Upload) (uploads.File, error) {
	if f.saveErr != nil {
		return uploads.File{}, f.saveErr
	}
	if !uploads.Allowed(up.Filename) {
		return uploads.File{}, uploads.ErrUnsupportedFile
	}
	file := uploads.File{
		OriginalName: up.Filename,
		SavedName:    prefix + "_" + name + ".png",
		Path:         "/uploads/" + prefix + "_" + name + ".png",
		Size:         3,
	}
	f.saved = append(f.saved, file)
	return file, nil
}

func (f *fakeFiles) Remove(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

// countingPasswords wraps a cheap password.Config and counts Hash calls.
type countingPasswords struct {
	cfg    password.Config
	hashes int
}

func newPasswords() *countingPasswords {
	cfg := password.DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return &countingPasswords{cfg: cfg}
}

func (p *countingPasswords) Validate(pw string) error { return p.cfg.Validate(pw) }

func (p *countingPasswords) Hash(pw string) (string, error) {
	p.hashes++
	return p.cfg.Hash(pw)
}

var errDown = identity.UnavailableError{Op: "identity.IsUniqueEmail", Err: errors.New("dial tcp: connection refused")}
