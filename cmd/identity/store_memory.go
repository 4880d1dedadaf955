package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"nexus/cmd/identity/ids"
	"nexus/cmd/security/password"
)

// MemoryStore is a dev-only fallback when no database is configured, and the
// store used by workflow and HTTP tests. It enforces the same uniqueness rules
// as PostgresStore.
type MemoryStore struct {
	mu       sync.Mutex
	verifier PasswordVerifier
	now      func() time.Time

	// dropped mirrors DropAll: operations fail until EnsureSchema runs again.
	dropped bool

	students memTable[Student]
	alumni   memTable[Alumni]
	admins   memTable[Admin]
}

type memTable[T any] struct {
	rows    map[string]T      // id -> row
	byEmail map[string]string // email_norm -> id
}

func newMemTable[T any]() memTable[T] {
	return memTable[T]{
		rows:    make(map[string]T),
		byEmail: make(map[string]string),
	}
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryVerifier sets the password verifier used by VerifyCredentials.
func WithMemoryVerifier(v PasswordVerifier) MemoryOption {
	return func(s *MemoryStore) {
		if v != nil {
			s.verifier = v
		}
	}
}

// WithMemoryClock overrides the registration_date clock.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore constructs an empty in-memory store with its tables present.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		verifier: password.DefaultConfig(),
		now:      func() time.Time { return time.Now().UTC() },
		students: newMemTable[Student](),
		alumni:   newMemTable[Alumni](),
		admins:   newMemTable[Admin](),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.dropped {
		return NotFoundError{Op: op, Resource: "table"}
	}
	return nil
}

// EnsureSchema recreates the tables after DropAll (idempotent).
func (s *MemoryStore) EnsureSchema(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped {
		s.reset()
		s.dropped = false
	}
	return nil
}

// Ping always succeeds unless ctx is done.
func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) reset() {
	s.students = newMemTable[Student]()
	s.alumni = newMemTable[Alumni]()
	s.admins = newMemTable[Admin]()
}

// CreateStudent inserts a student.
func (s *MemoryStore) CreateStudent(ctx context.Context, in Student) (Student, error) {
	const op = "identity.CreateStudent"

	if err := checkStudent(op, in); err != nil {
		return Student{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, op); err != nil {
		return Student{}, err
	}

	in.ID = NormalizeID(in.ID)
	norm := NormalizeEmail(in.Email)
	if _, ok := s.students.rows[in.ID]; ok {
		return Student{}, ConflictError{Op: op, Field: "student_id"}
	}
	if _, ok := s.students.byEmail[norm]; ok {
		return Student{}, ConflictError{Op: op, Field: "email"}
	}

	in.RegistrationDate = s.now()
	s.students.rows[in.ID] = in
	s.students.byEmail[norm] = in.ID
	return in, nil
}

// CreateAlumni inserts an alumni with a generated ULID id.
func (s *MemoryStore) CreateAlumni(ctx context.Context, in Alumni) (Alumni, error) {
	const op = "identity.CreateAlumni"

	if err := checkAlumni(op, in); err != nil {
		return Alumni{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, op); err != nil {
		return Alumni{}, err
	}

	norm := NormalizeEmail(in.Email)
	if _, ok := s.alumni.byEmail[norm]; ok {
		return Alumni{}, ConflictError{Op: op, Field: "email"}
	}

	now := s.now()
	id, err := ids.NewULID(now)
	if err != nil {
		return Alumni{}, err
	}
	in.ID = id
	in.ProfileImage = pgTrimPtr(in.ProfileImage)
	in.RegistrationDate = now

	s.alumni.rows[in.ID] = in
	s.alumni.byEmail[norm] = in.ID
	return in, nil
}

// CreateAdmin inserts an admin keyed by admin code.
func (s *MemoryStore) CreateAdmin(ctx context.Context, in Admin) (Admin, error) {
	const op = "identity.CreateAdmin"

	if err := checkAdmin(op, in); err != nil {
		return Admin{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, op); err != nil {
		return Admin{}, err
	}

	in.ID = NormalizeID(in.ID)
	norm := NormalizeEmail(in.Email)
	if _, ok := s.admins.rows[in.ID]; ok {
		return Admin{}, ConflictError{Op: op, Field: "admin_code"}
	}
	if _, ok := s.admins.byEmail[norm]; ok {
		return Admin{}, ConflictError{Op: op, Field: "email"}
	}

	in.RegistrationDate = s.now()
	s.admins.rows[in.ID] = in
	s.admins.byEmail[norm] = in.ID
	return in, nil
}

// IsUniqueStudentID reports whether no student has this id.
func (s *MemoryStore) IsUniqueStudentID(ctx context.Context, id string) (bool, error) {
	const op = "identity.IsUniqueStudentID"

	id = NormalizeID(id)
	if id == "" {
		return false, invalid(op, "student id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, op); err != nil {
		return false, err
	}
	_, taken := s.students.rows[id]
	return !taken, nil
}

// IsUniqueAdminCode reports whether no admin has this code.
func (s *MemoryStore) IsUniqueAdminCode(ctx context.Context, code string) (bool, error) {
	const op = "identity.IsUniqueAdminCode"

	code = NormalizeID(code)
	if code == "" {
		return false, invalid(op, "admin code is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, op); err != nil {
		return false, err
	}
	_, taken := s.admins.rows[code]
	return !taken, nil
}

// IsUniqueEmail reports whether the role's table has no row with this email.
func (s *MemoryStore) IsUniqueEmail(ctx context.Context, email string, role Role) (bool, error) {
	_, found, err := s.idByEmail(ctx, "identity.IsUniqueEmail", email, role)
	return !found, err
}

// CredentialExists reports whether an account with this email exists for role.
func (s *MemoryStore) CredentialExists(ctx context.Context, email string, role Role) (bool, error) {
	_, found, err := s.idByEmail(ctx, "identity.CredentialExists", email, role)
	return found, err
}

func (s *MemoryStore) idByEmail(ctx context.Context, op, email string, role Role) (string, bool, error) {
	if err := checkRole(op, role); err != nil {
		return "", false, err
	}
	norm := NormalizeEmail(email)
	if norm == "" {
		return "", false, invalid(op, "email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idByEmailLocked(ctx, op, norm, role)
}

// idByEmailLocked expects s.mu held and norm already normalized.
func (s *MemoryStore) idByEmailLocked(ctx context.Context, op, norm string, role Role) (string, bool, error) {
	if err := s.check(ctx, op); err != nil {
		return "", false, err
	}

	var id string
	var ok bool
	switch role {
	case RoleStudent:
		id, ok = s.students.byEmail[norm]
	case RoleAlumni:
		id, ok = s.alumni.byEmail[norm]
	case RoleAdmin:
		id, ok = s.admins.byEmail[norm]
	}
	return id, ok, nil
}

// VerifyCredentials verifies password against the stored hash for (email, role).
func (s *MemoryStore) VerifyCredentials(ctx context.Context, email, pw string, role Role) (bool, error) {
	const op = "identity.VerifyCredentials"

	if err := checkRole(op, role); err != nil {
		return false, err
	}
	if NormalizeEmail(email) == "" || pw == "" {
		return false, nil
	}

	s.mu.Lock()
	id, found, err := s.idByEmailLocked(ctx, op, NormalizeEmail(email), role)
	if err != nil || !found {
		s.mu.Unlock()
		return false, err
	}
	_, hash := s.accountLocked(id, role)
	s.mu.Unlock()

	// hashing is slow; verify outside the lock
	return s.verifier.Verify(hash, pw)
}

// LookupAccount returns the session view of the account for (email, role).
func (s *MemoryStore) LookupAccount(ctx context.Context, email string, role Role) (Account, error) {
	acc, _, err := s.account(ctx, "identity.LookupAccount", email, role)
	return acc, err
}

func (s *MemoryStore) account(ctx context.Context, op, email string, role Role) (Account, string, error) {
	if err := checkRole(op, role); err != nil {
		return Account{}, "", err
	}
	norm := NormalizeEmail(email)
	if norm == "" {
		return Account{}, "", invalid(op, "email is required")
	}

	// lookup and read must see the same snapshot
	s.mu.Lock()
	defer s.mu.Unlock()

	id, found, err := s.idByEmailLocked(ctx, op, norm, role)
	if err != nil {
		return Account{}, "", err
	}
	if !found {
		return Account{}, "", NotFoundError{Op: op, Resource: role.String()}
	}

	out, hash := s.accountLocked(id, role)
	return out, hash, nil
}

func (s *MemoryStore) accountLocked(id string, role Role) (Account, string) {
	out := Account{Role: role, ID: id}
	var hash string
	switch role {
	case RoleStudent:
		r := s.students.rows[id]
		out.Email, out.Name, hash = r.Email, r.Name, r.PasswordHash
	case RoleAlumni:
		r := s.alumni.rows[id]
		out.Email, out.Name, hash = r.Email, r.Name, r.PasswordHash
	case RoleAdmin:
		r := s.admins.rows[id]
		out.Email, out.Name, hash = r.Email, r.Name, r.PasswordHash
	}
	return out, hash
}

// GetStudent returns the student with id.
func (s *MemoryStore) GetStudent(ctx context.Context, id string) (Student, error) {
	return memGet(ctx, s, "identity.GetStudent", "student", &s.students, id)
}

// GetAlumni returns the alumni with id.
func (s *MemoryStore) GetAlumni(ctx context.Context, id string) (Alumni, error) {
	return memGet(ctx, s, "identity.GetAlumni", "alumni", &s.alumni, id)
}

// GetAdmin returns the admin with the given admin code.
func (s *MemoryStore) GetAdmin(ctx context.Context, id string) (Admin, error) {
	return memGet(ctx, s, "identity.GetAdmin", "admin", &s.admins, id)
}

func memGet[T any](ctx context.Context, s *MemoryStore, op, resource string, t *memTable[T], id string) (T, error) {
	var zero T
	id = NormalizeID(id)
	if id == "" {
		return zero, invalid(op, "id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, op); err != nil {
		return zero, err
	}
	row, ok := t.rows[id]
	if !ok {
		return zero, NotFoundError{Op: op, Resource: resource}
	}
	return row, nil
}

// ListStudents returns all students ordered by registration date.
func (s *MemoryStore) ListStudents(ctx context.Context) ([]Student, error) {
	return memList(ctx, s, "identity.ListStudents", &s.students, func(r Student) (time.Time, string) {
		return r.RegistrationDate, r.ID
	})
}

// ListAlumni returns all alumni ordered by registration date.
func (s *MemoryStore) ListAlumni(ctx context.Context) ([]Alumni, error) {
	return memList(ctx, s, "identity.ListAlumni", &s.alumni, func(r Alumni) (time.Time, string) {
		return r.RegistrationDate, r.ID
	})
}

// ListAdmins returns all admins ordered by registration date.
func (s *MemoryStore) ListAdmins(ctx context.Context) ([]Admin, error) {
	return memList(ctx, s, "identity.ListAdmins", &s.admins, func(r Admin) (time.Time, string) {
		return r.RegistrationDate, r.ID
	})
}

func memList[T any](ctx context.Context, s *MemoryStore, op string, t *memTable[T], key func(T) (time.Time, string)) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, op); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, idi := key(out[i])
		tj, idj := key(out[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi < idj
	})
	return out, nil
}

// Tables lists the role tables; none after DropAll.
func (s *MemoryStore) Tables(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped {
		return []string{}, nil
	}
	return TableNames(), nil
}

// ClearAll removes every row and keeps the tables.
func (s *MemoryStore) ClearAll(ctx context.Context) error {
	const op = "identity.ClearAll"

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, op); err != nil {
		return err
	}
	s.reset()
	return nil
}

// DropAll removes the tables; EnsureSchema brings them back empty.
func (s *MemoryStore) DropAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.dropped = true
	return nil
}
