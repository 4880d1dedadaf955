package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"nexus/cmd/identity/ids"
	"nexus/cmd/security/password"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; the store never closes it.
// Every operation acquires a pooled connection for its own duration only and
// is bounded by the configured operation timeout.
type PostgresStore struct {
	pool      *pgxpool.Pool
	schema    string
	verifier  PasswordVerifier
	opTimeout time.Duration

	q map[Role]roleSQL
}

// roleSQL holds the per-role queries, built once from constant table names.
type roleSQL struct {
	table        string
	emailExists  string
	passwordHash string
	account      string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const (
	defaultSchema    = "nexus"
	defaultOpTimeout = 10 * time.Second
)

// WithSchema sets the Postgres schema holding the role tables (default "nexus").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentIsValid(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// WithVerifier sets the password verifier used by VerifyCredentials.
func WithVerifier(v PasswordVerifier) PostgresOption {
	return func(s *PostgresStore) error {
		if v == nil {
			return fmt.Errorf("identity: nil verifier")
		}
		s.verifier = v
		return nil
	}
}

// WithOpTimeout bounds each store operation. Zero disables the bound.
func WithOpTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) error {
		if d < 0 {
			return fmt.Errorf("identity: negative op timeout")
		}
		s.opTimeout = d
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:      pool,
		schema:    defaultSchema,
		verifier:  password.DefaultConfig(),
		opTimeout: defaultOpTimeout,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}

	st.q = make(map[Role]roleSQL, 3)
	for _, role := range Roles() {
		table, _ := tableFor(role)
		ident := pgIdent(st.schema, table)
		st.q[role] = roleSQL{
			table:        ident,
			emailExists:  `SELECT EXISTS (SELECT 1 FROM ` + ident + ` WHERE email_norm = $1)`,
			passwordHash: `SELECT password_hash FROM ` + ident + ` WHERE email_norm = $1`,
			account:      `SELECT id, email, name FROM ` + ident + ` WHERE email_norm = $1`,
		}
	}
	return st, nil
}

// Schema returns the configured schema name.
func (s *PostgresStore) Schema() string { return s.schema }

func (s *PostgresStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *PostgresStore) ready(op string) error {
	if s == nil || s.pool == nil {
		return invalid(op, "nil store")
	}
	return nil
}

// EnsureSchema creates the schema and the three role tables (idempotent).
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const op = "identity.EnsureSchema"

	if err := s.ready(op); err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ddl := fmt.Sprintf(`
CREATE SCHEMA IF NOT EXISTS %s;

CREATE TABLE IF NOT EXISTS %s (
  id TEXT NOT NULL,
  name TEXT NOT NULL,
  college TEXT NOT NULL,
  email TEXT NOT NULL,
  email_norm TEXT NOT NULL,
  department TEXT NOT NULL DEFAULT '',
  graduation_year INTEGER NOT NULL DEFAULT 0,
  degree TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  registration_date TIMESTAMPTZ NOT NULL DEFAULT now(),

  CONSTRAINT pk_students PRIMARY KEY (id),
  CONSTRAINT uq_students_email_norm UNIQUE (email_norm)
);

CREATE TABLE IF NOT EXISTS %s (
  id TEXT NOT NULL,
  name TEXT NOT NULL,
  college TEXT NOT NULL,
  email TEXT NOT NULL,
  email_norm TEXT NOT NULL,
  department TEXT NOT NULL DEFAULT '',
  graduation_year INTEGER NOT NULL DEFAULT 0,
  degree TEXT NOT NULL DEFAULT '',
  profile_image TEXT NULL,
  password_hash TEXT NOT NULL,
  registration_date TIMESTAMPTZ NOT NULL DEFAULT now(),

  CONSTRAINT pk_alumni PRIMARY KEY (id),
  CONSTRAINT chk_alumni_id_ulid_len CHECK (char_length(id) = 26),
  CONSTRAINT uq_alumni_email_norm UNIQUE (email_norm)
);

CREATE TABLE IF NOT EXISTS %s (
  id TEXT NOT NULL,
  name TEXT NOT NULL,
  college TEXT NOT NULL,
  email TEXT NOT NULL,
  email_norm TEXT NOT NULL,
  department_section TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  registration_date TIMESTAMPTZ NOT NULL DEFAULT now(),

  CONSTRAINT pk_admins PRIMARY KEY (id),
  CONSTRAINT uq_admins_email_norm UNIQUE (email_norm)
);
`,
		pgx.Identifier{s.schema}.Sanitize(),
		s.q[RoleStudent].table,
		s.q[RoleAlumni].table,
		s.q[RoleAdmin].table,
	)

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return s.mapErr(op, err)
	}
	return nil
}

// Ping checks that a connection can be acquired and answers.
func (s *PostgresStore) Ping(ctx context.Context) error {
	const op = "identity.Ping"

	if err := s.ready(op); err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		return UnavailableError{Op: op, Err: err}
	}
	return nil
}

// CreateStudent inserts a student. The caller supplies the id.
func (s *PostgresStore) CreateStudent(ctx context.Context, in Student) (Student, error) {
	const op = "identity.CreateStudent"

	if err := s.ready(op); err != nil {
		return Student{}, err
	}
	if err := checkStudent(op, in); err != nil {
		return Student{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	in.ID = NormalizeID(in.ID)
	in.Email = strings.TrimSpace(in.Email)

	err := s.pool.QueryRow(ctx,
		`INSERT INTO `+s.q[RoleStudent].table+` (
		     id, name, college, email, email_norm, department, graduation_year, degree, password_hash
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		   RETURNING registration_date`,
		in.ID,
		in.Name,
		in.College,
		in.Email,
		NormalizeEmail(in.Email),
		in.Department,
		in.GraduationYear,
		in.Degree,
		in.PasswordHash,
	).Scan(&in.RegistrationDate)
	if err != nil {
		return Student{}, s.mapErr(op, err)
	}
	return in, nil
}

// CreateAlumni inserts an alumni row with a freshly generated ULID id.
func (s *PostgresStore) CreateAlumni(ctx context.Context, in Alumni) (Alumni, error) {
	const op = "identity.CreateAlumni"

	if err := s.ready(op); err != nil {
		return Alumni{}, err
	}
	if err := checkAlumni(op, in); err != nil {
		return Alumni{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	id, err := ids.NewULID(time.Now().UTC())
	if err != nil {
		return Alumni{}, err
	}
	in.ID = id
	in.Email = strings.TrimSpace(in.Email)
	in.ProfileImage = pgTrimPtr(in.ProfileImage)

	err = s.pool.QueryRow(ctx,
		`INSERT INTO `+s.q[RoleAlumni].table+` (
		     id, name, college, email, email_norm, department, graduation_year, degree, profile_image, password_hash
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		   RETURNING registration_date`,
		in.ID,
		in.Name,
		in.College,
		in.Email,
		NormalizeEmail(in.Email),
		in.Department,
		in.GraduationYear,
		in.Degree,
		in.ProfileImage,
		in.PasswordHash,
	).Scan(&in.RegistrationDate)
	if err != nil {
		return Alumni{}, s.mapErr(op, err)
	}
	return in, nil
}

// CreateAdmin inserts an admin. The admin code is the id.
func (s *PostgresStore) CreateAdmin(ctx context.Context, in Admin) (Admin, error) {
	const op = "identity.CreateAdmin"

	if err := s.ready(op); err != nil {
		return Admin{}, err
	}
	if err := checkAdmin(op, in); err != nil {
		return Admin{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	in.ID = NormalizeID(in.ID)
	in.Email = strings.TrimSpace(in.Email)

	err := s.pool.QueryRow(ctx,
		`INSERT INTO `+s.q[RoleAdmin].table+` (
		     id, name, college, email, email_norm, department_section, password_hash
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7)
		   RETURNING registration_date`,
		in.ID,
		in.Name,
		in.College,
		in.Email,
		NormalizeEmail(in.Email),
		in.DepartmentSection,
		in.PasswordHash,
	).Scan(&in.RegistrationDate)
	if err != nil {
		return Admin{}, s.mapErr(op, err)
	}
	return in, nil
}

// IsUniqueStudentID reports whether no student has this id.
func (s *PostgresStore) IsUniqueStudentID(ctx context.Context, id string) (bool, error) {
	const op = "identity.IsUniqueStudentID"

	id = NormalizeID(id)
	if id == "" {
		return false, invalid(op, "student id is required")
	}
	exists, err := s.exists(ctx, op, `SELECT EXISTS (SELECT 1 FROM `+s.q[RoleStudent].table+` WHERE id = $1)`, id)
	return !exists, err
}

// IsUniqueAdminCode reports whether no admin has this code.
func (s *PostgresStore) IsUniqueAdminCode(ctx context.Context, code string) (bool, error) {
	const op = "identity.IsUniqueAdminCode"

	code = NormalizeID(code)
	if code == "" {
		return false, invalid(op, "admin code is required")
	}
	exists, err := s.exists(ctx, op, `SELECT EXISTS (SELECT 1 FROM `+s.q[RoleAdmin].table+` WHERE id = $1)`, code)
	return !exists, err
}

// IsUniqueEmail reports whether the role's table has no row with this email.
func (s *PostgresStore) IsUniqueEmail(ctx context.Context, email string, role Role) (bool, error) {
	const op = "identity.IsUniqueEmail"

	exists, err := s.emailExists(ctx, op, email, role)
	return !exists, err
}

// CredentialExists reports whether an account with this email exists for role.
func (s *PostgresStore) CredentialExists(ctx context.Context, email string, role Role) (bool, error) {
	return s.emailExists(ctx, "identity.CredentialExists", email, role)
}

func (s *PostgresStore) emailExists(ctx context.Context, op, email string, role Role) (bool, error) {
	if err := checkRole(op, role); err != nil {
		return false, err
	}
	norm := NormalizeEmail(email)
	if norm == "" {
		return false, invalid(op, "email is required")
	}
	return s.exists(ctx, op, s.q[role].emailExists, norm)
}

func (s *PostgresStore) exists(ctx context.Context, op, query string, arg any) (bool, error) {
	if err := s.ready(op); err != nil {
		return false, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var exists bool
	if err := s.pool.QueryRow(ctx, query, arg).Scan(&exists); err != nil {
		return false, s.mapErr(op, err)
	}
	return exists, nil
}

// VerifyCredentials fetches the stored hash for (email, role) and verifies password.
func (s *PostgresStore) VerifyCredentials(ctx context.Context, email, pw string, role Role) (bool, error) {
	const op = "identity.VerifyCredentials"

	if err := s.ready(op); err != nil {
		return false, err
	}
	if err := checkRole(op, role); err != nil {
		return false, err
	}
	norm := NormalizeEmail(email)
	if norm == "" || pw == "" {
		return false, nil
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var hash string
	err := s.pool.QueryRow(ctx, s.q[role].passwordHash, norm).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, s.mapErr(op, err)
	}

	ok, err := s.verifier.Verify(hash, pw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// LookupAccount returns the session view of the account for (email, role).
func (s *PostgresStore) LookupAccount(ctx context.Context, email string, role Role) (Account, error) {
	const op = "identity.LookupAccount"

	if err := s.ready(op); err != nil {
		return Account{}, err
	}
	if err := checkRole(op, role); err != nil {
		return Account{}, err
	}
	norm := NormalizeEmail(email)
	if norm == "" {
		return Account{}, invalid(op, "email is required")
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	out := Account{Role: role}
	err := s.pool.QueryRow(ctx, s.q[role].account, norm).Scan(&out.ID, &out.Email, &out.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, NotFoundError{Op: op, Resource: role.String()}
		}
		return Account{}, s.mapErr(op, err)
	}
	return out, nil
}

const (
	studentColumns = `id, name, college, email, department, graduation_year, degree, password_hash, registration_date`
	alumniColumns  = `id, name, college, email, department, graduation_year, degree, profile_image, password_hash, registration_date`
	adminColumns   = `id, name, college, email, department_section, password_hash, registration_date`
)

func scanStudent(row pgx.Row) (Student, error) {
	var st Student
	err := row.Scan(&st.ID, &st.Name, &st.College, &st.Email, &st.Department,
		&st.GraduationYear, &st.Degree, &st.PasswordHash, &st.RegistrationDate)
	return st, err
}

func scanAlumni(row pgx.Row) (Alumni, error) {
	var al Alumni
	err := row.Scan(&al.ID, &al.Name, &al.College, &al.Email, &al.Department,
		&al.GraduationYear, &al.Degree, &al.ProfileImage, &al.PasswordHash, &al.RegistrationDate)
	return al, err
}

func scanAdmin(row pgx.Row) (Admin, error) {
	var ad Admin
	err := row.Scan(&ad.ID, &ad.Name, &ad.College, &ad.Email, &ad.DepartmentSection,
		&ad.PasswordHash, &ad.RegistrationDate)
	return ad, err
}

// GetStudent returns the student with id.
func (s *PostgresStore) GetStudent(ctx context.Context, id string) (Student, error) {
	const op = "identity.GetStudent"
	return pgGet(ctx, s, op, "student",
		`SELECT `+studentColumns+` FROM `+s.q[RoleStudent].table+` WHERE id = $1`, NormalizeID(id), scanStudent)
}

// GetAlumni returns the alumni with id.
func (s *PostgresStore) GetAlumni(ctx context.Context, id string) (Alumni, error) {
	const op = "identity.GetAlumni"
	return pgGet(ctx, s, op, "alumni",
		`SELECT `+alumniColumns+` FROM `+s.q[RoleAlumni].table+` WHERE id = $1`, NormalizeID(id), scanAlumni)
}

// GetAdmin returns the admin with the given admin code.
func (s *PostgresStore) GetAdmin(ctx context.Context, id string) (Admin, error) {
	const op = "identity.GetAdmin"
	return pgGet(ctx, s, op, "admin",
		`SELECT `+adminColumns+` FROM `+s.q[RoleAdmin].table+` WHERE id = $1`, NormalizeID(id), scanAdmin)
}

// ListStudents returns all students ordered by registration date.
func (s *PostgresStore) ListStudents(ctx context.Context) ([]Student, error) {
	return pgList(ctx, s, "identity.ListStudents",
		`SELECT `+studentColumns+` FROM `+s.q[RoleStudent].table+` ORDER BY registration_date, id`, scanStudent)
}

// ListAlumni returns all alumni ordered by registration date.
func (s *PostgresStore) ListAlumni(ctx context.Context) ([]Alumni, error) {
	return pgList(ctx, s, "identity.ListAlumni",
		`SELECT `+alumniColumns+` FROM `+s.q[RoleAlumni].table+` ORDER BY registration_date, id`, scanAlumni)
}

// ListAdmins returns all admins ordered by registration date.
func (s *PostgresStore) ListAdmins(ctx context.Context) ([]Admin, error) {
	return pgList(ctx, s, "identity.ListAdmins",
		`SELECT `+adminColumns+` FROM `+s.q[RoleAdmin].table+` ORDER BY registration_date, id`, scanAdmin)
}

func pgGet[T any](ctx context.Context, s *PostgresStore, op, resource, query, id string, scan func(pgx.Row) (T, error)) (T, error) {
	var zero T
	if err := s.ready(op); err != nil {
		return zero, err
	}
	if id == "" {
		return zero, invalid(op, "id is required")
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	out, err := scan(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, NotFoundError{Op: op, Resource: resource}
		}
		return zero, s.mapErr(op, err)
	}
	return out, nil
}

func pgList[T any](ctx context.Context, s *PostgresStore, op, query string, scan func(pgx.Row) (T, error)) ([]T, error) {
	if err := s.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, s.mapErr(op, err)
	}
	defer rows.Close()

	out := make([]T, 0, 16)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, s.mapErr(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapErr(op, err)
	}
	return out, nil
}

// Tables lists which role tables exist in the schema.
func (s *PostgresStore) Tables(ctx context.Context) ([]string, error) {
	const op = "identity.Tables"

	if err := s.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT table_name
		   FROM information_schema.tables
		  WHERE table_schema = $1
		    AND table_name = ANY($2)`,
		s.schema, TableNames(),
	)
	if err != nil {
		return nil, s.mapErr(op, err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, s.mapErr(op, err)
	}

	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	out := make([]string, 0, len(names))
	for _, n := range TableNames() {
		if present[n] {
			out = append(out, n)
		}
	}
	return out, nil
}

// ClearAll deletes all rows from the three role tables in one transaction.
func (s *PostgresStore) ClearAll(ctx context.Context) error {
	const op = "identity.ClearAll"
	return s.inTx(ctx, op, func(ctx context.Context, tx pgx.Tx) error {
		for _, role := range Roles() {
			if _, err := tx.Exec(ctx, `DELETE FROM `+s.q[role].table); err != nil {
				return err
			}
		}
		return nil
	})
}

// DropAll drops the three role tables in one transaction.
func (s *PostgresStore) DropAll(ctx context.Context) error {
	const op = "identity.DropAll"
	return s.inTx(ctx, op, func(ctx context.Context, tx pgx.Tx) error {
		for _, role := range Roles() {
			if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS `+s.q[role].table); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if err := s.ready(op); err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return s.mapErr(op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return s.mapErr(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return s.mapErr(op, err)
	}
	return nil
}

// ---- helpers ----

// mapErr translates driver errors into the identity error contract.
func (s *PostgresStore) mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if field, ok := pgClassifyUniqueViolation(err); ok {
		return ConflictError{Op: op, Field: field}
	}
	if pgIsUndefinedTable(err) {
		return NotFoundError{Op: op, Resource: "table"}
	}
	if pgIsUnavailable(err) {
		return UnavailableError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// pgTrimPtr trims a string pointer, returning nil if result is empty.
func pgTrimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

// pgIdentIsValid checks if a string is a safe Postgres identifier.
func pgIdentIsValid(s string) bool {
	return pgIdentRe.MatchString(s)
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgIsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "42P01" // undefined_table
}

// pgIsUnavailable reports connectivity failures and timeouts.
func pgIsUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"): // connection_exception class
			return true
		case pgErr.Code == "57P01", pgErr.Code == "57P02", pgErr.Code == "57P03": // shutdown / cannot connect now
			return true
		case pgErr.Code == "53300": // too_many_connections
			return true
		}
	}
	return false
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable schema constraint names. Fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))

	switch c {
	case "pk_students":
		return "student_id", true
	case "pk_admins":
		return "admin_code", true
	case "pk_alumni":
		return "id", true
	case "uq_students_email_norm", "uq_alumni_email_norm", "uq_admins_email_norm":
		return "email", true
	default:
		switch {
		case strings.Contains(c, "email"):
			return "email", true
		case strings.Contains(c, "students"):
			return "student_id", true
		case strings.Contains(c, "admins"):
			return "admin_code", true
		default:
			return "unique", true
		}
	}
}
