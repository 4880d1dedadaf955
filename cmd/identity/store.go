package identity

import (
	"context"
	"time"
)

// Student is a currently enrolled student. ID is the student supplied roll number.
type Student struct {
	ID             string
	Name           string
	College        string
	Email          string
	Department     string
	GraduationYear int
	Degree         string

	PasswordHash     string
	RegistrationDate time.Time
}

// Alumni is a graduate. ID is generated by the store.
// ProfileImage is the stored path of the uploaded identity document, if any.
type Alumni struct {
	ID             string
	Name           string
	College        string
	Email          string
	Department     string
	GraduationYear int
	Degree         string
	ProfileImage   *string

	PasswordHash     string
	RegistrationDate time.Time
}

// Admin is a college administrator. ID is the admin code.
type Admin struct {
	ID                string
	Name              string
	College           string
	Email             string
	DepartmentSection string

	PasswordHash     string
	RegistrationDate time.Time
}

// Account is the role independent view of a registered user used for sessions.
type Account struct {
	Role  Role
	ID    string
	Email string
	Name  string
}

// PasswordVerifier checks a plaintext password against a stored hash.
// password.Config satisfies it.
type PasswordVerifier interface {
	Verify(encodedHash, password string) (bool, error)
}

// Store is the credential persistence boundary.
//
// Uniqueness predicates are advisory; implementations must also enforce
// uniqueness at write time and report it as ConflictError.
type Store interface {
	// EnsureSchema creates the role tables if they do not exist.
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error

	CreateStudent(ctx context.Context, in Student) (Student, error)
	// CreateAlumni ignores in.ID and assigns a fresh id.
	CreateAlumni(ctx context.Context, in Alumni) (Alumni, error)
	CreateAdmin(ctx context.Context, in Admin) (Admin, error)

	IsUniqueStudentID(ctx context.Context, id string) (bool, error)
	IsUniqueAdminCode(ctx context.Context, code string) (bool, error)
	// IsUniqueEmail is scoped to the role's own table.
	IsUniqueEmail(ctx context.Context, email string, role Role) (bool, error)

	CredentialExists(ctx context.Context, email string, role Role) (bool, error)
	// VerifyCredentials returns false for unknown emails and wrong passwords alike.
	VerifyCredentials(ctx context.Context, email, password string, role Role) (bool, error)
	LookupAccount(ctx context.Context, email string, role Role) (Account, error)

	GetStudent(ctx context.Context, id string) (Student, error)
	GetAlumni(ctx context.Context, id string) (Alumni, error)
	GetAdmin(ctx context.Context, id string) (Admin, error)

	ListStudents(ctx context.Context) ([]Student, error)
	ListAlumni(ctx context.Context) ([]Alumni, error)
	ListAdmins(ctx context.Context) ([]Admin, error)

	// Tables lists the role tables that currently exist.
	Tables(ctx context.Context) ([]string, error)
	// ClearAll deletes every row of every role table, all or nothing.
	ClearAll(ctx context.Context) error
	// DropAll drops every role table, all or nothing.
	DropAll(ctx context.Context) error
}

// Table names per role. They never come from request input.
const (
	TableStudents = "students"
	TableAlumni   = "alumni"
	TableAdmins   = "admins"
)

// TableNames returns the role tables in display order.
func TableNames() []string {
	return []string{TableStudents, TableAlumni, TableAdmins}
}

func tableFor(role Role) (string, bool) {
	switch role {
	case RoleStudent:
		return TableStudents, true
	case RoleAlumni:
		return TableAlumni, true
	case RoleAdmin:
		return TableAdmins, true
	default:
		return "", false
	}
}

// ---- input checks shared by implementations ----

func invalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

func checkRole(op string, role Role) error {
	if !role.Valid() {
		return invalid(op, "unknown role")
	}
	return nil
}

func checkStudent(op string, in Student) error {
	switch {
	case NormalizeID(in.ID) == "":
		return invalid(op, "student id is required")
	case in.Name == "":
		return invalid(op, "name is required")
	case NormalizeEmail(in.Email) == "":
		return invalid(op, "email is required")
	case in.PasswordHash == "":
		return invalid(op, "password hash is required")
	}
	return nil
}

func checkAlumni(op string, in Alumni) error {
	switch {
	case in.Name == "":
		return invalid(op, "name is required")
	case NormalizeEmail(in.Email) == "":
		return invalid(op, "email is required")
	case in.PasswordHash == "":
		return invalid(op, "password hash is required")
	}
	return nil
}

func checkAdmin(op string, in Admin) error {
	switch {
	case NormalizeID(in.ID) == "":
		return invalid(op, "admin code is required")
	case in.Name == "":
		return invalid(op, "name is required")
	case NormalizeEmail(in.Email) == "":
		return invalid(op, "email is required")
	case in.PasswordHash == "":
		return invalid(op, "password hash is required")
	}
	return nil
}
