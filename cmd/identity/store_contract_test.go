package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"nexus/cmd/security/password"
)

// testHasher keeps Argon2id cheap; it is used both to hash fixtures and as the
// store's verifier.
func testHasher() password.Config {
	cfg := password.DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return cfg
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := testHasher().Hash(pw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return h
}

func testStudent(t *testing.T, id, email string) Student {
	return Student{
		ID:             id,
		Name:           "Asha Rao",
		College:        "X",
		Email:          email,
		Department:     "CSE",
		GraduationYear: 2027,
		Degree:         "B.Tech",
		PasswordHash:   mustHash(t, "Passw0rd"),
	}
}

func testAlumni(t *testing.T, email string) Alumni {
	return Alumni{
		Name:           "Jane Doe",
		College:        "X",
		Email:          email,
		Department:     "ECE",
		GraduationYear: 2019,
		Degree:         "M.Tech",
		PasswordHash:   mustHash(t, "Passw0rd"),
	}
}

func testAdmin(t *testing.T, code, email string) Admin {
	return Admin{
		ID:                code,
		Name:              "Dean Office",
		College:           "X",
		Email:             email,
		DepartmentSection: "Admissions",
		PasswordHash:      mustHash(t, "Passw0rd"),
	}
}

// runStoreContract exercises behaviour every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("email uniqueness is per table", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.CreateStudent(ctx, testStudent(t, "S1", "a@x.edu")); err != nil {
			t.Fatalf("create student: %v", err)
		}

		ok, err := s.IsUniqueEmail(ctx, "a@x.edu", RoleStudent)
		if err != nil || ok {
			t.Fatalf("student email should be taken: ok=%v err=%v", ok, err)
		}
		ok, err = s.IsUniqueEmail(ctx, "a@x.edu", RoleAlumni)
		if err != nil || !ok {
			t.Fatalf("alumni table should be independent: ok=%v err=%v", ok, err)
		}
		ok, err = s.IsUniqueEmail(ctx, "A@X.EDU ", RoleStudent)
		if err != nil || ok {
			t.Fatalf("email check should be case-insensitive: ok=%v err=%v", ok, err)
		}

		if _, err := s.CreateAlumni(ctx, testAlumni(t, "a@x.edu")); err != nil {
			t.Fatalf("same email across roles should be allowed: %v", err)
		}
	})

	t.Run("student id conflict", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.CreateStudent(ctx, testStudent(t, "S1", "one@x.edu")); err != nil {
			t.Fatalf("create student: %v", err)
		}
		ok, err := s.IsUniqueStudentID(ctx, "S1")
		if err != nil || ok {
			t.Fatalf("S1 should be taken: ok=%v err=%v", ok, err)
		}

		_, err = s.CreateStudent(ctx, testStudent(t, "S1", "two@x.edu"))
		if field, ok := ConflictField(err); !ok || field != "student_id" {
			t.Fatalf("expected student_id conflict, got %v", err)
		}

		list, err := s.ListStudents(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected 1 student, got %d", len(list))
		}
	})

	t.Run("email conflict at insert", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.CreateAdmin(ctx, testAdmin(t, "ADM-1", "dean@x.edu")); err != nil {
			t.Fatalf("create admin: %v", err)
		}
		_, err := s.CreateAdmin(ctx, testAdmin(t, "ADM-2", "Dean@X.edu"))
		if field, ok := ConflictField(err); !ok || field != "email" {
			t.Fatalf("expected email conflict, got %v", err)
		}
		_, err = s.CreateAdmin(ctx, testAdmin(t, "ADM-1", "other@x.edu"))
		if field, ok := ConflictField(err); !ok || field != "admin_code" {
			t.Fatalf("expected admin_code conflict, got %v", err)
		}
		ok, err := s.IsUniqueAdminCode(ctx, "ADM-1")
		if err != nil || ok {
			t.Fatalf("ADM-1 should be taken: ok=%v err=%v", ok, err)
		}
	})

	t.Run("alumni gets generated id and null profile image", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := testAlumni(t, "jane@x.edu")
		in.ID = "ignored"
		out, err := s.CreateAlumni(ctx, in)
		if err != nil {
			t.Fatalf("create alumni: %v", err)
		}
		if !isULID(out.ID) {
			t.Fatalf("expected ULID id, got %q", out.ID)
		}
		if out.ProfileImage != nil {
			t.Fatalf("expected nil profile image")
		}
		if out.RegistrationDate.IsZero() {
			t.Fatalf("expected registration date")
		}

		got, err := s.GetAlumni(ctx, out.ID)
		if err != nil {
			t.Fatalf("get alumni: %v", err)
		}
		if got.Email != "jane@x.edu" || got.ProfileImage != nil {
			t.Fatalf("unexpected alumni: %+v", got)
		}

		ok, err := s.IsUniqueEmail(ctx, "jane@x.edu", RoleAlumni)
		if err != nil || ok {
			t.Fatalf("jane should be taken: ok=%v err=%v", ok, err)
		}
	})

	t.Run("credentials", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		st, err := s.CreateStudent(ctx, testStudent(t, "S9", "asha@x.edu"))
		if err != nil {
			t.Fatalf("create student: %v", err)
		}

		exists, err := s.CredentialExists(ctx, "asha@x.edu", RoleStudent)
		if err != nil || !exists {
			t.Fatalf("expected credential: %v %v", exists, err)
		}
		exists, err = s.CredentialExists(ctx, "asha@x.edu", RoleAdmin)
		if err != nil || exists {
			t.Fatalf("admin credential should not exist: %v %v", exists, err)
		}

		ok, err := s.VerifyCredentials(ctx, "ASHA@x.edu", "Passw0rd", RoleStudent)
		if err != nil || !ok {
			t.Fatalf("expected valid credentials: %v %v", ok, err)
		}
		ok, err = s.VerifyCredentials(ctx, "asha@x.edu", "Wrong0ne", RoleStudent)
		if err != nil || ok {
			t.Fatalf("expected invalid credentials: %v %v", ok, err)
		}
		ok, err = s.VerifyCredentials(ctx, "nobody@x.edu", "Passw0rd", RoleStudent)
		if err != nil || ok {
			t.Fatalf("unknown email must not verify: %v %v", ok, err)
		}

		acc, err := s.LookupAccount(ctx, "asha@x.edu", RoleStudent)
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
		if acc.ID != st.ID || acc.Name != st.Name || acc.Role != RoleStudent {
			t.Fatalf("unexpected account: %+v", acc)
		}

		_, err = s.LookupAccount(ctx, "nobody@x.edu", RoleStudent)
		if !IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.IsUniqueEmail(ctx, "", RoleStudent); !IsInvalidInput(err) {
			t.Fatalf("expected invalid input for empty email, got %v", err)
		}
		if _, err := s.IsUniqueEmail(ctx, "a@x.edu", Role("faculty")); !IsInvalidInput(err) {
			t.Fatalf("expected invalid input for unknown role, got %v", err)
		}
		bad := testStudent(t, " ", "a@x.edu")
		if _, err := s.CreateStudent(ctx, bad); !IsInvalidInput(err) {
			t.Fatalf("expected invalid input for empty id, got %v", err)
		}
	})

	t.Run("clear and drop", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.CreateStudent(ctx, testStudent(t, "S1", "a@x.edu")); err != nil {
			t.Fatalf("create student: %v", err)
		}
		if _, err := s.CreateAdmin(ctx, testAdmin(t, "ADM-1", "d@x.edu")); err != nil {
			t.Fatalf("create admin: %v", err)
		}

		if err := s.ClearAll(ctx); err != nil {
			t.Fatalf("clear: %v", err)
		}
		students, err := s.ListStudents(ctx)
		if err != nil || len(students) != 0 {
			t.Fatalf("expected no students after clear: %d %v", len(students), err)
		}
		tables, err := s.Tables(ctx)
		if err != nil || len(tables) != 3 {
			t.Fatalf("expected tables kept after clear: %v %v", tables, err)
		}

		if err := s.DropAll(ctx); err != nil {
			t.Fatalf("drop: %v", err)
		}
		tables, err = s.Tables(ctx)
		if err != nil || len(tables) != 0 {
			t.Fatalf("expected no tables after drop: %v %v", tables, err)
		}
		if _, err := s.ListAdmins(ctx); !IsNotFound(err) {
			t.Fatalf("expected not found after drop, got %v", err)
		}

		if err := s.EnsureSchema(ctx); err != nil {
			t.Fatalf("ensure schema: %v", err)
		}
		if err := s.EnsureSchema(ctx); err != nil {
			t.Fatalf("ensure schema is idempotent: %v", err)
		}
		admins, err := s.ListAdmins(ctx)
		if err != nil || len(admins) != 0 {
			t.Fatalf("expected empty admins: %d %v", len(admins), err)
		}
	})

	t.Run("list order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, id := range []string{"S1", "S2", "S3"} {
			if _, err := s.CreateStudent(ctx, testStudent(t, id, id+"@x.edu")); err != nil {
				t.Fatalf("create %s: %v", id, err)
			}
			time.Sleep(2 * time.Millisecond)
		}
		list, err := s.ListStudents(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for i, want := range []string{"S1", "S2", "S3"} {
			if list[i].ID != want {
				t.Fatalf("list[%d]=%s want %s", i, list[i].ID, want)
			}
		}

		if _, err := s.GetStudent(ctx, "S404"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func isULID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
