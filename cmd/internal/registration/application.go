package registration

import (
	"context"
	"regexp"
	"strings"

	"nexus/cmd/identity"
	"nexus/cmd/internal/uploads"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minGraduationYear = 1900
	maxGraduationYear = 2100
)

// Profile holds the fields shared by every role.
type Profile struct {
	Name     string
	College  string
	Password string
}

// Application is one registration request. StudentApplication,
// AlumniApplication and AdminApplication are the only implementations.
type Application interface {
	Role() identity.Role
	profile() Profile
	checkFields() FieldErrors
	// register runs the uniqueness checks and the insert for its role.
	register(ctx context.Context, s *Service, hash string) (Result, error)
}

// StudentApplication registers a current student.
type StudentApplication struct {
	Profile
	StudentID      string
	Email          string
	Department     string
	GraduationYear int
	Degree         string
}

// AlumniApplication registers a graduate. IDCard is optional.
type AlumniApplication struct {
	Profile
	Email          string
	Department     string
	GraduationYear int
	Degree         string
	IDCard         *uploads.Upload
}

// AdminApplication registers a college administrator.
type AdminApplication struct {
	Profile
	AdminCode         string
	Email             string
	DepartmentSection string
}

func (StudentApplication) Role() identity.Role { return identity.RoleStudent }
func (AlumniApplication) Role() identity.Role  { return identity.RoleAlumni }
func (AdminApplication) Role() identity.Role   { return identity.RoleAdmin }

func (a StudentApplication) profile() Profile { return a.Profile }
func (a AlumniApplication) profile() Profile  { return a.Profile }
func (a AdminApplication) profile() Profile   { return a.Profile }

func (p Profile) checkFields() FieldErrors {
	var out FieldErrors
	if strings.TrimSpace(p.Name) == "" {
		out = append(out, FieldError{Field: "name", Message: "Name is required"})
	}
	if strings.TrimSpace(p.College) == "" {
		out = append(out, FieldError{Field: "college", Message: "College is required"})
	}
	return out
}

func checkEmail(field, email string) FieldErrors {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return FieldErrors{{Field: field, Message: "Email is required"}}
	case !emailRe.MatchString(email):
		return FieldErrors{{Field: field, Message: "Email address is not valid"}}
	}
	return nil
}

func checkYear(field string, year int) FieldErrors {
	if year < minGraduationYear || year > maxGraduationYear {
		return FieldErrors{{Field: field, Message: "Graduation year must be a valid year"}}
	}
	return nil
}

func (a StudentApplication) checkFields() FieldErrors {
	out := a.Profile.checkFields()
	if identity.NormalizeID(a.StudentID) == "" {
		out = append(out, FieldError{Field: "student_id", Message: "Student ID is required"})
	}
	out = append(out, checkEmail("student_email", a.Email)...)
	out = append(out, checkYear("student_grad_year", a.GraduationYear)...)
	return out
}

func (a AlumniApplication) checkFields() FieldErrors {
	out := a.Profile.checkFields()
	out = append(out, checkEmail("alumni_email", a.Email)...)
	out = append(out, checkYear("alumni_grad_year", a.GraduationYear)...)
	return out
}

func (a AdminApplication) checkFields() FieldErrors {
	out := a.Profile.checkFields()
	if identity.NormalizeID(a.AdminCode) == "" {
		out = append(out, FieldError{Field: "admin_code", Message: "Admin code is required"})
	}
	out = append(out, checkEmail("college_email", a.Email)...)
	return out
}

func (a StudentApplication) register(ctx context.Context, s *Service, hash string) (Result, error) {
	if err := s.requireUnique(ctx, "student_id", func() (bool, error) {
		return s.store.IsUniqueStudentID(ctx, a.StudentID)
	}); err != nil {
		return Result{}, err
	}
	if err := s.requireUniqueEmail(ctx, a.Email, identity.RoleStudent); err != nil {
		return Result{}, err
	}

	st, err := s.store.CreateStudent(ctx, identity.Student{
		ID:             a.StudentID,
		Name:           strings.TrimSpace(a.Name),
		College:        strings.TrimSpace(a.College),
		Email:          a.Email,
		Department:     strings.TrimSpace(a.Department),
		GraduationYear: a.GraduationYear,
		Degree:         strings.TrimSpace(a.Degree),
		PasswordHash:   hash,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Role: identity.RoleStudent, ID: st.ID, Name: st.Name, Email: st.Email}, nil
}

func (a AlumniApplication) register(ctx context.Context, s *Service, hash string) (Result, error) {
	if err := s.requireUniqueEmail(ctx, a.Email, identity.RoleAlumni); err != nil {
		return Result{}, err
	}

	res := Result{Role: identity.RoleAlumni}
	name := strings.TrimSpace(a.Name)

	var image *string
	if a.IDCard != nil {
		f, err := s.saveIDCard(name, *a.IDCard)
		if err != nil {
			res.Notices = append(res.Notices, err)
		} else {
			res.File = &f
			image = &f.Path
		}
	}

	al, err := s.store.CreateAlumni(ctx, identity.Alumni{
		Name:           name,
		College:        strings.TrimSpace(a.College),
		Email:          a.Email,
		Department:     strings.TrimSpace(a.Department),
		GraduationYear: a.GraduationYear,
		Degree:         strings.TrimSpace(a.Degree),
		ProfileImage:   image,
		PasswordHash:   hash,
	})
	if err != nil {
		if res.File != nil {
			s.discardFile(*res.File)
		}
		return Result{}, err
	}

	res.ID, res.Name, res.Email = al.ID, al.Name, al.Email
	return res, nil
}

func (a AdminApplication) register(ctx context.Context, s *Service, hash string) (Result, error) {
	if err := s.requireUnique(ctx, "admin_code", func() (bool, error) {
		return s.store.IsUniqueAdminCode(ctx, a.AdminCode)
	}); err != nil {
		return Result{}, err
	}
	if err := s.requireUniqueEmail(ctx, a.Email, identity.RoleAdmin); err != nil {
		return Result{}, err
	}

	ad, err := s.store.CreateAdmin(ctx, identity.Admin{
		ID:                a.AdminCode,
		Name:              strings.TrimSpace(a.Name),
		College:           strings.TrimSpace(a.College),
		Email:             a.Email,
		DepartmentSection: strings.TrimSpace(a.DepartmentSection),
		PasswordHash:      hash,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Role: identity.RoleAdmin, ID: ad.ID, Name: ad.Name, Email: ad.Email}, nil
}
