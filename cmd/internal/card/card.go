// Package card derives the printable ID cards shown to students and alumni.
//
// Academic fields come from the stored record. The card number, blood group
// and barcode are decorative and drawn from a caller supplied source.
package card

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"nexus/cmd/identity"
)

// DefaultDuration is used for degrees not listed in durations.
const DefaultDuration = 4

// durations maps a normalized degree name to its length in years.
var durations = map[string]int{
	"btech": 4, "be": 4, "bs": 4, "barch": 5, "mbbs": 5,
	"bsc": 3, "ba": 3, "bcom": 3, "bca": 3, "bba": 3,
	"mtech": 2, "me": 2, "msc": 2, "ma": 2, "mcom": 2, "mca": 2, "mba": 2, "ms": 2,
	"phd": 5, "diploma": 3,
}

var bloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// Card is an ID card view model.
type Card struct {
	Role           identity.Role
	ID             string
	Name           string
	College        string
	Email          string
	Department     string
	Degree         string
	StartYear      int
	GraduationYear int
	RegisteredOn   time.Time
	HasPhoto       bool

	Number     string
	BloodGroup string
	Barcode    string
}

// Session is the academic span printed on the card, e.g. "2021 - 2025".
func (c Card) Session() string {
	return fmt.Sprintf("%d - %d", c.StartYear, c.GraduationYear)
}

// Duration returns the length of degree in years.
func Duration(degree string) int {
	if d, ok := durations[normalizeDegree(degree)]; ok {
		return d
	}
	return DefaultDuration
}

// StartYear returns the year the course began for a given graduation year.
func StartYear(graduationYear int, degree string) int {
	return graduationYear - Duration(degree)
}

func normalizeDegree(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Issuer builds cards and is safe for concurrent use. The zero value is not
// usable; use NewIssuer.
type Issuer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewIssuer returns an Issuer drawing decorative fields from rng. A nil rng
// uses a randomly seeded source.
func NewIssuer(rng *rand.Rand) *Issuer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Issuer{rng: rng}
}

// Student builds the card for s.
func (i *Issuer) Student(s identity.Student) Card {
	c := Card{
		Role:           identity.RoleStudent,
		ID:             s.ID,
		Name:           s.Name,
		College:        s.College,
		Email:          s.Email,
		Department:     s.Department,
		Degree:         s.Degree,
		StartYear:      StartYear(s.GraduationYear, s.Degree),
		GraduationYear: s.GraduationYear,
		RegisteredOn:   s.RegistrationDate,
	}
	i.decorate(&c, "STU")
	return c
}

// Alumni builds the card for a.
func (i *Issuer) Alumni(a identity.Alumni) Card {
	c := Card{
		Role:           identity.RoleAlumni,
		ID:             a.ID,
		Name:           a.Name,
		College:        a.College,
		Email:          a.Email,
		Department:     a.Department,
		Degree:         a.Degree,
		StartYear:      StartYear(a.GraduationYear, a.Degree),
		GraduationYear: a.GraduationYear,
		RegisteredOn:   a.RegistrationDate,
		HasPhoto:       a.ProfileImage != nil,
	}
	i.decorate(&c, "ALU")
	return c
}

func (i *Issuer) decorate(c *Card, prefix string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	c.Number = fmt.Sprintf("%s-%d-%06d", prefix, c.GraduationYear, i.rng.IntN(1_000_000))
	c.BloodGroup = bloodGroups[i.rng.IntN(len(bloodGroups))]

	var b strings.Builder
	for range 12 {
		b.WriteByte(byte('0' + i.rng.IntN(10)))
	}
	c.Barcode = b.String()
}
