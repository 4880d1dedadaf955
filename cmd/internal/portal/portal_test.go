package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nexus/cmd/identity"
	"nexus/cmd/internal/auth/session"
	"nexus/cmd/internal/auth/throttle"
	"nexus/cmd/internal/registration"
	"nexus/cmd/internal/uploads"
	"nexus/cmd/security/password"
)

const loginBudget = 5

type env struct {
	h       *Handler
	srv     *httptest.Server
	store   *identity.MemoryStore
	uploads string
}

func newEnv(t *testing.T, maxUpload int64) *env {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	pw := password.DefaultConfig()
	pw.Params.MemoryKiB = 8 * 1024
	pw.Params.Iterations = 1
	pw.Params.Parallelism = 1

	store := identity.NewMemoryStore(identity.WithMemoryVerifier(pw))

	dir := t.TempDir()
	saver, err := uploads.NewSaver(dir, maxUpload)
	if err != nil {
		t.Fatalf("NewSaver: %v", err)
	}
	reg, err := registration.NewService(store, pw, saver, log)
	if err != nil {
		t.Fatalf("registration.NewService: %v", err)
	}
	auth, err := session.NewService(store, log)
	if err != nil {
		t.Fatalf("session.NewService: %v", err)
	}

	cfg := session.DefaultConfig()
	cfg.Secret = strings.Repeat("k", 32)
	mgr, err := session.NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	h, err := New(Deps{
		Store:          store,
		Registrar:      reg,
		Auth:           auth,
		Sessions:       mgr,
		Throttle:       throttle.New(throttle.Config{MaxFailures: loginBudget, Window: time.Minute}),
		MaxUploadBytes: maxUpload,
		Log:            log,
	})
	if err != nil {
		t.Fatalf("portal.New: %v", err)
	}

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return &env{h: h, srv: srv, store: store, uploads: dir}
}

// client is a browser: it keeps cookies and does not follow redirects.
func (e *env) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type page struct {
	status   int
	location string
	body     string
	header   http.Header
}

func do(t *testing.T, c *http.Client, req *http.Request) page {
	t.Helper()
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return page{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(b), header: resp.Header}
}

func (e *env) get(t *testing.T, c *http.Client, path string) page {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
	return do(t, c, req)
}

func (e *env) post(t *testing.T, c *http.Client, path string, form url.Values) page {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, c, req)
}

func (e *env) postMultipart(t *testing.T, c *http.Client, path string, form url.Values, fileName string, file []byte) page {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range form {
		for _, v := range vs {
			_ = mw.WriteField(k, v)
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("id_card", fileName)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write(file)
	}
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(t, c, req)
}

func studentForm(id, email, pw string) url.Values {
	return url.Values{
		"status": {"student"}, "name": {"Sam Student"}, "college": {"X"}, "password": {pw},
		"student_id": {id}, "student_email": {email}, "student_department": {"CSE"},
		"student_grad_year": {"2027"}, "student_degree": {"B.Tech"},
	}
}

func alumniForm(email string) url.Values {
	return url.Values{
		"status": {"alumni"}, "name": {"Jane Doe"}, "college": {"X"}, "password": {"Passw0rd"},
		"alumni_email": {email}, "alumni_department": {"ECE"}, "alumni_grad_year": {"2019"}, "alumni_degree": {"MBA"},
	}
}

func adminForm(code, email string) url.Values {
	return url.Values{
		"status": {"college"}, "name": {"Dean Office"}, "college": {"X"}, "password": {"Passw0rd"},
		"admin_code": {code}, "college_email": {email}, "admin_department": {"Exams"},
	}
}

func login(t *testing.T, e *env, c *http.Client, path, email string) page {
	t.Helper()
	return e.post(t, c, path, url.Values{"email": {email}, "password": {"Passw0rd"}})
}

func TestHome_NoStore(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	p := e.get(t, e.client(t), "/")
	if p.status != http.StatusOK {
		t.Fatalf("status: %d", p.status)
	}
	if !strings.Contains(p.header.Get("Cache-Control"), "no-store") {
		t.Fatalf("missing no-store: %q", p.header.Get("Cache-Control"))
	}
}

func TestRegister_StudentThenDuplicateID(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	c := e.client(t)

	p := e.post(t, c, "/register", studentForm("S1", "sam@x.edu", "Passw0rd"))
	if p.status != http.StatusSeeOther || p.location != "/" {
		t.Fatalf("expected redirect home, got %d %q", p.status, p.location)
	}
	if home := e.get(t, c, "/"); !strings.Contains(home.body, "Registration successful! Welcome Sam Student!") {
		t.Fatalf("welcome flash missing")
	}

	p = e.post(t, c, "/register", studentForm("S1", "other@x.edu", "Passw0rd"))
	if p.status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", p.status)
	}
	if !strings.Contains(p.body, registration.ConflictMessage("student_id")) {
		t.Fatalf("duplicate id message missing")
	}
	if !strings.Contains(p.body, `value="other@x.edu"`) {
		t.Fatalf("form values must be echoed back")
	}

	rows, _ := e.store.ListStudents(context.Background())
	if len(rows) != 1 {
		t.Fatalf("expected one student row, got %d", len(rows))
	}
}

func TestRegister_PasswordPolicy(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)

	p := e.post(t, e.client(t), "/register", studentForm("S1", "sam@x.edu", "short"))
	if p.status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", p.status)
	}
	for _, msg := range []string{
		"Password must be at least 8 characters long",
		"Password must contain at least one uppercase letter",
		"Password must contain at least one number",
	} {
		if !strings.Contains(p.body, msg) {
			t.Fatalf("missing %q", msg)
		}
	}
	if strings.Contains(p.body, `value="short"`) {
		t.Fatalf("password must never be echoed")
	}

	ok, _ := e.store.IsUniqueStudentID(context.Background(), "S1")
	if !ok {
		t.Fatalf("no row may be inserted on policy failure")
	}
}

func TestRegister_UnknownStatus(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	form := studentForm("S1", "sam@x.edu", "Passw0rd")
	form.Set("status", "faculty")

	if p := e.post(t, e.client(t), "/register", form); p.status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", p.status)
	}
}

func TestRegister_AlumniWithoutFile(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)

	p := e.postMultipart(t, e.client(t), "/register", alumniForm("jane@x.edu"), "", nil)
	if p.status != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", p.status, p.body)
	}

	rows, _ := e.store.ListAlumni(context.Background())
	if len(rows) != 1 || rows[0].ProfileImage != nil || rows[0].ID == "" {
		t.Fatalf("unexpected alumni rows: %+v", rows)
	}
	if ok, _ := e.store.IsUniqueEmail(context.Background(), "jane@x.edu", identity.RoleAlumni); ok {
		t.Fatalf("email must be taken after registration")
	}
}

func TestRegister_AlumniIDCard(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	c := e.client(t)

	p := e.postMultipart(t, c, "/register", alumniForm("jane@x.edu"), "my card.png", []byte("\x89PNG fake"))
	if p.status != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", p.status, p.body)
	}

	rows, _ := e.store.ListAlumni(context.Background())
	if len(rows) != 1 || rows[0].ProfileImage == nil {
		t.Fatalf("expected stored profile image: %+v", rows)
	}
	path := *rows[0].ProfileImage
	if filepath.Dir(path) != e.uploads {
		t.Fatalf("file outside upload dir: %s", path)
	}
	if !strings.HasPrefix(filepath.Base(path), "alumni_Jane_Doe_") || filepath.Ext(path) != ".png" {
		t.Fatalf("unexpected saved name: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
}

func TestRegister_AlumniUnsupportedFileIsReported(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	c := e.client(t)

	p := e.postMultipart(t, c, "/register", alumniForm("jane@x.edu"), "card.exe", []byte("MZ"))
	if p.status != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", p.status)
	}
	home := e.get(t, c, "/")
	if !strings.Contains(home.body, "Your ID card was not saved") {
		t.Fatalf("unsupported file notice missing")
	}

	rows, _ := e.store.ListAlumni(context.Background())
	if len(rows) != 1 || rows[0].ProfileImage != nil {
		t.Fatalf("registration must proceed without image: %+v", rows)
	}
}

func TestRegister_BodyTooLarge(t *testing.T) {
	e := newEnv(t, 1024)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range alumniForm("jane@x.edu") {
		_ = mw.WriteField(k, vs[0])
	}
	fw, _ := mw.CreateFormFile("id_card", "card.png")
	_, _ = fw.Write(bytes.Repeat([]byte("x"), 2<<20))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if rows, _ := e.store.ListAlumni(context.Background()); len(rows) != 0 {
		t.Fatalf("nothing may be stored")
	}
}

func TestLogin_Failures(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	c := e.client(t)
	e.post(t, c, "/register", studentForm("S1", "sam@x.edu", "Passw0rd"))

	p := login(t, e, c, "/login-student", "nobody@x.edu")
	if p.status != http.StatusUnauthorized || !strings.Contains(p.body, "No student account is registered") {
		t.Fatalf("not registered: %d", p.status)
	}

	p = e.post(t, c, "/login-student", url.Values{"email": {"sam@x.edu"}, "password": {"Wrong0ne"}})
	if p.status != http.StatusUnauthorized || !strings.Contains(p.body, "Incorrect email or password") {
		t.Fatalf("bad credentials: %d", p.status)
	}

	// the student table is not consulted for alumni logins
	p = login(t, e, c, "/login-alumni", "sam@x.edu")
	if p.status != http.StatusUnauthorized {
		t.Fatalf("cross-role login: %d", p.status)
	}

	if d := e.get(t, c, "/student-dashboard"); d.status != http.StatusFound {
		t.Fatalf("failed logins must leave the session anonymous, got %d", d.status)
	}
}

func TestLogin_Throttled(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	c := e.client(t)
	e.post(t, c, "/register", studentForm("S1", "sam@x.edu", "Passw0rd"))

	bad := url.Values{"email": {"sam@x.edu"}, "password": {"Wrong0ne"}}
	for i := 0; i < loginBudget; i++ {
		if p := e.post(t, c, "/login-student", bad); p.status != http.StatusUnauthorized {
			t.Fatalf("attempt %d: %d", i, p.status)
		}
	}

	// the right password is refused too while the budget is spent
	p := login(t, e, c, "/login-student", "sam@x.edu")
	if p.status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", p.status)
	}
	if p.header.Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
	if !strings.Contains(p.body, "Too many failed login attempts") {
		t.Fatalf("missing throttle message")
	}
}

func TestLogin_SuccessResetsAccountFailures(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	c := e.client(t)
	e.post(t, c, "/register", studentForm("S1", "sam@x.edu", "Passw0rd"))

	acct := throttle.AccountKey("student", "sam@x.edu")
	now := time.Now()
	for i := 0; i < loginBudget-1; i++ {
		e.h.throttle.Fail(now, acct)
	}
	if p := login(t, e, c, "/login-student", "SAM@x.edu"); p.status != http.StatusSeeOther {
		t.Fatalf("login: %d", p.status)
	}

	// one more failure would spend the budget had the login not reset it
	e.h.throttle.Fail(now, acct)
	if blocked, _ := e.h.throttle.Blocked(acct, now); blocked {
		t.Fatalf("account failures not reset by a successful login")
	}
}

func TestLogin_StudentGating(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	c := e.client(t)
	e.post(t, c, "/register", studentForm("S1", "sam@x.edu", "Passw0rd"))

	p := login(t, e, c, "/login-student", "SAM@x.edu")
	if p.status != http.StatusSeeOther || p.location != "/student-dashboard" {
		t.Fatalf("login: %d %q", p.status, p.location)
	}

	d := e.get(t, c, "/student-dashboard")
	if d.status != http.StatusOK || !strings.Contains(d.body, "Hello, Sam Student") {
		t.Fatalf("dashboard: %d", d.status)
	}

	a := e.get(t, c, "/alumni-dashboard")
	if a.status != http.StatusFound || a.location != "/login-alumni" {
		t.Fatalf("alumni dashboard must redirect to alumni login, got %d %q", a.status, a.location)
	}
	if lp := e.get(t, c, "/login-alumni"); !strings.Contains(lp.body, "Please log in") {
		t.Fatalf("please-log-in notice missing")
	}

	card := e.get(t, c, "/student-card")
	if card.status != http.StatusOK || !strings.Contains(card.body, "2023 - 2027") {
		t.Fatalf("student card: %d", card.status)
	}

	if out := e.get(t, c, "/logout"); out.status != http.StatusSeeOther || out.location != "/" {
		t.Fatalf("logout: %d %q", out.status, out.location)
	}
	if d := e.get(t, c, "/student-dashboard"); d.status != http.StatusFound || d.location != "/login-student" {
		t.Fatalf("after logout: %d %q", d.status, d.location)
	}
}

func TestLogin_FailedAttemptEndsExistingSession(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	c := e.client(t)
	e.post(t, c, "/register", studentForm("S1", "sam@x.edu", "Passw0rd"))

	if p := login(t, e, c, "/login-student", "sam@x.edu"); p.status != http.StatusSeeOther {
		t.Fatalf("login: %d", p.status)
	}
	if d := e.get(t, c, "/student-dashboard"); d.status != http.StatusOK {
		t.Fatalf("dashboard: %d", d.status)
	}

	p := e.post(t, c, "/login-student", url.Values{"email": {"sam@x.edu"}, "password": {"Wrong0ne"}})
	if p.status != http.StatusUnauthorized {
		t.Fatalf("bad credentials: %d", p.status)
	}
	if strings.Contains(p.body, "/logout") {
		t.Fatalf("failed login page must render anonymous")
	}

	if d := e.get(t, c, "/student-dashboard"); d.status != http.StatusFound || d.location != "/login-student" {
		t.Fatalf("session must be anonymous after a failed login, got %d %q", d.status, d.location)
	}
}

func TestAlumniDashboardAndCard(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	c := e.client(t)
	e.postMultipart(t, c, "/register", alumniForm("jane@x.edu"), "", nil)

	if p := login(t, e, c, "/login-alumni", "jane@x.edu"); p.location != "/alumni-dashboard" {
		t.Fatalf("login: %d %q", p.status, p.location)
	}
	if d := e.get(t, c, "/alumni-dashboard"); d.status != http.StatusOK || !strings.Contains(d.body, "Hello, Jane Doe") {
		t.Fatalf("dashboard: %d", d.status)
	}
	if card := e.get(t, c, "/alumni-card"); card.status != http.StatusOK || !strings.Contains(card.body, "2017 - 2019") {
		t.Fatalf("card: %d", card.status)
	}
	if s := e.get(t, c, "/student-card"); s.status != http.StatusFound || s.location != "/login-student" {
		t.Fatalf("student card must be gated, got %d %q", s.status, s.location)
	}
}

func TestAdminEndpoints_RequireAdmin(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	c := e.client(t)
	e.post(t, c, "/register", studentForm("S1", "sam@x.edu", "Passw0rd"))

	for _, path := range []string{"/admin/clear", "/admin/drop", "/admin/schema"} {
		if p := e.post(t, c, path, nil); p.status != http.StatusFound || p.location != "/login-college" {
			t.Fatalf("anonymous %s: %d %q", path, p.status, p.location)
		}
	}

	login(t, e, c, "/login-student", "sam@x.edu")
	if p := e.post(t, c, "/admin/clear", nil); p.status != http.StatusFound {
		t.Fatalf("student must not clear tables, got %d", p.status)
	}
	if p := e.get(t, c, "/admin/rows/students"); p.status != http.StatusFound {
		t.Fatalf("student must not list rows, got %d", p.status)
	}

	if rows, _ := e.store.ListStudents(context.Background()); len(rows) != 1 {
		t.Fatalf("tables must be untouched")
	}
}

func TestAdminTools(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	c := e.client(t)
	e.post(t, c, "/register", adminForm("ADM1", "dean@x.edu"))
	e.post(t, c, "/register", studentForm("S1", "sam@x.edu", "Passw0rd"))

	if p := login(t, e, c, "/login-college", "dean@x.edu"); p.location != "/admin-dashboard" {
		t.Fatalf("admin login: %d %q", p.status, p.location)
	}
	if d := e.get(t, c, "/admin-dashboard"); d.status != http.StatusOK || !strings.Contains(d.body, "ADM1") {
		t.Fatalf("admin dashboard: %d", d.status)
	}

	rows := e.get(t, c, "/admin/rows/students")
	if rows.status != http.StatusOK {
		t.Fatalf("rows: %d", rows.status)
	}
	var got rowsResponse
	if err := json.Unmarshal([]byte(rows.body), &got); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(got.Tables) != 3 || len(got.Table.Rows) != 1 || got.Table.Rows[0][0] != "S1" {
		t.Fatalf("unexpected rows response: %+v", got)
	}
	if strings.Contains(rows.body, "argon2id") {
		t.Fatalf("password hashes must not be listed")
	}

	if p := e.get(t, c, "/admin/rows/pg_user"); p.status != http.StatusNotFound {
		t.Fatalf("unknown table: %d", p.status)
	}

	x := e.get(t, c, "/admin/export.xlsx")
	if x.status != http.StatusOK || !strings.Contains(x.header.Get("Content-Type"), "spreadsheetml") {
		t.Fatalf("export: %d %q", x.status, x.header.Get("Content-Type"))
	}
	if !strings.HasPrefix(x.body, "PK") {
		t.Fatalf("export is not a zip container")
	}

	if p := e.post(t, c, "/admin/clear", nil); p.status != http.StatusSeeOther {
		t.Fatalf("clear: %d", p.status)
	}
	if n, _ := e.store.ListStudents(context.Background()); len(n) != 0 {
		t.Fatalf("clear left %d students", len(n))
	}

	if p := e.post(t, c, "/admin/drop", nil); p.status != http.StatusSeeOther {
		t.Fatalf("drop: %d", p.status)
	}
	if tables, _ := e.store.Tables(context.Background()); len(tables) != 0 {
		t.Fatalf("drop left tables: %v", tables)
	}
	if d := e.get(t, c, "/admin-dashboard"); d.status != http.StatusOK || !strings.Contains(d.body, "No tables exist") {
		t.Fatalf("dashboard after drop: %d", d.status)
	}
	x = e.get(t, c, "/admin/export.xlsx")
	if x.status != http.StatusSeeOther || x.location != "/admin-dashboard" {
		t.Fatalf("export without tables must redirect, got %d %q", x.status, x.location)
	}
	if strings.Contains(x.header.Get("Content-Disposition"), "attachment") {
		t.Fatalf("no attachment for a failed export")
	}

	if p := e.post(t, c, "/admin/schema", nil); p.status != http.StatusSeeOther {
		t.Fatalf("schema: %d", p.status)
	}
	if tables, _ := e.store.Tables(context.Background()); len(tables) != 3 {
		t.Fatalf("schema not recreated: %v", tables)
	}
}

func TestStudentDashboard_AccountGone(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	c := e.client(t)
	e.post(t, c, "/register", studentForm("S1", "sam@x.edu", "Passw0rd"))
	login(t, e, c, "/login-student", "sam@x.edu")

	if err := e.store.ClearAll(context.Background()); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	d := e.get(t, c, "/student-dashboard")
	if d.status != http.StatusSeeOther || d.location != "/login-student" {
		t.Fatalf("expected redirect to login, got %d %q", d.status, d.location)
	}
}

func TestNotFound(t *testing.T) {
	e := newEnv(t, uploads.DefaultMaxBytes)
	if p := e.get(t, e.client(t), "/nope"); p.status != http.StatusNotFound {
		t.Fatalf("status: %d", p.status)
	}
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}
