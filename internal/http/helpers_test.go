package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"nokshibox/internal/config"
	"nokshibox/internal/domain"
	"nokshibox/internal/http/server"
	"nokshibox/internal/mail"
	"nokshibox/internal/repos"
	"nokshibox/internal/services"
)

const testPassword = "Passw0rd9"

// pngBytes is enough of a PNG for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type testEnv struct {
	app  *fiber.App
	db   *sqlx.DB
	cfg  config.Config
	mail *recordingMailer
	auth *services.AuthService
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Port:         "0",
		DBDSN:        ":memory:",
		MediaDir:     t.TempDir(),
		StaticDir:    "../../web/static",
		TemplateDir:  "../../web/templates",
		Debug:        true,
		AllowedHosts: []string{"localhost", "nokshibox.test"},
		BcryptCost:   bcrypt.MinCost,
		MaxUploadMB:  1,
	}
}

// newEnv builds the full application over an in-memory database. Limiters
// are off unless tweak turns them on.
func newEnv(t *testing.T, tweak func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	if tweak != nil {
		tweak(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	m := &recordingMailer{}
	return &testEnv{
		app:  server.New(cfg, db, m),
		db:   db,
		cfg:  cfg,
		mail: m,
		auth: services.NewAuthService(repos.NewUserRepo(db), repos.NewSessionRepo(db), bcrypt.MinCost),
	}
}

// mkUser registers an account directly through the service layer. Both
// security answers are "dhaka".
func (e *testEnv) mkUser(t *testing.T, email string, role domain.Role, staff bool) *domain.User {
	t.Helper()
	u, err := e.auth.Signup(services.SignupInput{
		Email:     email,
		FullName:  "User " + strings.Split(email, "@")[0],
		MobileNo:  "+8801700000000",
		Role:      string(role),
		Password1: testPassword,
		Password2: testPassword,
		Answer1:   "Dhaka",
		Answer2:   "Dhaka",
	})
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	if staff {
		if err := e.auth.Users.SetStaff(u.ID, true); err != nil {
			t.Fatalf("set staff: %v", err)
		}
	}
	return u
}

func (e *testEnv) mkProduct(t *testing.T, seller *domain.User, title string) domain.Product {
	t.Helper()
	p := domain.Product{Title: title, Price: 19.99, Image: "products/x.png", CategoryID: 1, SellerID: seller.ID}
	if err := repos.NewProductRepo(e.db).Create(&p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func (e *testEnv) productExists(t *testing.T, id int64) bool {
	t.Helper()
	var n int
	if err := e.db.Get(&n, `SELECT COUNT(*) FROM products WHERE id = ?`, id); err != nil {
		t.Fatal(err)
	}
	return n == 1
}

// client carries cookies between requests like a browser would.
type client struct {
	t   *testing.T
	app *fiber.App
	jar map[string]string
}

func (e *testEnv) client(t *testing.T) *client {
	return &client{t: t, app: e.app, jar: map[string]string{}}
}

func (c *client) do(req *http.Request) *http.Response {
	c.t.Helper()
	for k, v := range c.jar {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	resp, err := c.app.Test(req, -1)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	for _, ck := range resp.Cookies() {
		expired := ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now()))
		if expired || ck.Value == "" {
			delete(c.jar, ck.Name)
			continue
		}
		c.jar[ck.Name] = ck.Value
	}
	return resp
}

func (c *client) get(path string) *http.Response {
	c.t.Helper()
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) csrf() string {
	c.t.Helper()
	if c.jar["csrf_"] == "" {
		c.get("/login/")
	}
	tok := c.jar["csrf_"]
	if tok == "" {
		c.t.Fatal("csrf token missing")
	}
	return tok
}

func (c *client) post(path string, form url.Values) *http.Response {
	c.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", c.csrf())
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) postMultipart(path string, fields map[string]string, files map[string][]byte) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("csrf", c.csrf())
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for field, data := range files {
		fw, err := w.CreateFormFile(field, field+".png")
		if err != nil {
			c.t.Fatal(err)
		}
		_, _ = fw.Write(data)
	}
	_ = w.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

func (c *client) login(email, password string) *http.Response {
	c.t.Helper()
	return c.post("/login/", url.Values{"email": {email}, "password": {password}})
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func expectRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 to %s, got %d", location, resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("expected Location %q, got %q", location, got)
	}
}

type logEntry struct {
	Level  string                 `json:"level"`
	Action string                 `json:"action"`
	UserID int64                  `json:"user_id"`
	Fields map[string]interface{} `json:"fields"`
}

// captureLogs swaps the standard logger output for the duration of fn and
// returns the JSON entries written.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
