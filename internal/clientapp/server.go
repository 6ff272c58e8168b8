package clientapp

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/phillip-england/hrmlite/internal/hrmapi"
	"github.com/phillip-england/hrmlite/internal/middleware"
	"github.com/phillip-england/hrmlite/internal/viewstate"
)

const (
	sessionCookieName = "hrmlite_session"
	csrfCookieName    = "hrmlite_csrf"
	csrfFieldName     = "csrf_token"
	defaultSessionTTL = 30 * time.Minute
	maxUploadBytes    = 10 << 20
)

type Config struct {
	Addr          string
	APIBaseURL    string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	SessionTTL    time.Duration
	SecureCookies bool
	// CSRFKey seeds the CSRF cookie signing key. When empty a random key is
	// used, so tokens do not survive a restart.
	CSRFKey string

	// Clock and HTTPClient default to the system clock and a plain client.
	Clock      viewstate.Clock
	HTTPClient *http.Client
}

//go:embed templates/layout.html templates/dashboard.html templates/employees.html templates/attendance.html assets/app.css
var templatesFS embed.FS

type server struct {
	api            *hrmapi.Client
	workspaces     *workspaces
	secure         bool
	dashboardTmpl  *template.Template
	employeesTmpl  *template.Template
	attendanceTmpl *template.Template
}

func DefaultConfigFromEnv() Config {
	return Config{
		Addr:          envOrDefault("CLIENT_ADDR", ":3000"),
		APIBaseURL:    envOrDefault("API_BASE_URL", hrmapi.DefaultBaseURL),
		ReadTimeout:   5 * time.Second,
		WriteTimeout:  30 * time.Second,
		SessionTTL:    parseDurationOrDefault(os.Getenv("SESSION_TTL"), defaultSessionTTL),
		SecureCookies: parseBool(os.Getenv("SECURE_COOKIES")),
		CSRFKey:       strings.TrimSpace(os.Getenv("CSRF_KEY")),
	}
}

// NewHandler builds the front end. The returned close func ends every
// workspace and must be called once the handler stops serving.
func NewHandler(cfg Config) (http.Handler, func(), error) {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = viewstate.SystemClock
	}
	key, err := csrfKey(cfg.CSRFKey)
	if err != nil {
		return nil, nil, err
	}

	api := hrmapi.New(cfg.APIBaseURL, cfg.HTTPClient)
	s := &server{
		api:            api,
		workspaces:     newWorkspaces(api, cfg.Clock, cfg.SessionTTL, cfg.SecureCookies),
		secure:         cfg.SecureCookies,
		dashboardTmpl:  mustPageTemplate("templates/dashboard.html"),
		employeesTmpl:  mustPageTemplate("templates/employees.html"),
		attendanceTmpl: mustPageTemplate("templates/attendance.html"),
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.HandlerFunc(s.rootRoute))
	mux.Handle("/healthz", http.HandlerFunc(s.health))
	mux.Handle("/assets/app.css", http.HandlerFunc(s.appCSSFile))
	mux.Handle("/dashboard", http.HandlerFunc(s.dashboardPage))
	mux.Handle("/employees", http.HandlerFunc(s.employeesRoute))
	mux.Handle("/employees/", http.HandlerFunc(s.employeeRoutes))
	mux.Handle("/attendance", http.HandlerFunc(s.attendancePage))
	mux.Handle("/attendance/", http.HandlerFunc(s.attendanceRoutes))

	csp := strings.Join([]string{
		"default-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"script-src 'self' 'unsafe-inline'",
		"connect-src 'self'",
		"frame-ancestors 'none'",
	}, "; ")

	protect := csrf.Protect(key,
		csrf.Secure(cfg.SecureCookies),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(csrfFieldName),
		csrf.CookieName(csrfCookieName),
		csrf.ErrorHandler(http.HandlerFunc(s.csrfFailure)),
	)

	handler := middleware.Chain(
		mux,
		middleware.Recover,
		middleware.RequestLog("client"),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{ContentSecurityPolicy: csp}),
		s.markPlaintext,
		protect,
	)
	return handler, s.workspaces.closeAll, nil
}

func Run(ctx context.Context, cfg Config) error {
	handler, closeWorkspaces, err := NewHandler(cfg)
	if err != nil {
		return err
	}
	defer closeWorkspaces()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("client listening on http://localhost%s (api %s)", cfg.Addr, strings.TrimRight(cfg.APIBaseURL, "/"))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// markPlaintext tells the CSRF layer the request arrived over plain HTTP so
// it skips the HTTPS-only Referer check.
func (s *server) markPlaintext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.secure {
			r = csrf.PlaintextHTTPRequest(r)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) csrfFailure(w http.ResponseWriter, r *http.Request) {
	log.Printf("csrf rejected %s %s: %v", r.Method, r.URL.Path, csrf.FailureReason(r))
	http.Error(w, "Your form has expired. Reload the page and try again.", http.StatusForbidden)
}

func (s *server) rootRoute(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *server) appCSSFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := templatesFS.ReadFile("assets/app.css")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(data)
}

func mustPageTemplate(page string) *template.Template {
	return template.Must(template.New("layout.html").Funcs(templateFuncs).ParseFS(templatesFS, "templates/layout.html", page))
}

func renderHTMLTemplate(w http.ResponseWriter, tmpl *template.Template, data pageData) error {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, err := w.Write(buf.Bytes())
	return err
}

func csrfKey(seed string) ([]byte, error) {
	if seed != "" {
		sum := sha256.Sum256([]byte(seed))
		return sum[:], nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	log.Printf("CSRF_KEY not set; using a random key for this process")
	return key, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func parseDurationOrDefault(raw string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseBool(raw string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && value
}
