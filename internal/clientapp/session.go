package clientapp

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phillip-england/hrmlite/internal/hrmapi"
	"github.com/phillip-england/hrmlite/internal/pages"
	"github.com/phillip-england/hrmlite/internal/viewstate"
)

// workspace is one browser's set of page controllers.
type workspace struct {
	dashboard  *pages.DashboardPage
	employees  *pages.EmployeesPage
	attendance *pages.AttendancePage
	lastSeen   time.Time
}

func (ws *workspace) close() {
	ws.employees.Close()
	ws.attendance.Close()
}

type workspaces struct {
	api    *hrmapi.Client
	clock  viewstate.Clock
	ttl    time.Duration
	secure bool

	mu    sync.Mutex
	items map[string]*workspace
}

func newWorkspaces(api *hrmapi.Client, clock viewstate.Clock, ttl time.Duration, secure bool) *workspaces {
	return &workspaces{
		api:    api,
		clock:  clock,
		ttl:    ttl,
		secure: secure,
		items:  map[string]*workspace{},
	}
}

// forRequest returns the caller's workspace, starting a new one (and
// setting the cookie) when the cookie is missing, malformed or expired.
func (s *workspaces) forRequest(w http.ResponseWriter, r *http.Request) *workspace {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			if ws, ok := s.items[id.String()]; ok {
				ws.lastSeen = now
				return ws
			}
		}
	}

	id := uuid.NewString()
	ws := &workspace{
		dashboard:  pages.NewDashboardPage(s.api),
		employees:  pages.NewEmployeesPage(s.api, s.clock),
		attendance: pages.NewAttendancePage(s.api, s.clock),
		lastSeen:   now,
	}
	s.items[id] = ws
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return ws
}

func (s *workspaces) sweepLocked(now time.Time) {
	for id, ws := range s.items {
		if now.Sub(ws.lastSeen) > s.ttl {
			ws.close()
			delete(s.items, id)
		}
	}
}

func (s *workspaces) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *workspaces) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ws := range s.items {
		ws.close()
		delete(s.items, id)
	}
}
