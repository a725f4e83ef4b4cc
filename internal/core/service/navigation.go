package service

import (
	"strings"
	"sync"

	"github.com/railfleet/fleet-state/internal/core/domain"
)

// EntryPage is the unauthenticated entry point (the login page).
const EntryPage = "/"

// NavItem is one entry of the navigation catalog.
type NavItem struct {
	Name  string        `json:"name"`
	Page  string        `json:"page"`
	Icon  string        `json:"icon"`
	Roles []domain.Role `json:"-"`
}

// Allows reports whether role may see the item.
func (n NavItem) Allows(role domain.Role) bool {
	for _, r := range n.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// DefaultCatalog is the fleet application's navigation, in display order.
func DefaultCatalog() []NavItem {
	staff := []domain.Role{domain.RoleEmployee, domain.RoleAdmin}
	return []NavItem{
		{Name: "Trains", Page: "trains", Icon: "train", Roles: staff},
		{Name: "Carriages", Page: "carriages", Icon: "trailer", Roles: staff},
		{Name: "Maintenances", Page: "maintenances", Icon: "tools", Roles: staff},
		{Name: "Employees", Page: "employees", Icon: "users", Roles: []domain.Role{domain.RoleAdmin}},
	}
}

// VisibleItems keeps the catalog entries role may see, in catalog order.
func VisibleItems(catalog []NavItem, role domain.Role) []NavItem {
	out := make([]NavItem, 0, len(catalog))
	for _, item := range catalog {
		if item.Allows(role) {
			out = append(out, item)
		}
	}
	return out
}

// Navigator keeps the visible navigation in step with the session role.
type Navigator struct {
	catalog []NavItem
	session *SessionService

	mu      sync.RWMutex
	role    domain.Role
	visible []NavItem

	cancel func()
}

// NewNavigator computes the initial items and recomputes them on every
// session event. Call Close to stop following the session.
func NewNavigator(session *SessionService, catalog []NavItem) *Navigator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	n := &Navigator{catalog: catalog, session: session}
	n.refresh()
	n.cancel = session.Subscribe(func(Event) { n.refresh() })
	return n
}

func (n *Navigator) refresh() {
	role := n.session.Role()
	visible := VisibleItems(n.catalog, role)
	n.mu.Lock()
	n.role = role
	n.visible = visible
	n.mu.Unlock()
}

// Items returns the entries visible to the current role.
func (n *Navigator) Items() []NavItem {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]NavItem(nil), n.visible...)
}

// Role returns the role the items were computed for.
func (n *Navigator) Role() domain.Role {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.role
}

// CanAccess reports whether the current role may open page.
func (n *Navigator) CanAccess(page string) bool {
	page = strings.Trim(page, "/")
	for _, item := range n.Items() {
		if item.Page == page {
			return true
		}
	}
	return false
}

// Guard decides a navigation to path. It returns the path to redirect to and
// false when the navigation must not proceed: unauthenticated users go to the
// entry page, authenticated users trying a page outside their role go to their
// first visible page.
func (n *Navigator) Guard(path string) (string, bool) {
	if path == EntryPage {
		return "", true
	}
	if !n.session.IsAuthenticated() {
		return EntryPage, false
	}
	page := strings.Trim(path, "/")
	if i := strings.IndexByte(page, '/'); i >= 0 {
		page = page[:i]
	}
	if !n.inCatalog(page) || n.CanAccess(page) {
		return "", true
	}
	if items := n.Items(); len(items) > 0 {
		return "/" + items[0].Page, false
	}
	return EntryPage, false
}

func (n *Navigator) inCatalog(page string) bool {
	for _, item := range n.catalog {
		if item.Page == page {
			return true
		}
	}
	return false
}

// Close stops following session changes.
func (n *Navigator) Close() {
	if n.cancel != nil {
		n.cancel()
	}
}
