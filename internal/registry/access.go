package registry

import "sync"

// AccessControl holds the authorization state for the registry: the fixed
// administrator, the one-time-settable renderer, and the collection
// allow-list. The deploying collection is a permanent member of the list.
type AccessControl struct {
	mu          sync.RWMutex
	admin       string
	renderer    string // empty until assigned
	collections map[string]struct{}
}

// NewAccessControl creates the authorization state with the administrator
// identity and the primary collection pre-allowed.
func NewAccessControl(admin, primaryCollection string) *AccessControl {
	return &AccessControl{
		admin: admin,
		collections: map[string]struct{}{
			primaryCollection: {},
		},
	}
}

// SetRenderer assigns the renderer identity. Only the administrator may
// call it, and only while the renderer is unset; the transition happens
// exactly once.
func (a *AccessControl) SetRenderer(caller, renderer string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.admin {
		return ErrUnauthorized
	}
	if a.renderer != "" {
		return ErrRendererAlreadySet
	}
	a.renderer = renderer
	return nil
}

// AddCollection extends the allow-list. The administrator and the assigned
// renderer are both permitted to add collections.
func (a *AccessControl) AddCollection(caller, collection string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.admin && (a.renderer == "" || caller != a.renderer) {
		return ErrUnauthorized
	}
	a.collections[collection] = struct{}{}
	return nil
}

// RequireRenderer fails unless the caller is the assigned renderer.
// While the renderer is unset every renderer-gated call fails.
func (a *AccessControl) RequireRenderer(caller string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.renderer == "" || caller != a.renderer {
		return ErrNotRenderer
	}
	return nil
}

// CollectionAllowed reports whether a collection is on the allow-list.
func (a *AccessControl) CollectionAllowed(collection string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	_, ok := a.collections[collection]
	return ok
}

// Admin returns the administrator identity.
func (a *AccessControl) Admin() string {
	return a.admin
}

// Renderer returns the assigned renderer identity and whether one is set.
func (a *AccessControl) Renderer() (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.renderer, a.renderer != ""
}
