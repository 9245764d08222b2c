package engine

import "github.com/skylens/aroverlay/pkg/poi"

// View is an opaque presentational handle owned by the UI collaborator.
// The engine binds, moves and releases handles but never builds their
// visual content.
type View any

// ViewProvider is the injected capability that realizes views for active
// annotations. One synchronous call per annotation per rebuild; the engine
// retains a returned handle only for the annotation's active lifetime.
type ViewProvider interface {
	// RealizeView returns a handle for an annotation entering the active
	// set, or false to decline showing it.
	RealizeView(a poi.Annotation) (View, bool)

	// ReleaseView is called when an annotation leaves the active set or
	// the view set is rebuilt.
	ReleaseView(id string, v View)

	// RefreshView updates the handle's content after a reload pass.
	RefreshView(v View, a poi.Annotation)
}

// NopViewProvider realizes placeholder handles and discards refreshes.
// Useful for headless operation and tests.
type NopViewProvider struct{}

func (NopViewProvider) RealizeView(a poi.Annotation) (View, bool) { return a.ID, true }
func (NopViewProvider) ReleaseView(string, View)                  {}
func (NopViewProvider) RefreshView(View, poi.Annotation)          {}
