package model

// Route is read-only reference data maintained by the project CRUD
// surfaces outside this service.
type Route struct {
	RouteID string
	Code    string
	Name    string

	// Ordered stop names in the forward direction.
	ForwardStops []string
}
