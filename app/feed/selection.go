package feed

type SelectionState string

const (
	SelectionRouted     SelectionState = "routed"
	SelectionOverridden SelectionState = "overridden"
)

// Selection holds the optional "active post" override that takes precedence
// over the post id carried by the route.
type Selection struct {
	Override ID `json:"override,omitempty"`
}

func (s Selection) State() SelectionState {
	if s.Override == "" {
		return SelectionRouted
	}
	return SelectionOverridden
}

// Activate overrides the routed id. An empty id clears the override.
func (s *Selection) Activate(id ID) {
	s.Override = id
}

// Clear returns to the routed state. Clearing twice is a no-op.
func (s *Selection) Clear() {
	s.Override = ""
}

// ActivePostID returns the override if set, else the route id. The boolean is
// false when neither is present, meaning there is no detail content to show.
func (s Selection) ActivePostID(routeID ID) (ID, bool) {
	if s.Override != "" {
		return s.Override, true
	}
	if routeID != "" {
		return routeID, true
	}
	return "", false
}
