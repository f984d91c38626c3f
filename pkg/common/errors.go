package common

import "errors"

var (
	// ErrNotFound reports that a referenced node or edge id is absent from
	// the current graph view.
	ErrNotFound = errors.New("not found")

	// ErrNoPath reports that both endpoints of a shortest-path query exist
	// but are disconnected. Kept distinct from ErrNotFound so callers can
	// tell a bad id from a disconnected graph.
	ErrNoPath = errors.New("no path between nodes")

	// ErrUpstreamUnavailable reports that the linguistic annotator or the
	// persistence backend could not be reached. Retrying is left to the
	// caller.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
