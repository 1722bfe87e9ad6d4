// Package core contains the destination domain contracts, the resolution and
// dispatch protocol, and the service that composes them. Lower-level adapters
// (transport, connectivity, destination service, sql store) depend on this
// package; core must not depend on them.
package core
