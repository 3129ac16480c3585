// Package session connects the blebox core to real boxes over HTTP.
//
// A Client is the transport: it performs GET and POST requests against one
// box and decodes the JSON reply into the generic tree the core consumes. A
// Device owns one resolved blebox.Box and serialises everything that touches
// it.
//
// Lifecycle:
//
//	Open(ctx, client, opts)
//	    │
//	    ├── GET /info  (fallback: /api/device/state)   → blebox.ParseIdentity
//	    ├── GET <extended path>  (optional, tolerant)   → feature layout
//	    └── blebox.NewBox
//	            │
//	Device.Refresh ── GET <api path> ──► Box.Update (one snapshot, all features)
//	Device.Command ── encode ──► Client ──► Box.Update (reply as new snapshot)
//
// The core never retries; neither does this package. A failed poll is
// reported and the next poll tries again.
package session
