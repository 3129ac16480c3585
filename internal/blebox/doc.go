// Package blebox implements the capability resolution and state codec engine
// for BleBox home-automation controllers ("boxes").
//
// A box exposes JSON state over HTTP whose shape depends on the box type and
// on the api level of its firmware. This package turns that payload into typed
// feature state and turns typed commands back into wire requests. It performs
// no network I/O; the session package owns the transport.
//
// # Architecture
//
//	 device info ──► ParseIdentity ──► Resolve (type, product, api level)
//	                                        │
//	 extended state ─────────────────► NewBox ──► features
//	                                        │
//	 telemetry ──► Box.Update ──► Follow + Validator ──► Feature.Refresh
//	                                                          │
//	 command ◄── Commands.Build ◄── feature encoder ◄─────────┘
//
// # Capability tiers
//
// Each box type owns a table of configuration tiers keyed by api level. A
// device resolves against the greatest tier level that does not exceed its
// reported level (a floor match). Devices that omit apiLevel are treated as
// DefaultAPILevel.
//
// # Path expressions
//
// Fields are addressed with "/"-separated paths. A segment is a bare key, an
// index "[N]", or a filter "[key=value]" where value is a quoted string or an
// integer:
//
//	v, err := blebox.Follow(data, "relays/[relay=0]/state")
//
// # Features
//
// The feature kinds are switch, sensor, binary sensor, air quality, climate,
// cover, light and button. Cover hardware variants and light colour modes are
// closed enums; each selects a small struct of constants once at
// instantiation.
//
// # Thread Safety
//
// Box and its features are not safe for concurrent use. The owner must
// serialise Update and command encoding per device.
package blebox
