// Package discovery finds BleBox boxes on the local network over mDNS.
//
// Boxes advertise the _bbxsrv._tcp service. Browse listens for a bounded
// time and reports each instance once, with the address a session.Client
// can dial:
//
//	err := discovery.Browse(ctx, discovery.Options{Timeout: 5 * time.Second},
//	    func(h discovery.Host) {
//	        dev, err := session.Open(ctx, session.NewClient(h.Address(), 0), ...)
//	    })
package discovery
