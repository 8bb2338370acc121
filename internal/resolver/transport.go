// internal/resolver/transport.go
package resolver

import (
	"context"
	"net"
	"time"

	"iterdns.io/internal/wire"
)

// Transport sends one DNS query datagram to a name server and waits for the
// reply. Implementations classify failures as NetworkTimeout (no usable
// reply arrived) or MalformedResponse (a reply arrived but did not decode).
type Transport interface {
	Exchange(ctx context.Context, server string, query *wire.Message) (*wire.Message, time.Duration, error)
}

// UDPTransport exchanges queries over UDP port 53 with a fixed per-hop
// timeout. One datagram out, one datagram in; there are no retries.
type UDPTransport struct {
	Timeout time.Duration

	// Port overrides the standard DNS port. Empty means 53.
	Port string
}

// Exchange implements Transport.
func (t *UDPTransport) Exchange(ctx context.Context, server string, query *wire.Message) (*wire.Message, time.Duration, error) {
	domain := ""
	if len(query.Question) > 0 {
		domain = query.Question[0].Name
	}

	packed, err := query.Pack()
	if err != nil {
		return nil, 0, err
	}

	port := t.Port
	if port == "" {
		port = "53"
	}

	start := time.Now()

	conn, err := net.Dial("udp4", net.JoinHostPort(server, port))
	if err != nil {
		return nil, time.Since(start), &Error{Kind: KindNetworkTimeout, Domain: domain, Server: server, Err: err}
	}
	defer conn.Close()

	deadline := start.Add(t.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, time.Since(start), &Error{Kind: KindNetworkTimeout, Domain: domain, Server: server, Err: err}
	}

	if _, err := conn.Write(packed); err != nil {
		return nil, time.Since(start), &Error{Kind: KindNetworkTimeout, Domain: domain, Server: server, Err: err}
	}

	buf := make([]byte, wire.MaxDatagramSize)
	n, err := conn.Read(buf)
	rtt := time.Since(start)
	if err != nil {
		return nil, rtt, &Error{Kind: KindNetworkTimeout, Domain: domain, Server: server, Err: err}
	}

	reply, err := wire.Unpack(buf[:n])
	if err != nil {
		return nil, rtt, &Error{Kind: KindMalformedResponse, Domain: domain, Server: server, Err: err}
	}

	return reply, rtt, nil
}
