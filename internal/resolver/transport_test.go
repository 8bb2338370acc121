// internal/resolver/transport_test.go
package resolver

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/powerman/check"

	"iterdns.io/internal/wire"
)

// startFakeServer runs a one-shot UDP responder on an ephemeral loopback
// port. respond takes the raw query and returns the raw reply, or nil to
// stay silent.
func startFakeServer(t *check.C, respond func([]byte) []byte) string {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	t.Nil(err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, wire.MaxDatagramSize)
		for {
			n, client, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			if reply := respond(buf[:n]); reply != nil {
				conn.WriteToUDP(reply, client)
			}
		}
	}()

	return strconv.Itoa(conn.LocalAddr().(*net.UDPAddr).Port)
}

func TestUDPTransportExchange(tt *testing.T) {
	t := check.T(tt)

	port := startFakeServer(t, func(query []byte) []byte {
		m, err := wire.Unpack(query)
		if err != nil {
			return nil
		}
		m.Response = true
		m.Answer = []wire.ResourceRecord{{
			Name:  m.Question[0].Name,
			Type:  wire.TypeA,
			Class: wire.ClassINET,
			TTL:   300,
			Addr:  net.IPv4(93, 184, 216, 34),
		}}
		reply, err := m.Pack()
		if err != nil {
			return nil
		}
		return reply
	})

	transport := &UDPTransport{Timeout: 2 * time.Second, Port: port}
	query := wire.NewQuery(77, "example.com")

	reply, rtt, err := transport.Exchange(context.Background(), "127.0.0.1", query)
	t.Nil(err)
	t.Must(rtt > 0)
	t.EQ(reply.ID, uint16(77))
	t.True(reply.Response)
	t.Len(reply.Answer, 1)
	t.EQ(reply.Answer[0].Addr.String(), "93.184.216.34")
}

func TestUDPTransportTimeout(tt *testing.T) {
	t := check.T(tt)

	port := startFakeServer(t, func([]byte) []byte { return nil })

	transport := &UDPTransport{Timeout: 100 * time.Millisecond, Port: port}

	start := time.Now()
	_, _, err := transport.Exchange(context.Background(), "127.0.0.1", wire.NewQuery(1, "example.com"))
	t.NotNil(err)
	t.True(IsKind(err, KindNetworkTimeout))
	t.Must(time.Since(start) < time.Second)
}

func TestUDPTransportMalformedReply(tt *testing.T) {
	t := check.T(tt)

	port := startFakeServer(t, func([]byte) []byte {
		return []byte{0xDE, 0xAD}
	})

	transport := &UDPTransport{Timeout: 2 * time.Second, Port: port}

	_, _, err := transport.Exchange(context.Background(), "127.0.0.1", wire.NewQuery(2, "example.com"))
	t.NotNil(err)
	t.True(IsKind(err, KindMalformedResponse))
}

func TestUDPTransportContextDeadline(tt *testing.T) {
	t := check.T(tt)

	port := startFakeServer(t, func([]byte) []byte { return nil })

	transport := &UDPTransport{Timeout: 10 * time.Second, Port: port}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := transport.Exchange(ctx, "127.0.0.1", wire.NewQuery(3, "example.com"))
	t.NotNil(err)
	t.True(IsKind(err, KindNetworkTimeout))
	t.Must(time.Since(start) < time.Second)
}
