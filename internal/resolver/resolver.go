// internal/resolver/resolver.go
package resolver

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"iterdns.io/internal/cache"
	"iterdns.io/internal/logging"
	"iterdns.io/internal/models"
	"iterdns.io/internal/querylog"
	"iterdns.io/internal/wire"
)

const (
	// RootServerIP is the single bootstrap address every top-level
	// resolution starts from (a.root-servers.net). There is no root-hints
	// list; every uncached resolution depends on this one server.
	RootServerIP = "198.41.0.4"

	// QueryTimeout bounds each network hop. There is no overall deadline
	// across hops beyond MaxDepth * QueryTimeout.
	QueryTimeout = 2 * time.Second

	// MaxDepth bounds referral hops and is shared with nested NS
	// resolutions, bounding total work regardless of delegation depth.
	MaxDepth = 10

	// cachedAnswerTTL is stamped on answer records synthesized from cache.
	cachedAnswerTTL = uint32(cache.TTL / time.Second)
)

// Result is a successful resolution.
type Result struct {
	Domain         string
	Address        net.IP
	Answers        []wire.ResourceRecord
	ServersVisited int
	TotalTime      time.Duration
	FromCache      bool
}

// Resolver walks the delegation chain from the root down to an
// authoritative answer, consulting the cache and recording every step in
// the resolution log.
type Resolver struct {
	cache     cache.Cache
	log       *querylog.Log
	transport Transport

	rootServer string
	maxDepth   int
}

// NewResolver creates a resolver. A nil transport selects the UDP transport
// with the standard per-hop timeout.
func NewResolver(c cache.Cache, log *querylog.Log, transport Transport) *Resolver {
	if transport == nil {
		transport = &UDPTransport{Timeout: QueryTimeout}
	}
	return &Resolver{
		cache:      c,
		log:        log,
		transport:  transport,
		rootServer: RootServerIP,
		maxDepth:   MaxDepth,
	}
}

// Resolve performs iterative resolution of domain. The trailing root dot is
// stripped; case is preserved, so cache keys use exact-match semantics.
func (r *Resolver) Resolve(ctx context.Context, domain string) (*Result, error) {
	domain = models.TrimName(domain)

	if err := models.ValidateDomainName(domain); err != nil {
		r.log.LogStep(models.ResolutionStep{
			Timestamp:   time.Now(),
			Domain:      domain,
			Mode:        models.ModeQueryFailed,
			ServerIP:    "N/A",
			Step:        models.StepUnknown,
			Description: fmt.Sprintf("Invalid domain name: %v", err),
			CacheStatus: models.CacheNA,
		})
		return nil, &Error{Kind: KindInvalidName, Domain: domain, Err: err}
	}

	return r.resolve(ctx, domain, domain, 0)
}

// resolve is the recursive worker. originalDomain is the name of the outer
// query; depth counts nested NS resolutions against the shared budget.
func (r *Resolver) resolve(ctx context.Context, domain, originalDomain string, depth int) (*Result, error) {
	start := time.Now()

	// Cache fast path: a hit answers without any network I/O.
	if addr, status := r.cache.Get(domain); status == models.CacheHit {
		total := time.Since(start)
		r.log.LogStep(models.ResolutionStep{
			Timestamp:   time.Now(),
			Domain:      domain,
			Mode:        models.ModeCached,
			ServerIP:    "N/A",
			Step:        models.StepCache,
			Description: fmt.Sprintf("Answer: %s", addr),
			RTT:         0,
			TotalTime:   total,
			HasTotal:    true,
			CacheStatus: models.CacheHit,
		})
		r.log.RecordPlotPoint(domain, 1, total)
		logging.Debug("resolver", "cache hit", "domain", domain, "address", addr.String())

		return &Result{
			Domain:  domain,
			Address: addr,
			Answers: []wire.ResourceRecord{{
				Name:  domain,
				Type:  wire.TypeA,
				Class: wire.ClassINET,
				TTL:   cachedAnswerTTL,
				Addr:  addr,
			}},
			ServersVisited: 1,
			TotalTime:      total,
			FromCache:      true,
		}, nil
	}

	if depth > r.maxDepth {
		logging.Warn("resolver", "maximum recursion depth reached", "domain", domain, "depth", depth)
		return nil, &Error{Kind: KindDepthExceeded, Domain: domain}
	}

	currentServer := r.rootServer
	serversVisited := 0
	logging.Debug("resolver", "starting iterative resolution", "domain", domain, "depth", depth)

	for hop := 0; hop < r.maxDepth; hop++ {
		query := wire.NewQuery(uint16(rand.Uint32()), domain)
		reply, rtt, err := r.transport.Exchange(ctx, currentServer, query)
		timestamp := time.Now()
		serversVisited++
		stepType := classifyServer(currentServer, r.rootServer)

		if err != nil {
			r.log.LogStep(models.ResolutionStep{
				Timestamp:   timestamp,
				Domain:      domain,
				Mode:        models.ModeQueryFailed,
				ServerIP:    currentServer,
				Step:        stepType,
				Description: "Timeout or invalid response",
				RTT:         rtt,
				CacheStatus: models.CacheMiss,
			})
			return nil, wrapExchangeError(err, domain, currentServer)
		}

		// Answer section: the first A record wins, no other tie-break.
		if a := firstA(reply.Answer); a != nil {
			total := time.Since(start)
			r.log.LogStep(models.ResolutionStep{
				Timestamp:   timestamp,
				Domain:      domain,
				Mode:        models.ModeResolved,
				ServerIP:    currentServer,
				Step:        stepType,
				Description: fmt.Sprintf("Answer: %s", a.Addr),
				RTT:         rtt,
				TotalTime:   total,
				HasTotal:    true,
				CacheStatus: models.CacheMiss,
			})
			r.cache.Set(domain, a.Addr)
			r.log.RecordPlotPoint(domain, serversVisited, total)
			logging.Info("resolver", "resolved", "domain", domain,
				"address", a.Addr.String(), "servers_visited", serversVisited,
				"apex", models.ApexDomain(domain))

			return &Result{
				Domain:         domain,
				Address:        a.Addr,
				Answers:        reply.Answer,
				ServersVisited: serversVisited,
				TotalTime:      total,
			}, nil
		}

		// Authority section: follow the first NS referral.
		nsNames := nsTargets(reply.Authority)
		if len(nsNames) == 0 {
			r.log.LogStep(models.ResolutionStep{
				Timestamp:   timestamp,
				Domain:      domain,
				Mode:        models.ModeFailedDelegation,
				ServerIP:    currentServer,
				Step:        stepType,
				Description: "No authority section for delegation",
				RTT:         rtt,
				CacheStatus: models.CacheMiss,
			})
			return nil, &Error{Kind: KindNoDelegationPath, Domain: domain, Server: currentServer}
		}

		if glue := firstA(reply.Additional); glue != nil {
			r.log.LogStep(models.ResolutionStep{
				Timestamp:   timestamp,
				Domain:      domain,
				Mode:        models.ModeDelegation,
				ServerIP:    currentServer,
				Step:        stepType,
				Description: fmt.Sprintf("Delegation to: %s @ Glue IP: %s", strings.Join(nsNames, ", "), glue.Addr),
				RTT:         rtt,
				CacheStatus: models.CacheMiss,
			})
			currentServer = glue.Addr.String()
			continue
		}

		nsTarget := nsNames[0]
		if nsTarget == originalDomain {
			// Cycle guard: the delegated NS is the very name being
			// resolved and no glue was supplied. Only exact equality is
			// checked; longer cycles are a known limitation.
			r.log.LogStep(models.ResolutionStep{
				Timestamp:   timestamp,
				Domain:      domain,
				Mode:        models.ModeFailedDelegation,
				ServerIP:    currentServer,
				Step:        stepType,
				Description: "No glue IP and NS same as original domain",
				RTT:         rtt,
				CacheStatus: models.CacheMiss,
			})
			return nil, &Error{Kind: KindUnresolvableNSNoGlue, Domain: domain, Server: currentServer}
		}

		nested, err := r.resolve(ctx, nsTarget, originalDomain, depth+1)
		if err != nil {
			r.log.LogStep(models.ResolutionStep{
				Timestamp:   timestamp,
				Domain:      domain,
				Mode:        models.ModeFailedDelegation,
				ServerIP:    currentServer,
				Step:        stepType,
				Description: fmt.Sprintf("Failed to resolve next NS IP: %s", nsTarget),
				RTT:         rtt,
				CacheStatus: models.CacheMiss,
			})
			return nil, err
		}

		r.log.LogStep(models.ResolutionStep{
			Timestamp:   timestamp,
			Domain:      domain,
			Mode:        models.ModeDelegation,
			ServerIP:    currentServer,
			Step:        stepType,
			Description: fmt.Sprintf("Delegation to: %s @ Resolved NS IP: %s", strings.Join(nsNames, ", "), nested.Address),
			RTT:         rtt,
			CacheStatus: models.CacheMiss,
		})
		currentServer = nested.Address.String()
	}

	total := time.Since(start)
	r.log.LogStep(models.ResolutionStep{
		Timestamp:   time.Now(),
		Domain:      domain,
		Mode:        models.ModeFailed,
		ServerIP:    currentServer,
		Step:        classifyServer(currentServer, r.rootServer),
		Description: "Iteration limit reached",
		RTT:         0,
		TotalTime:   total,
		HasTotal:    true,
		CacheStatus: models.CacheMiss,
	})
	return nil, &Error{Kind: KindIterationLimit, Domain: domain, Server: currentServer}
}

// classifyServer mirrors the log taxonomy: the bootstrap address is Root,
// any other address is TLD/Authoritative.
func classifyServer(server, root string) models.StepType {
	if server == root {
		return models.StepRoot
	}
	if net.ParseIP(server) != nil {
		return models.StepAuthoritative
	}
	return models.StepUnknown
}

func firstA(records []wire.ResourceRecord) *wire.ResourceRecord {
	for i := range records {
		if records[i].Type == wire.TypeA && records[i].Addr != nil {
			return &records[i]
		}
	}
	return nil
}

func nsTargets(records []wire.ResourceRecord) []string {
	var names []string
	for _, rr := range records {
		if rr.Type == wire.TypeNS && rr.Host != "" {
			names = append(names, rr.Host)
		}
	}
	return names
}

func wrapExchangeError(err error, domain, server string) error {
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	return &Error{Kind: KindNetworkTimeout, Domain: domain, Server: server, Err: err}
}
