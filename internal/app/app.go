package app

import (
	"errors"
	"fmt"

	"github.com/danmuck/hublink/internal/observability"
	"github.com/danmuck/hublink/internal/protocol/header"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrNilTransport = errors.New("app: transport is nil")

// Outcome is what ProcessDatagram did with one datagram.
type Outcome uint8

const (
	OutcomeRouted Outcome = iota
	OutcomeDroppedShort
	OutcomeDroppedAddress
	OutcomeDroppedUnsupported
	OutcomeDroppedUnknownType
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRouted:
		return "routed"
	case OutcomeDroppedShort:
		return "dropped_short"
	case OutcomeDroppedAddress:
		return "dropped_address"
	case OutcomeDroppedUnsupported:
		return "dropped_unsupported"
	case OutcomeDroppedUnknownType:
		return "dropped_unknown_type"
	default:
		return "unknown"
	}
}

// Context is the state of one application layer instance bound to one
// transport.
type Context struct {
	transport Transport
	registry  *Registry
	platform  Platform
	builtins  Builtins
	log       zerolog.Logger

	discovered []ServiceInfo
}

// Init creates a Context bound to tr, initializes the platform and registers
// the services given with WithServices.
func Init(tr Transport, opts ...Option) (*Context, error) {
	if tr == nil {
		return nil, ErrNilTransport
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Context{
		transport: tr,
		registry:  newRegistry(o.maxServices),
		platform:  o.platform,
		builtins:  o.builtins.withDefaults(),
		log:       o.logger.With().Str("component", "app").Logger(),
	}

	if err := c.platform.Init(c); err != nil {
		return nil, fmt.Errorf("app: platform init: %w", err)
	}
	for _, svc := range o.services {
		handle, err := c.registry.Register(svc)
		if err != nil {
			c.platform.Deinit(c)
			return nil, fmt.Errorf("app: register %q: %w", svc.Name, err)
		}
		c.log.Info().
			Uint8("handle", uint8(handle)).
			Str("service", svc.Name).
			Str("uuid", UUIDString(svc.UUID)).
			Str("version", svc.Version.String()).
			Msg("registered service")
	}
	return c, nil
}

// Deinit releases platform services. Registered services are left as is.
func (c *Context) Deinit() {
	c.platform.Deinit(c)
}

// Register adds a negotiated service. It fails once dispatch has started.
func (c *Context) Register(svc Service) (header.Handle, error) {
	return c.registry.Register(svc)
}

func (c *Context) Registry() *Registry {
	return c.registry
}

func (c *Context) Transport() Transport {
	return c.transport
}

func (c *Context) Logger() zerolog.Logger {
	return c.log
}

// ProcessDatagram validates and routes one reassembled datagram. The transport
// is signalled with ProcessingDone exactly once before returning, whatever
// the outcome.
func (c *Context) ProcessDatagram(buf []byte) (out Outcome) {
	defer c.transport.ProcessingDone(buf)

	c.registry.seal()
	h := header.Peek(buf)
	defer func() {
		observability.RecordDispatch(out.String(), header.Classify(h.Handle).String(), typeLabel(h.Type))
	}()

	if !c.datagramLenOK(h.Handle, len(buf)) {
		return OutcomeDroppedShort
	}

	switch {
	case !c.registry.Addressable(h.Handle):
		c.log.Error().
			Uint8("handle", uint8(h.Handle)).
			Int("len", len(buf)).
			Uint8("type", uint8(h.Type)).
			Uint8("txn", h.Transaction).
			Msg("received datagram for invalid handle")
		return OutcomeDroppedAddress
	case h.Handle == header.HandleNone:
		c.builtins.NonHandle(c, buf)
		return OutcomeRouted
	case h.Handle < header.NegotiatedRangeStart:
		return c.routePredefined(h, buf)
	default:
		return c.routeNegotiated(h, buf)
	}
}

func (c *Context) reportProtocolError() {
	observability.RecordTransportError(uint8(ErrorAppLayer))
	c.transport.EnqueueError(ErrorAppLayer)
}

func typeLabel(t header.MessageType) string {
	if !t.Valid() {
		return "unknown"
	}
	return t.String()
}

type options struct {
	maxServices int
	services    []Service
	platform    Platform
	builtins    Builtins
	logger      zerolog.Logger
}

func defaultOptions() options {
	return options{
		maxServices: DefaultMaxServices,
		platform:    nopPlatform{},
		logger:      log.Logger,
	}
}

// Option configures Init.
type Option func(*options)

// WithMaxServices sets the registry capacity.
func WithMaxServices(n int) Option {
	return func(o *options) { o.maxServices = n }
}

// WithServices registers svcs, in order, during Init.
func WithServices(svcs ...Service) Option {
	return func(o *options) { o.services = append(o.services, svcs...) }
}

func WithPlatform(p Platform) Option {
	return func(o *options) {
		if p != nil {
			o.platform = p
		}
	}
}

// WithBuiltins replaces individual built-in endpoint dispatchers. Nil fields
// keep the default implementation.
func WithBuiltins(b Builtins) Option {
	return func(o *options) { o.builtins = b }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}
