package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/hublink/internal/protocol/header"
)

// DefaultMaxServices is the registry capacity used when none is configured.
const DefaultMaxServices = 5

// MinServiceLength is the smallest minimum a negotiated service may declare.
// Anything shorter would let a datagram without a type byte reach a dispatcher.
const MinServiceLength = header.HandleSize + header.TypeSize

// MaxNegotiatedServices is the size of the negotiated handle range.
const MaxNegotiatedServices = 256 - int(header.NegotiatedRangeStart)

var (
	ErrRegistryFull   = errors.New("app: service registry full")
	ErrRegistrySealed = errors.New("app: service registry sealed")
	ErrInvalidService = errors.New("app: invalid service descriptor")
)

// DispatchFunc handles one datagram addressed to an endpoint. buf is only
// valid until the function returns.
type DispatchFunc func(c *Context, buf []byte)

// Version is a service's semantic version as announced by discovery.
type Version struct {
	Major uint8
	Minor uint8
	Patch uint16
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Packed returns major<<24 | minor<<16 | patch.
func (v Version) Packed() uint32 {
	return uint32(v.Major)<<24 | uint32(v.Minor)<<16 | uint32(v.Patch)
}

func UnpackVersion(p uint32) Version {
	return Version{Major: uint8(p >> 24), Minor: uint8(p >> 16), Patch: uint16(p)}
}

// Service describes one negotiated endpoint. MinLength applies to every
// datagram addressed to it regardless of message type. There is no response
// dispatcher: service responses and notifications to negotiated handles are
// reported as unsupported.
type Service struct {
	Name         string
	UUID         [16]byte
	Version      Version
	MinLength    int
	Request      DispatchFunc
	Notification DispatchFunc
}

// ServiceInfo is the externally visible identity of a service.
type ServiceInfo struct {
	Handle  header.Handle
	Name    string
	UUID    [16]byte
	Version Version
}

// Registry maps negotiated handle offsets to service descriptors.
type Registry struct {
	services []Service
	max      int
	sealed   bool
}

func newRegistry(max int) *Registry {
	if max <= 0 {
		max = DefaultMaxServices
	}
	if max > MaxNegotiatedServices {
		max = MaxNegotiatedServices
	}
	return &Registry{services: make([]Service, 0, max), max: max}
}

// Register appends svc and returns the negotiated handle assigned to it.
func (r *Registry) Register(svc Service) (header.Handle, error) {
	if r.sealed {
		return 0, ErrRegistrySealed
	}
	if strings.TrimSpace(svc.Name) == "" {
		return 0, fmt.Errorf("%w: name is required", ErrInvalidService)
	}
	if svc.MinLength < MinServiceLength {
		return 0, fmt.Errorf("%w: %s min length %d below %d", ErrInvalidService, svc.Name, svc.MinLength, MinServiceLength)
	}
	if len(r.services) >= r.max {
		return 0, fmt.Errorf("%w: capacity %d", ErrRegistryFull, r.max)
	}
	r.services = append(r.services, svc)
	return header.NegotiatedRangeStart + header.Handle(len(r.services)-1), nil
}

func (r *Registry) Count() int {
	return len(r.services)
}

func (r *Registry) Capacity() int {
	return r.max
}

// Addressable reports whether h is below the end of the registered range.
// Predefined handles are always addressable at this level.
func (r *Registry) Addressable(h header.Handle) bool {
	return int(h) < int(header.NegotiatedRangeStart)+len(r.services)
}

// Contains reports whether h is a registered negotiated handle.
func (r *Registry) Contains(h header.Handle) bool {
	return h >= header.NegotiatedRangeStart && r.Addressable(h)
}

// serviceOfHandle indexes the registry by h - NegotiatedRangeStart.
// Precondition: r.Contains(h). The bound is established once by the
// dispatch engine and not re-checked here.
func (r *Registry) serviceOfHandle(h header.Handle) *Service {
	return &r.services[h-header.NegotiatedRangeStart]
}

// Services lists registered services in handle order.
func (r *Registry) Services() []ServiceInfo {
	out := make([]ServiceInfo, 0, len(r.services))
	for i, svc := range r.services {
		out = append(out, ServiceInfo{
			Handle:  header.NegotiatedRangeStart + header.Handle(i),
			Name:    svc.Name,
			UUID:    svc.UUID,
			Version: svc.Version,
		})
	}
	return out
}

func (r *Registry) seal() {
	r.sealed = true
}
