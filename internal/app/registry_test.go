package app

import (
	"errors"
	"testing"

	"github.com/danmuck/hublink/internal/protocol/header"
	"github.com/danmuck/hublink/internal/testutil/testlog"
)

func TestRegistryAssignsSequentialHandles(t *testing.T) {
	testlog.Start(t)
	cc := newCallCounter()
	r := newRegistry(3)
	for i, name := range []string{"gnss", "wifi", "wwan"} {
		h, err := r.Register(sensorService(cc, name, 3))
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		if h != header.NegotiatedRangeStart+header.Handle(i) {
			t.Fatalf("%s got handle %#x", name, uint8(h))
		}
	}
	if r.Count() != 3 {
		t.Fatalf("expected count 3, got %d", r.Count())
	}
	if _, err := r.Register(sensorService(cc, "baro", 3)); !errors.Is(err, ErrRegistryFull) {
		t.Fatalf("expected ErrRegistryFull, got %v", err)
	}
	if got := r.serviceOfHandle(header.NegotiatedRangeStart + 1).Name; got != "wifi" {
		t.Fatalf("serviceOfHandle got %q", got)
	}
	list := r.Services()
	if len(list) != 3 || list[2].Name != "wwan" || list[2].Handle != header.NegotiatedRangeStart+2 {
		t.Fatalf("unexpected services list: %+v", list)
	}
}

func TestRegistryContainsAndAddressable(t *testing.T) {
	testlog.Start(t)
	cc := newCallCounter()
	r := newRegistry(0)
	if r.Capacity() != DefaultMaxServices {
		t.Fatalf("expected default capacity, got %d", r.Capacity())
	}
	if _, err := r.Register(sensorService(cc, "gnss", 3)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !r.Contains(header.NegotiatedRangeStart) || r.Contains(header.NegotiatedRangeStart+1) {
		t.Fatalf("contains mismatch")
	}
	if r.Contains(header.HandleLoopback) || !r.Addressable(header.HandleLoopback) {
		t.Fatalf("predefined handles are addressable but not contained")
	}
	if r.Addressable(header.NegotiatedRangeStart + 1) {
		t.Fatalf("handle past registered range must not be addressable")
	}
}

func TestRegistryCapacityIsBoundedByHandleRange(t *testing.T) {
	r := newRegistry(1000)
	if r.Capacity() != MaxNegotiatedServices {
		t.Fatalf("expected capacity %d, got %d", MaxNegotiatedServices, r.Capacity())
	}
}

func TestRegistryRejectsInvalidDescriptors(t *testing.T) {
	testlog.Start(t)
	r := newRegistry(2)
	cases := []Service{
		{Name: "", MinLength: 3},
		{Name: "  ", MinLength: 3},
		{Name: "gnss", MinLength: 0},
		{Name: "gnss", MinLength: 1},
	}
	for _, svc := range cases {
		if _, err := r.Register(svc); !errors.Is(err, ErrInvalidService) {
			t.Fatalf("expected ErrInvalidService for %+v, got %v", svc, err)
		}
	}
	if r.Count() != 0 {
		t.Fatalf("invalid descriptors must not be registered")
	}
}
