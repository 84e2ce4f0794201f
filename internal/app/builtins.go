package app

// Builtins holds the dispatchers of the predefined endpoints.
type Builtins struct {
	NonHandle         DispatchFunc
	LoopbackRequest   DispatchFunc
	DiscoveryRequest  DispatchFunc
	DiscoveryResponse DispatchFunc
}

func (b Builtins) withDefaults() Builtins {
	if b.NonHandle == nil {
		b.NonHandle = dispatchNonHandle
	}
	if b.LoopbackRequest == nil {
		b.LoopbackRequest = dispatchLoopbackRequest
	}
	if b.DiscoveryRequest == nil {
		b.DiscoveryRequest = dispatchDiscoveryRequest
	}
	if b.DiscoveryResponse == nil {
		b.DiscoveryResponse = dispatchDiscoveryResponse
	}
	return b
}
