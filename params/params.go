package params

import "time"

const (
	// DefaultDiscoveryPort is the UDP port the responder listens on.
	// Some deployments run on 5353 instead; both sides must agree, so
	// the port is always configurable and never assumed.
	DefaultDiscoveryPort = 5354

	// DefaultWSPort is the service port advertised in responses when
	// the configuration does not say otherwise.
	DefaultWSPort = 8080

	// ReplayWindow is the tolerated distance, in either direction,
	// between a probe's embedded timestamp and the validator's clock.
	ReplayWindow = 30 * time.Second

	// DefaultClientTimeout bounds how long a client waits for a reply
	// to a single broadcast probe.
	DefaultClientTimeout = 3 * time.Second

	// MinSecretLen is the recommended minimum length of the shared
	// secret in bytes. Shorter secrets still interoperate but the
	// daemon warns about them.
	MinSecretLen = 32
)
