package discover

// Variant selects which of the two incompatible wire layouts is spoken.
// Both carry the same logical fields; they differ in which direction the
// MAC travels and in how the reply is laid out.
type Variant = uint8

const (
	// SignedResponse is the canonical layout. The probe is a bare
	// 28-byte frame; the 66-byte reply carries the MAC, so the client
	// authenticates the responder.
	SignedResponse = Variant(1)

	// SignedRequest is the compatibility layout. The 60-byte probe
	// carries the MAC, so the responder authenticates the client; the
	// 38-byte reply is bare.
	SignedRequest = Variant(2)
)

/*
Probe (SignedResponse)
+----------+-------+-----------+
| DeviceID | Nonce | Timestamp |
+----------+-------+-----------+
(bytes)
DeviceID    16
Nonce       4
Timestamp   8


Probe (SignedRequest)
+----------+-------+-----------+-----+
| DeviceID | Nonce | Timestamp | MAC |
+----------+-------+-----------+-----+
(bytes)
MAC         32, covers DeviceID|Nonce|Timestamp


Reply (SignedResponse)
+----------------+----------+--------+-----+
| (echoed Probe) | ServerIP | WSPort | MAC |
+----------------+----------+--------+-----+
(bytes)
echoed Probe    28
ServerIP        4, IPv4 octets
WSPort          2
MAC             32, covers echoed Probe|ServerIP|WSPort


Reply (SignedRequest)
+----------------+---------+--------+----------+
| (echoed Probe) | MACEcho | WSPort | ServerIP |
+----------------+---------+--------+----------+
(bytes)
echoed Probe    28, the probe without its MAC
MACEcho         4, the first bytes of the probe MAC
WSPort          2
ServerIP        4, IPv4 octets

All integers are unsigned big-endian. Timestamp is seconds since the
Unix epoch. DeviceID and Nonce are opaque to the responder and echoed
verbatim. A datagram whose length is not exactly the variant's frame
size is rejected before any field is read.
*/

const (
	DeviceIDSize  = 16
	NonceSize     = 4
	TimestampSize = 8
	MACSize       = 32
	MACEchoSize   = 4
	ipSize        = 4
	portSize      = 2

	probeCoreSize = DeviceIDSize + NonceSize + TimestampSize
)

// ProbeSize returns the exact probe frame size of the variant.
func ProbeSize(v Variant) int {
	if v == SignedRequest {
		return probeCoreSize + MACSize
	}
	return probeCoreSize
}

// ReplySize returns the exact reply frame size of the variant.
func ReplySize(v Variant) int {
	if v == SignedRequest {
		return probeCoreSize + MACEchoSize + portSize + ipSize
	}
	return probeCoreSize + ipSize + portSize + MACSize
}

// VariantOfProbe maps a datagram length to the variant that speaks it.
// The two probe sizes are distinct, so the mapping is unambiguous.
func VariantOfProbe(length int) (Variant, bool) {
	switch length {
	case probeCoreSize:
		return SignedResponse, true
	case probeCoreSize + MACSize:
		return SignedRequest, true
	}
	return 0, false
}
