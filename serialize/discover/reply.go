package discover

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
)

type Reply struct {
	DeviceID  [DeviceIDSize]byte
	Nonce     uint32
	Timestamp uint64
	MACEcho   [MACEchoSize]byte // SignedRequest only: leading probe MAC bytes bounced back
	ServerIP  net.IP
	WSPort    uint16
	MAC       [MACSize]byte // SignedResponse only
}

// NewReply builds the reply for a validated probe. The MAC field of a
// SignedResponse reply stays zero until the caller signs it.
func NewReply(v Variant, p *Probe, serverIP net.IP, wsPort uint16) *Reply {
	result := &Reply{
		DeviceID:  p.DeviceID,
		Nonce:     p.Nonce,
		Timestamp: p.Timestamp,
		ServerIP:  serverIP.To4(),
		WSPort:    wsPort,
	}
	if v == SignedRequest {
		copy(result.MACEcho[:], p.MAC[:MACEchoSize])
	}
	return result
}

func (r *Reply) Marshal(v Variant) []byte {
	result := new(bytes.Buffer)
	binary.Write(result, binary.BigEndian, r.DeviceID)
	binary.Write(result, binary.BigEndian, r.Nonce)
	binary.Write(result, binary.BigEndian, r.Timestamp)

	if v == SignedRequest {
		binary.Write(result, binary.BigEndian, r.MACEcho)
		binary.Write(result, binary.BigEndian, r.WSPort)
		binary.Write(result, binary.BigEndian, []byte(r.ServerIP.To4()))
		return result.Bytes()
	}

	binary.Write(result, binary.BigEndian, []byte(r.ServerIP.To4()))
	binary.Write(result, binary.BigEndian, r.WSPort)
	binary.Write(result, binary.BigEndian, r.MAC)
	return result.Bytes()
}

func UnmarshalReply(v Variant, data []byte) (*Reply, error) {
	if len(data) != ReplySize(v) {
		return nil, fmt.Errorf("reply length mismatch:expect %d, got %d",
			ReplySize(v), len(data))
	}

	result := &Reply{}
	reader := bytes.NewReader(data)
	binary.Read(reader, binary.BigEndian, &result.DeviceID)
	binary.Read(reader, binary.BigEndian, &result.Nonce)
	binary.Read(reader, binary.BigEndian, &result.Timestamp)

	var ipBuf [ipSize]byte
	if v == SignedRequest {
		binary.Read(reader, binary.BigEndian, &result.MACEcho)
		binary.Read(reader, binary.BigEndian, &result.WSPort)
		binary.Read(reader, binary.BigEndian, &ipBuf)
		result.ServerIP = net.IPv4(ipBuf[0], ipBuf[1], ipBuf[2], ipBuf[3]).To4()
		return result, nil
	}

	binary.Read(reader, binary.BigEndian, &ipBuf)
	result.ServerIP = net.IPv4(ipBuf[0], ipBuf[1], ipBuf[2], ipBuf[3]).To4()
	binary.Read(reader, binary.BigEndian, &result.WSPort)
	binary.Read(reader, binary.BigEndian, &result.MAC)
	return result, nil
}

// SigningMaterial returns the bytes the SignedResponse MAC covers:
// the echoed probe followed by ServerIP|WSPort.
func (r *Reply) SigningMaterial() []byte {
	result := new(bytes.Buffer)
	binary.Write(result, binary.BigEndian, r.DeviceID)
	binary.Write(result, binary.BigEndian, r.Nonce)
	binary.Write(result, binary.BigEndian, r.Timestamp)
	binary.Write(result, binary.BigEndian, []byte(r.ServerIP.To4()))
	binary.Write(result, binary.BigEndian, r.WSPort)
	return result.Bytes()
}

// Echoes reports whether the reply bounces back the given probe's
// identifying fields; replies to someone else's probe do not match.
func (r *Reply) Echoes(v Variant, p *Probe) bool {
	if r.DeviceID != p.DeviceID || r.Nonce != p.Nonce || r.Timestamp != p.Timestamp {
		return false
	}
	if v == SignedRequest && !bytes.Equal(r.MACEcho[:], p.MAC[:MACEchoSize]) {
		return false
	}
	return true
}

func (r *Reply) String() string {
	return fmt.Sprintf("Nonce %08X Server %v:%d", r.Nonce, r.ServerIP, r.WSPort)
}
