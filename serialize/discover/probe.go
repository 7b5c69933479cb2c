package discover

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/lancast/lancast/utils"
)

type Probe struct {
	DeviceID  [DeviceIDSize]byte
	Nonce     uint32
	Timestamp uint64
	MAC       [MACSize]byte // on the wire only for SignedRequest
}

func NewProbe(deviceID [DeviceIDSize]byte, nonce uint32, timestamp uint64) *Probe {
	return &Probe{
		DeviceID:  deviceID,
		Nonce:     nonce,
		Timestamp: timestamp,
	}
}

func (p *Probe) Marshal(v Variant) []byte {
	result := new(bytes.Buffer)
	binary.Write(result, binary.BigEndian, p.DeviceID)
	binary.Write(result, binary.BigEndian, p.Nonce)
	binary.Write(result, binary.BigEndian, p.Timestamp)
	if v == SignedRequest {
		binary.Write(result, binary.BigEndian, p.MAC)
	}
	return result.Bytes()
}

func UnmarshalProbe(v Variant, data []byte) (*Probe, error) {
	if len(data) != ProbeSize(v) {
		return nil, fmt.Errorf("probe length mismatch:expect %d, got %d",
			ProbeSize(v), len(data))
	}

	result := &Probe{}
	reader := bytes.NewReader(data)
	binary.Read(reader, binary.BigEndian, &result.DeviceID)
	binary.Read(reader, binary.BigEndian, &result.Nonce)
	binary.Read(reader, binary.BigEndian, &result.Timestamp)
	if v == SignedRequest {
		binary.Read(reader, binary.BigEndian, &result.MAC)
	}
	return result, nil
}

// SigningMaterial returns the bytes the SignedRequest MAC covers:
// DeviceID|Nonce|Timestamp.
func (p *Probe) SigningMaterial() []byte {
	return p.Marshal(SignedResponse)
}

func (p *Probe) String() string {
	return fmt.Sprintf("DeviceID %X Nonce %08X Time %s",
		p.DeviceID, p.Nonce, utils.TimeToString(int64(p.Timestamp)))
}
