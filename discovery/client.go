package discovery

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/lancast/lancast/auth"
	"github.com/lancast/lancast/params"
	"github.com/lancast/lancast/serialize/discover"
)

// ErrTimeout means no valid reply arrived within the configured
// timeout. It is an expected outcome; callers decide whether to probe
// again.
var ErrTimeout = errors.New("discovery timed out")

type ClientConfig struct {
	Port     int                         // UDP port the responder listens on
	Secret   []byte                      // shared HMAC key
	Variant  discover.Variant            // 0 means SignedResponse
	Timeout  time.Duration               // 0 means params.DefaultClientTimeout
	DeviceID [discover.DeviceIDSize]byte // zero value means a fresh uuid per probe
	Target   net.IP                      // probe destination; nil means 255.255.255.255
}

// Endpoint is the discovered service location.
type Endpoint struct {
	IP     net.IP
	WSPort uint16
}

func (e *Endpoint) String() string {
	return fmt.Sprintf("%v:%d", e.IP, e.WSPort)
}

// Client finds the service by broadcasting one signed probe and waiting
// for a reply that echoes it. Each Discover call uses its own ephemeral
// socket and pending probe; the client keeps no state between calls and
// never retries on its own.
type Client struct {
	port     int
	secret   []byte
	variant  discover.Variant
	timeout  time.Duration
	deviceID [discover.DeviceIDSize]byte
	target   net.IP
}

func NewClient(cfg *ClientConfig) *Client {
	c := &Client{
		port:     cfg.Port,
		secret:   cfg.Secret,
		variant:  cfg.Variant,
		timeout:  cfg.Timeout,
		deviceID: cfg.DeviceID,
		target:   cfg.Target,
	}
	if c.variant == AnyVariant {
		c.variant = discover.SignedResponse
	}
	if c.timeout == 0 {
		c.timeout = params.DefaultClientTimeout
	}
	if c.target == nil {
		c.target = net.IPv4bcast
	}
	return c
}

func (c *Client) Discover() (*Endpoint, error) {
	conn, err := openBroadcastSocket()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	probe, err := c.newProbe()
	if err != nil {
		return nil, err
	}

	target := &net.UDPAddr{IP: c.target, Port: c.port}
	if _, err := conn.WriteToUDP(probe.Marshal(c.variant), target); err != nil {
		return nil, fmt.Errorf("send probe to %v failed:%v", target, err)
	}
	logger.Debug("sent probe to %v:%v\n", target, probe)

	deadline := time.Now().Add(c.timeout)
	buf := make([]byte, 1024)
	for {
		conn.SetReadDeadline(deadline)
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
				return nil, ErrTimeout
			}
			return nil, fmt.Errorf("receive reply failed:%v", err)
		}

		reply, err := discover.UnmarshalReply(c.variant, buf[:n])
		if err != nil {
			logger.Debug("ignore frame from %v:%v\n", from, err)
			continue
		}
		if !reply.Echoes(c.variant, probe) {
			// a reply to someone else's probe on the same segment
			logger.Debug("ignore reply for another probe from %v\n", from)
			continue
		}
		if c.variant == discover.SignedResponse &&
			!auth.Verify(reply.SigningMaterial(), c.secret, reply.MAC[:]) {
			logger.Warn("ignore reply with bad MAC from %v\n", from)
			continue
		}

		logger.Info("discovered service at %v\n", reply)
		return &Endpoint{IP: reply.ServerIP, WSPort: reply.WSPort}, nil
	}
}

func (c *Client) newProbe() (*discover.Probe, error) {
	deviceID := c.deviceID
	if deviceID == ([discover.DeviceIDSize]byte{}) {
		deviceID = [discover.DeviceIDSize]byte(uuid.New())
	}

	var nonceBuf [discover.NonceSize]byte
	if _, err := rand.Read(nonceBuf[:]); err != nil {
		return nil, fmt.Errorf("generate nonce failed:%v", err)
	}

	probe := discover.NewProbe(deviceID,
		binary.BigEndian.Uint32(nonceBuf[:]), uint64(time.Now().Unix()))
	if c.variant == discover.SignedRequest {
		copy(probe.MAC[:], auth.Sign(probe.SigningMaterial(), c.secret))
	}
	return probe, nil
}

// openBroadcastSocket binds an ephemeral IPv4 socket with SO_BROADCAST
// set, so probes may go to the limited broadcast address.
func openBroadcastSocket() (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("open udp socket failed:%v", err)
	}

	raw, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("access raw socket failed:%v", err)
	}

	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
	})
	if err == nil {
		err = sockErr
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable broadcast failed:%v", err)
	}

	return conn, nil
}
