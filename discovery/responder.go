package discovery

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/lancast/lancast/auth"
	"github.com/lancast/lancast/netinfo"
	"github.com/lancast/lancast/params"
	"github.com/lancast/lancast/serialize/discover"
	"github.com/lancast/lancast/utils"
)

var logger = utils.NewLogger("discovery")

// AnyVariant makes the responder serve both wire layouts, telling them
// apart by probe length.
const AnyVariant = discover.Variant(0)

type ResponderConfig struct {
	Port       int              // UDP port to listen on
	WSPort     uint16           // service port advertised in replies
	Secret     []byte           // shared HMAC key
	Variant    discover.Variant // SignedResponse, SignedRequest or AnyVariant
	Window     time.Duration    // replay window; 0 means params.ReplayWindow
	Interface  string           // pin address selection to this interface; empty for first match
	ServerIP   net.IP           // advertise this address instead of resolving one
	NonceGuard bool             // refuse exact replays inside the window
}

// ResponderStats is a snapshot of per-datagram outcome counters.
type ResponderStats struct {
	Received uint64
	Answered uint64
	BadFrame uint64
	Stale    uint64
	BadMAC   uint64
	Replayed uint64
}

// Responder listens for discovery probes and answers each valid one
// with a unicast reply carrying the advertised service endpoint.
// Validation failures are dropped without any reply; the network never
// learns why a probe was refused.
type Responder struct {
	wsPort   uint16
	secret   []byte
	variant  discover.Variant
	window   time.Duration
	iface    string
	serverIP net.IP

	udp   utils.UDPServer
	guard *nonceCache

	received uint64
	answered uint64
	badFrame uint64
	stale    uint64
	badMAC   uint64
	replayed uint64

	lm *utils.LoopMode
}

func NewResponder(cfg *ResponderConfig) *Responder {
	window := cfg.Window
	if window == 0 {
		window = params.ReplayWindow
	}

	r := &Responder{
		wsPort:   cfg.WSPort,
		secret:   cfg.Secret,
		variant:  cfg.Variant,
		window:   window,
		iface:    cfg.Interface,
		serverIP: cfg.ServerIP,
		udp:      utils.NewUDPServer(net.IPv4zero, cfg.Port),
		lm:       utils.NewLoop(1),
	}
	if cfg.NonceGuard {
		r.guard = newNonceCache(window)
	}
	return r
}

// Start resolves the advertised address, binds the socket and launches
// the receive loop. Both failures are fatal for the instance; the
// responder never starts half-way.
func (r *Responder) Start() error {
	if err := auth.CheckSecret(r.secret); err != nil {
		return err
	}
	if auth.Weak(r.secret) {
		logger.Warn("shared secret is shorter than %d bytes\n", params.MinSecretLen)
	}

	if r.serverIP == nil {
		ip, err := netinfo.LocalIPv4(r.iface)
		if err != nil {
			return fmt.Errorf("resolve local address failed:%v", err)
		}
		r.serverIP = ip
	}
	r.serverIP = r.serverIP.To4()
	if r.serverIP == nil {
		return fmt.Errorf("advertised address is not IPv4")
	}

	if err := r.udp.Start(); err != nil {
		return err
	}

	go r.loop()
	r.lm.StartWorking()
	logger.Info("responder listening on UDP/%d, advertising %v:%d\n",
		r.udp.Addr().Port, r.serverIP, r.wsPort)
	return nil
}

func (r *Responder) Stop() {
	if r.lm.Stop() {
		r.udp.Stop()
	}
}

// Addr returns the bound UDP address, or nil before Start.
func (r *Responder) Addr() *net.UDPAddr {
	return r.udp.Addr()
}

func (r *Responder) Stats() ResponderStats {
	return ResponderStats{
		Received: atomic.LoadUint64(&r.received),
		Answered: atomic.LoadUint64(&r.answered),
		BadFrame: atomic.LoadUint64(&r.badFrame),
		Stale:    atomic.LoadUint64(&r.stale),
		BadMAC:   atomic.LoadUint64(&r.badMAC),
		Replayed: atomic.LoadUint64(&r.replayed),
	}
}

func (r *Responder) loop() {
	r.lm.Add()
	defer r.lm.Done()

	recvQ := r.udp.GetRecvChannel()
	for {
		select {
		case <-r.lm.D:
			return
		case pkt := <-recvQ:
			r.handle(pkt)
		}
	}
}

func (r *Responder) handle(pkt *utils.UDPPacket) {
	atomic.AddUint64(&r.received, 1)

	v := r.variant
	if v == AnyVariant {
		var ok bool
		if v, ok = discover.VariantOfProbe(len(pkt.Data)); !ok {
			atomic.AddUint64(&r.badFrame, 1)
			logger.Debug("drop %d byte frame from %v\n", len(pkt.Data), pkt.Addr)
			return
		}
	}

	probe, err := discover.UnmarshalProbe(v, pkt.Data)
	if err != nil {
		atomic.AddUint64(&r.badFrame, 1)
		logger.Debug("drop frame from %v:%v\n", pkt.Addr, err)
		return
	}

	if !Fresh(probe.Timestamp, time.Now(), r.window) {
		atomic.AddUint64(&r.stale, 1)
		logger.Debug("drop probe outside replay window from %v:%v\n", pkt.Addr, probe)
		return
	}

	if v == discover.SignedRequest &&
		!auth.Verify(probe.SigningMaterial(), r.secret, probe.MAC[:]) {
		atomic.AddUint64(&r.badMAC, 1)
		logger.Debug("drop probe with bad MAC from %v\n", pkt.Addr)
		return
	}

	if r.guard != nil && r.guard.hit(probe, time.Now()) {
		atomic.AddUint64(&r.replayed, 1)
		logger.Debug("drop replayed probe from %v:%v\n", pkt.Addr, probe)
		return
	}

	reply := discover.NewReply(v, probe, r.serverIP, r.wsPort)
	if v == discover.SignedResponse {
		copy(reply.MAC[:], auth.Sign(reply.SigningMaterial(), r.secret))
	}

	// always unicast back to the observed sender, never a broadcast
	r.udp.Send(&utils.UDPPacket{
		Data: reply.Marshal(v),
		Addr: pkt.Addr,
	})
	atomic.AddUint64(&r.answered, 1)
	logger.Info("answered probe from %v:%v\n", pkt.Addr, probe)
}
