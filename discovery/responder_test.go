package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/lancast/lancast/auth"
	"github.com/lancast/lancast/serialize/discover"
	"github.com/lancast/lancast/utils"
)

var (
	testSecret   = []byte("test-secret-key-32chars-minimum!")
	testDeviceID = [discover.DeviceIDSize]byte{}
	testWSPort   = uint16(9002)
	loopbackIP   = net.IPv4(127, 0, 0, 1)
)

func startTestResponder(t *testing.T, variant discover.Variant, nonceGuard bool) *Responder {
	r := NewResponder(&ResponderConfig{
		Port:       0,
		WSPort:     testWSPort,
		Secret:     testSecret,
		Variant:    variant,
		ServerIP:   loopbackIP,
		NonceGuard: nonceGuard,
	})
	if err := r.Start(); err != nil {
		t.Fatalf("start responder failed:%v\n", err)
	}
	return r
}

func testClient(r *Responder, variant discover.Variant) *Client {
	return NewClient(&ClientConfig{
		Port:    r.Addr().Port,
		Secret:  testSecret,
		Variant: variant,
		Timeout: 2 * time.Second,
		Target:  loopbackIP,
	})
}

// sendRaw fires arbitrary bytes at the responder and reports whether
// any reply came back before the deadline.
func sendRaw(t *testing.T, r *Responder, data []byte, wait time.Duration) ([]byte, bool) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: loopbackIP, Port: 0})
	if err != nil {
		t.Fatalf("open test socket failed:%v\n", err)
	}
	defer conn.Close()

	target := &net.UDPAddr{IP: loopbackIP, Port: r.Addr().Port}
	if _, err := conn.WriteToUDP(data, target); err != nil {
		t.Fatalf("send failed:%v\n", err)
	}

	conn.SetReadDeadline(time.Now().Add(wait))
	buf := make([]byte, 1024)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		return nil, false
	}
	return buf[:n], true
}

func TestDiscoverSignedResponse(t *testing.T) {
	r := startTestResponder(t, discover.SignedResponse, false)
	defer r.Stop()

	endpoint, err := testClient(r, discover.SignedResponse).Discover()
	if err != nil {
		t.Fatalf("discover failed:%v\n", err)
	}
	if err := utils.TCheckIP("endpoint ip", loopbackIP, endpoint.IP); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckUint16("endpoint port", testWSPort, endpoint.WSPort); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverSignedRequest(t *testing.T) {
	r := startTestResponder(t, discover.SignedRequest, false)
	defer r.Stop()

	endpoint, err := testClient(r, discover.SignedRequest).Discover()
	if err != nil {
		t.Fatalf("discover failed:%v\n", err)
	}
	if err := utils.TCheckIP("endpoint ip", loopbackIP, endpoint.IP); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckUint16("endpoint port", testWSPort, endpoint.WSPort); err != nil {
		t.Fatal(err)
	}
}

func TestAutoVariantServesBoth(t *testing.T) {
	r := startTestResponder(t, AnyVariant, false)
	defer r.Stop()

	for _, v := range []discover.Variant{discover.SignedResponse, discover.SignedRequest} {
		endpoint, err := testClient(r, v).Discover()
		if err != nil {
			t.Fatalf("discover with variant %d failed:%v\n", v, err)
		}
		if err := utils.TCheckUint16("endpoint port", testWSPort, endpoint.WSPort); err != nil {
			t.Fatal(err)
		}
	}
}

// The concrete interop scenario: an all-zero device id, nonce
// 0x01020304 and a current timestamp must produce a 66-byte reply whose
// embedded address matches the advertised endpoint and whose MAC
// verifies under the shared secret.
func TestResponderWireScenario(t *testing.T) {
	r := startTestResponder(t, discover.SignedResponse, false)
	defer r.Stop()

	probe := discover.NewProbe(testDeviceID, 0x01020304, uint64(time.Now().Unix()))
	data, ok := sendRaw(t, r, probe.Marshal(discover.SignedResponse), 2*time.Second)
	if !ok {
		t.Fatalf("no reply to a valid probe\n")
	}
	if err := utils.TCheckInt("reply size", discover.ReplySize(discover.SignedResponse), len(data)); err != nil {
		t.Fatal(err)
	}

	reply, err := discover.UnmarshalReply(discover.SignedResponse, data)
	if err != nil {
		t.Fatalf("unmarshal reply failed:%v\n", err)
	}
	if !reply.Echoes(discover.SignedResponse, probe) {
		t.Fatalf("reply does not echo the probe\n")
	}
	if err := utils.TCheckIP("server ip", loopbackIP, reply.ServerIP); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckUint16("ws port", testWSPort, reply.WSPort); err != nil {
		t.Fatal(err)
	}
	if !auth.Verify(reply.SigningMaterial(), testSecret, reply.MAC[:]) {
		t.Fatalf("reply MAC does not verify\n")
	}
}

func TestResponderDropsBadLength(t *testing.T) {
	r := startTestResponder(t, AnyVariant, false)
	defer r.Stop()

	for _, n := range []int{1, 27, 29, 40, 61, 512} {
		if _, ok := sendRaw(t, r, make([]byte, n), 300*time.Millisecond); ok {
			t.Fatalf("a %d byte frame should draw no reply\n", n)
		}
	}

	stats := r.Stats()
	if err := utils.TCheckUint64("bad frames", 6, stats.BadFrame); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckUint64("answered", 0, stats.Answered); err != nil {
		t.Fatal(err)
	}
}

func TestResponderDropsStale(t *testing.T) {
	r := startTestResponder(t, discover.SignedResponse, false)
	defer r.Stop()

	probe := discover.NewProbe(testDeviceID, 0x01020304, uint64(time.Now().Unix()-31))
	if _, ok := sendRaw(t, r, probe.Marshal(discover.SignedResponse), 300*time.Millisecond); ok {
		t.Fatalf("a stale probe should draw no reply\n")
	}

	future := discover.NewProbe(testDeviceID, 0x01020304, uint64(time.Now().Unix()+31))
	if _, ok := sendRaw(t, r, future.Marshal(discover.SignedResponse), 300*time.Millisecond); ok {
		t.Fatalf("a future probe should draw no reply\n")
	}

	if err := utils.TCheckUint64("stale", 2, r.Stats().Stale); err != nil {
		t.Fatal(err)
	}
}

func TestResponderDropsBadMAC(t *testing.T) {
	r := startTestResponder(t, discover.SignedRequest, false)
	defer r.Stop()

	probe := discover.NewProbe(testDeviceID, 0x01020304, uint64(time.Now().Unix()))
	copy(probe.MAC[:], auth.Sign(probe.SigningMaterial(), []byte("the-wrong-secret")))

	if _, ok := sendRaw(t, r, probe.Marshal(discover.SignedRequest), 300*time.Millisecond); ok {
		t.Fatalf("a probe signed with the wrong secret should draw no reply\n")
	}
	if err := utils.TCheckUint64("bad mac", 1, r.Stats().BadMAC); err != nil {
		t.Fatal(err)
	}
}

// Without the nonce guard an identical replayed packet inside the
// window is answered again; that is the documented protocol behaviour,
// not a defect. With the guard enabled the replay is refused.
func TestResponderReplayPolicy(t *testing.T) {
	probe := discover.NewProbe(testDeviceID, 0x0A0B0C0D, uint64(time.Now().Unix()))
	raw := probe.Marshal(discover.SignedResponse)

	plain := startTestResponder(t, discover.SignedResponse, false)
	if _, ok := sendRaw(t, plain, raw, 2*time.Second); !ok {
		t.Fatalf("first probe should be answered\n")
	}
	if _, ok := sendRaw(t, plain, raw, 2*time.Second); !ok {
		t.Fatalf("replay should be answered when the guard is off\n")
	}
	plain.Stop()

	guarded := startTestResponder(t, discover.SignedResponse, true)
	defer guarded.Stop()
	if _, ok := sendRaw(t, guarded, raw, 2*time.Second); !ok {
		t.Fatalf("first probe should be answered\n")
	}
	if _, ok := sendRaw(t, guarded, raw, 300*time.Millisecond); ok {
		t.Fatalf("replay should be refused when the guard is on\n")
	}
	if err := utils.TCheckUint64("replayed", 1, guarded.Stats().Replayed); err != nil {
		t.Fatal(err)
	}
}

func TestConcurrentProbes(t *testing.T) {
	r := startTestResponder(t, discover.SignedResponse, false)
	defer r.Stop()

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			endpoint, err := testClient(r, discover.SignedResponse).Discover()
			if err == nil && endpoint.WSPort != testWSPort {
				err = utils.TCheckUint16("endpoint port", testWSPort, endpoint.WSPort)
			}
			results <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			t.Fatalf("concurrent discover failed:%v\n", err)
		}
	}
}

func TestResponderStop(t *testing.T) {
	r := startTestResponder(t, discover.SignedResponse, false)
	r.Stop()

	// a second Stop must be harmless
	r.Stop()
}
