package utils

import (
	"fmt"
	"net"
	"time"
)

const (
	udpRecvQSize      = 1024
	udpRecvBufferSize = 1024
	udpRecvTimeout    = 2 * time.Second
	udpSendQSize      = 1024
)

type UDPPacket struct {
	Data []byte
	Addr *net.UDPAddr
}

// UDPServer owns one datagram socket with a receive loop and a send
// loop. Received packets are delivered on the channel returned by
// GetRecvChannel; Send queues a packet for the send loop, so it is safe
// to call from any goroutine.
type UDPServer interface {
	GetRecvChannel() <-chan *UDPPacket
	Send(packet *UDPPacket)
	Addr() *net.UDPAddr
	Start() error
	Stop()
}

func NewUDPServer(ip net.IP, port int) UDPServer {
	return &udpServer{
		ip:    ip,
		port:  port,
		recvQ: make(chan *UDPPacket, udpRecvQSize),
		sendQ: make(chan *UDPPacket, udpSendQSize),
		lm:    NewLoop(2),
	}
}

type udpServer struct {
	ip    net.IP
	port  int
	conn  *net.UDPConn
	recvQ chan *UDPPacket
	sendQ chan *UDPPacket
	lm    *LoopMode
}

func (u *udpServer) GetRecvChannel() <-chan *UDPPacket {
	return u.recvQ
}

func (u *udpServer) Send(packet *UDPPacket) {
	select {
	case u.sendQ <- packet:
	default:
		logger.Warnln("udp server sendQ is full, drop packet")
	}
}

// Addr returns the bound address; useful when the server was started on
// port 0 and the kernel picked one. Returns nil before Start.
func (u *udpServer) Addr() *net.UDPAddr {
	if u.conn == nil {
		return nil
	}
	return u.conn.LocalAddr().(*net.UDPAddr)
}

func (u *udpServer) Start() error {
	udpAddr := &net.UDPAddr{
		IP:   u.ip,
		Port: u.port,
	}
	var err error

	if u.conn, err = net.ListenUDP("udp4", udpAddr); err != nil {
		return fmt.Errorf("bind udp %v failed:%v", udpAddr, err)
	}

	go u.recv()
	go u.send()
	u.lm.StartWorking()
	return nil
}

func (u *udpServer) Stop() {
	if u.lm.Stop() {
		u.conn.Close()
	}
}

func (u *udpServer) recv() {
	u.lm.Add()
	defer u.lm.Done()

	for {
		select {
		case <-u.lm.D:
			return
		default:
			packBuf := make([]byte, udpRecvBufferSize)
			u.conn.SetReadDeadline(time.Now().Add(udpRecvTimeout))
			n, addr, err := u.conn.ReadFromUDP(packBuf)

			if err != nil {
				if err, ok := err.(net.Error); ok && err.Timeout() {
					break
				}
				logger.Warn("udp server read err:%v\n", err)
				break
			}

			pkt := &UDPPacket{
				Data: packBuf[:n],
				Addr: addr,
			}

			select {
			case u.recvQ <- pkt:
			default:
				logger.Warnln("udp server recvQ is full, drop packet")
			}
		}
	}
}

func (u *udpServer) send() {
	u.lm.Add()
	defer u.lm.Done()

	for {
		select {
		case <-u.lm.D:
			return
		case packet := <-u.sendQ:
			_, err := u.conn.WriteToUDP(packet.Data, packet.Addr)
			if err != nil {
				logger.Warn("udp server send to %v failed:%v, size:%d\n",
					packet.Addr, err, len(packet.Data))
			}
		}
	}
}
