package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"net/http"
	_ "net/http/pprof"

	"github.com/lancast/lancast/discovery"
	"github.com/lancast/lancast/utils"
)

func main() {
	// load the config file
	cf := flag.String("c", "", "config file")
	pprofPort := flag.Int("pprof", 0, "pprof port, used by developers")
	flag.Parse()

	conf, err := parseConfig(*cf)
	if err != nil {
		log.Fatal(err)
	}
	utils.SetLogLevel(conf.LogLevel)
	logger := utils.NewLogger("discoverd")

	// load the shared secret
	sec, err := loadSecret(&conf.Secret)
	if err != nil {
		logger.Fatal("load secret failed:%v\n", err)
	}

	variant, err := parseFormat(conf.Format)
	if err != nil {
		logger.Fatalln(err)
	}

	var advertiseIP net.IP
	if len(conf.AdvertiseIP) != 0 {
		advertiseIP = net.ParseIP(conf.AdvertiseIP)
	}

	// discovery responder
	responder := discovery.NewResponder(&discovery.ResponderConfig{
		Port:       conf.Port,
		WSPort:     uint16(conf.WSPort),
		Secret:     sec,
		Variant:    variant,
		Window:     time.Duration(conf.ReplayWindow) * time.Second,
		Interface:  conf.Interface,
		ServerIP:   advertiseIP,
		NonceGuard: conf.NonceGuard,
	})
	if err := responder.Start(); err != nil {
		logger.Fatal("start responder failed:%v\n", err)
	}

	//pprof
	if *pprofPort != 0 {
		go func() {
			pprofAddress := fmt.Sprintf("localhost:%d", *pprofPort)
			log.Println(http.ListenAndServe(pprofAddress, nil))
		}()
	}

	// waiting gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, os.Interrupt)
	signal.Notify(sc, syscall.SIGTERM)
	<-sc
	logger.Infoln("Quiting......")
	responder.Stop()

	stats := responder.Stats()
	logger.Info("received %d probes: answered %d, bad frame %d, stale %d, bad MAC %d, replayed %d\n",
		stats.Received, stats.Answered, stats.BadFrame, stats.Stale, stats.BadMAC, stats.Replayed)
	logger.Infoln("Bye!")
}
