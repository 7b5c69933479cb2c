package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/lancast/lancast/discovery"
	"github.com/lancast/lancast/params"
	"github.com/lancast/lancast/secret"
	"github.com/lancast/lancast/serialize/discover"
	"github.com/lancast/lancast/utils"
)

func main() {
	port := flag.Int("port", params.DefaultDiscoveryPort, "discovery UDP port")
	sec := flag.String("secret", "", "shared secret")
	secretPath := flag.String("secret-path", "", "directory holding a secret file")
	sealed := flag.Bool("sealed", false, "the secret file is sealed")
	format := flag.String("format", "signed-response",
		"wire format: signed-response or signed-request")
	timeout := flag.Duration("timeout", params.DefaultClientTimeout, "per-probe timeout")
	retries := flag.Int("retries", 0, "additional probes after a timeout")
	target := flag.String("target", "", "probe this IPv4 address instead of broadcasting")
	logLevel := flag.Int("log-level", utils.LogWarnLevel, "log level")
	flag.Parse()

	utils.SetLogLevel(*logLevel)

	secretBytes, err := resolveSecret(*sec, *secretPath, *sealed)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	variant, err := resolveFormat(*format)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	var targetIP net.IP
	if len(*target) != 0 {
		if targetIP = net.ParseIP(*target); targetIP == nil || targetIP.To4() == nil {
			fmt.Printf("invalid IPv4:%s\n", *target)
			os.Exit(1)
		}
	}

	client := discovery.NewClient(&discovery.ClientConfig{
		Port:    *port,
		Secret:  secretBytes,
		Variant: variant,
		Timeout: *timeout,
		Target:  targetIP,
	})

	endpoint, err := discoverWithRetries(client, *retries)
	if err != nil {
		fmt.Printf("discovery failed:%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("ws://%v:%d\n", endpoint.IP, endpoint.WSPort)
}

func resolveSecret(inline string, path string, sealed bool) ([]byte, error) {
	if len(inline) != 0 && len(path) != 0 {
		return nil, fmt.Errorf("-secret and -secret-path are exclusive")
	}
	if len(inline) != 0 {
		return []byte(inline), nil
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("miss secret, use -secret or -secret-path")
	}
	if sealed {
		return secret.RestoreSealed(path)
	}
	return secret.RestorePlain(path)
}

func resolveFormat(format string) (discover.Variant, error) {
	switch format {
	case "signed-response":
		return discover.SignedResponse, nil
	case "signed-request":
		return discover.SignedRequest, nil
	}
	return 0, fmt.Errorf("invalid format:%s", format)
}

// the protocol itself never retries; re-probing is a caller decision
// and this CLI is the caller
func discoverWithRetries(client *discovery.Client, retries int) (*discovery.Endpoint, error) {
	for {
		endpoint, err := client.Discover()
		if err != discovery.ErrTimeout || retries <= 0 {
			return endpoint, err
		}
		retries--
		time.Sleep(200 * time.Millisecond)
	}
}
