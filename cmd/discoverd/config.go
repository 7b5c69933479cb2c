package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net"

	"github.com/lancast/lancast/discovery"
	"github.com/lancast/lancast/params"
	"github.com/lancast/lancast/secret"
	"github.com/lancast/lancast/serialize/discover"
	"github.com/lancast/lancast/utils"
)

const (
	formatSignedResponse = "signed-response"
	formatSignedRequest  = "signed-request"
	formatAuto           = "auto"
)

type config struct {
	Port         int          `json:"port"`
	WSPort       int          `json:"ws_port"`
	Format       string       `json:"format"`
	Interface    string       `json:"interface"`
	AdvertiseIP  string       `json:"advertise_ip"`
	ReplayWindow int          `json:"replay_window"` // seconds; 0 uses the default
	NonceGuard   bool         `json:"nonce_guard"`
	LogLevel     int          `json:"log_level"`
	Secret       secretConfig `json:"secret"`
}

type secretConfig struct {
	Value string `json:"value"` // inline secret, development use only
	Type  int    `json:"type"`  // secret.PlainType or secret.SealedType
	Path  string `json:"path"`
}

func parseConfig(cf string) (*config, error) {
	if len(cf) == 0 {
		return nil, fmt.Errorf("miss config file")
	}

	if err := utils.AccessCheck(cf); err != nil {
		return nil, err
	}

	jsonContent, err := ioutil.ReadFile(cf)
	if err != nil {
		return nil, fmt.Errorf("read config file failed:%v", err)
	}

	conf := &config{}
	if err := json.Unmarshal(jsonContent, &conf); err != nil {
		return nil, fmt.Errorf("config parse failed:%v", err)
	}

	if conf.Port == 0 {
		conf.Port = params.DefaultDiscoveryPort
	}
	if conf.WSPort == 0 {
		conf.WSPort = params.DefaultWSPort
	}
	if len(conf.Format) == 0 {
		conf.Format = formatSignedResponse
	}

	if err := verifyConfig(conf); err != nil {
		return nil, err
	}

	return conf, nil
}

func verifyConfig(c *config) error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port:%d", c.Port)
	}

	if c.WSPort <= 0 || c.WSPort > 65535 {
		return fmt.Errorf("invalid ws port:%d", c.WSPort)
	}

	if _, err := parseFormat(c.Format); err != nil {
		return err
	}

	if c.ReplayWindow < 0 {
		return fmt.Errorf("invalid replay window:%d", c.ReplayWindow)
	}

	if c.LogLevel < utils.LogErrorLevel || c.LogLevel > utils.LogDebugLevel {
		return fmt.Errorf("invalid log level:%d", c.LogLevel)
	}

	if len(c.AdvertiseIP) != 0 {
		if ip := net.ParseIP(c.AdvertiseIP); ip == nil || ip.To4() == nil {
			return fmt.Errorf("invalid IPv4:%s", c.AdvertiseIP)
		}
	}

	if len(c.Secret.Value) == 0 && len(c.Secret.Path) == 0 {
		return fmt.Errorf("miss secret")
	}
	if len(c.Secret.Value) != 0 && len(c.Secret.Path) != 0 {
		return fmt.Errorf("secret value and secret path are exclusive")
	}
	if len(c.Secret.Path) != 0 {
		if c.Secret.Type != secret.PlainType && c.Secret.Type != secret.SealedType {
			return fmt.Errorf("invalid secret type:%d", c.Secret.Type)
		}
		if err := utils.AccessCheck(c.Secret.Path); err != nil {
			return err
		}
	}

	return nil
}

func parseFormat(format string) (discover.Variant, error) {
	switch format {
	case formatSignedResponse:
		return discover.SignedResponse, nil
	case formatSignedRequest:
		return discover.SignedRequest, nil
	case formatAuto:
		return discovery.AnyVariant, nil
	}
	return 0, fmt.Errorf("invalid format:%s", format)
}

func loadSecret(c *secretConfig) ([]byte, error) {
	if len(c.Value) != 0 {
		return []byte(c.Value), nil
	}

	if c.Type == secret.SealedType {
		return secret.RestoreSealed(c.Path)
	}
	return secret.RestorePlain(c.Path)
}
