package secret

/*
Loading and storing of the shared discovery secret. The secret is
symmetric and pre-provisioned: this package never invents trust, it only
moves the configured value between its on-disk forms. Two forms exist,
a plain hex file and a sealed file where the secret is encrypted under a
passphrase-derived key (see sealed.go).
*/

import (
	"crypto/rand"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/lancast/lancast/utils"
)

const (
	// PlainType and SealedType tag the storage form in configurations.
	PlainType  = 1
	SealedType = 2

	PlainFile  = ".pSecret"
	SealedFile = ".sSecret"

	generatedLen = 32
)

// NewPlain generates a random secret and saves it hex encoded
func NewPlain(path string) ([]byte, error) {
	keyFile := path + "/" + PlainFile
	if err := checkBeforeNew(path, keyFile); err != nil {
		return nil, err
	}

	sec, err := generate()
	if err != nil {
		return nil, err
	}

	if err := saveOnDisk([]byte(utils.ToHex(sec)), keyFile); err != nil {
		return nil, err
	}
	return sec, nil
}

// RestorePlain reads a plain secret file back
func RestorePlain(path string) ([]byte, error) {
	keyFile := path + "/" + PlainFile
	content, err := readSecretFile(keyFile)
	if err != nil {
		return nil, err
	}

	sec, err := utils.FromHex(strings.TrimSpace(string(content)))
	if err != nil {
		return nil, fmt.Errorf("parse secret file failed:%v", err)
	}
	if len(sec) == 0 {
		return nil, fmt.Errorf("secret file %s is empty", keyFile)
	}
	return sec, nil
}

// SealPlain reads a plain secret and saves it in sealed form
func SealPlain(plainPath string, outputPath string) error {
	keyFile := outputPath + "/" + SealedFile
	if err := checkBeforeNew(outputPath, keyFile); err != nil {
		return err
	}

	sec, err := RestorePlain(plainPath)
	if err != nil {
		return err
	}

	return sealAndSaveIt(sec, keyFile)
}

// OpenSealed decrypts a sealed secret and saves it in plain form
func OpenSealed(sealedPath string, outputPath string) error {
	keyFile := outputPath + "/" + PlainFile
	if err := checkBeforeNew(outputPath, keyFile); err != nil {
		return err
	}

	sec, err := RestoreSealed(sealedPath)
	if err != nil {
		return err
	}

	return saveOnDisk([]byte(utils.ToHex(sec)), keyFile)
}

func generate() ([]byte, error) {
	sec := make([]byte, generatedLen)
	if _, err := rand.Read(sec); err != nil {
		return nil, fmt.Errorf("generate secret failed:%v", err)
	}
	return sec, nil
}

func checkBeforeNew(path string, keyFile string) error {
	if err := utils.AccessCheck(path); err != nil {
		return err
	}
	if err := utils.AccessCheck(keyFile); err == nil {
		return fmt.Errorf("%s already exists, remove it first", keyFile)
	}
	return nil
}

func readSecretFile(keyFile string) ([]byte, error) {
	if err := utils.AccessCheck(keyFile); err != nil {
		return nil, err
	}

	content, err := ioutil.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("read secret file failed:%v", err)
	}
	return content, nil
}

func saveOnDisk(content []byte, keyFile string) error {
	if err := ioutil.WriteFile(keyFile, content, os.FileMode(0600)); err != nil {
		return fmt.Errorf("save secret file failed:%v", err)
	}
	return nil
}
