package secret

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/howeyc/gopass"
	"golang.org/x/crypto/scrypt"

	"github.com/lancast/lancast/utils"
)

/*
The sealed form keeps the shared secret encrypted on the disk, so that
reading the file alone is not enough to answer or forge discovery
traffic. The encryption key is derived from a passphrase by scrypt and
the secret itself is sealed with AES-256-GCM.
*/

const (
	version1   = 1
	kdfName    = "scrypt"
	dkLen      = 32
	scryptN    = 262144
	scryptP    = 1
	scryptR    = 8
	saltLen    = 32
	cryptoName = "aes-256-gcm"
)

type sealedJSON struct {
	Version    int         `json:"version"`
	KdfName    string      `json:"kdfName"`
	KDF        interface{} `json:"kdf"`
	CryptoName string      `json:"cryptoName"`
	Crypto     interface{} `json:"crypto"`
}

type scryptKDF struct {
	DkLen int    `json:"dkLen"`
	N     int    `json:"n"`
	P     int    `json:"p"`
	R     int    `json:"r"`
	Salt  string `json:"salt"`
}

type aes256GcmCrypto struct {
	CipherText string `json:"cipherText"`
	Nonce      string `json:"nonce"`
}

// NewSealed generates a secret, then seals and saves it
func NewSealed(path string) ([]byte, error) {
	keyFile := path + "/" + SealedFile
	if err := checkBeforeNew(path, keyFile); err != nil {
		return nil, err
	}

	sec, err := generate()
	if err != nil {
		return nil, err
	}

	if err := sealAndSaveIt(sec, keyFile); err != nil {
		return nil, err
	}
	return sec, nil
}

// RestoreSealed decrypts a sealed secret file, prompting for the
// passphrase on the terminal
func RestoreSealed(path string) ([]byte, error) {
	keyFile := path + "/" + SealedFile
	jsonBytes, err := readSecretFile(keyFile)
	if err != nil {
		return nil, err
	}

	fmt.Printf("Input your passphrase to decrypt the secret:")
	pass, err := gopass.GetPasswdMasked()
	if err != nil {
		return nil, fmt.Errorf("Get passphrase failed:%v", err)
	}

	return unseal(pass, jsonBytes)
}

func sealAndSaveIt(sec []byte, outputFile string) error {
	pass, err := getPassphrase()
	if err != nil {
		return err
	}

	sealedContent, err := seal(pass, sec)
	if err != nil {
		return err
	}

	return saveOnDisk(sealedContent, outputFile)
}

func getPassphrase() ([]byte, error) {
	fmt.Printf("Input your passphrase(Please Remember it):")
	pass1, err := gopass.GetPasswdMasked()
	if err != nil {
		return nil, fmt.Errorf("Get passphrase failed:%v", err)
	} else if len(pass1) < 8 {
		return nil, fmt.Errorf("Passphrase should be at least 8 characters")
	}
	fmt.Printf("Repeat it:")
	pass2, err := gopass.GetPasswdMasked()
	if err != nil {
		return nil, fmt.Errorf("Get passphrase failed:%v", err)
	}
	if !bytes.Equal(pass1, pass2) {
		return nil, errors.New("Inconsistent input")
	}

	return pass1, nil
}

func seal(passphrase []byte, sec []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	dk, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, dkLen)
	if err != nil {
		return nil, err
	}

	nonce, cipherText, err := aesEncrypt(sec, dk)
	if err != nil {
		return nil, err
	}

	return jsonMarshal(utils.ToHex(nonce), utils.ToHex(cipherText), utils.ToHex(salt))
}

func unseal(pass []byte, jsonBytes []byte) ([]byte, error) {
	kdf, aesCrypto, err := jsonUnmarshal(jsonBytes)
	if err != nil {
		return nil, err
	}

	salt, _ := utils.FromHex(kdf.Salt)
	dk, err := scrypt.Key(pass, salt, kdf.N, kdf.R, kdf.P, kdf.DkLen)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(dk)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce, _ := utils.FromHex(aesCrypto.Nonce)
	cipherText, _ := utils.FromHex(aesCrypto.CipherText)
	sec, err := aesgcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt secret failed:%v", err)
	}
	if len(sec) == 0 {
		return nil, errors.New("recover empty secret")
	}

	return sec, nil
}

func aesEncrypt(plaintext []byte, key []byte) (nonceRet, cipherTextRet []byte, err error) {
	if len(key) != 32 {
		return nil, nil, fmt.Errorf("AES key must be 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	nonce := make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	return nonce, aesgcm.Seal(nil, nonce, plaintext, nil), nil
}

func jsonMarshal(nonce, cipherText, salt string) ([]byte, error) {
	ks := sealedJSON{
		Version: version1,
		KdfName: kdfName,
		KDF: &scryptKDF{
			DkLen: dkLen,
			N:     scryptN,
			P:     scryptP,
			R:     scryptR,
			Salt:  salt,
		},
		CryptoName: cryptoName,
		Crypto: &aes256GcmCrypto{
			CipherText: cipherText,
			Nonce:      nonce,
		},
	}

	jsonBytes, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return nil, err
	}
	return jsonBytes, nil
}

func jsonUnmarshal(jsonBytes []byte) (*scryptKDF, *aes256GcmCrypto, error) {
	ks := &sealedJSON{}
	kdf := &scryptKDF{}
	aesCrypto := &aes256GcmCrypto{}
	ks.KDF = kdf
	ks.Crypto = aesCrypto
	if err := json.Unmarshal(jsonBytes, &ks); err != nil {
		return nil, nil, err
	}
	if err := checkSealParams(ks, kdf, aesCrypto); err != nil {
		return nil, nil, err
	}

	return kdf, aesCrypto, nil
}

func checkSealParams(ks *sealedJSON, kdf *scryptKDF, aesCrypto *aes256GcmCrypto) error {
	if ks.Version != version1 {
		return fmt.Errorf("unrecognized version:%d", ks.Version)
	}
	if ks.KdfName != kdfName {
		return fmt.Errorf("unrecognized kdf:%s", ks.KdfName)
	}
	if ks.CryptoName != cryptoName {
		return fmt.Errorf("unrecognized crypto:%s", ks.CryptoName)
	}

	if kdf.DkLen != dkLen {
		return fmt.Errorf("unrecognized dkLen:%d", kdf.DkLen)
	}
	if kdf.N <= 0 || kdf.R <= 0 || kdf.P <= 0 {
		return fmt.Errorf("invalid kdf params n:%d r:%d p:%d", kdf.N, kdf.R, kdf.P)
	}
	if len(kdf.Salt) == 0 || len(aesCrypto.CipherText) == 0 ||
		len(aesCrypto.Nonce) == 0 {
		return fmt.Errorf("the essential content is missed")
	}
	return nil
}
