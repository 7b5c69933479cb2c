package utils

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

const timeFormat = "2006/01/02 15:04:05"

var logger = &Logger{
	Logger: log.New(os.Stdout, "", log.LstdFlags|log.Lshortfile),
}

// AccessCheck checks whether the file or directory exists
func AccessCheck(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("Not found %s or permision denied", err)
	}
	return nil
}

// ToHex returns the upper case hexadecimal encoding string
func ToHex(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}

// FromHex returns the bytes represented by the hexadecimal string s
func FromHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// TimeToString returns a textual representation of the time;
// it only accepts int64 or time.Time type
func TimeToString(t interface{}) string {

	if int64T, ok := t.(int64); ok {
		return time.Unix(int64T, 0).Format(timeFormat)
	}

	if timeT, ok := t.(time.Time); ok {
		return timeT.Format(timeFormat)
	}

	logger.Fatal("invalid call to TimeToString (%v)\n", t)
	return ""
}
