package secret

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/lancast/lancast/utils"
)

func testDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "secret_test")
	if err != nil {
		t.Fatalf("create temp dir failed:%v\n", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestPlainRoundTrip(t *testing.T) {
	dir := testDir(t)

	sec, err := NewPlain(dir)
	if err != nil {
		t.Fatalf("generate plain secret failed:%v\n", err)
	}
	if err := utils.TCheckInt("secret size", generatedLen, len(sec)); err != nil {
		t.Fatal(err)
	}

	restored, err := RestorePlain(dir)
	if err != nil {
		t.Fatalf("restore plain secret failed:%v\n", err)
	}
	if err := utils.TCheckBytes("secret", sec, restored); err != nil {
		t.Fatal(err)
	}
}

func TestPlainRefusesOverwrite(t *testing.T) {
	dir := testDir(t)

	if _, err := NewPlain(dir); err != nil {
		t.Fatalf("generate plain secret failed:%v\n", err)
	}
	if _, err := NewPlain(dir); err == nil {
		t.Fatalf("overwriting an existing secret file should fail\n")
	}
}

func TestRestorePlainMissing(t *testing.T) {
	dir := testDir(t)
	if _, err := RestorePlain(dir); err == nil {
		t.Fatalf("restoring from an empty dir should fail\n")
	}
}

func TestSealUnseal(t *testing.T) {
	pass := []byte("a strong passphrase")
	sec := []byte("test-secret-key-32chars-minimum!")

	sealed, err := seal(pass, sec)
	if err != nil {
		t.Fatalf("seal failed:%v\n", err)
	}

	restored, err := unseal(pass, sealed)
	if err != nil {
		t.Fatalf("unseal failed:%v\n", err)
	}
	if err := utils.TCheckBytes("secret", sec, restored); err != nil {
		t.Fatal(err)
	}
}

func TestUnsealWrongPassphrase(t *testing.T) {
	sealed, err := seal([]byte("a strong passphrase"), []byte("some-shared-secret"))
	if err != nil {
		t.Fatalf("seal failed:%v\n", err)
	}

	if _, err := unseal([]byte("not the passphrase"), sealed); err == nil {
		t.Fatalf("unsealing with the wrong passphrase should fail\n")
	}
}

func TestUnsealRejectsMangledFile(t *testing.T) {
	if _, err := unseal([]byte("whatever"), []byte("{}")); err == nil {
		t.Fatalf("an empty sealed file should be rejected\n")
	}
	if _, err := unseal([]byte("whatever"), []byte("not json at all")); err == nil {
		t.Fatalf("a non-json sealed file should be rejected\n")
	}
}
