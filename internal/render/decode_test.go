package render

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"testing"
)

func TestTryDecodeValue_StdBase64(t *testing.T) {
	decoded, ok := TryDecodeValue("aGVsbG8=")
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded != "hello" {
		t.Errorf("got %q, want %q", decoded, "hello")
	}
}

func TestTryDecodeValue_Base64WithNewlines(t *testing.T) {
	decoded, ok := TryDecodeValue("aGVs\nbG8=")
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded != "hello" {
		t.Errorf("got %q, want %q", decoded, "hello")
	}
}

func TestTryDecodeValue_URLBase64(t *testing.T) {
	// ">>>" in URL-safe base64: StdEncoding gives "Pj4+", URLEncoding gives "Pj4-"
	decoded, ok := TryDecodeValue("Pj4-")
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded != ">>>" {
		t.Errorf("got %q, want %q", decoded, ">>>")
	}
}

func TestTryDecodeValue_GzipBase64(t *testing.T) {
	script := "#!/bin/bash\necho hello\n"
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte(script))
	_ = gz.Close()
	b64 := base64.StdEncoding.EncodeToString(buf.Bytes())

	decoded, ok := TryDecodeValue(b64)
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded != script {
		t.Errorf("got %q, want %q", decoded, script)
	}
}

func TestTryDecodeValue_Hex(t *testing.T) {
	decoded, ok := TryDecodeValue("68656c6c6f")
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded != "hello" {
		t.Errorf("got %q, want %q", decoded, "hello")
	}
}

func TestTryDecodeValue_PlainText(t *testing.T) {
	_, ok := TryDecodeValue("#!/bin/bash")
	if ok {
		t.Error("expected decode failure for plain text")
	}
}

func TestTryDecodeValue_NullBytesInOutput(t *testing.T) {
	decoded := base64.StdEncoding.EncodeToString([]byte{0x00, 0x00, 0x00})
	_, ok := TryDecodeValue(decoded)
	if ok {
		t.Error("expected decode failure for null bytes in output")
	}
}

func TestTryDecodeValue_Placeholders(t *testing.T) {
	for _, in := range []string{"", "null", "(sensitive value)", "(known after apply)"} {
		if _, ok := TryDecodeValue(in); ok {
			t.Errorf("expected decode failure for %q", in)
		}
	}
}

func TestTryDecodeValue_InvalidBase64(t *testing.T) {
	_, ok := TryDecodeValue("!!!invalid!!!")
	if ok {
		t.Error("expected decode failure for invalid base64")
	}
}

func TestTryDecodeValue_OddLengthHex(t *testing.T) {
	_, ok := TryDecodeValue("68656c6c6")
	if ok {
		t.Error("expected decode failure for odd-length hex")
	}
}
