package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFormatSize(t *testing.T) {
	cases := map[int64]string{
		0:          "0 B",
		1023:       "1023 B",
		KB:         "1.00 KB",
		5 * MB / 2: "2.50 MB",
		3 * GB:     "3.00 GB",
	}
	for in, want := range cases {
		if got := FormatSize(in); got != want {
			t.Errorf("FormatSize(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatTimeDuration(t *testing.T) {
	cases := map[time.Duration]string{
		4 * time.Second:                           "4s",
		2*time.Minute + 5*time.Second:             "2m 5s",
		time.Hour + 2*time.Minute + 3*time.Second: "1h 2m 3s",
	}
	for in, want := range cases {
		if got := FormatTimeDuration(in); got != want {
			t.Errorf("FormatTimeDuration(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateString("a-very-long-filename.txt", 10); got != "a-very-..." {
		t.Fatalf("got %q", got)
	}
	if got := TruncateString("日本語のファイル名", 5); got != "日本..." {
		t.Fatalf("got %q", got)
	}
}

func TestGetUniqueFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")

	if got := GetUniqueFilename(path); got != path {
		t.Fatalf("free name changed to %q", got)
	}

	for _, name := range []string{"photo.jpg", "photo (1).jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if got := GetUniqueFilename(path); got != filepath.Join(dir, "photo (2).jpg") {
		t.Fatalf("got %q", got)
	}
}

func TestLooksLikeTunnel(t *testing.T) {
	for _, name := range []string{"tun0", "wg0", "utun3", "CloudflareWARP"} {
		if !looksLikeTunnel(name) {
			t.Errorf("%s not detected as a tunnel", name)
		}
	}
	for _, name := range []string{"eth0", "en0", "wlan0"} {
		if looksLikeTunnel(name) {
			t.Errorf("%s detected as a tunnel", name)
		}
	}
}
