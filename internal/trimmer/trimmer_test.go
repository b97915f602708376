package trimmer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"timer-stickers/internal/encoder"
)

func vpxCaps() encoder.Capabilities {
	return encoder.Capabilities{
		FFmpegPath: "/usr/bin/ffmpeg",
		Encoders:   map[string]bool{"libvpx-vp9": true, "libvpx": true},
	}
}

func TestCanHandle(t *testing.T) {
	tr := New("http://example.invalid/master.webm", vpxCaps(), 1)

	tests := []struct {
		duration int
		want     bool
	}{
		{-5, false},
		{0, false},
		{1, true},
		{60, true},
		{MaxTrimDuration, true},
		{MaxTrimDuration + 1, false},
		{7200, false},
	}

	for _, tt := range tests {
		if got := tr.CanHandle(tt.duration); got != tt.want {
			t.Errorf("CanHandle(%d) = %v, want %v", tt.duration, got, tt.want)
		}
	}
}

func TestTrimInvalidDuration(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	tr := New(srv.URL, vpxCaps(), 1)

	for _, d := range []int{0, -1, MaxTrimDuration + 1} {
		res := tr.Trim(context.Background(), d, nil)
		if res.Success {
			t.Errorf("Trim(%d) succeeded, want failure", d)
		}
		if !errors.Is(res.Err, ErrInvalidDuration) {
			t.Errorf("Trim(%d) err = %v, want ErrInvalidDuration", d, res.Err)
		}
	}

	// validation happens before any network activity
	if hits.Load() != 0 {
		t.Errorf("master fetched %d times for invalid durations, want 0", hits.Load())
	}
}

func TestTrimNoEncoder(t *testing.T) {
	tr := New("http://example.invalid/master.webm", encoder.Capabilities{}, 1)

	res := tr.Trim(context.Background(), 30, nil)
	if res.Success {
		t.Fatal("Trim succeeded without any encoder")
	}
	if !errors.Is(res.Err, encoder.ErrNoEncoderAvailable) {
		t.Errorf("err = %v, want ErrNoEncoderAvailable", res.Err)
	}
}

func TestFetchMasterCachedOncePerProcess(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("master-bytes"))
	}))
	defer srv.Close()

	tr := New(srv.URL, vpxCaps(), 1)

	for i := 0; i < 3; i++ {
		data, err := tr.fetchMaster(context.Background())
		if err != nil {
			t.Fatalf("fetchMaster: %v", err)
		}
		if string(data) != "master-bytes" {
			t.Fatalf("master = %q", data)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("master fetched %d times, want 1", hits.Load())
	}
}

func TestFetchMasterErrors(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		tr := New(srv.URL, vpxCaps(), 1)
		if _, err := tr.fetchMaster(context.Background()); err == nil {
			t.Error("expected error for 404 response")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer srv.Close()

		tr := New(srv.URL, vpxCaps(), 1)
		if _, err := tr.fetchMaster(context.Background()); err == nil {
			t.Error("expected error for empty master")
		}
	})

	t.Run("no URL configured", func(t *testing.T) {
		tr := New("", vpxCaps(), 1)
		if _, err := tr.fetchMaster(context.Background()); err == nil {
			t.Error("expected error for empty URL")
		}
	})
}

func TestTrimMasterUnavailableIsStructuredFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := New(srv.URL, vpxCaps(), 1)

	res := tr.Trim(context.Background(), 30, nil)
	if res.Success {
		t.Fatal("Trim succeeded against a broken master endpoint")
	}
	if res.Err == nil {
		t.Fatal("failure result carries no error")
	}
	if res.Size != 0 || len(res.Blob.Data) != 0 {
		t.Error("failure result carries blob data")
	}
}
