package testutil

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// FakeHTTPDoer is a mock HTTP client for testing.
type FakeHTTPDoer struct {
	// Responses maps host+path suffixes to responses
	Responses map[string]*http.Response
	// Errors maps host+path suffixes to errors
	Errors map[string]error

	mu       sync.Mutex
	requests []*http.Request
}

func (f *FakeHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	key := req.URL.Host + req.URL.Path
	for suffix, err := range f.Errors {
		if strings.HasSuffix(key, suffix) {
			return nil, err
		}
	}
	for suffix, resp := range f.Responses {
		if strings.HasSuffix(key, suffix) {
			return CloneResponse(resp), nil
		}
	}
	// Return 404 for unknown paths
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

// Requests returns the requests seen so far.
func (f *FakeHTTPDoer) Requests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.requests...)
}

// CloneResponse creates a copy of an http.Response with a fresh body reader.
func CloneResponse(resp *http.Response) *http.Response {
	// The body can only be read once
	bodyBytes, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	return &http.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       io.NopCloser(bytes.NewReader(bodyBytes)),
	}
}

// MakeDateResponse creates a HEAD response stamped with t in the Date header.
func MakeDateResponse(t time.Time) *http.Response {
	h := http.Header{}
	h.Set("Date", t.UTC().Format(http.TimeFormat))
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader("")),
	}
}

// DrandGenesis and DrandPeriod describe the fake chain served by MakeDrandInfoResponse.
const (
	DrandGenesis int64 = 1677685200
	DrandPeriod  int   = 3
)

// MakeDrandInfoResponse creates a fake drand /info response.
func MakeDrandInfoResponse() *http.Response {
	info := struct {
		Period      int    `json:"period"`
		GenesisTime int64  `json:"genesis_time"`
		Hash        string `json:"hash"`
		SchemeID    string `json:"schemeID"`
		BeaconID    string `json:"beaconID"`
	}{
		Period:      DrandPeriod,
		GenesisTime: DrandGenesis,
		Hash:        "52db9ba70e0cc0f6eaf7803dd07447a1f5477735fd3f661792ba94600c84e971",
		SchemeID:    "bls-unchained-on-g1",
		BeaconID:    "quicknet",
	}
	body, _ := json.Marshal(info)
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

// MakeDrandPublicResponse creates a fake drand /public/latest response.
func MakeDrandPublicResponse(round uint64) *http.Response {
	resp := struct {
		Round      uint64 `json:"round"`
		Randomness string `json:"randomness"`
	}{
		Round:      round,
		Randomness: "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2",
	}
	body, _ := json.Marshal(resp)
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

// FakeTimelockBox is a mock tlock implementation for testing.
// It uses a reversible encoding that records the target round, and refuses
// to decrypt until SetRound reaches it.
type FakeTimelockBox struct {
	EncryptError error
	DecryptError error

	mu    sync.Mutex
	round uint64
}

func (f *FakeTimelockBox) Encrypt(data []byte, targetRound uint64) (string, error) {
	if f.EncryptError != nil {
		return "", f.EncryptError
	}
	return "FAKE_TLOCK:" + strconv.FormatUint(targetRound, 10) + ":" + base64.StdEncoding.EncodeToString(data), nil
}

func (f *FakeTimelockBox) Decrypt(ciphertextB64 string) ([]byte, error) {
	if f.DecryptError != nil {
		return nil, f.DecryptError
	}
	rest, ok := strings.CutPrefix(ciphertextB64, "FAKE_TLOCK:")
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	roundStr, data, ok := strings.Cut(rest, ":")
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	round, err := strconv.ParseUint(roundStr, 10, 64)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	current := f.round
	f.mu.Unlock()
	if current < round {
		return nil, io.ErrUnexpectedEOF
	}
	return base64.StdEncoding.DecodeString(data)
}

// SetRound advances the fake beacon.
func (f *FakeTimelockBox) SetRound(r uint64) {
	f.mu.Lock()
	f.round = r
	f.mu.Unlock()
}

// FakeClock is a manually advanced clock, safe for concurrent use.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock by d (which may be negative).
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set jumps the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// SetupTestEnv isolates HOME and the XDG directories for the duration of t.
// Returns the temporary home directory.
func SetupTestEnv(t *testing.T) string {
	t.Helper()
	tmpHome := t.TempDir()

	t.Setenv("HOME", tmpHome)
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("AppData", tmpHome)
	t.Setenv("LocalAppData", tmpHome)

	return tmpHome
}

// BuildJournalBinary builds the journal binary in the current package
// directory with the testmode tag. Returns the path to the built binary.
func BuildJournalBinary(t *testing.T) string {
	t.Helper()

	binPath := t.TempDir() + "/journal-test"
	buildCmd := exec.Command("go", "build", "-tags", "testmode", "-o", binPath, ".")

	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, output)
	}

	return binPath
}
