package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-portscout/config"
	"go-portscout/database"
	"go-portscout/manager"
	"go-portscout/models"
	ps "go-portscout/port-scanner"
)

type stubDialer map[uint16]bool

func (d stubDialer) DialContext(_ context.Context, _, address string) (net.Conn, error) {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return nil, err
	}
	if !d[ap.Port()] {
		return nil, errors.New("connection refused")
	}
	client, server := net.Pipe()
	_ = server.Close()
	return client, nil
}

func newTestApp(t *testing.T, withDB bool) *fiber.App {
	t.Helper()

	var store manager.Store
	if withDB {
		db, err := database.New(filepath.Join(t.TempDir(), "server.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		store = db
	}

	m := manager.NewManager(store, ps.Config{Concurrency: 2, Timeout: 100}).
		WithPorts([]uint16{80, 81}).
		WithDialer(stubDialer{80: true})

	return New(m, config.Default().Server)
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestScanHandler(t *testing.T) {
	app := newTestApp(t, true)

	resp, body := doJSON(t, app, http.MethodPost, "/scan", `{"target":"10.0.0.1"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result models.ScanResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "10.0.0.1", result.Target)
	assert.Equal(t, []uint16{80}, result.OpenPorts)
	assert.Equal(t, []uint16{81}, result.NonOpenPorts)
	assert.NotZero(t, result.ID)
}

// blockingDialer holds every connect attempt until ctx is done.
type blockingDialer struct {
	started chan struct{}
	once    sync.Once
}

func (d *blockingDialer) DialContext(ctx context.Context, _, _ string) (net.Conn, error) {
	d.once.Do(func() { close(d.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestScanHandler_ShutdownCancelsScan(t *testing.T) {
	dialer := &blockingDialer{started: make(chan struct{})}
	m := manager.NewManager(nil, ps.Config{Concurrency: 1, Timeout: int(time.Minute / time.Millisecond)}).
		WithPorts([]uint16{80, 81, 82}).
		WithDialer(dialer)
	app := New(m, config.Default().Server)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	type reply struct {
		status int
		result models.ScanResult
		err    error
	}
	replies := make(chan reply, 1)
	go func() {
		var r reply
		resp, err := http.Post("http://"+ln.Addr().String()+"/scan", "application/json",
			strings.NewReader(`{"target":"10.0.0.1"}`))
		if err != nil {
			r.err = err
			replies <- r
			return
		}
		defer resp.Body.Close()
		r.status = resp.StatusCode
		r.err = json.NewDecoder(resp.Body).Decode(&r.result)
		replies <- r
	}()

	select {
	case <-dialer.started:
	case <-time.After(5 * time.Second):
		t.Fatal("scan never reached the dialer")
	}

	start := time.Now()
	require.NoError(t, app.ShutdownWithTimeout(10*time.Second))
	assert.Less(t, time.Since(start), 5*time.Second)

	select {
	case r := <-replies:
		require.NoError(t, r.err)
		assert.Equal(t, fiber.StatusOK, r.status)
		assert.Empty(t, r.result.OpenPorts)
		assert.Equal(t, []uint16{80, 81, 82}, r.result.NonOpenPorts)
	case <-time.After(5 * time.Second):
		t.Fatal("no response after shutdown")
	}
}

func TestScanHandler_InvalidInput(t *testing.T) {
	app := newTestApp(t, false)

	cases := []string{
		`{"target":""}`,
		`{"target":"example.com"}`,
		`{"target":"::1"}`,
		`not json`,
	}
	for _, body := range cases {
		t.Run(body, func(t *testing.T) {
			resp, data := doJSON(t, app, http.MethodPost, "/scan", body)
			assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

			var r response
			require.NoError(t, json.Unmarshal(data, &r))
			assert.True(t, r.Error)
			assert.NotEmpty(t, r.Message)
		})
	}
}

func TestHistoryAndResultHandlers(t *testing.T) {
	app := newTestApp(t, true)

	for _, target := range []string{"10.0.0.1", "10.0.0.2"} {
		resp, _ := doJSON(t, app, http.MethodPost, "/scan", `{"target":"`+target+`"}`)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, body := doJSON(t, app, http.MethodGet, "/scans?limit=1", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var history ScanHistory
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history.Results, 1)
	assert.Equal(t, "10.0.0.2", history.Results[0].Target)

	resp, body = doJSON(t, app, http.MethodGet, "/scans/1", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var result models.ScanResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "10.0.0.1", result.Target)

	resp, _ = doJSON(t, app, http.MethodGet, "/scans/99", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/scans/abc", "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/scans?limit=0", "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHistoryHandler_NoStore(t *testing.T) {
	app := newTestApp(t, false)

	resp, _ := doJSON(t, app, http.MethodGet, "/scans", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSettingsHandlers(t *testing.T) {
	app := newTestApp(t, true)

	resp, body := doJSON(t, app, http.MethodGet, "/settings", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var current models.SettingsAPI
	require.NoError(t, json.Unmarshal(body, &current))
	assert.Equal(t, models.PortScannerConfig{Concurrency: 2, Timeout: 100}, current.Config)

	resp, body = doJSON(t, app, http.MethodPost, "/settings",
		`{"port_scanner":{"concurrency":16,"timeout":250,"deadline":30000}}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var updated models.SettingsAPI
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, models.PortScannerConfig{Concurrency: 16, Timeout: 250, Deadline: 30000}, updated.Config)

	resp, _ = doJSON(t, app, http.MethodPost, "/settings", `{"port_scanner":{"concurrency":0,"timeout":250}}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/settings", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &current))
	assert.Equal(t, 16, current.Config.Concurrency)
}
