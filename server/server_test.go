package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
	"github.com/pensapedia/studygate/pkg/fingerprint"
	"github.com/stretchr/testify/require"
)

const testAdminPassword = "hunter2"

func startTestServer(t *testing.T) (*Server, *httptest.Server) {
	cfg := Config{
		DB:            dbh.MakeSqliteConfig(filepath.Join(t.TempDir(), "sessions.sqlite")),
		AdminPassword: testAdminPassword,
	}
	s, err := NewServerWithConfig(logs.NewTestingLog(t), cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(s.httpRouter)
	t.Cleanup(ts.Close)
	return s, ts
}

func doRequest(t *testing.T, method, url string, headers map[string]string, body any) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(respBody)
}

func adminHeaders() map[string]string {
	return map[string]string{AdminPasswordHeader: testAdminPassword}
}

func sessionHeaders(sessionID int64) map[string]string {
	return map[string]string{SessionIDHeader: fmt.Sprintf("%v", sessionID)}
}

func device(platform string) fingerprint.Profile {
	return fingerprint.Profile{
		ScreenWidth:  1920,
		ScreenHeight: 1080,
		Timezone:     "Asia/Kolkata",
		Locale:       "en-US",
		Platform:     platform,
		ColorDepth:   24,
	}
}

func login(t *testing.T, ts *httptest.Server, keyCode, platform string) (*http.Response, loginResponseJSON) {
	t.Helper()
	resp, body := doRequest(t, "POST", ts.URL+"/api/auth/login", nil, loginRequest{
		KeyCode: keyCode,
		Device:  device(platform),
	})
	login := loginResponseJSON{}
	if resp.StatusCode == 200 {
		require.NoError(t, json.Unmarshal([]byte(body), &login))
	}
	return resp, login
}

func TestLoginFlow(t *testing.T) {
	_, ts := startTestServer(t)

	// Create a key through the admin API
	resp, body := doRequest(t, "POST", ts.URL+"/api/admin/keys", adminHeaders(), map[string]string{"keyCode": "alpha"})
	require.Equal(t, 200, resp.StatusCode, body)

	// Wrong key
	resp, _ = login(t, ts, "wrong", "Linux x86_64")
	require.Equal(t, 401, resp.StatusCode)

	// Right key
	resp, session := login(t, ts, "alpha", "Linux x86_64")
	require.Equal(t, 200, resp.StatusCode)
	require.NotZero(t, session.SessionID)
	require.Equal(t, 30, session.HeartbeatSeconds)
	require.Equal(t, 120, session.LiveWindowSeconds)

	// Check and heartbeat with the session
	resp, _ = doRequest(t, "GET", ts.URL+"/api/auth/check", sessionHeaders(session.SessionID), nil)
	require.Equal(t, 200, resp.StatusCode)
	resp, _ = doRequest(t, "POST", ts.URL+"/api/auth/heartbeat", sessionHeaders(session.SessionID), nil)
	require.Equal(t, 200, resp.StatusCode)

	// A different device is refused while the first session is live
	resp, _ = login(t, ts, "alpha", "Win32")
	require.Equal(t, 409, resp.StatusCode)

	// The same device may log in again
	resp, session2 := login(t, ts, "alpha", "Linux x86_64")
	require.Equal(t, 200, resp.StatusCode)
	require.NotEqual(t, session.SessionID, session2.SessionID)

	// Logout, after which the session is gone
	resp, _ = doRequest(t, "POST", ts.URL+"/api/auth/logout", sessionHeaders(session2.SessionID), nil)
	require.Equal(t, 200, resp.StatusCode)
	resp, _ = doRequest(t, "GET", ts.URL+"/api/auth/check", sessionHeaders(session2.SessionID), nil)
	require.Equal(t, 401, resp.StatusCode)

	// And the key is free for another device
	resp, _ = login(t, ts, "alpha", "Win32")
	require.Equal(t, 200, resp.StatusCode)
}

func TestUnauthenticated(t *testing.T) {
	_, ts := startTestServer(t)

	resp, _ := doRequest(t, "GET", ts.URL+"/api/auth/check", nil, nil)
	require.Equal(t, 401, resp.StatusCode)
	resp, _ = doRequest(t, "GET", ts.URL+"/api/content/flashcards", nil, nil)
	require.Equal(t, 401, resp.StatusCode)
	resp, _ = doRequest(t, "GET", ts.URL+"/api/admin/keys", nil, nil)
	require.Equal(t, 403, resp.StatusCode)
	resp, _ = doRequest(t, "GET", ts.URL+"/api/admin/keys", map[string]string{AdminPasswordHeader: "wrong"}, nil)
	require.Equal(t, 403, resp.StatusCode)

	// Ping needs nothing
	resp, _ = doRequest(t, "GET", ts.URL+"/api/ping", nil, nil)
	require.Equal(t, 200, resp.StatusCode)
}

func TestAdminSessionControl(t *testing.T) {
	_, ts := startTestServer(t)

	resp, body := doRequest(t, "POST", ts.URL+"/api/admin/keys", adminHeaders(), map[string]string{"keyCode": "alpha"})
	require.Equal(t, 200, resp.StatusCode, body)

	resp, session := login(t, ts, "alpha", "Linux x86_64")
	require.Equal(t, 200, resp.StatusCode)

	// The session shows up in the admin listing
	resp, body = doRequest(t, "GET", ts.URL+"/api/admin/sessions", adminHeaders(), nil)
	require.Equal(t, 200, resp.StatusCode)
	require.Contains(t, body, "alpha")

	// Kill it
	resp, _ = doRequest(t, "DELETE", ts.URL+fmt.Sprintf("/api/admin/sessions/%v", session.SessionID), adminHeaders(), nil)
	require.Equal(t, 200, resp.StatusCode)
	resp, _ = doRequest(t, "POST", ts.URL+"/api/auth/heartbeat", sessionHeaders(session.SessionID), nil)
	require.Equal(t, 401, resp.StatusCode)

	// Duplicate key code is a conflict
	resp, _ = doRequest(t, "POST", ts.URL+"/api/admin/keys", adminHeaders(), map[string]string{"keyCode": "alpha"})
	require.Equal(t, 409, resp.StatusCode)

	// Toggle and delete
	resp, body = doRequest(t, "GET", ts.URL+"/api/admin/keys", adminHeaders(), nil)
	require.Equal(t, 200, resp.StatusCode)
	keys := []map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(body), &keys))
	require.Len(t, keys, 1)
	keyID := int64(keys[0]["id"].(float64))

	resp, body = doRequest(t, "POST", ts.URL+fmt.Sprintf("/api/admin/keys/%v/toggle", keyID), adminHeaders(), nil)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, "false", strings.TrimSpace(body))
	resp, _ = login(t, ts, "alpha", "Linux x86_64")
	require.Equal(t, 401, resp.StatusCode)

	resp, _ = doRequest(t, "DELETE", ts.URL+fmt.Sprintf("/api/admin/keys/%v", keyID), adminHeaders(), nil)
	require.Equal(t, 200, resp.StatusCode)
	resp, _ = doRequest(t, "DELETE", ts.URL+fmt.Sprintf("/api/admin/keys/%v", keyID), adminHeaders(), nil)
	require.Equal(t, 404, resp.StatusCode)
}

func TestSessionWatch(t *testing.T) {
	s, ts := startTestServer(t)

	resp, body := doRequest(t, "POST", ts.URL+"/api/admin/keys", adminHeaders(), map[string]string{"keyCode": "alpha"})
	require.Equal(t, 200, resp.StatusCode, body)
	resp, session := login(t, ts, "alpha", "Linux x86_64")
	require.Equal(t, 200, resp.StatusCode)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + fmt.Sprintf("/api/session/watch?sessionID=%v", session.SessionID)
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer c.Close()

	// Give the watch handler a moment to subscribe before killing
	require.Eventually(t, func() bool {
		return s.sessionDB.Notifier.Watching(session.SessionID)
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.sessionDB.Kill(session.SessionID))

	c.SetReadDeadline(time.Now().Add(5 * time.Second))
	msg := sessionDeletedJSON{}
	require.NoError(t, c.ReadJSON(&msg))
	require.Equal(t, "sessionDeleted", msg.Type)
	require.Equal(t, "adminTerminated", msg.Reason)
	require.NotEmpty(t, msg.Message)
}

func TestCleanupBeacon(t *testing.T) {
	_, ts := startTestServer(t)

	resp, body := doRequest(t, "POST", ts.URL+"/api/admin/keys", adminHeaders(), map[string]string{"keyCode": "alpha"})
	require.Equal(t, 200, resp.StatusCode, body)
	resp, session := login(t, ts, "alpha", "Linux x86_64")
	require.Equal(t, 200, resp.StatusCode)

	resp, _ = doRequest(t, "POST", ts.URL+"/cleanup", nil, map[string]int64{"session_id": session.SessionID})
	require.Equal(t, 204, resp.StatusCode)
	resp, _ = doRequest(t, "GET", ts.URL+"/api/auth/check", sessionHeaders(session.SessionID), nil)
	require.Equal(t, 401, resp.StatusCode)

	// The beacon never complains, even about nonsense
	resp, _ = doRequest(t, "POST", ts.URL+"/cleanup", nil, map[string]int64{"session_id": 999999})
	require.Equal(t, 204, resp.StatusCode)
}

func TestConstants(t *testing.T) {
	_, ts := startTestServer(t)
	resp, body := doRequest(t, "GET", ts.URL+"/api/constants", nil, nil)
	require.Equal(t, 200, resp.StatusCode)
	require.Contains(t, body, `"heartbeatSeconds":30`)
	require.Contains(t, body, `"liveWindowSeconds":120`)
}
