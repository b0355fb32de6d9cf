package obs

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

var fakeUpgrader = websocket.Upgrader{}

// fakeOBS is a minimal obs-websocket server for tests.
type fakeOBS struct {
	t      *testing.T
	server *httptest.Server

	mu        sync.Mutex
	password  string
	salt      string
	challenge string
	scenes    []map[string]interface{}
	visible   map[string]bool // "scene\x00item" -> visible
	hang      map[string]bool // request types left unanswered
	conns     []*websocket.Conn
	writeMu   sync.Mutex
	requests  []string
}

func newFakeOBS(t *testing.T) *fakeOBS {
	t.Helper()
	f := &fakeOBS{
		t:         t,
		salt:      "lM1GncleQOaCu9lT1yeUZhFYnqhsLLP1G5lAGo3ixaI=",
		challenge: "+IxH4CnCiqpX1rM9scsNynZzbOe4KhDeYcTNS3PDaeY=",
		visible:   make(map[string]bool),
		hang:      make(map[string]bool),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serveWS))
	t.Cleanup(func() {
		f.dropAll()
		f.server.Close()
	})
	return f
}

func (f *fakeOBS) url() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

func (f *fakeOBS) addScene(name string, sources ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := make([]map[string]interface{}, 0, len(sources))
	for _, src := range sources {
		list = append(list, map[string]interface{}{"name": src, "type": "ffmpeg_source"})
	}
	f.scenes = append(f.scenes, map[string]interface{}{"name": name, "sources": list})
}

func (f *fakeOBS) setVisible(scene, item string, visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible[scene+"\x00"+item] = visible
}

func (f *fakeOBS) setPassword(password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.password = password
}

func (f *fakeOBS) setHang(requestType string, hang bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hang[requestType] = hang
}

func (f *fakeOBS) requestCount(requestType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == requestType {
			n++
		}
	}
	return n
}

func (f *fakeOBS) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := fakeUpgrader.Upgrade(w, r, nil)
	if err != nil {
		f.t.Logf("fake upgrade failed: %v", err)
		return
	}
	f.mu.Lock()
	f.conns = append(f.conns, conn)
	f.mu.Unlock()

	for {
		var req map[string]interface{}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if resp := f.handle(req); resp != nil {
			f.write(conn, resp)
		}
	}
}

func (f *fakeOBS) handle(req map[string]interface{}) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	requestType, _ := req["request-type"].(string)
	f.requests = append(f.requests, requestType)
	if f.hang[requestType] {
		return nil
	}

	resp := map[string]interface{}{"message-id": req["message-id"], "status": statusOK}
	fail := func(msg string) map[string]interface{} {
		resp["status"] = statusError
		resp["error"] = msg
		return resp
	}

	switch requestType {
	case RequestGetAuthRequired:
		resp["authRequired"] = f.password != ""
		if f.password != "" {
			resp["salt"] = f.salt
			resp["challenge"] = f.challenge
		}
	case RequestAuthenticate:
		if req["auth"] != authResponse(f.password, f.salt, f.challenge) {
			return fail("Authentication Failed.")
		}
	case RequestGetSceneList:
		resp["scenes"] = f.scenes
	case RequestGetSceneItemProperties:
		scene, _ := req["scene-name"].(string)
		item, _ := req["item"].(string)
		visible, ok := f.visible[scene+"\x00"+item]
		if !ok {
			return fail("specified scene item doesn't exist")
		}
		resp["name"] = item
		resp["visible"] = visible
	default:
		return fail("invalid request type")
	}
	return resp
}

func (f *fakeOBS) write(conn *websocket.Conn, msg interface{}) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_ = conn.WriteJSON(msg)
}

// push sends an event to every connected client.
func (f *fakeOBS) push(event map[string]interface{}) {
	f.mu.Lock()
	conns := append([]*websocket.Conn(nil), f.conns...)
	f.mu.Unlock()

	for _, conn := range conns {
		f.write(conn, event)
	}
}

// dropAll closes every server-side connection.
func (f *fakeOBS) dropAll() {
	f.mu.Lock()
	conns := f.conns
	f.conns = nil
	f.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}
