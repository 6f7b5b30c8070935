package status

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/branchnode/pkg/chain"
)

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Identity{InstanceID: "6f1c1e52-0000-4000-8000-000000000000", Name: "quiet-otter-0042", Chain: "Development", Role: "full"}, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close()
		ts.Close()
	})
	return s, ts
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	_, ts := testServer(t)

	code, body := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "6f1c1e52-0000-4000-8000-000000000000", out["instanceId"])
}

func TestStatusReportsLatestPerChain(t *testing.T) {
	s, ts := testServer(t)
	target := uint64(90)

	s.Report(chain.Snapshot{Chain: "shard #1", Info: chain.Info{BestNumber: 5}, State: "Idle"})
	s.Report(chain.Snapshot{Chain: "root chain", Info: chain.Info{BestNumber: 7}, State: "Idle"})
	s.Report(chain.Snapshot{Chain: "shard #1", Info: chain.Info{BestNumber: 6}, State: "Syncing", Target: &target})

	code, body := get(t, ts.URL+"/status")
	require.Equal(t, http.StatusOK, code)

	var resp Response
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "quiet-otter-0042", resp.Node.Name)
	require.Len(t, resp.Chains, 2)
	assert.Equal(t, "root chain", resp.Chains[0].Chain)
	assert.Equal(t, "shard #1", resp.Chains[1].Chain)
	assert.Equal(t, uint64(6), resp.Chains[1].Info.BestNumber)
	require.NotNil(t, resp.Chains[1].Target)
	assert.Equal(t, uint64(90), *resp.Chains[1].Target)
}

func TestMetrics(t *testing.T) {
	s, ts := testServer(t)
	s.Report(chain.Snapshot{Chain: "root chain", Info: chain.Info{BestNumber: 40, FinalizedNumber: 38}, Peers: 3, DownloadPerSec: 2048})

	code, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, code)

	text := string(body)
	assert.Contains(t, text, `branchnode_chain_best_number{chain="root chain"} 40`)
	assert.Contains(t, text, `branchnode_chain_finalized_number{chain="root chain"} 38`)
	assert.Contains(t, text, `branchnode_network_peers{chain="root chain"} 3`)
	assert.Contains(t, text, `branchnode_network_download_bytes_per_second{chain="root chain"} 2048`)
	assert.Contains(t, text, `branchnode_sync_syncing{chain="root chain"} 0`)
	assert.Contains(t, text, `branchnode_status_reports_total{chain="root chain"} 1`)
}

func TestStream(t *testing.T) {
	s, ts := testServer(t)
	s.Report(chain.Snapshot{Chain: "root chain", Info: chain.Info{BestNumber: 1}})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/status/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() chain.Snapshot {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var snap chain.Snapshot
		require.NoError(t, conn.ReadJSON(&snap))
		return snap
	}

	assert.Equal(t, uint64(1), read().Info.BestNumber)

	require.Eventually(t, func() bool { return s.hub.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	s.Report(chain.Snapshot{Chain: "root chain", Info: chain.Info{BestNumber: 2}})
	assert.Equal(t, uint64(2), read().Info.BestNumber)
}

func TestStartAndClose(t *testing.T) {
	s := New(Identity{InstanceID: "x"}, nil)
	require.NoError(t, s.Start("127.0.0.1:0"))
	require.NotEmpty(t, s.Addr())

	code, _ := get(t, "http://"+s.Addr()+"/health")
	assert.Equal(t, http.StatusOK, code)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestChainSnapshot(t *testing.T) {
	s, ts := testServer(t)
	s.Report(chain.Snapshot{Chain: "shard #2", Info: chain.Info{BestNumber: 11}})

	code, body := get(t, ts.URL+"/status/chains/shard%20%232")
	require.Equal(t, http.StatusOK, code)
	var snap chain.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, uint64(11), snap.Info.BestNumber)

	code, body = get(t, ts.URL+"/status/chains/root%20chain")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, string(body), "unknown chain root chain")
}
