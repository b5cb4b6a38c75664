package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestListSnapshots(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/api/v1/snapshots": `{"data":[{"owner":"acme","size":123},{"owner":"solo","size":45}]}`,
	})

	infos, err := NewClient(srv.URL).ListSnapshots()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 || infos[0].Owner != "acme" || infos[1].Size != 45 {
		t.Fatalf("unexpected infos: %+v", infos)
	}
}

func TestGetSnapshot(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/api/v1/snapshots/acme": `{"org":{"login":"acme"},"members":[{"login":"a"}]}`,
	})

	snap, err := NewClient(srv.URL).GetSnapshot("acme")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Org == nil || snap.Org.Login != "acme" || len(snap.Members) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	// collections omitted by the server come back initialized
	if snap.NonMemberLogins == nil || snap.PRDates == nil {
		t.Fatal("snapshot not normalized")
	}
}

func TestGetSummary(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/api/v1/snapshots/acme/summary": `{"data":{"owner":"acme","totalMergedPRs":7}}`,
	})

	summary, err := NewClient(srv.URL).GetSummary("acme")
	if err != nil {
		t.Fatal(err)
	}
	if summary.Owner != "acme" || summary.TotalMergedPRs != 7 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/health": `{"status":"ok"}`,
	})
	if err := NewClient(srv.URL).HealthCheck(); err != nil {
		t.Fatal(err)
	}
}

func TestErrorStatus(t *testing.T) {
	srv := newTestServer(t, map[string]string{})
	if _, err := NewClient(srv.URL).GetSnapshot("nobody"); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}
