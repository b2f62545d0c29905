package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vimo-cloud/ragstore/internal/domain"
	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
	healthuc "github.com/vimo-cloud/ragstore/internal/usecase/health"
)

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth_Healthy(t *testing.T) {
	env := newTestEnv(t)

	rr := doJSON(t, env.handler, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}

	var report healthuc.Report
	decodeJSON(t, rr, &report)
	if report.Status != healthuc.Healthy {
		t.Errorf("status = %s, want %s", report.Status, healthuc.Healthy)
	}
}

func TestHealth_Unhealthy_503(t *testing.T) {
	env := newTestEnv(t)
	env.health.checkFn = func(context.Context) healthuc.Report {
		return healthuc.Report{
			Status: healthuc.Unhealthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError},
		}
	}

	rr := doJSON(t, env.handler, "GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
}

func TestHealth_Degraded_200(t *testing.T) {
	env := newTestEnv(t)
	env.health.checkFn = func(context.Context) healthuc.Report {
		return healthuc.Report{Status: healthuc.Degraded}
	}

	rr := doJSON(t, env.handler, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("degraded should still be 200, got %d", rr.Code)
	}
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	rr := doJSON(t, env.handler, "GET", "/version", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if _, ok := resp["version"]; !ok {
		t.Error("response missing version field")
	}
}

func TestCreateCollection(t *testing.T) {
	env := newTestEnv(t)

	var gotName string
	var gotDim int
	env.collections.getOrCreateFn = func(_ context.Context, name string, dim int) (domcol.Collection, error) {
		gotName, gotDim = name, dim
		return domcol.Reconstruct(name, dim, 1700000000000), nil
	}

	rr := doJSON(t, env.handler, "POST", "/api/v1/collections", `{"name":"documents","dimension":1536}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201: %s", rr.Code, rr.Body.String())
	}
	if gotName != "documents" || gotDim != 1536 {
		t.Errorf("service called with (%s, %d)", gotName, gotDim)
	}

	var resp collectionResponse
	decodeJSON(t, rr, &resp)
	if resp.Name != "documents" || resp.Dimension != 1536 {
		t.Errorf("unexpected body: %+v", resp)
	}
}

func TestCreateCollection_MissingName_400(t *testing.T) {
	env := newTestEnv(t)

	rr := doJSON(t, env.handler, "POST", "/api/v1/collections", `{"dimension":3}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestCreateCollection_DimensionMismatch_400(t *testing.T) {
	env := newTestEnv(t)
	env.collections.getOrCreateFn = func(context.Context, string, int) (domcol.Collection, error) {
		return domcol.Collection{}, domain.ErrDimensionMismatch
	}

	rr := doJSON(t, env.handler, "POST", "/api/v1/collections", `{"name":"documents","dimension":8}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}

	var errResp errorResponse
	decodeJSON(t, rr, &errResp)
	if errResp.Code != "dimension_mismatch" {
		t.Errorf("error code = %s, want dimension_mismatch", errResp.Code)
	}
}

func TestGetCollection_WithPointCount(t *testing.T) {
	env := newTestEnv(t)
	env.points.countFn = func(context.Context, string) (int, error) { return 42, nil }

	rr := doJSON(t, env.handler, "GET", "/api/v1/collections/documents", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}

	var resp struct {
		Name       string `json:"name"`
		PointCount *int   `json:"point_count"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Name != "documents" {
		t.Errorf("name = %s, want documents", resp.Name)
	}
	if resp.PointCount == nil || *resp.PointCount != 42 {
		t.Errorf("point_count = %v, want 42", resp.PointCount)
	}
}

func TestGetCollection_NotFound_404(t *testing.T) {
	env := newTestEnv(t)
	env.collections.getFn = func(context.Context, string) (domcol.Collection, error) {
		return domcol.Collection{}, domain.ErrCollectionNotFound
	}

	rr := doJSON(t, env.handler, "GET", "/api/v1/collections/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}

	var errResp errorResponse
	decodeJSON(t, rr, &errResp)
	if errResp.Code != "collection_not_found" {
		t.Errorf("error code = %s, want collection_not_found", errResp.Code)
	}
}

func TestListCollections(t *testing.T) {
	env := newTestEnv(t)
	env.collections.listFn = func(context.Context) ([]domcol.Collection, error) {
		return []domcol.Collection{
			domcol.Reconstruct("documents", 1536, 1700000000000),
			domcol.Reconstruct("chat_history", 1536, 1700000000000),
		}, nil
	}

	rr := doJSON(t, env.handler, "GET", "/api/v1/collections", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}

	var resp collectionListResponse
	decodeJSON(t, rr, &resp)
	if resp.Total != 2 || len(resp.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(resp.Items))
	}
	if resp.Items[0].Name != "documents" {
		t.Errorf("first item = %s, want documents", resp.Items[0].Name)
	}
}

func TestDeleteCollection_204(t *testing.T) {
	env := newTestEnv(t)

	var deleted string
	env.collections.deleteFn = func(_ context.Context, name string) error {
		deleted = name
		return nil
	}

	rr := doJSON(t, env.handler, "DELETE", "/api/v1/collections/documents", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("got %d, want 204", rr.Code)
	}
	if deleted != "documents" {
		t.Errorf("deleted %s, want documents", deleted)
	}
}
