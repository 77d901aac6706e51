package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/forest-guardian/rsei-cli/internal/cache"
	"github.com/forest-guardian/rsei-cli/internal/landsat"
	"github.com/forest-guardian/rsei-cli/internal/properties"
	"github.com/forest-guardian/rsei-cli/internal/raster"
	"github.com/paulmach/orb"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBound = orb.Bound{Min: orb.Point{100, 30}, Max: orb.Point{100.1, 30.1}}

func testClient(url string) *Client {
	return &Client{
		HTTP:       []*http.Client{http.DefaultClient},
		CatalogURL: url + "/search",
		ProcessURL: url + "/process",
		Collection: "landsat-ot-l2",
		Retries:    3,
		RetryDelay: time.Millisecond,
	}
}

func feature(id string, day int, cloud float64) string {
	return fmt.Sprintf(`{"type":"Feature","id":%q,"bbox":[99,29,101,31],
"geometry":{"type":"Polygon","coordinates":[[[99,29],[101,29],[101,31],[99,31],[99,29]]]},
"properties":{"datetime":"2015-08-%02dT03:10:00Z","eo:cloud_cover":%g}}`, id, day, cloud)
}

func TestSearchPaginates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"landsat-ot-l2"}, req.Collections)
		assert.Equal(t, [4]float64{100, 30, 100.1, 30.1}, req.BBox)
		assert.Equal(t, "2015-08-01T00:00:00Z/2015-08-20T00:00:00Z", req.Datetime)

		if req.Next == 0 {
			fmt.Fprintf(w, `{"type":"FeatureCollection","features":[%s],"context":{"next":1,"returned":1}}`, feature("LC08_B", 12, 0.3))
			return
		}
		fmt.Fprintf(w, `{"type":"FeatureCollection","features":[%s],"context":{"returned":1}}`, feature("LC08_A", 3, 4.5))
	}))
	defer srv.Close()

	start := time.Date(2015, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2015, 8, 20, 0, 0, 0, 0, time.UTC)
	scenes, err := testClient(srv.URL).Search(context.Background(), testBound, start, end)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, scenes, 2)
	assert.Equal(t, "LC08_A", scenes[0].ID, "sorted by acquisition")
	assert.Equal(t, 4.5, scenes[0].CloudCover)
	assert.Equal(t, orb.Bound{Min: orb.Point{99, 29}, Max: orb.Point{101, 31}}, scenes[1].Footprint)

	q := landsat.Query{RegionID: "r", Region: testBound, Start: start, End: end, MaxCloudCover: 1}
	kept, err := landsat.Select(scenes, q)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestCachedSearch(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprintf(w, `{"type":"FeatureCollection","features":[%s]}`, feature("LC08_A", 3, 0.1))
	}))
	defer srv.Close()

	fc := cache.NewFileCacheAt[[]landsat.SceneInfo](t.TempDir())
	c := testClient(srv.URL)
	start := time.Date(2015, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 10)

	first, err := c.CachedSearch(context.Background(), fc, testBound, start, end)
	require.NoError(t, err)
	second, err := c.CachedSearch(context.Background(), fc, testBound, start, end)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, first[0].Acquired.Equal(second[0].Acquired))
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	content, err := c.post(context.Background(), srv.URL, []byte("{}"), "")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(content))
	assert.Equal(t, int32(3), calls.Load())
}

func TestUnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.HTTP = []*http.Client{http.DefaultClient, http.DefaultClient}
	_, err := c.post(context.Background(), srv.URL, []byte("{}"), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(2), calls.Load(), "one attempt per identity")
}

func TestBadRequestFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad evalscript", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).post(context.Background(), srv.URL, []byte("{}"), "")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "bad evalscript", se.Body)
}

func TestFetchSceneStoresAndReusesImage(t *testing.T) {
	viper.Set(properties.KeyRootPath, t.TempDir())
	t.Cleanup(func() { viper.Set(properties.KeyRootPath, ".") })

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/process", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var req map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &req))
		output := req["output"].(map[string]interface{})
		assert.Equal(t, 12.0, output["width"])
		assert.Equal(t, 8.0, output["height"])
		assert.Contains(t, req["evalscript"], "BQA")
		w.Write([]byte("II*\x00tiff"))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	info := landsat.SceneInfo{ID: "LC08_X", Acquired: time.Date(2015, 8, 3, 3, 10, 0, 0, time.UTC)}
	grid := raster.Grid{Width: 12, Height: 8}

	paths, err := c.FetchAll(context.Background(), "park_north", []landsat.SceneInfo{info}, testBound, grid, 2)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, ImagePath("park_north", "LC08_X", testBound, grid), paths[0])
	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "II*\x00tiff", string(data))

	_, err = c.FetchScene(context.Background(), "park_north", info, testBound, grid)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchSceneDownloadsAgainForAnotherGrid(t *testing.T) {
	viper.Set(properties.KeyRootPath, t.TempDir())
	t.Cleanup(func() { viper.Set(properties.KeyRootPath, ".") })

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		var req map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &req))
		output := req["output"].(map[string]interface{})
		fmt.Fprintf(w, "%vx%v", output["width"], output["height"])
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	info := landsat.SceneInfo{ID: "LC08_X", Acquired: time.Date(2015, 8, 3, 3, 10, 0, 0, time.UTC)}
	ctx := context.Background()

	large, err := c.FetchScene(ctx, "park_north", info, testBound, raster.Grid{Width: 12, Height: 8})
	require.NoError(t, err)
	small, err := c.FetchScene(ctx, "park_north", info, testBound, raster.Grid{Width: 6, Height: 4})
	require.NoError(t, err)
	assert.NotEqual(t, large, small)
	assert.Equal(t, int32(2), calls.Load())

	data, err := os.ReadFile(small)
	require.NoError(t, err)
	assert.Equal(t, "6x4", string(data))

	moved := orb.Bound{Min: orb.Point{100.05, 30}, Max: orb.Point{100.15, 30.1}}
	shifted, err := c.FetchScene(ctx, "park_north", info, moved, raster.Grid{Width: 6, Height: 4})
	require.NoError(t, err)
	assert.NotEqual(t, small, shifted)
	assert.Equal(t, int32(3), calls.Load())

	again, err := c.FetchScene(ctx, "park_north", info, testBound, raster.Grid{Width: 6, Height: 4})
	require.NoError(t, err)
	assert.Equal(t, small, again)
	assert.Equal(t, int32(3), calls.Load())
}
