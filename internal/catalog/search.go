package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/forest-guardian/rsei-cli/internal/cache"
	"github.com/forest-guardian/rsei-cli/internal/landsat"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"
)

const pageSize = 100

// maxPages bounds pagination in case the catalog keeps returning a next token.
const maxPages = 50

type searchRequest struct {
	Collections []string   `json:"collections"`
	BBox        [4]float64 `json:"bbox"`
	Datetime    string     `json:"datetime"`
	Limit       int        `json:"limit"`
	Next        int        `json:"next,omitempty"`
}

type searchContext struct {
	Context struct {
		Next     *int `json:"next"`
		Returned int  `json:"returned"`
	} `json:"context"`
}

// Search lists the scenes of the collection that intersect bound within
// [start, end). Cloud cover is not filtered here.
func (c *Client) Search(ctx context.Context, bound orb.Bound, start, end time.Time) ([]landsat.SceneInfo, error) {
	req := searchRequest{
		Collections: []string{c.Collection},
		BBox:        [4]float64{bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y()},
		Datetime:    fmt.Sprintf("%s/%s", start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339)),
		Limit:       pageSize,
	}

	var scenes []landsat.SceneInfo
	for page := 0; page < maxPages; page++ {
		body, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal search request: %w", err)
		}
		content, err := c.post(ctx, c.CatalogURL, body, "application/geo+json")
		if err != nil {
			return nil, fmt.Errorf("catalog search: %w", err)
		}
		found, next, err := parseSearchPage(content)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, found...)
		c.logger().WithFields(logrus.Fields{"page": page, "scenes": len(found)}).Debug("catalog page")
		if next == nil {
			break
		}
		req.Next = *next
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Acquired.Before(scenes[j].Acquired)
	})
	return scenes, nil
}

func parseSearchPage(content []byte) ([]landsat.SceneInfo, *int, error) {
	fc, err := geojson.UnmarshalFeatureCollection(content)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	var sc searchContext
	if err := json.Unmarshal(content, &sc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode catalog context: %w", err)
	}

	scenes := make([]landsat.SceneInfo, 0, len(fc.Features))
	for _, f := range fc.Features {
		info, err := sceneInfo(f)
		if err != nil {
			return nil, nil, err
		}
		scenes = append(scenes, info)
	}
	return scenes, sc.Context.Next, nil
}

func sceneInfo(f *geojson.Feature) (landsat.SceneInfo, error) {
	id := fmt.Sprint(f.ID)
	acquired, err := time.Parse(time.RFC3339, f.Properties.MustString("datetime", ""))
	if err != nil {
		return landsat.SceneInfo{}, fmt.Errorf("scene %s: invalid datetime: %w", id, err)
	}
	cloud, ok := f.Properties["eo:cloud_cover"].(float64)
	if !ok {
		// unknown cover never passes a strict ceiling
		cloud = 100
	}
	footprint := f.Geometry.Bound()
	if len(f.BBox) == 4 {
		footprint = f.BBox.Bound()
	}
	return landsat.SceneInfo{ID: id, Acquired: acquired, CloudCover: cloud, Footprint: footprint}, nil
}

// CachedSearch wraps Search with a file cache keyed by collection, bound and window.
func (c *Client) CachedSearch(ctx context.Context, fc *cache.FileCache[[]landsat.SceneInfo], bound orb.Bound, start, end time.Time) ([]landsat.SceneInfo, error) {
	key := fc.GenerateKey(c.Collection, bound.Min, bound.Max, start.Format(time.DateOnly), end.Format(time.DateOnly))
	if scenes, ok := fc.Get(key); ok {
		c.logger().WithField("scenes", len(scenes)).Debug("catalog cache hit")
		return scenes, nil
	}
	scenes, err := c.Search(ctx, bound, start, end)
	if err != nil {
		return nil, err
	}
	if err := fc.Set(key, scenes); err != nil {
		c.logger().WithError(err).Warn("failed to cache catalog search")
	}
	return scenes, nil
}
