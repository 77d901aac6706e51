// Package imagery reads downloaded scene GeoTIFFs and writes result rasters
// through GDAL.
package imagery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/rsei-cli/internal/catalog"
	"github.com/forest-guardian/rsei-cli/internal/landsat"
	"github.com/forest-guardian/rsei-cli/internal/raster"
	"github.com/forest-guardian/rsei-cli/internal/utils"
)

func init() {
	godal.RegisterAll()
}

// ReadScene opens a scene GeoTIFF laid out as catalog.ResponseBands. Pixels
// outside the data mask become no-data in every band, and the QA band is set
// negative there so cloud masking drops them too.
func ReadScene(path string, info landsat.SceneInfo) (*landsat.Scene, error) {
	var scene *landsat.Scene
	var err error
	utils.ExecuteWithMutex(func() {
		scene, err = readScene(path, info)
	})
	return scene, err
}

func readScene(path string, info landsat.SceneInfo) (*landsat.Scene, error) {
	ds, err := godal.Open(path, godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return fmt.Errorf("gdal: %s", msg)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to open TIFF file: %w", err)
	}
	defer ds.Close()

	grid, err := gridOf(ds)
	if err != nil {
		return nil, err
	}
	bands := ds.Bands()
	if len(bands) != len(catalog.ResponseBands) {
		return nil, fmt.Errorf("scene %s: expected %d bands, found %d", info.ID, len(catalog.ResponseBands), len(bands))
	}

	data := make([][]float64, len(bands))
	for i, band := range bands {
		data[i] = make([]float64, grid.Len())
		if err := band.Read(0, 0, data[i], grid.Width, grid.Height); err != nil {
			return nil, fmt.Errorf("failed to read raster data of band %s: %w", catalog.ResponseBands[i], err)
		}
	}

	mask := data[len(data)-1]
	valid := make([]bool, grid.Len())
	for i, m := range mask {
		valid[i] = m > 0
	}
	out := make(map[string]*raster.Band, len(bands)-1)
	for i, name := range catalog.ResponseBands[:len(bands)-1] {
		values := data[i]
		if name == landsat.BandQA {
			for k := range values {
				if !valid[k] {
					values[k] = -1
				}
			}
			out[name], err = raster.NewBand(name, grid, values, nil)
		} else {
			out[name], err = raster.NewBand(name, grid, values, valid)
		}
		if err != nil {
			return nil, err
		}
	}
	return landsat.NewScene(info, out)
}

func gridOf(ds *godal.Dataset) (raster.Grid, error) {
	gt, err := ds.GeoTransform()
	if err != nil {
		return raster.Grid{}, err
	}
	st := ds.Structure()
	return raster.Grid{
		Width:        st.SizeX,
		Height:       st.SizeY,
		GeoTransform: gt,
		Projection:   ds.Projection(),
	}, nil
}

// WriteFloat32 stores band as a single band Float32 GeoTIFF with the given nodata value.
func WriteFloat32(path string, band *raster.Band, nodata float64) error {
	return write(path, band, godal.Float32, nodata)
}

// WriteByte stores band as a single band Byte GeoTIFF, e.g. a class raster.
func WriteByte(path string, band *raster.Band, nodata float64) error {
	return write(path, band, godal.Byte, nodata)
}

func write(path string, band *raster.Band, dtype godal.DataType, nodata float64) error {
	var err error
	utils.ExecuteWithMutex(func() {
		err = writeBand(path, band, dtype, nodata)
	})
	return err
}

func writeBand(path string, band *raster.Band, dtype godal.DataType, nodata float64) error {
	grid := band.Grid()
	ds, err := godal.Create(godal.GTiff, path, 1, dtype, grid.Width, grid.Height, godal.CreationOption("COMPRESS=DEFLATE"))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := ds.SetGeoTransform(grid.GeoTransform); err != nil {
		ds.Close()
		return err
	}
	if err := setProjection(ds, grid.Projection); err != nil {
		ds.Close()
		return err
	}
	out := ds.Bands()[0]
	if err := out.SetNoData(nodata); err != nil {
		ds.Close()
		return err
	}
	if err := out.Write(0, 0, band.Values(nodata), grid.Width, grid.Height); err != nil {
		ds.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return ds.Close()
}

func setProjection(ds *godal.Dataset, projection string) error {
	if projection == "" {
		return nil
	}
	if code, ok := strings.CutPrefix(projection, "EPSG:"); ok {
		epsg, err := strconv.Atoi(code)
		if err != nil {
			return fmt.Errorf("invalid projection %s", projection)
		}
		sr, err := godal.NewSpatialRefFromEPSG(epsg)
		if err != nil {
			return err
		}
		defer sr.Close()
		return ds.SetSpatialRef(sr)
	}
	return ds.SetProjection(projection)
}
