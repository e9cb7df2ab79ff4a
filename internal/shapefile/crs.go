// Copyright 2025 the shp-processor authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shapefile

import (
	"fmt"
	"strconv"
	"strings"
)

// CRS identifies a supported coordinate reference system.  The WKT is
// written verbatim to the .prj sidecar.
type CRS struct {
	Name string
	Code string
	wkt  string
}

func (c CRS) WKT() string {
	return c.wkt
}

// SupportedCRS is the fixed lookup of coordinate reference systems the
// exporter can assign.  WGS84 is the default.
var SupportedCRS = []CRS{
	{
		Name: "WGS84",
		Code: "EPSG:4326",
		wkt:  `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`,
	},
	{
		Name: "GCJ02",
		Code: "EPSG:4490",
		wkt:  `GEOGCS["GCS_China_Geodetic_Coordinate_System_2000",DATUM["D_China_2000",SPHEROID["CGCS2000",6378137.0,298.257222101]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`,
	},
	{
		Name: "Web Mercator",
		Code: "EPSG:3857",
		wkt:  `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Mercator_Auxiliary_Sphere"],PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",0.0],PARAMETER["Standard_Parallel_1",0.0],PARAMETER["Auxiliary_Sphere_Type",0.0],UNIT["Meter",1.0]]`,
	},
	{
		Name: "UTM Zone 49N",
		Code: "EPSG:32649",
		wkt:  `PROJCS["WGS_1984_UTM_Zone_49N",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["False_Easting",500000.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",111.0],PARAMETER["Scale_Factor",0.9996],PARAMETER["Latitude_Of_Origin",0.0],UNIT["Meter",1.0]]`,
	},
	{
		Name: "UTM Zone 50N",
		Code: "EPSG:32650",
		wkt:  `PROJCS["WGS_1984_UTM_Zone_50N",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["False_Easting",500000.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",117.0],PARAMETER["Scale_Factor",0.9996],PARAMETER["Latitude_Of_Origin",0.0],UNIT["Meter",1.0]]`,
	},
}

// DefaultCRS returns WGS84.
func DefaultCRS() CRS {
	return SupportedCRS[0]
}

// LookupCRS resolves a CRS by name ("WGS84", "UTM Zone 49N"), by code
// ("EPSG:4326"), or by bare EPSG number ("4326").  Matching on names
// and codes is case-insensitive.
func LookupCRS(identifier string) (CRS, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return DefaultCRS(), nil
	}

	code := trimmed
	if number, err := strconv.Atoi(trimmed); err == nil {
		code = fmt.Sprintf("EPSG:%d", number)
	}

	for _, crs := range SupportedCRS {
		if strings.EqualFold(crs.Name, trimmed) || strings.EqualFold(crs.Code, code) {
			return crs, nil
		}
	}
	return CRS{}, &ValidationError{Message: fmt.Sprintf("unsupported coordinate reference system %q", identifier)}
}

// IsGeographic reports whether coordinates in this CRS are degrees of
// longitude and latitude.  Used to decide whether range warnings from
// parsing are meaningful.
func (c CRS) IsGeographic() bool {
	return strings.HasPrefix(c.wkt, "GEOGCS")
}
