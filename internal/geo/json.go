package geo

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/paulmach/orb/geojson"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	geojson.CustomJSONMarshaler = json
	geojson.CustomJSONUnmarshaler = json
}
