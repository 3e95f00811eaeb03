package config

import (
	"reflect"
	"strconv"

	"github.com/iwvelando/property-forecast/pkg/parse"
	"github.com/mitchellh/mapstructure"
)

// numericHook lets numeric fields accept strings with thousands separators
// ("35,654,400"). Malformed strings decode to zero instead of failing. Bools
// decoded into strings keep their YAML spelling so "land_residential_special:
// true" reads as "true".
func numericHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		switch from.Kind() {
		case reflect.String:
			switch to.Kind() {
			case reflect.Float32, reflect.Float64:
				return parse.Float(data, 0), nil
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				return parse.Int(data, 0), nil
			}
		case reflect.Bool:
			if to.Kind() == reflect.String {
				return strconv.FormatBool(data.(bool)), nil
			}
		}
		return data, nil
	}
}
