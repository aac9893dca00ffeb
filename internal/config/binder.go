package config

import (
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// bindEnvs registers every mapstructure key of iface with viper so Unmarshal
// sees values that only exist in the environment.
// https://github.com/spf13/viper/issues/188#issuecomment-399884438
func bindEnvs(iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)
	for i := 0; i < ift.NumField(); i++ {
		tag, ok := ift.Field(i).Tag.Lookup("mapstructure")
		if !ok {
			continue
		}
		key := append(append([]string{}, parts...), tag)
		if v := ifv.Field(i); v.Kind() == reflect.Struct {
			bindEnvs(v.Interface(), key...)
			continue
		}
		_ = viper.BindEnv(strings.Join(key, "."))
	}
}
