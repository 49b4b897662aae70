package cli

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags привязывает флаги к ключам viper (ключ → имя флага).
// Флаг, заданный явно, перекрывает файл конфигурации и окружение.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		f := flags.Lookup(name)
		if f == nil {
			panic(fmt.Sprintf("cli: flag %q is not defined", name))
		}
		if err := v.BindPFlag(key, f); err != nil {
			panic(fmt.Sprintf("cli: bind flag %q: %v", name, err))
		}
	}
}
