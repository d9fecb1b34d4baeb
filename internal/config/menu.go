package config

import (
	"os"

	"github.com/spf13/viper"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
)

// MenuEntry is one titled group of pages. Pages are docs-relative paths
// without the .md extension.
type MenuEntry struct {
	Title string   `mapstructure:"title"`
	Pages []string `mapstructure:"pages"`
}

// LoadMenu reads the [[section]] tables of a Menu.toml. A missing or empty
// file yields no entries.
func LoadMenu(path string) ([]MenuEntry, error) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read menu").
			WithContext("file", path).
			Build()
	}

	var doc struct {
		Section []MenuEntry `mapstructure:"section"`
	}
	if err := decode(v.AllSettings(), &doc); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid menu").
			WithContext("file", path).
			Build()
	}
	return doc.Section, nil
}
