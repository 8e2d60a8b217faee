package i18n

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed widget.yaml
var widgetYAML []byte

// WidgetText is the chat widget copy for one language.
type WidgetText struct {
	ChatWithUs       string `yaml:"chatWithUs" json:"chatWithUs"`
	Placeholder      string `yaml:"placeholder" json:"placeholder"`
	Send             string `yaml:"send" json:"send"`
	Greeting         string `yaml:"greeting" json:"greeting"`
	LoadingMessage   string `yaml:"loadingMessage" json:"loadingMessage"`
	ErrorMessage     string `yaml:"errorMessage" json:"errorMessage"`
	WaitingForThread string `yaml:"waitingForThread" json:"waitingForThread"`
}

var (
	widgetOnce  sync.Once
	widgetTable map[Language]WidgetText
	widgetErr   error
)

// ParseWidgetTable decodes a language-keyed widget translation table. Every
// supported language must be present.
func ParseWidgetTable(data []byte) (map[Language]WidgetText, error) {
	var table map[Language]WidgetText
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decode widget translations: %w", err)
	}
	for _, lang := range Supported() {
		if _, ok := table[lang]; !ok {
			return nil, fmt.Errorf("widget translations missing language %q", lang)
		}
	}
	return table, nil
}

// Widget returns the widget copy for lang, falling back to Default.
func Widget(lang Language) WidgetText {
	widgetOnce.Do(func() {
		widgetTable, widgetErr = ParseWidgetTable(widgetYAML)
	})
	if widgetErr != nil {
		panic(widgetErr)
	}
	if text, ok := widgetTable[lang]; ok {
		return text
	}
	return widgetTable[Default]
}
