package ner

import "fmt"

// Recognizer names accepted by NewRecognizer.
const (
	RecognizerNameProse = "prose"
	RecognizerNameONNX  = "onnx"
)

// Settings carries recognizer construction parameters resolved from
// configuration at startup. Only the ONNX recognizer reads them.
type Settings struct {
	ModelPath     string
	TokenizerPath string
	LabelMapPath  string
}

// NewRecognizer constructs the named recognizer.
func NewRecognizer(name string, settings Settings) (Recognizer, error) {
	switch name {
	case RecognizerNameProse:
		return NewProseRecognizer(), nil
	case RecognizerNameONNX:
		return NewONNXRecognizer(settings.ModelPath, settings.TokenizerPath, settings.LabelMapPath)
	default:
		return nil, fmt.Errorf("invalid recognizer name: %s", name)
	}
}
