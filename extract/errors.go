package extract

import "fmt"

// Pipeline stage names used in errors and metrics labels.
const (
	StagePreprocess = "preprocess"
	StageRecognize  = "recognize"
	StageParse      = "parse"
)

// StageError reports which pipeline stage failed so the server can log
// and count failures per stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
