package errors

import "fmt"

var (
	ErrMessageNotFound = fmt.Errorf("message not found")
	ErrStorage         = fmt.Errorf("storage failure")
	ErrWorkerPanic     = fmt.Errorf("worker panic")
)
