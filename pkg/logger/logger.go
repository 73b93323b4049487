package logger

import (
	"fmt"
	"log"
	"os"
)

// New returns a stdlib-backed logger with component prefix. Used where
// subprocess output has to be relayed line-for-line.
func New(component string) *log.Logger {
	prefix := fmt.Sprintf("[%s] ", component)
	return log.New(os.Stdout, prefix, log.LstdFlags)
}
