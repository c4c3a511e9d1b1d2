package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// Fail reports a failed operation with exit code 1.
func Fail(operation string, err error) cli.ExitCoder {
	return Exit(1, "%s: %s", operation, Red(err))
}
