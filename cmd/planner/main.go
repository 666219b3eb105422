package main

import (
	"context"
	"fmt"
	"os"
	"time"
)

func main() {
	a := &app{now: time.Now}
	if err := newRootCmd(a).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
