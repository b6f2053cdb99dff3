package util

import "github.com/hauke96/sigolo/v2"

func LogFatalBug(format string, args ...interface{}) {
	sigolo.Fatalb(1, format+" - This is a bug, the index is inconsistent and must be rebuilt", args...)
}
