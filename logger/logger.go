// Package logger provides adapters for popular logger libraries to work with pagebuf's Logger interface.
//
// The adapters allow you to use your existing logger with pagebuf without writing boilerplate.
// Note that the standard library's slog.Logger already implements pagebuf.Logger directly.
//
// Example with zap:
//
//	import (
//	    "pagebuf"
//	    "pagebuf/logger"
//	    "go.uber.org/zap"
//	)
//
//	func main() {
//	    zapLogger, _ := zap.NewProduction()
//
//	    disk, err := pagebuf.NewDiskManager("data.db", pagebuf.SyncEveryWrite)
//	    if err != nil {
//	        panic(err)
//	    }
//	    pool := pagebuf.New(64, disk, pagebuf.WithLogger(logger.NewZap(zapLogger)))
//	    defer pool.Close()
//	}
package logger
