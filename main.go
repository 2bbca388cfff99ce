package main

import (
	"bookline-api/core/logger"
	"bookline-api/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
