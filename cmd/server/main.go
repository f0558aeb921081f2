package main

import (
	"github.com/mindvault/backend/internal/server"
	"github.com/mindvault/backend/internal/util"
	"github.com/mindvault/backend/pkg/logger"
	"github.com/mindvault/backend/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.New(console.Params{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
