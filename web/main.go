package main

import (
	"flag"
	"os"

	"github.com/df07/go-rtrace/pkg/loaders"
	"github.com/df07/go-rtrace/pkg/logging"
	"github.com/df07/go-rtrace/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	static := flag.String("static", "web/static", "Directory of static files served at /")
	scenesDir := flag.String("scenes-dir", "scenes", "Directory of YAML scene documents")
	textures := flag.String("textures", "assets", "Directory of texture images")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger, err := logging.New(os.Stderr, *logLevel, "text")
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	webServer := server.NewServer(server.Options{
		Port:      *port,
		StaticDir: *static,
		ScenesDir: *scenesDir,
		Resolver:  loaders.NewDirResolver(*textures, loaders.DefaultMaxTextureSize, logger),
		Logger:    logger,
	})

	if err := webServer.Start(); err != nil {
		logger.Error("web server stopped", "err", err)
		os.Exit(1)
	}
}
