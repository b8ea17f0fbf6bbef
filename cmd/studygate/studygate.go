package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/coreos/go-systemd/daemon"
	"github.com/pensapedia/studygate/server"
)

func main() {
	parser := argparse.NewParser("studygate", "Access key gate and study material server")
	configFilePath := parser.String("c", "config", &argparse.Options{Help: "Config file path", Default: "studygate.json"})
	port := parser.String("p", "port", &argparse.Options{Help: "Port to listen on", Default: ":8084"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	s, err := server.NewServer(*configFilePath)
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	s.ListenForKillSignals()

	// Tell systemd that we're alive
	daemon.SdNotify(false, daemon.SdNotifyReady)

	if err := s.ListenHTTP(*port); err != nil {
		fmt.Printf("%v\n", err)
	}
}
