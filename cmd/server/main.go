package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"so-webserver/internal/dispatch"
	"so-webserver/internal/request"
	"so-webserver/internal/server"
	"so-webserver/internal/util"
)

const minPort = 1025

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <port> <threads> <queue-size> <schedalg>\n", os.Args[0])
	os.Exit(1)
}

func main() {
	if len(os.Args) < 5 {
		usage()
	}

	port, err := strconv.Atoi(os.Args[1])
	if err != nil || port < minPort {
		fmt.Fprintf(os.Stderr, "Error: port must be an integer of at least %d.\nYou entered: %s.\n", minPort, os.Args[1])
		os.Exit(1)
	}
	threads, err := strconv.Atoi(os.Args[2])
	if err != nil || threads <= 0 {
		fmt.Fprintf(os.Stderr, "Error: threads must be a positive integer.\nYou entered: %s.\n", os.Args[2])
		os.Exit(1)
	}
	qsize, err := strconv.Atoi(os.Args[3])
	if err != nil || qsize <= 0 {
		fmt.Fprintf(os.Stderr, "Error: queue-size must be a positive integer.\nYou entered: %s.\n", os.Args[3])
		os.Exit(1)
	}
	policy, err := dispatch.ForName(os.Args[4])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: schedalg must be one of the following: block|dt|dh|random\n")
		os.Exit(1)
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	root := util.GetenvStr("DOC_ROOT", "./public")

	srv := &server.Server{
		Workers: threads,
		State:   dispatch.NewState(qsize),
		Policy:  policy,
		Handle:  request.NewHandler(root, log).Serve,
		Log:     log,
	}

	log.Info().
		Int("port", port).
		Int("threads", threads).
		Int("queue", qsize).
		Str("schedalg", policy.Name()).
		Str("root", root).
		Msg("server starting")

	if err := srv.ListenAndServe(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
