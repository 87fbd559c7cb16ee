/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/guslan/c8vm"
	"github.com/guslan/c8vm/web"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
}

func main() {
	port := flag.Int("port", 9999, "The port of the server")
	speed := flag.Uint("speed", c8vm.DefaultFrequency, fmt.Sprintf("Instructions per second, in the range [%d, %d]", c8vm.MinFrequency, c8vm.MaxFrequency))
	debug := flag.Bool("debug", false, "Expose the /debugger snapshot stream")
	static := flag.String("static", "./static", "Directory served at /")
	start := flag.Bool("start", false, "Start running the program right away")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatalln("must provide the path to a rom as an argument")
	}

	program, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}

	server := web.NewServer(func(config *web.ServerConfig) {
		config.Frequency = *speed
		config.UseDebugger = *debug
		config.StaticDir = *static
	})

	if err := server.LoadProgram(program); err != nil {
		log.Fatalln(err)
	}
	if *start {
		server.Machine().Start()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Listen(ctx, *port); err != nil {
		log.Fatalln(err)
	}
}
