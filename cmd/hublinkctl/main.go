package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/danmuck/hublink/internal/app"
	"github.com/danmuck/hublink/internal/link"
	"github.com/danmuck/hublink/internal/observability"
	"github.com/rs/zerolog/log"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7400", "hublinkd link address")
	timeout := flag.Duration("timeout", 3*time.Second, "dial and per-step timeout")
	retries := flag.Int("retries", 5, "dial attempts before giving up")
	flag.Parse()

	logger := observability.InitLogger("hublinkctl")

	dialCfg := link.DefaultDialConfig()
	dialCfg.Attempts = *retries
	dialCfg.Timeout = *timeout
	dialCfg.Jitter = true
	conn, err := link.Dial(context.Background(), *addr, dialCfg)
	if err != nil {
		log.Fatal().Err(err).Str("addr", *addr).Msg("dial failed")
	}
	defer conn.Close()

	res, err := inspect(context.Background(), conn, *timeout, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("inspect failed")
	}
	printResult(res)
}

func printResult(res inspectResult) {
	fmt.Printf("loopback rtt: %s\n", res.RTT)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HANDLE\tNAME\tUUID\tVERSION")
	for _, svc := range res.Services {
		fmt.Fprintf(w, "%#02x\t%s\t%s\t%s\n", uint8(svc.Handle), svc.Name, app.UUIDString(svc.UUID), svc.Version)
	}
	w.Flush()
}
