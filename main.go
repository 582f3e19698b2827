package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"crocarena/server"
)

const defaultPort = 8080

func main() {
	port := defaultPort
	if len(os.Args) > 1 {
		if p, err := strconv.Atoi(os.Args[1]); err == nil && p > 0 && p < 1<<16 {
			port = p
		} else {
			fmt.Fprintf(os.Stderr, "invalid port %q, using %d\n", os.Args[1], defaultPort)
		}
	}

	if err := server.InitLogger("app.log"); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	srv := server.NewServer()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.HandleWS)
	mux.HandleFunc("/metrics", srv.HandleMetrics)
	mux.HandleFunc("/rooms", srv.HandleRooms)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	httpSrv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv.RunTicker(ctx.Done())
		return nil
	})
	g.Go(func() error {
		server.Log.Infof("listening on :%d, ws endpoint /ws", port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			server.Log.Info("shutting down")
			cancel()
			_ = httpSrv.Close()
		case <-ctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		server.Log.Fatalf("server: %v", err)
	}
}
