// Command moqfetch is a MoQ Transport Fetch-only client: it connects to a
// server, issues a single bounded Fetch for one track, and writes the
// retrieved object payloads to stdout in order.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/serve"
	"github.com/coaxial-labs/moqtransport/session"
)

func main() {
	var (
		namespace  = flag.String("namespace", "", "broadcast namespace, slash-separated (e.g. demo/bbb)")
		name       = flag.String("name", "", "track name within the namespace")
		startGroup = flag.Uint64("start-group", 0, "first group to fetch, inclusive")
		startObj   = flag.Uint64("start-object", 0, "first object in start-group to fetch, inclusive")
		endGroup   = flag.Uint64("end-group", 0, "last group to fetch, inclusive")
		endObj     = flag.Uint64("end-object", 0, "last object in end-group to fetch, inclusive")
		insecure   = flag.Bool("insecure", false, "skip TLS certificate verification")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <url>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *namespace == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "moqfetch: -namespace and -name are required")
		os.Exit(2)
	}

	target, err := moqURL(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "moqfetch:", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx, target, *namespace, *name, *startGroup, *startObj, *endGroup, *endObj, *insecure); err != nil {
		fmt.Fprintln(os.Stderr, "moqfetch:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, target, namespace, name string, startGroup, startObj, endGroup, endObj uint64, insecure bool) error {
	sess, err := session.Dial(ctx, target, insecure, session.Config{Log: slog.Default()})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	go func() {
		if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("session ended", "error", err)
		}
	}()

	tuple := moq.TupleFromUTF8Path(namespace)
	start := moq.Location{Group: startGroup, Object: startObj}
	end := moq.Location{Group: endGroup, Object: endObj}

	tr, err := sess.Fetch(ctx, tuple, name, start, end)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	return drain(ctx, tr, os.Stdout)
}

// drain reads every object the peer sends for a fetched track and writes
// its payload to w in delivery order. session.Fetch always binds a fetched
// track to Subgroups mode, one subgroup per (group, subgroup) pair on the
// response stream; the other modes are handled as well.
func drain(ctx context.Context, tr *serve.TrackReader, w io.Writer) error {
	mode, streamR, subgroupsR, datagramsR, err := tr.Mode(ctx)
	if err != nil {
		return err
	}

	switch mode {
	case serve.TrackModeStream:
		for {
			g, ok, err := streamR.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := drainGroup(ctx, g, w); err != nil {
				return err
			}
		}

	case serve.TrackModeSubgroups:
		for {
			sg, ok, err := subgroupsR.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := drainSubgroup(ctx, sg, w); err != nil {
				return err
			}
		}

	case serve.TrackModeDatagrams:
		for {
			d, ok, err := datagramsR.Read(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if _, err := w.Write(d.Payload); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("unexpected track mode %v", mode)
	}
}

func drainGroup(ctx context.Context, g *serve.GroupReader, w io.Writer) error {
	for {
		obj, ok, err := g.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		payload, err := obj.ReadAll(ctx)
		if err != nil {
			return err
		}
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
}

func drainSubgroup(ctx context.Context, sg *serve.SubgroupReader, w io.Writer) error {
	for {
		obj, ok, err := sg.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		payload, err := obj.ReadAll(ctx)
		if err != nil {
			return err
		}
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
}

// moqURL validates that rawURL uses a scheme this client can dial: moqt://
// (or its alias moq://) for raw QUIC or https:// for WebTransport.
func moqURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "moqt", "moq", "https":
		return rawURL, nil
	default:
		return "", fmt.Errorf("url scheme must be moqt:// for QUIC or https:// for WebTransport, got %q", u.Scheme)
	}
}
