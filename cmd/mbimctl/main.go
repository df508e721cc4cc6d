// Command mbimctl is a small operator CLI for working with MBIM
// functions: dump a captured message, split one into fragments at a
// given size, or serve the debug introspection HTTP endpoints. It
// follows golaborate's cmd/andorhttp2 convention of a bare
// os.Args subcommand dispatch rather than the flag package, since
// none of these subcommands need more than one or two positional
// arguments.
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/theckman/yacspin"
	yml "gopkg.in/yaml.v2"

	"github.com/nasa-jpl/mbimcore/config"
	"github.com/nasa-jpl/mbimcore/debugserver"
	"github.com/nasa-jpl/mbimcore/mbim"
	"github.com/nasa-jpl/mbimcore/usbtransport"
)

const helpBlurb = `mbimctl is a small operator tool for MBIM functions.

Usage:
	mbimctl dump <base64-message>
	mbimctl split <max-fragment-size> <base64-message>
	mbimctl conf [config.yml]
	mbimctl serve [config.yml]
	mbimctl help

dump decodes a single base64-encoded message and prints mbim.Printable's
rendering of it.

split runs the same message through the fragmentation codec at the given
max fragment size and prints each resulting fragment, base64-encoded, one
per line.

serve starts the debug introspection HTTP server (POST /decode, POST
/reassemble, GET /healthz) and, if a USB vendor/product id is configured,
a background pump that opens the function and logs every message it
receives. Configuration is loaded from config.yml in the
current directory unless a path is given.
`

func root() {
	fmt.Println(helpBlurb)
}

func dump(args []string) {
	if len(args) != 1 {
		log.Fatal("usage: mbimctl dump <base64-message>")
	}
	raw, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		log.Fatalf("decoding base64: %v", err)
	}
	m := mbim.NewFromBytes(raw)
	fmt.Print(mbim.Printable(m, ""))
}

func split(args []string) {
	if len(args) != 2 {
		log.Fatal("usage: mbimctl split <max-fragment-size> <base64-message>")
	}
	maxFragmentSize, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("parsing max fragment size: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(args[1])
	if err != nil {
		log.Fatalf("decoding base64: %v", err)
	}

	m := mbim.NewFromBytes(raw)
	fragments := mbim.Split(m, maxFragmentSize)
	if fragments == nil {
		color.Yellow("message already fits in one fragment, nothing to split")
		fmt.Println(base64.StdEncoding.EncodeToString(raw))
		return
	}
	for _, f := range fragments {
		color.Green("fragment %d/%d (%d bytes):", f.Current+1, f.Total, f.Length())
		fmt.Println(base64.StdEncoding.EncodeToString(f.Bytes()))
	}
}

// conf prints the effective configuration -- defaults overridden by
// path, if it exists -- as YAML, the way cmd/andorhttp2's printconf
// lets an operator see what a server would actually run with.
func conf(args []string) {
	path := "config.yml"
	if len(args) == 1 {
		path = args[0]
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := yml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
		log.Fatalf("encoding config: %v", err)
	}
}

func serve(args []string) {
	path := "config.yml"
	if len(args) == 1 {
		path = args[0]
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	stop, err := config.Watch(path, func(c config.Config) {
		log.Printf("mbimctl: configuration reloaded from %s", path)
		cfg = c
	})
	if err != nil {
		log.Printf("mbimctl: config hot-reload disabled: %v", err)
	} else {
		defer stop()
	}

	if cfg.USB.VID != 0 || cfg.USB.PID != 0 {
		go pumpUSB(cfg)
	}

	srv := debugserver.New("mbimctl")
	color.Cyan("mbimctl: listening on %s", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, srv))
}

// pumpUSB opens the configured USB function and logs every message it
// receives until the device is lost, retrying the open with the
// spinner below so an operator watching the terminal can see mbimctl
// is still trying rather than having silently given up.
func pumpUSB(cfg config.Config) {
	spinner, err := yacspin.New(yacspin.Config{
		Frequency:       100_000_000, // 100ms, in nanoseconds
		CharSet:         yacspin.CharSets[9],
		Suffix:          " connecting to MBIM function",
		SuffixAutoColon: true,
		ColorAll:        true,
		Colors:          []string{"fgYellow"},
	})
	if err == nil {
		spinner.Start()
	}

	dev, err := usbtransport.Open(context.Background(), cfg.USB.VID, cfg.USB.PID,
		usbtransport.WithFragmentRate(200))
	if err == nil && spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		if spinner != nil {
			spinner.StopFailMessage(err.Error())
			spinner.StopFail()
		}
		log.Printf("mbimctl: USB pump exiting, could not open device: %v", err)
		return
	}
	defer dev.Close()

	for {
		m, err := dev.Receive(context.Background())
		if err != nil {
			log.Printf("mbimctl: USB pump exiting: %v", err)
			return
		}
		log.Printf("mbimctl: received %s transaction=%d\n%s", m.Type(), m.TransactionID(), mbim.Printable(m, "  "))
	}
}

func main() {
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	switch args[1] {
	case "help":
		root()
	case "dump":
		dump(args[2:])
	case "split":
		split(args[2:])
	case "conf":
		conf(args[2:])
	case "serve":
		serve(args[2:])
	default:
		log.Fatalf("unknown command %q, try 'mbimctl help'", args[1])
	}
}
