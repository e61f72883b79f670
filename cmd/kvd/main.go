// Command kvd is the kvd client: it issues one request per invocation (or,
// in repl mode, one request per line) against a running kvd-server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"kvd/internal/cli"
	"kvd/internal/client"
	"kvd/pkg/wire"
)

const defaultAddr = "[::1]:4000"

func main() {
	o := cli.NewIO(os.Stdout, os.Stderr)
	os.Exit(cli.Run("kvd", commands(), o, os.Args[1:]))
}

func commands() []*cli.Command {
	return []*cli.Command{
		getCommand(),
		setCommand(),
		rmCommand(),
		replCommand(),
	}
}

func addrFlag(fs *flag.FlagSet) *string {
	return fs.String("addr", defaultAddr, "server address (HOST:PORT)")
}

func getCommand() *cli.Command {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	addr := addrFlag(fs)

	return &cli.Command{
		Flags: fs,
		Usage: "get KEY [--addr HOST:PORT]",
		Short: "look up a key's value",
		Exec: func(_ context.Context, o *cli.IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("get requires exactly one KEY argument")
			}

			resp, err := client.Call(*addr, wire.GetReq(args[0]))
			if err != nil {
				return err
			}

			return printGetResult(o, resp)
		},
	}
}

func printGetResult(o *cli.IO, resp wire.Resp) error {
	if resp.Err != nil {
		o.Println(resp.Err.Server)

		return nil
	}

	if resp.Ok.GetValueSet {
		o.Println(resp.Ok.GetValue)
	} else {
		o.Println("Key not found")
	}

	return nil
}

func setCommand() *cli.Command {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	addr := addrFlag(fs)

	return &cli.Command{
		Flags: fs,
		Usage: "set KEY VALUE [--addr HOST:PORT]",
		Short: "set a key's value",
		Exec: func(_ context.Context, _ *cli.IO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("set requires exactly KEY and VALUE arguments")
			}

			resp, err := client.Call(*addr, wire.SetReq(args[0], args[1]))
			if err != nil {
				return err
			}

			if resp.Err != nil {
				return fmt.Errorf("%s", resp.Err.Server)
			}

			return nil
		},
	}
}

func rmCommand() *cli.Command {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	addr := addrFlag(fs)

	return &cli.Command{
		Flags: fs,
		Usage: "rm KEY [--addr HOST:PORT]",
		Short: "remove a key",
		Exec: func(_ context.Context, _ *cli.IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("rm requires exactly one KEY argument")
			}

			resp, err := client.Call(*addr, wire.RemoveReq(args[0]))
			if err != nil {
				return err
			}

			if resp.Err != nil {
				return fmt.Errorf("%s", resp.Err.Server)
			}

			return nil
		},
	}
}

func replCommand() *cli.Command {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	addr := addrFlag(fs)

	return &cli.Command{
		Flags: fs,
		Usage: "repl [--addr HOST:PORT]",
		Short: "interactive get/set/rm session against a server",
		Long:  "Starts a line-editing REPL. Each line is `get KEY`, `set KEY VALUE`, or `rm KEY`.",
		Exec: func(ctx context.Context, o *cli.IO, _ []string) error {
			return runRepl(ctx, o, *addr)
		},
	}
}

func runRepl(ctx context.Context, o *cli.IO, addr string) error {
	line := liner.NewLiner()
	defer func() { _ = line.Close() }()

	line.SetCtrlCAborts(true)

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := line.Prompt("kvd> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}

			return fmt.Errorf("read input: %w", err)
		}

		line.AppendHistory(input)

		if err := evalReplLine(o, addr, input); err != nil {
			o.ErrPrintln("error:", err)
		}
	}
}

func evalReplLine(o *cli.IO, addr, input string) error {
	fields := splitReplLine(input)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "get":
		if len(fields) != 2 {
			return fmt.Errorf("usage: get KEY")
		}

		resp, err := client.Call(addr, wire.GetReq(fields[1]))
		if err != nil {
			return err
		}

		return printGetResult(o, resp)
	case "set":
		if len(fields) != 3 {
			return fmt.Errorf("usage: set KEY VALUE")
		}

		resp, err := client.Call(addr, wire.SetReq(fields[1], fields[2]))
		if err != nil {
			return err
		}

		if resp.Err != nil {
			return fmt.Errorf("%s", resp.Err.Server)
		}

		o.Println("OK")

		return nil
	case "rm":
		if len(fields) != 2 {
			return fmt.Errorf("usage: rm KEY")
		}

		resp, err := client.Call(addr, wire.RemoveReq(fields[1]))
		if err != nil {
			return err
		}

		if resp.Err != nil {
			return fmt.Errorf("%s", resp.Err.Server)
		}

		o.Println("OK")

		return nil
	default:
		return fmt.Errorf("unknown command %q (expected get/set/rm)", fields[0])
	}
}

func splitReplLine(input string) []string {
	return strings.Fields(input)
}
