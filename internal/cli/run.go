package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Run dispatches args[0] to the matching command in commands, handling
// SIGINT/SIGTERM by canceling the command's context. Returns the process
// exit code. progName is used only in the usage message printed for a bare
// invocation, -h/--help, or an unknown command.
func Run(progName string, commands []*Command, o *IO, args []string) int {
	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	if len(args) == 0 {
		printUsage(progName, o, commands)

		return 0
	}

	if args[0] == "-h" || args[0] == "--help" {
		printUsage(progName, o, commands)

		return 0
	}

	cmd, ok := commandMap[args[0]]
	if !ok {
		o.ErrPrintln("error: unknown command:", args[0])
		printUsage(progName, o, commands)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan int, 1)

	go func() { done <- cmd.Run(ctx, o, args[1:]) }()

	select {
	case exitCode := <-done:
		return exitCode
	case <-sigCh:
		cancel()

		return <-done
	}
}

func printUsage(progName string, o *IO, commands []*Command) {
	o.Println("Usage:", progName, "<command> [flags]")
	o.Println()
	o.Println("Commands:")

	for _, cmd := range commands {
		o.Println(cmd.HelpLine())
	}
}
