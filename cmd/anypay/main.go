// Command anypay calls the AnyPay merchant API from the shell and prints
// the result as JSON.
//
//	anypay balance
//	anypay payments --pay-id 10
//	anypay bill-url --pay-id 10 --amount 99.90
//	anypay token --subject ops
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(stderr)
		return 2
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "anypay: unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	env, err := newEnv(args[0], args[1:], cmd.flags, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "anypay %s: %v\n", args[0], err)
		return 2
	}

	out, err := cmd.run(ctx, env)
	if err != nil {
		fmt.Fprintf(stderr, "anypay %s: %v\n", args[0], err)
		return 1
	}
	if err := writeJSON(stdout, out); err != nil {
		fmt.Fprintf(stderr, "anypay %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: anypay <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range commandNames() {
		fmt.Fprintf(w, "  %-15s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Credentials come from config.yaml, ANYPAY_* variables or flags.")
}
