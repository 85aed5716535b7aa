package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cognicore/doxa/pkg/doxa/config"
	"github.com/cognicore/doxa/pkg/doxa/script"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML configuration file (optional)")
		tracePath  = flag.String("trace", "", "SQLite trace database (optional)")
		distribute = flag.Bool("distribute", true, "Distribute modal operators at normalization")
	)
	flag.Parse()

	var distOverride *bool
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "distribute" {
			distOverride = distribute
		}
	})

	ctx := context.Background()

	loader := &config.Loader{
		ConfigPath: *configPath,
		TracePath:  *tracePath,
		Distribute: distOverride,
	}
	dctx, cfg, cleanup, err := loader.Load(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	runner := &script.Runner{Ctx: dctx, Out: os.Stdout}
	total := &script.Result{}

	scripts := append(append([]string{}, cfg.Scripts...), flag.Args()...)
	for _, path := range scripts {
		res, err := runner.RunFile(path)
		if err != nil {
			log.Fatal(err)
		}
		total.Merge(res)
	}

	if len(scripts) == 0 {
		repl(runner, total)
	}

	fmt.Printf("%d asserts, %d refutes, %d failed\n", total.Asserts, total.Refutes, total.Failed)
	if !total.OK() {
		os.Exit(1)
	}
}

func repl(runner *script.Runner, total *script.Result) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("doxa> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line != "" {
			res, err := runner.Run("stdin", line)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			} else {
				total.Merge(res)
			}
		}
		fmt.Print("doxa> ")
	}
}
