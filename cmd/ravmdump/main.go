// Command ravmdump loads a serialized ravm executable and prints its
// stats and disassembly to stdout, without executing anything.
package main

import (
	"flag"
	"fmt"
	"os"

	_ "github.com/tliron/commonlog/simple"

	"github.com/tensorlang/ravm/vm"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config overriding magic/version/compression")
	statsOnly := flag.Bool("stats-only", false, "print stats and skip disassembly")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ravmdump [options] <executable-file>\n\n")
		fmt.Fprintf(os.Stderr, "Loads a serialized ravm executable and prints its stats and disassembly.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := vm.DefaultConfig()
	if *configPath != "" {
		loaded, err := vm.LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ravmdump: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ravmdump: %v\n", err)
		os.Exit(1)
	}

	exe, err := vm.Load(data, nil, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ravmdump: load %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Print(exe.Stats())
	if !*statsOnly {
		fmt.Println()
		fmt.Print(exe.GetBytecode())
	}
}
