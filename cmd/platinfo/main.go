// Command platinfo inspects a target-platform description: it prints the
// derived address-space constants and the per-architecture object-type
// table, and checks that the invocation-label table covers every label the
// encoder can emit. The output is plain text so tables from two kernel
// builds can be diffed directly.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Neutrality-ch/microkit/internal/platform"
	"github.com/Neutrality-ch/microkit/internal/sel4"
)

func run(platformPath, labelsPath string) error {
	config, err := platform.Load(platformPath)
	if err != nil {
		return err
	}
	if labelsPath != "" {
		labels, err := platform.LoadLabels(labelsPath)
		if err != nil {
			return err
		}
		config.InvocationLabels = labels
	}

	fmt.Printf("%-22s %s\n", "arch", config.Arch)
	userTop, err := config.UserTop()
	if err != nil {
		return err
	}
	fmt.Printf("%-22s 0x%x\n", "user_top", userTop)
	kernelBase, err := config.KernelVirtualBase()
	if err != nil {
		return err
	}
	fmt.Printf("%-22s 0x%x\n", "kernel_virtual_base", kernelBase)
	fmt.Printf("%-22s %v\n", "page_sizes", config.PageSizes())

	fmt.Println()
	fmt.Println("object types:")
	for _, objectType := range sel4.ObjectTypes {
		line, err := objectType.Format(config)
		if errors.Is(err, sel4.ErrUnsupportedConfig) {
			fmt.Printf("         object_type          - (%s - not available on %s)\n", objectType, config.Arch)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Println(line)
	}

	if missing := config.MissingLabels(); len(missing) > 0 {
		fmt.Println()
		for _, label := range missing {
			fmt.Printf("missing invocation label: %s\n", label)
		}
		return fmt.Errorf("label table is missing %d invocation labels", len(missing))
	}

	return nil
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	platformPath := fs.String("platform", "", "Platform description to read")
	labelsPath := fs.String("labels", "", "Invocation-label table (JSON) overriding the description's")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if *platformPath == "" {
		fs.Usage()
		os.Exit(1)
	}

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := run(*platformPath, *labelsPath); err != nil {
		fmt.Fprintf(os.Stderr, "platinfo: %v\n", err)
		os.Exit(1)
	}
}
