// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ezrec/sim8085/cpu"
	"github.com/ezrec/sim8085/emulator"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "sim8085",
		Short:        "Intel 8085 assembler and emulator",
		SilenceUsage: true,
	}

	// asm command
	var asmOutput string
	var asmVerbose bool

	asmCmd := &cobra.Command{
		Use:   "asm FILE",
		Short: "Assemble a source file, and print its listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			emu := emulator.NewEmulator()
			emu.Verbose = asmVerbose

			err := assemble(emu, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, rec := range emu.Program.Listing() {
				fmt.Fprintln(out, rec.String())
			}

			if len(asmOutput) != 0 {
				err = os.WriteFile(asmOutput, emu.Program.Bytes, 0o644)
				if err != nil {
					return err
				}
			}

			return nil
		},
	}
	asmCmd.Flags().StringVarP(&asmOutput, "output", "o", "", "Write the binary to a file")
	asmCmd.Flags().BoolVarP(&asmVerbose, "verbose", "v", false, "Verbose mode")

	// run command
	var maxSteps int
	var binary bool
	var input string
	var output string
	var verbose bool

	runCmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Assemble and run a program, then print the registers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			emu := emulator.NewEmulator()
			emu.Verbose = verbose

			var err error
			if binary {
				var data []byte
				data, err = os.ReadFile(args[0])
				if err == nil {
					err = emu.Load(data)
				}
			} else {
				err = assemble(emu, args[0])
			}
			if err != nil {
				return err
			}

			if input == "-" {
				emu.Tape.Input = os.Stdin
			} else if len(input) != 0 {
				inf, err := os.Open(input)
				if err != nil {
					return err
				}
				defer inf.Close()
				emu.Tape.Input = inf
			}

			if output == "-" {
				emu.Tape.Output = cmd.OutOrStdout()
			} else if len(output) != 0 {
				ouf, err := os.Create(output)
				if err != nil {
					return err
				}
				defer ouf.Close()
				emu.Tape.Output = ouf
			}

			err = emu.Reset()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			err = emu.Run(ctx, maxSteps)

			fmt.Fprint(cmd.ErrOrStderr(), emu.Cpu.String())
			fmt.Fprintf(cmd.ErrOrStderr(), "% 5s: %d\n", "TICKS", emu.Cpu.Ticks)

			return err
		},
	}
	runCmd.Flags().IntVar(&maxSteps, "max-steps", 10_000_000, "Maximum instructions to execute (0 = unlimited)")
	runCmd.Flags().BoolVar(&binary, "binary", false, "FILE is a raw binary, not assembly source")
	runCmd.Flags().StringVarP(&input, "input", "i", "", "Tape input file ('-' for stdin)")
	runCmd.Flags().StringVarP(&output, "output", "o", "-", "Tape output file ('-' for stdout)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose mode")

	// dis command
	disCmd := &cobra.Command{
		Use:   "dis FILE",
		Short: "Disassemble a raw binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			table := cpu.Intel8085()
			out := cmd.OutOrStdout()
			for addr := 0; addr < len(data); {
				text, size, err := table.Disassemble(data, addr)
				if err != nil {
					text, size = fmt.Sprintf("DB %02XH", data[addr]), 1
				}

				var code []string
				for _, b := range data[addr : addr+size] {
					code = append(code, fmt.Sprintf("%02X", b))
				}
				fmt.Fprintf(out, "%04X  %-8s  %s\n", addr, strings.Join(code, " "), text)

				addr += size
			}

			return nil
		},
	}

	rootCmd.AddCommand(asmCmd, runCmd, disCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// assemble reads a source file into the emulator's program.
func assemble(emu *emulator.Emulator, path string) (err error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return
	}

	err = emu.Assemble(string(source))
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
		return
	}

	if emu.Verbose {
		log.Printf("%v: %d bytes", path, len(emu.Program.Bytes))
	}

	return
}
