package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/sanity-io/litter"

	"github.com/int0x101/O/compiler"
)

var (
	path      = flag.String("path", "", "the path of the o file needs to be compiled")
	out       = flag.String("out", "", "where to write the ir, stdout when empty")
	skipCheck = flag.Bool("skip_check", false, "whether skip the semantic analyzer")
	triple    = flag.String("triple", compiler.DefaultTriple, "target triple of the generated module")
	dumpAst   = flag.Bool("dump_ast", false, "dump the syntax tree instead of generating ir")
	verbose   = flag.Bool("v", false, "log compiler phases to stderr")
	repl      = flag.Bool("repl", false, "start an interactive loop")
)

const (
	historyFile = ".oc_history"
	promptMain  = "o> "
	promptCont  = ".. "
)

func main() {
	flag.Parse()
	options := compiler.Options{Triple: *triple, SkipCheck: *skipCheck}
	if *verbose {
		options.Logger = log.New(os.Stderr, "", log.Ltime)
	}
	if *repl {
		runRepl(options)
		return
	}
	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := compileFile(*path, options); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func compileFile(path string, options compiler.Options) error {
	if *dumpAst {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		program, err := compiler.Parse(string(src))
		if err != nil {
			return err
		}
		litter.Dump(program)
		return nil
	}
	ir, err := compiler.CompileFile(path, options)
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = io.WriteString(os.Stdout, ir)
		return err
	}
	return os.WriteFile(*out, []byte(ir), 0o644)
}

// runRepl compiles every entered chunk together with the chunks accepted before it, so
// later input can use earlier declarations. A chunk that fails to compile is dropped.
func runRepl(options compiler.Options) {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	var accepted []string
	for {
		chunk, ok := readChunk(ln, accepted)
		if !ok {
			fmt.Println()
			return
		}
		switch strings.TrimSpace(chunk) {
		case "":
			continue
		case ":quit":
			return
		case ":reset":
			accepted = nil
			continue
		}
		src := strings.Join(append(accepted, chunk), "\n")
		if *dumpAst {
			program, err := compiler.Parse(src)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			litter.Dump(program)
		} else {
			ir, err := compiler.Compile(src, options)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Print(ir)
		}
		accepted = append(accepted, chunk)
		ln.AppendHistory(strings.ReplaceAll(chunk, "\n", " "))
	}
}

// readChunk reads lines until they parse on top of the accepted source or fail for a
// reason other than ending early. An empty line always ends the chunk.
func readChunk(ln *liner.State, accepted []string) (string, bool) {
	var lines []string
	for {
		prompt := promptMain
		if len(lines) > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false
		}
		if err != nil {
			return "", true
		}
		if strings.TrimSpace(line) == "" && len(lines) > 0 {
			return strings.Join(lines, "\n"), true
		}
		lines = append(lines, line)
		chunk := strings.Join(lines, "\n")
		if strings.HasPrefix(strings.TrimSpace(chunk), ":") {
			return chunk, true
		}
		// A block keeps going until the empty line.
		if strings.HasSuffix(strings.TrimSpace(lines[0]), ":") {
			continue
		}
		_, err = compiler.Parse(strings.Join(append(accepted, chunk), "\n"))
		if !compiler.IsIncomplete(err) {
			return chunk, true
		}
	}
}
