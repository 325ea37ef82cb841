// Command lucid runs a .lucid script: lex, compile to a bytecode.Chunk,
// execute on the stack VM. Argument handling follows
// original_source/src/args.rs::ArgParser (manual os.Args scan, no flag
// library — matching sentra/cmd/sentra/main.go's own convention of parsing
// os.Args by hand rather than reaching for a flag package), per
// SPEC_FULL.md §2's ambient-stack note.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/lucidlang/lucid/internal/bytecode"
	"github.com/lucidlang/lucid/internal/compiler"
	"github.com/lucidlang/lucid/internal/errors"
	"github.com/lucidlang/lucid/internal/lexer"
	"github.com/lucidlang/lucid/internal/vm"
)

func main() {
	os.Exit(run(os.Args, os.Stdout))
}

// run implements the full CLI contract against an injectable stdout, so
// the package's own tests can drive it end to end without a subprocess.
func run(args []string, stdout io.Writer) int {
	if len(args) < 2 || len(args) > 5 {
		usage(stdout)
		return 1
	}
	path := args[1]
	if !strings.HasSuffix(path, ".lucid") {
		usage(stdout)
		return 1
	}

	flags := map[string]bool{}
	for _, a := range args[2:] {
		flags[a] = true
	}

	source, err := os.ReadFile(path)
	if err != nil {
		log.Printf("could not read %s: %v", path, err)
		return 1
	}

	tokens, err := lexer.New(string(source)).Scan()
	if err != nil {
		fmt.Fprintln(stdout, err.Error())
		return 1
	}

	if flags["--tokens"] {
		printTokens(stdout, path, tokens)
	}

	chunk, errs := compiler.Compile(tokens)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(stdout, e.Error())
		}
		return 1
	}

	if flags["--bytecode"] {
		printBytecode(stdout, chunk)
	}

	natives := vm.NewNativeSet()
	natives.Out = stdout
	m := vm.New(chunk, natives)

	var trace io.Writer
	if flags["--stack"] {
		trace = stdout
	}
	result, err := m.Run(trace)
	if err != nil {
		if le, ok := err.(*errors.LucidError); ok {
			fmt.Fprintln(stdout, le.Error())
		} else {
			fmt.Fprintln(stdout, err.Error())
		}
		return 1
	}

	if flags["--print-result"] {
		fmt.Fprintln(stdout, vm.ToDisplayString(result))
	}
	return 0
}

func usage(stdout io.Writer) {
	fmt.Fprintln(stdout, "Usage: lucid <file>.lucid [ARGS]")
	fmt.Fprintln(stdout, "  --tokens         print the token stream before compiling")
	fmt.Fprintln(stdout, "  --bytecode       print the constant pool and code listing after compiling")
	fmt.Fprintln(stdout, "  --stack          print the stack before each instruction at runtime")
	fmt.Fprintln(stdout, "  --print-result   print the program's final value after execution")
}

func printTokens(stdout io.Writer, path string, tokens []lexer.Token) {
	fmt.Fprintf(stdout, "tokens(%s):\n", path)
	for _, t := range tokens {
		fmt.Fprintf(stdout, "  %d: %s %q\n", t.Line, t.Kind, t.Lexeme)
	}
}

// printBytecode dumps the constant pool then the code listing. The
// run-id header is a diagnostic addition only (SPEC_FULL.md domain-stack
// table) — it never reaches a compiled Value or print() output.
func printBytecode(stdout io.Writer, chunk *bytecode.Chunk) {
	fmt.Fprintf(stdout, "chunk %s\n", uuid.New().String())
	fmt.Fprintln(stdout, "constants:")
	for i, c := range chunk.Constants {
		fmt.Fprintf(stdout, "  %4d: %v\n", i, c)
	}
	fmt.Fprintln(stdout, "code:")
	for i, ins := range chunk.Code {
		fmt.Fprintf(stdout, "  %4d  %-12s %v\n", i, ins.Op, ins.Operand)
	}
}
