package internal

import (
	"io"
	"log"
)

type Options struct {
	// Triple is written as the module target triple. Empty means DefaultTriple.
	Triple string
	// SkipCheck skips the semantic analyzer. Lowering still rejects unknown names.
	SkipCheck bool
	// Logger receives one line per phase. Nil discards.
	Logger *log.Logger
	// TypeTable decides assignability for the analyzer. Nil means DefaultTypeTable.
	TypeTable TypeTable
}

// Compile runs every phase on src and returns the textual IR module. The first failing
// phase ends compilation and its error is returned as is.
func Compile(src string, options Options) (string, error) {
	logger := options.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Println("compiler: start parser")
	program, err := Parse(src)
	if err != nil {
		return "", err
	}
	if !options.SkipCheck {
		logger.Println("compiler: start semantic analyzer")
		err = NewAnalyzer(options.TypeTable).Analyze(program)
		if err != nil {
			return "", err
		}
	}
	logger.Println("compiler: start generate codes")
	ir, err := NewCodeGenerator(CodeGenOptions{Triple: options.Triple}).Generate(program)
	if err != nil {
		return "", err
	}
	logger.Printf("compiler: generated %d bytes of ir", len(ir))
	return ir, nil
}
