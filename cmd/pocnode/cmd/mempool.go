package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"pocnode/config"
	"pocnode/logging"
	"pocnode/mempool"
)

// MempoolArgs demonstrates the ordered, dependency-aware pool against a
// small built-in scenario: three transactions, one of which depends on
// another, pushed out of priority order to show the pool settling them
// by (topology, price, time), then a removal to show closure repair,
// then a size-limited listing bounded by config.Config.MempoolSizeLimit.
type MempoolArgs struct {
	checkFreq float64
	sizeLimit uint
}

func (*MempoolArgs) Name() string     { return "mempool" }
func (*MempoolArgs) Synopsis() string { return "run a demo scenario against the ordered pool" }
func (*MempoolArgs) Usage() string {
	return `mempool [--check-frequency F] [--size-limit N]

Pushes a small built-in scenario of unconfirmed entries into a fresh
pool, prints the resulting priority order, removes the root entry, and
prints the order again to show dependency-closure repair, then prints
the prefix a block-assembly pass would take under --size-limit bytes
(0 = config default, MEMPOOL_SIZE_LIMIT).
`
}

func (m *MempoolArgs) SetFlags(fs *flag.FlagSet) {
	fs.Float64Var(&m.checkFreq, "check-frequency", 0, "invariant check sample rate (0..1)")
	fs.UintVar(&m.sizeLimit, "size-limit", 0, "ListSizeLimit cap in bytes (0 = config default)")
}

func (m *MempoolArgs) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	p := mempool.New[string](log)
	if m.checkFreq > 0 {
		p.SetCheckFrequency(m.checkFreq)
	} else {
		p.SetCheckFrequency(cfg.MempoolCheckFrequency)
	}

	root := mempool.Hash{0x01}
	child := mempool.Hash{0x02}
	unrelated := mempool.Hash{0x03}

	if _, err := p.Push("root-tx", root, nil, 10, 100, 1_000_000, 200); err != nil {
		fmt.Println("push root:", err)
		return subcommands.ExitFailure
	}
	if _, err := p.Push("unrelated-tx", unrelated, nil, 50, 50, 1_000_000, 150); err != nil {
		fmt.Println("push unrelated:", err)
		return subcommands.ExitFailure
	}
	if _, err := p.Push("child-tx", child, []mempool.Hash{root}, 90, 300, 1_000_000, 180); err != nil {
		fmt.Println("push child:", err)
		return subcommands.ExitFailure
	}

	fmt.Println("initial priority order:")
	printPool(p)

	p.Check()

	if err := p.Remove(root); err != nil {
		fmt.Println("remove root:", err)
		return subcommands.ExitFailure
	}

	fmt.Println("\nafter removing root-tx (child survives, re-settled):")
	printPool(p)

	p.Check()

	sizeLimit := uint32(m.sizeLimit)
	if sizeLimit == 0 {
		sizeLimit = cfg.MempoolSizeLimit
	}
	fmt.Printf("\nblock-assembly prefix under a %d-byte limit:\n", sizeLimit)
	for i, obj := range p.ListSizeLimit(sizeLimit) {
		fmt.Printf("  %d: %s\n", i, obj)
	}

	return subcommands.ExitSuccess
}

func printPool(p *mempool.Pool[string]) {
	i := 0
	for obj := range p.ListAllObj(false) {
		fmt.Printf("  %d: %s\n", i, obj)
		i++
	}
}
