package cmd

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"pocnode/config"
	"pocnode/logging"
	"pocnode/seeker"
)

// SeekArgs sweeps a directory of plot files looking for a nonce whose
// work hash satisfies a target, the CLI entry point onto the seeker
// package's directory-sweep mode.
type SeekArgs struct {
	cfg       *config.Config
	dir       string
	targetHex string
	prevHex   string
	blockTime uint
	workers   int
}

func (*SeekArgs) Name() string     { return "seek" }
func (*SeekArgs) Synopsis() string { return "sweep a plot directory for a satisfying nonce" }
func (*SeekArgs) Usage() string {
	return `seek --dir <path> --target <hex32> [--prev <hex32>] [--time <unix>] [--workers N]

Scans every optimized.<address>-<start>-<end>.dat file in --dir, using
--workers goroutines per file, and reports the first nonce whose work
hash satisfies --target. The sweep's budget and check granularity come
from config.Config (SEEK_TIMEOUT / SEEK_CHECK_EVERY env vars).
`
}

func (s *SeekArgs) SetFlags(fs *flag.FlagSet) {
	s.cfg = config.Load()
	fs.StringVar(&s.dir, "dir", s.cfg.PlotDir, "plot directory to sweep")
	fs.StringVar(&s.targetHex, "target", "", "32-byte target, hex-encoded")
	fs.StringVar(&s.prevHex, "prev", "", "32-byte previous block hash, hex-encoded (defaults to all zero)")
	fs.UintVar(&s.blockTime, "time", 0, "block time (unix seconds)")
	fs.IntVar(&s.workers, "workers", 0, "worker goroutines per file (0 = config default)")
}

func (s *SeekArgs) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := s.cfg
	if cfg == nil {
		cfg = config.Load()
	}
	log := logging.New(cfg.LogLevel)

	target, err := decodeHash32(s.targetHex)
	if err != nil {
		fmt.Println("invalid --target:", err)
		return subcommands.ExitUsageError
	}

	var prev [32]byte
	if s.prevHex != "" {
		p, err := decodeHash32(s.prevHex)
		if err != nil {
			fmt.Println("invalid --prev:", err)
			return subcommands.ExitUsageError
		}
		prev = p
	}

	workers := s.workers
	if workers <= 0 {
		workers = cfg.Workers
	}

	res, address, err := seeker.SeekFolder(ctx, s.dir, prev, target[:], uint32(s.blockTime), workers, cfg.SeekTimeout, uint32(cfg.SeekCheckEvery), log)
	if err != nil {
		fmt.Println("seek failed:", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("found nonce=%d address=%s work=%x\n", res.Nonce, address, res.Work)
	return subcommands.ExitSuccess
}

func decodeHash32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("want 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
