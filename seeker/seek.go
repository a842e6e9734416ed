// Package seeker scans Proof-of-Capacity plot files for a nonce whose
// work hash satisfies a target, single-file, multi-threaded per file,
// and swept across a whole directory. It generalizes the teacher's
// mining.CPUMiner solve loop (mining/miner.go) from a single in-process
// PoW attempt counter into a cooperative, cancellable worker pool over
// a read-only file, using golang.org/x/sync/errgroup in place of the
// original Rust threadpool::ThreadPool + mpsc::channel plumbing.
package seeker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"pocnode/workhash"
)

// SeekTimeout is the default budget for a folder sweep when the caller
// passes a zero timeout. SeekFolder accepts an explicit timeout (wired
// from config.Config.SeekTimeout by the CLI); this constant only backs
// the zero-value default. SeekFile and SeekThread always take an
// explicit deadline and do not use it.
const SeekTimeout = 1500 * time.Millisecond

// defaultCheckEvery is the nonce-count granularity a worker polls the
// wall clock at when the caller doesn't supply its own (via
// config.Config.SeekCheckEvery). The cancellation-signal check runs on a
// cadence one nonce longer (every checkEvery+1 nonces, 2001 by default),
// so the two checks mostly fall on different nonces; both still fire at
// nonce 0 — see DESIGN.md.
const defaultCheckEvery = 2000

// checkGranularity normalizes a caller-supplied check interval,
// defaulting to defaultCheckEvery, and returns the (timeout, kill) pair
// of check cadences.
func checkGranularity(checkEvery uint32) (timeoutEvery, killEvery uint32) {
	if checkEvery == 0 {
		checkEvery = defaultCheckEvery
	}
	return checkEvery, checkEvery + 1
}

// Result is a found nonce and its work hash.
type Result struct {
	Nonce uint32
	Work  []byte
}

// SeekFile scans nonces [start, end) of a single plot file on the
// calling goroutine, reading one 32-byte scope hash per nonce starting
// at the file offset selected by previousHash's scope index. checkEvery
// is the nonce-count cadence for the wall-clock check; 0 selects the
// default.
func SeekFile(path string, start, end uint32, previousHash [32]byte, target []byte, blockTime uint32, deadline time.Time, checkEvery uint32) (Result, error) {
	started := time.Now()
	timeoutEvery, _ := checkGranularity(checkEvery)

	if _, err := os.Stat(path); err != nil {
		return Result{}, ErrNotFound
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	scopeIndex := workhash.GetScopeIndex(previousHash)
	startPos := int64(scopeIndex) * 32 * int64(end-start)
	if _, err := f.Seek(startPos, io.SeekStart); err != nil {
		return Result{}, err
	}

	r := bufio.NewReader(f)
	var scopeHash [32]byte
	for nonce := start; nonce < end; nonce++ {
		if _, err := io.ReadFull(r, scopeHash[:]); err != nil {
			return Result{}, ErrShortRead
		}
		if nonce%timeoutEvery == 0 && time.Now().After(deadline) {
			return Result{}, fmt.Errorf("%w after %s", ErrTimeout, time.Since(started))
		}
		work := workhash.GetWorkHash(blockTime, scopeHash, previousHash)
		if workhash.WorkCheck(work[:32], target) {
			out := make([]byte, 32)
			copy(out, work[:32])
			return Result{Nonce: nonce, Work: out}, nil
		}
	}
	return Result{}, fmt.Errorf("%w after %s", ErrExhausted, time.Since(started))
}

// SeekThread scans nonces [start, end) of a single plot file, split
// into `workers` contiguous slices and searched concurrently. Each
// slice's bytes are read on the calling goroutine before fan-out, so no
// worker goroutine shares the file handle — they operate on independent
// in-memory buffers (spec.md §4.4.2). The first worker to find a
// satisfying nonce wins; every other worker is signalled to stop via a
// shared atomic counter, polled at a killEvery-nonce granularity, the
// same cadence the original thread-pool implementation used its
// Arc<Mutex<i32>> signal at. checkEvery is the nonce-count cadence for
// the wall-clock check; 0 selects the default.
//
// Workers run under a plain errgroup.Group with no derived context: an
// ordinary per-worker failure (ErrExhausted on a slice with no hit,
// ErrShortRead on a truncated buffer) must not cancel its siblings.
// Spec.md §5 and §9 are explicit that cancellation is triggered only by
// success (the shared signal) or a worker's own deadline check — never
// by another goroutine's return value. ctx is honored directly, so an
// external caller cancelling ctx still stops every worker.
func SeekThread(ctx context.Context, path string, start, end uint32, previousHash [32]byte, target []byte, blockTime uint32, deadline time.Time, workers int, checkEvery uint32) (Result, error) {
	started := time.Now()
	timeoutEvery, killEvery := checkGranularity(checkEvery)

	if workers < 1 {
		workers = 1
	}
	if _, err := os.Stat(path); err != nil {
		return Result{}, ErrNotFound
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	scopeIndex := workhash.GetScopeIndex(previousHash)
	startPos := int64(scopeIndex) * 32 * int64(end-start)
	if _, err := f.Seek(startPos, io.SeekStart); err != nil {
		return Result{}, err
	}

	total := end - start
	areaSize := total / uint32(workers)
	if areaSize == 0 {
		areaSize = total
		workers = 1
	}

	var signal atomic.Int32
	var g errgroup.Group

	var buffers [][]byte
	for i := 0; i < workers; i++ {
		areaLen := areaSize
		if i == workers-1 {
			areaLen = total - areaSize*uint32(workers-1)
		}
		buf := make([]byte, int(areaLen)*32)
		if _, err := io.ReadFull(f, buf); err != nil {
			return Result{}, ErrShortRead
		}
		buffers = append(buffers, buf)
	}

	results := make(chan Result, workers)
	for i := 0; i < workers; i++ {
		i := i
		areaStart := start + areaSize*uint32(i)
		areaEnd := areaStart + areaSize
		if i == workers-1 {
			areaEnd = end
		}
		buf := buffers[i]

		g.Go(func() error {
			for pos, nonce := 0, areaStart; nonce < areaEnd; pos, nonce = pos+1, nonce+1 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				if nonce%timeoutEvery == 0 && time.Now().After(deadline) {
					return fmt.Errorf("%w after %s", ErrTimeout, time.Since(started))
				}
				if nonce%killEvery == 0 && signal.Load() != 0 {
					return ErrKilled
				}
				if (pos+1)*32 > len(buf) {
					return ErrShortRead
				}
				var scopeHash [32]byte
				copy(scopeHash[:], buf[pos*32:pos*32+32])
				work := workhash.GetWorkHash(blockTime, scopeHash, previousHash)
				if workhash.WorkCheck(work[:32], target) {
					signal.Add(1)
					out := make([]byte, 32)
					copy(out, work[:32])
					results <- Result{Nonce: nonce, Work: out}
					return nil
				}
			}
			return fmt.Errorf("%w after %s", ErrExhausted, time.Since(started))
		})
	}

	err = g.Wait()
	close(results)

	if r, ok := <-results; ok {
		return r, nil
	}
	if err != nil {
		return Result{}, err
	}
	return Result{}, fmt.Errorf("%w after %s", ErrExhausted, time.Since(started))
}

var plotFileRE = regexp.MustCompile(`^optimized\.([a-z0-9]+)-([0-9]+)-([0-9]+)\.dat$`)

// PlotFile describes one matched plot file in a directory sweep.
type PlotFile struct {
	Path    string
	Address string
	Start   uint32
	End     uint32
}

// FolderLogger receives a debug-level note for every plot file a
// directory sweep failed to find work in, mirroring the original
// implementation's cfg!(debug_assertions) eprintln on per-file failure
// (spec.md §4.5.2).
type FolderLogger interface {
	Debugf(format string, args ...any)
}

// SeekFolder walks dir for files matching the plot-file naming
// convention (optimized.<address>-<start>-<end>.dat) and runs
// SeekThread against each in turn, sharing one deadline clock across
// the whole sweep — the directory sweep does not give each file its
// own budget, an explicit spec default kept rather than changed (see
// DESIGN.md). timeout bounds the whole sweep (0 selects SeekTimeout);
// checkEvery is forwarded to SeekThread (0 selects its default). It
// returns the first satisfying result found, along with the address
// encoded in that file's name.
func SeekFolder(ctx context.Context, dir string, previousHash [32]byte, target []byte, blockTime uint32, workers int, timeout time.Duration, checkEvery uint32, log FolderLogger) (Result, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, "", err
	}
	if timeout <= 0 {
		timeout = SeekTimeout
	}

	started := time.Now()
	deadline := started.Add(timeout)
	found := false
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		m := plotFileRE.FindStringSubmatch(ent.Name())
		if m == nil {
			continue
		}
		found = true
		pf := parsePlotFile(dir, ent.Name(), m)

		res, err := SeekThread(ctx, pf.Path, pf.Start, pf.End, previousHash, target, blockTime, deadline, workers, checkEvery)
		if err == nil {
			return res, pf.Address, nil
		}
		if log != nil {
			log.Debugf("seeker: %s: %v", pf.Path, err)
		}
	}
	if !found {
		return Result{}, "", ErrNoPlotFiles
	}
	return Result{}, "", fmt.Errorf("%w after %s", ErrExhausted, time.Since(started))
}

func parsePlotFile(dir, name string, m []string) PlotFile {
	start, _ := strconv.ParseUint(m[2], 10, 32)
	end, _ := strconv.ParseUint(m[3], 10, 32)
	return PlotFile{
		Path:    dir + string(os.PathSeparator) + name,
		Address: m[1],
		Start:   uint32(start),
		End:     uint32(end),
	}
}
