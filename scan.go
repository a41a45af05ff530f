package wxkey

import (
	"context"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	KiB = 1024
	MiB = 1024 * KiB

	DefaultScanTimeout = 120 * time.Second
)

// Pass is one sweep over the target's regions with a single search strategy.
type Pass struct {
	Strategy  Strategy
	MinSize   uint64 // regions smaller than this are skipped
	MaxSize   uint64 // regions larger than this are skipped
	ReadLimit uint64 // at most this many bytes are read from the start of a region
	Writable  bool   // only scan regions that are also writable

	// ReportCandidates makes the scanner call OnCandidate for every new key of this pass.
	ReportCandidates bool
}

func (p Pass) Name() string {
	return p.Strategy.Name()
}

func (p Pass) eligible(r Region) bool {
	if !r.Readable || (p.Writable && !r.Writable) {
		return false
	}
	size := r.Size()
	return size >= p.MinSize && size <= p.MaxSize
}

// PrimaryPass searches every readable region for x'<key>' literals.
func PrimaryPass() Pass {
	return Pass{
		Strategy:  LiteralStrategy{},
		MinSize:   64,
		MaxSize:   100 * MiB,
		ReadLimit: 10 * MiB,
	}
}

// FallbackPass searches readable+writable regions for bare hex keys near the storage path marker.
func FallbackPass() Pass {
	return Pass{
		Strategy:         MarkerStrategy{Marker: DefaultMarker, Window: 1024},
		MinSize:          100,
		MaxSize:          50 * MiB,
		ReadLimit:        5 * MiB,
		Writable:         true,
		ReportCandidates: true,
	}
}

// Match is a single hit together with the region it came from.
type Match struct {
	Pass   string
	Region Region
	Data   []byte // bytes read from the start of Region
	Hit    Hit
}

// Scanner runs its passes in order. A pass only runs if no earlier pass found a key.
type Scanner struct {
	Passes  []Pass
	Timeout time.Duration // applies to ScanProcess, 0 disables
	Log     logrus.FieldLogger

	OnCandidate func(pass, key string)
	OnMatch     func(Match)
	Progress    func(pass string, done, total int)
}

func NewScanner() *Scanner {
	return &Scanner{
		Passes:  []Pass{PrimaryPass(), FallbackPass()},
		Timeout: DefaultScanTimeout,
		Log:     logrus.StandardLogger(),
	}
}

func (s *Scanner) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// replaced in tests
var attachTarget = Attach

// ScanProcess attaches to pid, scans it and detaches again.
// Attach failures are returned wrapped in ErrAttach.
func (s *Scanner) ScanProcess(ctx context.Context, pid int, opts AttachOptions) (*KeySet, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	t, err := attachTarget(ctx, pid, opts)
	if err != nil {
		return nil, err
	}
	s.log().WithField("pid", pid).Debug("attached")

	defer func() {
		if err := t.Detach(); err != nil {
			s.log().WithError(err).WithField("pid", pid).Warn("detach failed")
			return
		}
		s.log().WithField("pid", pid).Debug("detached")
	}()

	return s.Scan(ctx, t)
}

// Scan runs the passes over an attached target.
func (s *Scanner) Scan(ctx context.Context, t Target) (*KeySet, error) {
	regions, err := t.Regions()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate regions")
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Start < regions[j].Start })
	s.log().WithField("regions", len(regions)).Debug("enumerated memory regions")

	keys := NewKeySet()
	for i, pass := range s.Passes {
		if i > 0 && keys.Len() > 0 {
			break
		}
		if err := s.runPass(ctx, t, pass, regions, keys); err != nil {
			return nil, err
		}
		if keys.Len() == 0 {
			s.log().WithField("pass", pass.Name()).Info("no keys found in pass")
		}
	}
	return keys, nil
}

func (s *Scanner) runPass(ctx context.Context, t Target, pass Pass, regions []Region, keys *KeySet) error {
	eligible := lo.Filter(regions, func(r Region, _ int) bool { return pass.eligible(r) })
	log := s.log().WithField("pass", pass.Name())
	log.WithField("regions", len(eligible)).Debug("starting pass")

	for i, r := range eligible {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "%s pass interrupted", pass.Name())
		}
		if s.Progress != nil {
			s.Progress(pass.Name(), i, len(eligible))
		}

		data, err := r.Read(t, pass.ReadLimit)
		if err != nil || len(data) == 0 {
			log.WithField("region", r.String()).WithError(err).Trace("region skipped")
			continue
		}

		for _, h := range pass.Strategy.Search(data) {
			if s.OnMatch != nil {
				s.OnMatch(Match{Pass: pass.Name(), Region: r, Data: data, Hit: h})
			}
			if !keys.Add(h.Key) {
				continue
			}
			log.WithFields(logrus.Fields{
				"region": r.String(),
				"size":   humanize.IBytes(r.Size()),
				"offset": h.Offset,
			}).Debug("key candidate")
			if pass.ReportCandidates && s.OnCandidate != nil {
				s.OnCandidate(pass.Name(), h.Key)
			}
		}
	}
	if s.Progress != nil {
		s.Progress(pass.Name(), len(eligible), len(eligible))
	}
	return nil
}
