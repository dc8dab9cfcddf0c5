//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"fmt"
	"io"
	"time"

	"github.com/markkurossi/tabulate"
)

// IOStats accumulates bytes sent and received across every round a
// driver runs, mirroring the reference repo's p2p.IOStats footer row.
type IOStats struct {
	Sent  uint64
	Recvd uint64
}

// Add returns the elementwise sum of stats and o.
func (stats IOStats) Add(o IOStats) IOStats {
	return IOStats{Sent: stats.Sent + o.Sent, Recvd: stats.Recvd + o.Recvd}
}

// Sum returns the total bytes transferred.
func (stats IOStats) Sum() uint64 {
	return stats.Sent + stats.Recvd
}

// byteSize formats a byte count the way the reference repo's
// circuit.FileSize does.
type byteSize uint64

func (s byteSize) String() string {
	switch {
	case s > 1000*1000*1000*1000:
		return fmt.Sprintf("%dTB", s/(1000*1000*1000*1000))
	case s > 1000*1000*1000:
		return fmt.Sprintf("%dGB", s/(1000*1000*1000))
	case s > 1000*1000:
		return fmt.Sprintf("%dMB", s/(1000*1000))
	case s > 1000:
		return fmt.Sprintf("%dkB", s/1000)
	default:
		return fmt.Sprintf("%dB", s)
	}
}

// Stats records one timing-and-transfer sample per driver round and
// renders a profiling report, the same shape as the reference repo's
// circuit.Timing.
type Stats struct {
	Start   time.Time
	Samples []*RoundSample
}

// RoundSample is one round's elapsed time and bytes transferred.
type RoundSample struct {
	Round int
	Start time.Time
	End   time.Time
	Bytes int
}

// NewStats creates a new, empty Stats.
func NewStats() *Stats {
	return &Stats{Start: time.Now()}
}

// AddBytes records that round transferred n additional bytes,
// closing out a timing sample for it.
func (s *Stats) AddBytes(round, n int) {
	if len(s.Samples) > 0 {
		if last := s.Samples[len(s.Samples)-1]; last.Round == round {
			last.Bytes += n
			last.End = time.Now()
			return
		}
	}
	start := s.Start
	if len(s.Samples) > 0 {
		start = s.Samples[len(s.Samples)-1].End
	}
	s.Samples = append(s.Samples, &RoundSample{
		Round: round,
		Start: start,
		End:   time.Now(),
		Bytes: n,
	})
}

// Print renders the round-by-round report to w.
func (s *Stats) Print(w io.Writer, ioStats IOStats) {
	if len(s.Samples) == 0 {
		return
	}

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Round").SetAlign(tabulate.MR)
	tab.Header("Time").SetAlign(tabulate.MR)
	tab.Header("%").SetAlign(tabulate.MR)
	tab.Header("Xfer").SetAlign(tabulate.MR)

	total := s.Samples[len(s.Samples)-1].End.Sub(s.Start)
	for _, sample := range s.Samples {
		row := tab.Row()
		row.Column(fmt.Sprintf("%d", sample.Round))
		d := sample.End.Sub(sample.Start)
		row.Column(d.String())
		row.Column(fmt.Sprintf("%.2f%%", float64(d)/float64(total)*100))
		row.Column(byteSize(sample.Bytes).String())
	}

	row := tab.Row()
	row.Column("Total").SetFormat(tabulate.FmtBold)
	row.Column(total.String()).SetFormat(tabulate.FmtBold)
	row.Column("").SetFormat(tabulate.FmtBold)
	row.Column(byteSize(ioStats.Sum()).String()).SetFormat(tabulate.FmtBold)

	tab.Print(w)
}
