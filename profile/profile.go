// Package profile runs background profiling jobs over uploaded sequence
// files: format detection, record and base statistics, validity checking,
// and a duplicate-read estimate.
package profile

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joiningdata/seqio"
	"github.com/joiningdata/seqio/dedup"
	"github.com/joiningdata/seqio/formats"
)

// maxIssues caps how many per-record validity failures are reported.
const maxIssues = 100

// Profiler handles sequence-file profiling tasks.
type Profiler struct {
	pump chan request
}

// NewProfiler starts a new background processor and returns
// the newly created Profiler instance.
func NewProfiler() *Profiler {
	p := &Profiler{
		pump: make(chan request, 4),
	}
	go p.run()
	return p
}

type request struct {
	inputFilename string
	resultToken   string
}

// Issue describes one record that parsed but failed validity checking.
type Issue struct {
	// RecordID of the offending record ("" if the identifier was missing).
	RecordID string `json:"record_id"`

	// Ordinal position of the record in the input, starting at 1.
	Ordinal int `json:"ordinal"`

	// Reason the record failed its check.
	Reason string `json:"reason"`
}

// Result encodes the results of a profiling task on a sequence file.
type Result struct {
	// Token for retrieving result metadata.
	Token string `json:"token"`

	// InputFilename is the source filename (relative to upload directory).
	InputFilename string `json:"input_file"`

	// Format that was detected for the input.
	Format string `json:"format"`

	// Records counts the records parsed from the input.
	Records int `json:"records"`

	// Bases counts the total sequence length over all records.
	Bases int64 `json:"bases"`

	// MinLength and MaxLength bound the per-record sequence lengths.
	MinLength int `json:"min_length"`
	MaxLength int `json:"max_length"`

	// MeanLength is the mean per-record sequence length.
	MeanLength float64 `json:"mean_length"`

	// GC is the fraction of G/C bases over all sequence data.
	GC float64 `json:"gc"`

	// BaseCounts tallies each byte value seen in sequence data.
	BaseCounts map[string]int64 `json:"base_counts"`

	// HasQuality is true when the detected format carries quality data.
	HasQuality bool `json:"has_quality"`

	// Issues lists records that failed validity checking (up to maxIssues).
	Issues []*Issue `json:"issues"`

	// InvalidRecords counts all records that failed validity checking,
	// including those past the Issues cap.
	InvalidRecords int `json:"invalid_records"`

	// DuplicateEstimate is the estimated number of duplicated sequences.
	DuplicateEstimate int `json:"duplicate_estimate"`

	// Error is set when the job failed before any profiling happened,
	// e.g. when the input file could not be opened.
	Error string `json:"error,omitempty"`

	// ParseError describes the parse failure that ended iteration early,
	// if any. Records before the failure are still counted.
	ParseError string `json:"parse_error,omitempty"`

	// StartTime and EndTime of the profiling job.
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

///////////////

// Start a background profiling job on the given filename.
// Returns a job token that can be used to check job status.
func (p *Profiler) Start(fname string) string {
	token := fmt.Sprintf("%x", sha256.Sum256([]byte(fname)))
	x := request{
		inputFilename: fname,
		resultToken:   token,
	}
	p.pump <- x
	return token
}

// Status checks for a Result using the given job-token.
func (p *Profiler) Status(token string) (res *Result, done bool) {
	res = &Result{}
	notready, err := seqio.GetResult(token, "profile", res)
	if notready {
		return nil, false
	}
	if err != nil {
		log.Println(err)
		return nil, true
	}
	res.Token = token
	return res, true
}

func (p *Profiler) run() {
	for req := range p.pump {
		p.runOne(req)
	}
}

func (p *Profiler) runOne(req request) {
	f, err := os.Open(seqio.GetUploadPath(req.inputFilename))
	if err != nil {
		log.Println("stage0", req, err)
		seqio.PutResult(req.resultToken, "profile",
			"error", "unable to read input")
		return
	}
	defer f.Close()

	res := Profile(formats.NewAuto(f))
	res.InputFilename = req.inputFilename

	seqio.PutResult(req.resultToken, "profile", res)
}

// Profile reads every record from r and accumulates stream statistics.
// Iteration stops at end of input or at the first parse failure, which is
// reported in the Result rather than returned.
func Profile(r formats.Reader) *Result {
	res := &Result{
		StartTime:  time.Now(),
		BaseCounts: make(map[string]int64),
	}

	sketch := dedup.New(0)
	var gc int64

	rec, err := r.Next()
	for err == nil {
		res.Records++
		n := len(rec.Seq)
		res.Bases += int64(n)
		if res.Records == 1 || n < res.MinLength {
			res.MinLength = n
		}
		if n > res.MaxLength {
			res.MaxLength = n
		}
		for _, b := range rec.Seq {
			res.BaseCounts[string(b)]++
			switch b {
			case 'G', 'g', 'C', 'c':
				gc++
			}
		}
		if rec.Qual != nil {
			res.HasQuality = true
		}

		if cerr := rec.Check(); cerr != nil {
			res.InvalidRecords++
			if len(res.Issues) < maxIssues {
				res.Issues = append(res.Issues, &Issue{
					RecordID: rec.ID,
					Ordinal:  res.Records,
					Reason:   cerr.Error(),
				})
			}
		}

		if sketch.Add(rec.Seq) {
			res.DuplicateEstimate++
		}

		rec, err = r.Next()
	}
	if err != io.EOF {
		res.ParseError = err.Error()
	}

	if a, ok := r.(*formats.Auto); ok {
		res.Format = a.FormatName()
	}
	if res.Records > 0 {
		res.MeanLength = float64(res.Bases) / float64(res.Records)
	}
	if res.Bases > 0 {
		res.GC = float64(gc) / float64(res.Bases)
	}
	res.EndTime = time.Now()
	return res
}
