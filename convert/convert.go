// Package convert runs background jobs that re-serialize uploaded sequence
// files into another supported format.
package convert

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joiningdata/seqio"
	"github.com/joiningdata/seqio/formats"
)

// Converter handles format conversion tasks.
type Converter struct {
	pump chan request
}

// NewConverter starts a new background processor and returns
// the newly created Converter instance.
func NewConverter() *Converter {
	c := &Converter{
		pump: make(chan request, 4),
	}
	go c.run()
	return c
}

type request struct {
	inputFilename string
	resultToken   string
	options       *Options
}

// Options records various conversion parameters to control the process.
type Options struct {
	// OutputFormat names the registered format to serialize to.
	OutputFormat string

	// Wrap sets the sequence line width for FASTA output; 0 disables
	// wrapping. Ignored for other formats.
	Wrap int

	// DropInvalid indicates that records failing their validity check
	// should be dropped from output rather than copied through.
	DropInvalid bool
}

// Stats describes various metrics for how the conversion went.
type Stats struct {
	// StartTime of the conversion process.
	StartTime time.Time `json:"start_time"`

	// EndTime of the conversion process.
	EndTime time.Time `json:"end_time"`

	// TotalRecords counts the total number of records processed.
	TotalRecords int `json:"total_records"`

	// DroppedInvalid counts the records dropped by the DropInvalid option.
	DroppedInvalid int `json:"dropped_invalid"`

	// DroppedQuality counts the records whose quality data could not be
	// represented in the output format.
	DroppedQuality int `json:"dropped_quality"`
}

// Result describes the conversion process and results.
type Result struct {
	// Token for retrieving result metadata.
	Token string `json:"token"`

	// Options that were used to drive the conversion.
	Options *Options `json:"options"`

	// NewFilename contains the filename for the converted output file.
	NewFilename string `json:"newfilename"`

	// Stats for how the conversion went.
	Stats *Stats `json:"stats"`

	// Error is set when the conversion failed.
	Error string `json:"error,omitempty"`
}

// Start a new conversion task in the background and return a job token.
func (c *Converter) Start(fname string, opts *Options) string {
	token := fmt.Sprintf("%x", sha256.Sum256([]byte(fname)))
	d := request{
		inputFilename: fname,
		resultToken:   token,
		options:       opts,
	}
	c.pump <- d
	return token
}

// Status checks for a Result using the given job-token.
func (c *Converter) Status(token string) (res *Result, done bool) {
	res = &Result{}
	notready, err := seqio.GetResult(token, "convert", res)
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

func (c *Converter) run() {
	for req := range c.pump {
		c.runOne(req)
	}
}

func (c *Converter) runOne(req request) {
	res := &Result{Options: req.options}

	target := formats.Lookup(req.options.OutputFormat)
	if target == nil {
		res.Error = "unknown output format " + req.options.OutputFormat
		seqio.PutResult(req.resultToken, "convert", res)
		return
	}

	fin, err := os.Open(seqio.GetUploadPath(req.inputFilename))
	if err != nil {
		log.Println("stage0", req, err)
		res.Error = "unable to read input"
		seqio.PutResult(req.resultToken, "convert", res)
		return
	}
	defer fin.Close()

	base := strings.TrimSuffix(req.inputFilename, filepath.Ext(req.inputFilename))
	res.NewFilename = base + target.Extensions[0]
	fout, err := os.Create(seqio.GetDownloadPath(res.NewFilename))
	if err != nil {
		log.Println("stage1", req, err)
		res.Error = "unable to create output"
		seqio.PutResult(req.resultToken, "convert", res)
		return
	}
	defer fout.Close()

	res.Stats, err = Convert(formats.NewAuto(fin), fout, target, req.options)
	if err != nil {
		res.Error = err.Error()
	}

	seqio.PutResult(req.resultToken, "convert", res)
}

// Convert copies every record from r to w serialized in the target format,
// applying the conversion Options. Records that the target format cannot
// represent (FASTQ output for quality-less input) terminate the conversion
// with an error.
func Convert(r formats.Reader, w io.Writer, target *formats.Format, opts *Options) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	defer func() { stats.EndTime = time.Now() }()

	fw := target.NewWriter(w)
	if fa, ok := fw.(*formats.FASTAWriter); ok && opts.Wrap > 0 {
		fa.Wrap(opts.Wrap)
	}

	rec, err := r.Next()
	for err == nil {
		stats.TotalRecords++
		if opts.DropInvalid && rec.Check() != nil {
			stats.DroppedInvalid++
			rec, err = r.Next()
			continue
		}
		if rec.Qual != nil && target.Name == "fasta" {
			stats.DroppedQuality++
		}
		if werr := fw.Write(rec); werr != nil {
			return stats, werr
		}
		rec, err = r.Next()
	}
	if err != io.EOF {
		return stats, err
	}
	return stats, fw.Flush()
}
