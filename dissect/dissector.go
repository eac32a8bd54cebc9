package dissect

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/pkg/errors"

	"github.com/moffa90/go-bk7231/artifact"
	"github.com/moffa90/go-bk7231/dump"
	"github.com/moffa90/go-bk7231/layout"
	"github.com/moffa90/go-bk7231/rbl"
	"github.com/moffa90/go-bk7231/scan"
)

// Source tells how a payload was recovered.
type Source int

const (
	// SourceContainer payloads come from an RBL container
	SourceContainer Source = iota

	// SourcePatternScan payloads come from the pattern scan fallback
	SourcePatternScan
)

func (s Source) String() string {
	switch s {
	case SourceContainer:
		return "container"
	case SourcePatternScan:
		return "pattern scan"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Recovered is a payload recovered from a dump.
type Recovered struct {
	// Partition is the partition (or container) name
	Partition string

	// Source tells how the payload was found
	Source Source

	// Tag is the artifact tag of the raw payload
	Tag string

	// Container is the source container, nil for pattern scans
	Container *rbl.Container

	// Payload is the recovered payload
	Payload []byte

	// Decrypted is the decrypted, padded payload of code partitions
	Decrypted []byte

	// Paths lists the artifacts written for this payload
	Paths []string
}

// Rejected is a candidate container offset that failed to parse.
type Rejected struct {
	Offset int
	Err    error
}

// Result collects the outcome of a run. On error it holds everything
// processed before the failure.
type Result struct {
	// Containers lists every parsed container, valid or not
	Containers []*rbl.Container

	// Rejected lists candidate offsets that failed to parse
	Rejected []Rejected

	// Recovered lists recovered payloads in discovery order
	Recovered []*Recovered
}

// Dissector recovers firmware partitions from flash dumps for one layout.
//
// A Dissector keeps no state between runs.
type Dissector struct {
	layout *layout.Layout
	config Config
}

// New creates a new Dissector for layout l with the given options.
//
// Example:
//
//	l, _ := layout.Get(layout.DefaultLayout)
//	d := dissect.New(l,
//	    dissect.WithEventCallback(dissect.NewReporter(os.Stdout)),
//	    dissect.WithWriter(artifact.NewDirWriter("out")),
//	)
func New(l *layout.Layout, opts ...Option) *Dissector {
	if l == nil {
		panic("layout cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Dissector{
		layout: l,
		config: cfg,
	}
}

// Layout returns the layout the dissector works with.
func (d *Dissector) Layout() *layout.Layout {
	return d.layout
}

// Run dissects img:
//  1. Parse every RBL container candidate; parse failures are reported
//     and skipped
//  2. Recover the payload of every valid container
//  3. Pattern scan every layout partition no valid container covers
//  4. Decrypt payloads of code partitions
//  5. Write artifacts when a writer is configured
//
// Pattern scan failures abort the run. Artifacts written before the failure
// are kept and the partial Result is returned along with the error.
func (d *Dissector) Run(img *dump.Image) (*Result, error) {
	startTime := time.Now()
	data := img.Bytes()
	res := &Result{}
	covered := make(map[string]bool)

	for off := range rbl.Offsets(data) {
		c, err := rbl.Parse(data, off, d.layout)
		if err != nil {
			res.Rejected = append(res.Rejected, Rejected{Offset: off, Err: err})
			d.logDebug("container candidate rejected", "offset", fmt.Sprintf("0x%X", off), "error", err)
			d.emit(Event{Kind: EventContainerRejected, Offset: off, Err: err})
			continue
		}

		res.Containers = append(res.Containers, c)
		if !c.Valid() {
			d.logDebug("container payload invalid", "offset", fmt.Sprintf("0x%X", off), "name", c.Header.Name)
			d.emit(Event{Kind: EventContainerInvalid, Offset: off, Partition: c.Header.Name})
			continue
		}

		covered[c.Header.Name] = true
		d.emit(Event{
			Kind:      EventContainerFound,
			Offset:    off,
			Partition: c.Header.Name,
			Algorithm: c.Header.Algorithm,
			Size:      len(c.Payload),
		})

		rec := d.fromContainer(c)
		if err := d.extract(img.Stem(), rec); err != nil {
			return res, err
		}
		res.Recovered = append(res.Recovered, rec)
	}

	for _, p := range d.layout.Partitions() {
		if covered[p.Name] {
			continue
		}

		d.emit(Event{Kind: EventFallback, Partition: p.Name, Address: p.StartAddress})

		rec, err := d.PatternScan(img, p.Name)
		if err != nil {
			d.logError("pattern scan failed", "partition", p.Name, "error", err)
			return res, err
		}

		d.emit(Event{
			Kind:      EventPatternScanned,
			Partition: p.Name,
			Address:   p.StartAddress,
			Size:      len(rec.Payload),
		})

		if err := d.extract(img.Stem(), rec); err != nil {
			return res, err
		}
		res.Recovered = append(res.Recovered, rec)
	}

	total := 0
	for _, rec := range res.Recovered {
		total += len(rec.Payload)
	}
	d.logInfo("dissection complete",
		"dump", img.Path(),
		"layout", d.layout.Name(),
		"containers", len(res.Containers),
		"rejected", len(res.Rejected),
		"recovered", len(res.Recovered),
		"bytes", humanize.IBytes(uint64(total)),
		"elapsed", durafmt.Parse(time.Since(startTime)).String(),
	)

	return res, nil
}

// PatternScan recovers the partition called name from the raw bytes of img.
// Unlike Run it does not write artifacts.
func (d *Dissector) PatternScan(img *dump.Image, name string) (*Recovered, error) {
	payload, err := scan.Extract(img.Bytes(), d.layout, name)
	if err != nil {
		return nil, errors.Wrap(err, "pattern scan")
	}

	p, _ := d.layout.Partition(name)
	rec := &Recovered{
		Partition: name,
		Source:    SourcePatternScan,
		Tag:       artifact.TagPatternScan,
		Payload:   payload,
	}
	if p.Code {
		rec.Decrypted = d.decrypt(payload, p)
	}

	d.logDebug("pattern scan recovered partition",
		"partition", name,
		"address", fmt.Sprintf("0x%X", p.StartAddress),
		"size", len(payload),
	)
	return rec, nil
}

func (d *Dissector) fromContainer(c *rbl.Container) *Recovered {
	rec := &Recovered{
		Partition: c.Header.Name,
		Source:    SourceContainer,
		Tag:       c.Header.Version,
		Container: c,
		Payload:   c.Payload,
	}

	// Containers for partitions outside the layout are never decrypted.
	if p, ok := d.layout.Partition(c.Header.Name); ok && p.Code {
		rec.Decrypted = d.decrypt(c.Payload, p)
	}
	return rec
}

func (d *Dissector) decrypt(payload []byte, p layout.Partition) []byte {
	ci := d.config.Cipher
	return ci.Decrypt(ci.Pad(payload), p.MappedAddress)
}

// extract writes the artifacts of rec if a writer is configured.
func (d *Dissector) extract(stem string, rec *Recovered) error {
	w := d.config.Writer
	if w == nil {
		return nil
	}

	raw, decryptedTag := rec.Payload, artifact.TagPatternScanDecrypted
	if rec.Source == SourceContainer {
		raw = rec.Container.Bytes(!d.config.WithContainerHeader)
		decryptedTag = artifact.DecryptedTag(rec.Tag)
	}

	path, err := w.WriteArtifact(artifact.Name(stem, rec.Partition, rec.Tag), raw)
	if err != nil {
		return errors.Wrapf(err, "extract %s", rec.Partition)
	}
	rec.Paths = append(rec.Paths, path)

	if rec.Decrypted != nil {
		path, err := w.WriteArtifact(artifact.Name(stem, rec.Partition, decryptedTag), rec.Decrypted)
		if err != nil {
			return errors.Wrapf(err, "extract decrypted %s", rec.Partition)
		}
		rec.Paths = append(rec.Paths, path)
	}

	d.logDebug("extracted", "partition", rec.Partition, "paths", rec.Paths)
	d.emit(Event{Kind: EventExtracted, Partition: rec.Partition, Paths: rec.Paths})
	return nil
}

// emit calls the event callback if configured.
func (d *Dissector) emit(e Event) {
	if d.config.EventCallback != nil {
		d.config.EventCallback(e)
	}
}

// logDebug logs a debug message if a logger is configured.
func (d *Dissector) logDebug(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (d *Dissector) logInfo(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (d *Dissector) logError(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Error(msg, keysAndValues...)
	}
}
